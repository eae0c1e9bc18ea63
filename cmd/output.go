package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/wardle/hiservice/hiservice"
)

// newApp creates a HI Service client from the current configuration, or exits
func newApp(opts ...hiservice.Option) *hiservice.App {
	cfg, err := configFromViper()
	if err != nil {
		log.Fatal(err)
	}
	return newAppFromConfig(cfg, opts...)
}

func newAppFromConfig(cfg hiservice.Config, opts ...hiservice.Option) *hiservice.App {
	app, err := hiservice.New(cfg, opts...)
	if err != nil {
		log.Fatal(err)
	}
	return app
}

func printOutput(v interface{}) {
	if err := writeOutput(os.Stdout, viper.GetString("format"), v); err != nil {
		log.Fatal(err)
	}
}

// writeOutput writes v to w as yaml or json
func writeOutput(w io.Writer, format string, v interface{}) error {
	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return fmt.Errorf("unsupported output format: '%s'", format)
}
