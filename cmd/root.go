/*
Package cmd supports the command-line interface for the hiservice utility.

Copyright © 2020 Eldrix Ltd and Mark Wardle (mark@wardle.org)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/wardle/hiservice/hiservice"
)

var cfgFile string

// Version is set at build time
var Version string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hiservice",
	Short: "hiservice is a client for the Australian Healthcare Identifiers Service",
	Long: `
hiservice is a client for the Australian Healthcare Identifiers (HI) Service.

It validates and submits batches of searches for individual healthcare
identifiers (IHIs), reads provider reference data, and can run as a REST
server for applications that cannot hold the organisation's NASH certificate
themselves.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		warnIfHTTPProxy()
		if logfile := viper.GetString("log"); logfile != "" {
			f, err := os.OpenFile(logfile, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0666)
			if err != nil {
				log.Fatalf("fatal error: couldn't open log file ('%s'): %s", logfile, err)
			}
			log.SetOutput(f)
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = Version
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.hiservice.yaml)")

	rootCmd.PersistentFlags().String("log", "", "Log file to use")
	viper.BindPFlag("log", rootCmd.PersistentFlags().Lookup("log"))

	rootCmd.PersistentFlags().Bool("fake", false, "Run with fake results")
	viper.BindPFlag("fake", rootCmd.PersistentFlags().Lookup("fake"))

	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml or json")
	viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))

	// HI Service endpoint
	rootCmd.PersistentFlags().String("endpoint", "T", "HI Service endpoint - (P)roduction or vendor (T)est")
	viper.BindPFlag("endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
	rootCmd.PersistentFlags().String("endpoint-url", "", "URL for HI Service endpoint (if different to default for P/T)")
	viper.BindPFlag("endpoint-url", rootCmd.PersistentFlags().Lookup("endpoint-url"))
	rootCmd.PersistentFlags().Int("timeout-seconds", 30, "Timeout for calls to the HI Service")
	viper.BindPFlag("timeout-seconds", rootCmd.PersistentFlags().Lookup("timeout-seconds"))
	rootCmd.PersistentFlags().Int("cache-minutes", 60, "Reference data cache expiration in minutes, 0=no cache")
	viper.BindPFlag("cache-minutes", rootCmd.PersistentFlags().Lookup("cache-minutes"))

	// organisation certificate
	rootCmd.PersistentFlags().String("keystore", "", "PKCS#12 keystore containing the organisation's NASH certificate")
	viper.BindPFlag("keystore", rootCmd.PersistentFlags().Lookup("keystore"))
	rootCmd.PersistentFlags().String("keystore-password", "", "Password for the keystore")
	viper.BindPFlag("keystore-password", rootCmd.PersistentFlags().Lookup("keystore-password"))
	rootCmd.PersistentFlags().String("ca-certificates", "", "PEM bundle of certificate authorities to trust (default host roots)")
	viper.BindPFlag("ca-certificates", rootCmd.PersistentFlags().Lookup("ca-certificates"))

	// product and user identification, sent in the header of every request
	rootCmd.PersistentFlags().String("product-name", "hiservice", "Product name, as registered with the HI Service")
	viper.BindPFlag("product.name", rootCmd.PersistentFlags().Lookup("product-name"))
	rootCmd.PersistentFlags().String("product-version", "1.0", "Product version, as registered with the HI Service")
	viper.BindPFlag("product.version", rootCmd.PersistentFlags().Lookup("product-version"))
	rootCmd.PersistentFlags().String("vendor-id", "", "Vendor identifier, as issued by the HI Service")
	viper.BindPFlag("product.vendor-id", rootCmd.PersistentFlags().Lookup("vendor-id"))
	rootCmd.PersistentFlags().String("vendor-qualifier", "", "Vendor qualifier (default HI Service vendor namespace)")
	viper.BindPFlag("product.vendor-qualifier", rootCmd.PersistentFlags().Lookup("vendor-qualifier"))
	rootCmd.PersistentFlags().String("user-id", "", "Identifier of the user making requests")
	viper.BindPFlag("user-id", rootCmd.PersistentFlags().Lookup("user-id"))
	rootCmd.PersistentFlags().String("user-qualifier", "", "Qualifier for the user identifier")
	viper.BindPFlag("user-qualifier", rootCmd.PersistentFlags().Lookup("user-qualifier"))
	rootCmd.PersistentFlags().String("hpio", "", "HPI-O of the organisation on whose behalf requests are made (contracted service providers only)")
	viper.BindPFlag("hpio", rootCmd.PersistentFlags().Lookup("hpio"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".hiservice" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".hiservice")
	}

	viper.SetEnvPrefix("HISERVICE")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// configFromViper builds the HI Service configuration from flags, environment and config file
func configFromViper() (hiservice.Config, error) {
	cfg := hiservice.Config{
		Endpoint:           hiservice.LookupEndpoint(viper.GetString("endpoint")),
		EndpointURL:        viper.GetString("endpoint-url"),
		UserID:             viper.GetString("user-id"),
		UserQualifier:      viper.GetString("user-qualifier"),
		HPIO:               viper.GetString("hpio"),
		Timeout:            time.Duration(viper.GetInt("timeout-seconds")) * time.Second,
		CacheExpiry:        time.Duration(viper.GetInt("cache-minutes")) * time.Minute,
		KeystorePath:       viper.GetString("keystore"),
		KeystorePassword:   viper.GetString("keystore-password"),
		CACertificatesPath: viper.GetString("ca-certificates"),
		Fake:               viper.GetBool("fake"),
		Product: hiservice.Product{
			Platform:        viper.GetString("product.platform"),
			Name:            viper.GetString("product.name"),
			Version:         viper.GetString("product.version"),
			VendorID:        viper.GetString("product.vendor-id"),
			VendorQualifier: viper.GetString("product.vendor-qualifier"),
		},
	}
	if cfg.Product.Platform == "" {
		cfg.Product.Platform = runtime.GOOS + "/" + runtime.GOARCH
	}
	if cfg.Endpoint == hiservice.UnknownEndpoint && cfg.EndpointURL == "" && !cfg.Fake {
		return cfg, fmt.Errorf("unknown endpoint: %s", viper.GetString("endpoint"))
	}
	return cfg, nil
}

// Log some important configuration variables which can cause live service failings.
// Directly use an environmental variable lookup, rather than viper, as that looks for upper case versions of the requested variable
func warnIfHTTPProxy() {
	httpProxy, exists := os.LookupEnv("http_proxy") // give warning if proxy set, to help debug connection errors in live
	if exists {
		log.Printf("warning: http proxy set to %s\n", httpProxy)
	}
	httpsProxy, exists := os.LookupEnv("https_proxy")
	if exists {
		log.Printf("warning: https proxy set to %s\n", httpsProxy)
	}
}
