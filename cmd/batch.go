package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wardle/hiservice/hiservice"
	"github.com/wardle/hiservice/ihi"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Args:  cobra.ExactArgs(1),
	Short: "Submit a batch of IHI searches from a YAML or JSON file",
	Long: `Submit a batch of IHI searches from a YAML or JSON file, e.g.

requests:
  - kind: basic
    requestIdentifier: 0b8e7e32-3f0b-4a9c-8d3e-6a1f7c2d9e10
    search:
      ihiNumber: "8003608833357361"
      familyName: SMITH
      dateOfBirth: "1980-01-01"
      sex: M
  - kind: detailed
    search:
      familyName: JONES
      dateOfBirth: "1975-06-30"
      sex: F

Every search is validated before the batch is submitted. Use '-' to read from stdin.
`,
	Run: func(cmd *cobra.Command, args []string) {
		var r io.Reader = os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				log.Fatal(err)
			}
			defer f.Close()
			r = f
		}
		batch, err := readBatch(r)
		if err != nil {
			log.Fatal(err)
		}
		app := newApp()
		results, err := app.SearchIHIBatch(context.Background(), batch)
		if err != nil {
			log.Fatal(err)
		}
		printOutput(struct {
			Results []hiservice.SearchResult `json:"results" yaml:"results"`
		}{Results: results})
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
}

type batchFile struct {
	Requests []batchRequest `yaml:"requests"`
}

type batchRequest struct {
	Kind              ihi.Kind           `yaml:"kind"`
	RequestIdentifier string             `yaml:"requestIdentifier"`
	Search            ihi.SearchCriteria `yaml:"search"`
}

// readBatch reads and validates a batch of searches
func readBatch(r io.Reader) (*ihi.Batch, error) {
	var bf batchFile
	if err := yaml.NewDecoder(r).Decode(&bf); err != nil {
		return nil, fmt.Errorf("invalid batch file: %w", err)
	}
	if len(bf.Requests) == 0 {
		return nil, hiservice.ErrEmptyBatch
	}
	batch := ihi.NewBatch()
	for i, req := range bf.Requests {
		if err := batch.Add(req.Kind, req.RequestIdentifier, req.Search); err != nil {
			return nil, fmt.Errorf("request %d: %w", i+1, err)
		}
	}
	return batch, nil
}
