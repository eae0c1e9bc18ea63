package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"
)

// referenceCmd represents the reference command
var referenceCmd = &cobra.Command{
	Use:   "reference <element name>...",
	Args:  cobra.MinimumNArgs(1),
	Short: "Read reference data from the HI Service",
	Long: `Read reference data, such as code sets, from the HI Service, e.g.

hiservice reference providerTypeCode
hiservice reference providerSpecialty providerSpecialisation
`,
	Run: func(cmd *cobra.Command, args []string) {
		app := newApp()
		rd, err := app.ReadReferenceData(context.Background(), args...)
		if err != nil {
			log.Fatal(err)
		}
		printOutput(rd)
	},
}

func init() {
	rootCmd.AddCommand(referenceCmd)
}
