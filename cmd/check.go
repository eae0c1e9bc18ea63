package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wardle/hiservice/ihi"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check (ihi|medicare) <number>",
	Args:  cobra.ExactArgs(2),
	Short: "Check the check digit of an IHI or Medicare card number, without calling the HI Service",
	Run: func(cmd *cobra.Command, args []string) {
		var valid bool
		formatted := args[1]
		switch args[0] {
		case "ihi":
			valid = ihi.IsValidIHI(args[1])
			if f := ihi.FormatIHI(args[1]); f != "" {
				formatted = f
			}
		case "medicare":
			valid = ihi.IsValidMedicareCardNumber(args[1])
		default:
			fmt.Fprintf(os.Stderr, "unknown number type: '%s' (must be ihi or medicare)\n", args[0])
			os.Exit(2)
		}
		if !valid {
			fmt.Printf("%s: invalid\n", formatted)
			os.Exit(1)
		}
		fmt.Printf("%s: valid\n", formatted)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
