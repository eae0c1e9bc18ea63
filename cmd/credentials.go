package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/wardle/hiservice/server"
)

// credentialsCmd represents the credentials command
var credentialsCmd = &cobra.Command{
	Use:   "credentials <username>",
	Args:  cobra.ExactArgs(1),
	Short: "Generate credentials for a service account",
	Long: `Generate a random secret for a service account permitted to log in to the REST server.

Give the secret to the client, and add the hash to the server configuration file:

service-accounts:
  <username>: <hash>
`,
	Run: func(cmd *cobra.Command, args []string) {
		secret, hash, err := server.GenerateCredentials()
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("username: %s\nsecret:   %s\nhash:     %s\n", args[0], secret, hash)
	},
}

func init() {
	rootCmd.AddCommand(credentialsCmd)
}
