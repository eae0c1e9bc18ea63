/*
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
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wardle/hiservice/identifiers"
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <system> <value>",
	Args:  cobra.RangeArgs(0, 2),
	Short: "Resolve the value of an identifier defined by a tuple of system (uri) and value",
	Long: `Resolve the value of an identifier, checking and normalising it, e.g.

hiservice resolve http://ns.electronichealth.net.au/id/hi/ihi/1.0 "8003 6088 3335 7361"

Run without arguments to list the known identifier systems.
`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			for _, uri := range identifiers.Systems() {
				s, _ := identifiers.Lookup(uri)
				fmt.Fprintf(w, "%s\t%s\n", s.Name, s.URI)
			}
			w.Flush()
			return
		}
		if len(args) != 2 {
			log.Fatal("must specify both system and value")
		}
		app := newApp()
		app.RegisterResolvers()
		v, err := identifiers.Resolve(context.Background(), identifiers.Identifier{System: args[0], Value: args[1]})
		if err != nil {
			log.Fatal(err)
		}
		printOutput(v)
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
