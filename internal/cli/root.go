// Package cli wires the cobra command tree: the default command starts
// the interactive monitor, subcommands cover one-shot administration.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// configFlag is the persistent --config override.
var configFlag string

// rootCmd starts the interactive monitor when invoked without a
// subcommand.
var rootCmd = &cobra.Command{
	Use:   "pgtop",
	Short: "Interactive activity monitor for PostgreSQL",
	Long: `pgtop polls a PostgreSQL server and shows its activity in a live,
sortable table: running queries, lock waits, and blocking backends.

When the server runs on this machine, each backend row also carries the
process's CPU, memory, and disk throughput.

Examples:
  pgtop
  pgtop --host db.internal --user admin --dbname orders
  pgtop --interval 5s --output activity.csv`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return topCommand(topFlags)
	},
}

// Execute runs the CLI. Structured errors already render their own
// cause and suggestion; the process exits non-zero on any failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// Config returns the --config flag value (empty = search defaults).
func Config() string {
	return configFlag
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to config file")
}
