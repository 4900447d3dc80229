package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/pgtop/internal/errors"
)

// Command-specific flags
var (
	topFlags TopFlags

	initForce bool

	killForce   bool
	cancelForce bool
)

// initCmd creates a new .pgtop.yaml configuration
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .pgtop.yaml configuration",
	Long: `Initialize a new pgtop configuration file.

Creates a .pgtop.yaml file in the current directory with sensible
defaults and a comment for every setting.

Examples:
  pgtop init
  pgtop init --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initConfigCommand(initForce)
	},
}

// killCmd terminates a backend without starting the TUI
var killCmd = &cobra.Command{
	Use:   "kill <pid>",
	Short: "Terminate a backend",
	Long: `Terminate one backend by pid using pg_terminate_backend().

The backend's connection is closed and any open transaction rolls back.
Asks for confirmation unless --force is given.

Examples:
  pgtop kill 12345
  pgtop kill --force 12345`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := parsePID(args[0])
		if err != nil {
			return err
		}
		return signalCommand(signalTerminate, pid, killForce)
	},
}

// cancelCmd cancels a backend's running query without starting the TUI
var cancelCmd = &cobra.Command{
	Use:   "cancel <pid>",
	Short: "Cancel a backend's current query",
	Long: `Cancel the running query of one backend by pid using
pg_cancel_backend(). The connection itself stays open.

Examples:
  pgtop cancel 12345
  pgtop cancel --force 12345`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := parsePID(args[0])
		if err != nil {
			return err
		}
		return signalCommand(signalCancel, pid, cancelForce)
	},
}

// parsePID validates a numeric backend pid argument.
func parsePID(arg string) (int32, error) {
	pid, err := strconv.ParseInt(arg, 10, 32)
	if err != nil || pid <= 0 {
		return 0, errors.New(errors.ErrExec,
			"'"+arg+"' is not a valid backend pid",
			"Find the pid in the PID column of the monitor, or in pg_stat_activity.")
	}
	return int32(pid), nil
}

func init() {
	AddTopFlags(rootCmd, &topFlags)

	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")

	AddConnectionFlags(killCmd, &topFlags)
	killCmd.Flags().BoolVar(&killForce, "force", false, "skip the confirmation prompt")

	AddConnectionFlags(cancelCmd, &topFlags)
	cancelCmd.Flags().BoolVar(&cancelForce, "force", false, "skip the confirmation prompt")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(killCmd)
	rootCmd.AddCommand(cancelCmd)
}
