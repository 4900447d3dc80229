package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/pgtop/internal/config"
	"github.com/rileyhilliard/pgtop/internal/errors"
)

// TopFlags holds the monitor's command-line overrides. Anything left at
// its zero value falls through to the config file, then to defaults.
type TopFlags struct {
	Host     string
	Port     int
	User     string
	Database string

	Interval string
	Mode     string
	Output   string

	FilterDB    string
	FilterUser  string
	MinDuration float64
}

// AddConnectionFlags registers the server connection flags on a command.
// kill and cancel share these with the monitor.
func AddConnectionFlags(cmd *cobra.Command, flags *TopFlags) {
	cmd.Flags().StringVar(&flags.Host, "host", "", "server host (default: local socket)")
	cmd.Flags().IntVarP(&flags.Port, "port", "p", 0, "server port")
	cmd.Flags().StringVarP(&flags.User, "user", "U", "", "role to connect as")
	cmd.Flags().StringVarP(&flags.Database, "dbname", "d", "", "database to connect to")
}

// AddTopFlags registers the monitor flags on a command.
func AddTopFlags(cmd *cobra.Command, flags *TopFlags) {
	AddConnectionFlags(cmd, flags)
	cmd.Flags().StringVar(&flags.Interval, "interval", "", "refresh interval (e.g. 2s, 500ms)")
	cmd.Flags().StringVar(&flags.Mode, "mode", "", "initial mode: running, waiting, or blocking")
	cmd.Flags().StringVar(&flags.Output, "output", "", "append each snapshot to this CSV file")
	cmd.Flags().StringVar(&flags.FilterDB, "filter-db", "", "only show backends in this database")
	cmd.Flags().StringVar(&flags.FilterUser, "filter-user", "", "only show backends of this role")
	cmd.Flags().Float64Var(&flags.MinDuration, "min-duration", 0, "hide queries younger than this many seconds")
}

// applyFlags overlays the command-line overrides onto the loaded config.
func applyFlags(cfg *config.Config, flags TopFlags) error {
	if flags.Host != "" {
		cfg.Connection.Host = flags.Host
	}
	if flags.Port != 0 {
		cfg.Connection.Port = flags.Port
	}
	if flags.User != "" {
		cfg.Connection.User = flags.User
	}
	if flags.Database != "" {
		cfg.Connection.Database = flags.Database
	}
	if flags.Interval != "" {
		d, err := time.ParseDuration(flags.Interval)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("'%s' doesn't look like a valid interval", flags.Interval),
				"Use a duration like 2s, 500ms, or 1m.")
		}
		cfg.Refresh.Interval = d
	}
	if flags.Output != "" {
		cfg.Export.Path = flags.Output
	}
	if flags.FilterDB != "" {
		cfg.Filters.Database = flags.FilterDB
	}
	if flags.FilterUser != "" {
		cfg.Filters.User = flags.FilterUser
	}
	if flags.MinDuration != 0 {
		cfg.Filters.MinDuration = flags.MinDuration
	}
	return nil
}
