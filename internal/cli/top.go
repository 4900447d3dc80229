package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jackc/pgx/v5"
	"golang.org/x/term"

	"github.com/rileyhilliard/pgtop/internal/activity"
	"github.com/rileyhilliard/pgtop/internal/config"
	"github.com/rileyhilliard/pgtop/internal/datasource"
	"github.com/rileyhilliard/pgtop/internal/errors"
	"github.com/rileyhilliard/pgtop/internal/export"
	"github.com/rileyhilliard/pgtop/internal/logger"
	"github.com/rileyhilliard/pgtop/internal/monitor"
	"github.com/rileyhilliard/pgtop/internal/sampler"
)

// connectTimeout bounds the initial connection and version probe.
const connectTimeout = 10 * time.Second

// topCommand loads config, connects, and runs the interactive monitor.
func topCommand(flags TopFlags) error {
	cfg, err := config.LoadOrDefault(Config())
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, flags); err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	mode, err := parseMode(flags.Mode)
	if err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New(errors.ErrExec,
			"stdout is not a terminal",
			"The monitor needs an interactive terminal. Use --output with cron-driven tooling instead.")
	}

	log := logger.Default()
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, connString(cfg.Connection))
	if err != nil {
		return errors.Wrap(err,
			fmt.Sprintf("Could not connect to %s", describeTarget(cfg.Connection)))
	}
	defer conn.Close(context.Background())

	src, err := datasource.New(ctx, conn, datasource.Filters{
		Database:    cfg.Filters.Database,
		User:        cfg.Filters.User,
		MinDuration: cfg.Filters.MinDuration,
	}, log)
	if err != nil {
		return err
	}

	// Host-resource columns only make sense when the server's backend
	// processes live on this machine.
	var res activity.ResourceSampler
	var prune func(live []int32)
	if sampler.IsLocalHost(cfg.Connection.Host) {
		s := sampler.New()
		res = s
		prune = s.Prune
	}

	var sink monitor.Sink
	if cfg.Export.Path != "" {
		csv := export.NewCSV(cfg.Export.Path, log)
		defer csv.Close()
		sink = csv
	}

	asm := activity.NewAssembler(src, res, cfg.BlockSize, log)
	model := monitor.New(asm, monitor.Options{
		Mode:        mode,
		Interval:    cfg.Refresh.Interval,
		MinInterval: cfg.Refresh.Min,
		MaxInterval: cfg.Refresh.Max,
		Budget:      cfg.Selection.InactivityTicks,
		Sink:        sink,
		Prune:       prune,
		Log:         log,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrExec,
			"The monitor exited unexpectedly", "")
	}
	return nil
}

// parseMode maps the --mode flag onto a query mode.
func parseMode(s string) (activity.QueryMode, error) {
	switch strings.ToLower(s) {
	case "", "running":
		return activity.ModeRunning, nil
	case "waiting":
		return activity.ModeWaiting, nil
	case "blocking":
		return activity.ModeBlocking, nil
	default:
		return activity.ModeRunning, errors.New(errors.ErrConfig,
			fmt.Sprintf("'%s' is not a valid mode", s),
			"Use running, waiting, or blocking.")
	}
}

// connString renders the connection settings as a libpq keyword/value
// string. Unset fields are omitted so PG* environment variables and
// ~/.pgpass keep working.
func connString(c config.ConnectionConfig) string {
	parts := []string{"application_name=pgtop"}
	if c.Host != "" {
		parts = append(parts, "host="+c.Host)
	}
	if c.Port != 0 {
		parts = append(parts, fmt.Sprintf("port=%d", c.Port))
	}
	if c.User != "" {
		parts = append(parts, "user="+c.User)
	}
	if c.Database != "" {
		parts = append(parts, "dbname="+c.Database)
	}
	return strings.Join(parts, " ")
}

// describeTarget names the server for error messages.
func describeTarget(c config.ConnectionConfig) string {
	host := c.Host
	if host == "" {
		host = "the local server"
	}
	if c.Port != 0 && c.Host != "" {
		return fmt.Sprintf("%s:%d", host, c.Port)
	}
	return host
}
