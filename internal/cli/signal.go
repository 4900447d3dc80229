package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/jackc/pgx/v5"

	"github.com/rileyhilliard/pgtop/internal/config"
	"github.com/rileyhilliard/pgtop/internal/datasource"
	"github.com/rileyhilliard/pgtop/internal/errors"
	"github.com/rileyhilliard/pgtop/internal/logger"
)

type signalAction int

const (
	signalCancel signalAction = iota
	signalTerminate
)

// signalCommand cancels or terminates one backend from the command line.
func signalCommand(action signalAction, pid int32, force bool) error {
	cfg, err := config.LoadOrDefault(Config())
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, topFlags); err != nil {
		return err
	}

	verb := "Cancel the running query of"
	if action == signalTerminate {
		verb = "Terminate"
	}

	if !force {
		var confirm bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("%s backend %d?", verb, pid)).
					Description("This cannot be undone").
					Value(&confirm),
			),
		)
		if err := form.Run(); err != nil {
			return nil
		}
		if !confirm {
			fmt.Println("Cancelled.")
			return nil
		}
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

	src, err := datasource.New(ctx, conn, datasource.Filters{}, log)
	if err != nil {
		return err
	}

	var ok bool
	if action == signalTerminate {
		ok, err = src.Terminate(ctx, pid)
	} else {
		ok, err = src.Cancel(ctx, pid)
	}
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(errors.ErrExec,
			fmt.Sprintf("Backend %d is already gone", pid),
			"It may have finished or been terminated by someone else.")
	}

	if action == signalTerminate {
		fmt.Printf("Terminated backend %d\n", pid)
	} else {
		fmt.Printf("Cancelled the running query of backend %d\n", pid)
	}
	return nil
}
