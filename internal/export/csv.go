// Package export appends polled activity to a CSV file so a session can
// be replayed or graphed after the fact. Export failures are reported to
// the logger and never interrupt polling.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/rileyhilliard/pgtop/internal/activity"
	"github.com/rileyhilliard/pgtop/internal/errors"
	"github.com/rileyhilliard/pgtop/internal/logger"
)

var csvHeader = []string{
	"time", "mode", "pid", "database", "app", "user", "client",
	"state", "duration_s", "wait", "lock_mode", "lock_type", "relation",
	"cpu_pct", "mem_pct", "read_bps", "write_bps", "query",
}

// CSV writes one row per record per snapshot, with a header on the
// first write to a fresh file.
type CSV struct {
	path string
	log  logger.Logger

	file   *os.File
	writer *csv.Writer
}

// NewCSV prepares a sink for path. The file is opened lazily on the
// first Append so `--output` with no snapshots leaves no empty file.
func NewCSV(path string, log logger.Logger) *CSV {
	if log == nil {
		log = logger.Noop()
	}
	return &CSV{path: path, log: log}
}

// Append writes every record of the snapshot. It returns an error only
// for the caller's status line; the sink stays usable afterwards.
func (c *CSV) Append(snap activity.RenderSnapshot) error {
	if err := c.open(); err != nil {
		return err
	}
	for _, rec := range snap.Records {
		if err := c.writer.Write(recordRow(snap, rec)); err != nil {
			return errors.WrapWithCode(err, errors.ErrExport,
				fmt.Sprintf("Could not append to %s", c.path), "")
		}
	}
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return errors.WrapWithCode(err, errors.ErrExport,
			fmt.Sprintf("Could not flush %s", c.path), "")
	}
	return nil
}

// Close flushes and releases the file. Safe to call without a prior
// successful Append.
func (c *CSV) Close() error {
	if c.file == nil {
		return nil
	}
	c.writer.Flush()
	err := c.file.Close()
	c.file = nil
	c.writer = nil
	return err
}

func (c *CSV) open() error {
	if c.writer != nil {
		return nil
	}
	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrExport,
			fmt.Sprintf("Could not open %s for export", c.path),
			"Check the directory exists and is writable.")
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return errors.WrapWithCode(err, errors.ErrExport,
			fmt.Sprintf("Could not stat %s", c.path), "")
	}
	c.file = f
	c.writer = csv.NewWriter(f)
	if info.Size() == 0 {
		if err := c.writer.Write(csvHeader); err != nil {
			c.Close()
			return errors.WrapWithCode(err, errors.ErrExport,
				fmt.Sprintf("Could not write header to %s", c.path), "")
		}
	}
	c.log.Debug("exporting to %s", c.path)
	return nil
}

func recordRow(snap activity.RenderSnapshot, rec activity.ProcessRecord) []string {
	var cpu, mem, read, write string
	if rec.Local != nil {
		cpu = fmt.Sprintf("%.1f", rec.Local.CPUPercent)
		mem = fmt.Sprintf("%.1f", rec.Local.MemPercent)
		read = fmt.Sprintf("%.0f", rec.Local.ReadRate)
		write = fmt.Sprintf("%.0f", rec.Local.WriteRate)
	}
	wait := rec.WaitEvent
	if wait == "" && rec.Waiting {
		wait = "waiting"
	}
	return []string{
		snap.TakenAt.UTC().Format(time.RFC3339),
		snap.Mode.String(),
		fmt.Sprintf("%d", rec.PID),
		rec.Database,
		rec.AppName,
		rec.User,
		rec.Client,
		rec.State.String(),
		fmt.Sprintf("%.3f", rec.Duration),
		wait,
		string(rec.LockMode),
		string(rec.LockType),
		rec.Relation,
		cpu, mem, read, write,
		rec.Query,
	}
}
