package activity

import (
	"context"
	"time"

	"github.com/rileyhilliard/pgtop/internal/logger"
)

// Assembler orchestrates one polling tick: fetch raw rows for the current
// mode, merge them against the previous registry (running mode only), and
// emit a render-ready snapshot. It holds no mutable state of its own; the
// registry is threaded explicitly by the caller.
type Assembler struct {
	source    DataSource
	sampler   ResourceSampler // nil when the server is not local
	blockSize int64
	log       logger.Logger
}

// NewAssembler wires an assembler. sampler may be nil for non-local
// monitoring; blockSize must already be validated by config.
func NewAssembler(source DataSource, sampler ResourceSampler, blockSize int64, log logger.Logger) *Assembler {
	if log == nil {
		log = logger.Noop()
	}
	return &Assembler{source: source, sampler: sampler, blockSize: blockSize, log: log}
}

// Local reports whether host-resource attribution is active.
func (a *Assembler) Local() bool {
	return a.sampler != nil
}

// Tick performs one fetch-and-merge cycle. The returned registry replaces
// prev for the next tick. On a fetch error the previous registry is
// returned untouched so rate history survives a transient failure.
//
// Only running mode consults the sampler and the registry; lock-centric
// modes carry no process-resource attribution, and their ticks leave the
// running-mode rate history alone.
func (a *Assembler) Tick(ctx context.Context, mode QueryMode, prev Registry) (RenderSnapshot, Registry, error) {
	snap := RenderSnapshot{Mode: mode, TakenAt: time.Now()}

	switch mode {
	case ModeRunning:
		rows, err := a.source.FetchRunning(ctx)
		if err != nil {
			return snap, prev, err
		}
		next, records, agg := prev.Merge(rows, a.sampler, a.blockSize)
		snap.Records = records
		snap.IO = agg
		a.log.Debug("tick: %d running backends, %.0f B/s read, %.0f B/s write",
			len(records), agg.ReadBytesPerSec, agg.WriteBytesPerSec)
		return snap, next, nil

	case ModeWaiting:
		rows, err := a.source.FetchWaiting(ctx)
		if err != nil {
			return snap, prev, err
		}
		snap.Records = lockRecords(rows)
		return snap, prev, nil

	default: // ModeBlocking
		rows, err := a.source.FetchBlocking(ctx)
		if err != nil {
			return snap, prev, err
		}
		snap.Records = lockRecords(rows)
		return snap, prev, nil
	}
}

// Cancel asks the server to interrupt the backend's current query.
func (a *Assembler) Cancel(ctx context.Context, pid int32) (bool, error) {
	return a.source.Cancel(ctx, pid)
}

// Terminate asks the server to kill the backend outright.
func (a *Assembler) Terminate(ctx context.Context, pid int32) (bool, error) {
	return a.source.Terminate(ctx, pid)
}

func lockRecords(rows []LockRow) []ProcessRecord {
	records := make([]ProcessRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, recordFromLock(row))
	}
	return records
}
