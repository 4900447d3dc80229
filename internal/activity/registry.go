package activity

import (
	"math"
	"time"
)

// registryEntry is the carry-forward state for one pid: the last I/O
// counter reading and when it was taken. hasIO distinguishes "never
// sampled" from a genuine zero reading so a later sample is not diffed
// against a fake zero baseline.
type registryEntry struct {
	io     IOCounters
	ioTime time.Time
	hasIO  bool
}

// Registry maps pid -> last-known per-process sampling state. It is a plain
// value threaded by the caller through successive merges; each Merge returns
// a freshly built Registry whose key set exactly matches the incoming
// snapshot. There are no tombstones and no expiry: absence this tick is
// deletion.
type Registry struct {
	entries map[int32]registryEntry
}

// NewRegistry returns an empty registry.
func NewRegistry() Registry {
	return Registry{entries: make(map[int32]registryEntry)}
}

// Len returns the number of tracked pids.
func (r Registry) Len() int {
	return len(r.entries)
}

// Has reports whether a pid is currently tracked.
func (r Registry) Has(pid int32) bool {
	_, ok := r.entries[pid]
	return ok
}

// Merge reconciles the previous registry against an incoming raw snapshot.
// For each row it produces a render-ready record; when a sampler is
// supplied it attaches fresh CPU/memory readings and I/O rates computed
// against the pid's previous counters. Pids seen for the first time get a
// zero-rate baseline. Pids missing from the snapshot are dropped silently.
//
// A sampler failure for one pid (process gone, access denied) never aborts
// the merge: that record simply carries no local stats this tick.
func (r Registry) Merge(rows []RunningRow, sampler ResourceSampler, blockSize int64) (Registry, []ProcessRecord, AggregateIO) {
	next := NewRegistry()
	records := make([]ProcessRecord, 0, len(rows))

	var readSum, writeSum float64

	for _, row := range rows {
		rec := recordFromRunning(row)
		entry := registryEntry{}

		if sampler != nil {
			sample, err := sampler.Sample(row.PID)
			if err == nil {
				stats := &LocalStats{
					CPUPercent: sample.CPUPercent,
					MemPercent: sample.MemPercent,
					IOWait:     sample.DiskSleep,
				}
				if prev, ok := r.entries[row.PID]; ok && prev.hasIO {
					stats.ReadRate = Rate(prev.io.ReadBytes, prev.ioTime, sample.IO.ReadBytes, sample.IOTime)
					stats.WriteRate = Rate(prev.io.WriteBytes, prev.ioTime, sample.IO.WriteBytes, sample.IOTime)
				}
				rec.Local = stats
				entry = registryEntry{io: sample.IO, ioTime: sample.IOTime, hasIO: true}

				if stats.ReadRate > 0 {
					readSum += stats.ReadRate
				}
				if stats.WriteRate > 0 {
					writeSum += stats.WriteRate
				}
			}
		}

		next.entries[row.PID] = entry
		records = append(records, rec)
	}

	agg := AggregateIO{
		ReadBytesPerSec:  readSum,
		WriteBytesPerSec: writeSum,
		ReadOpsPerSec:    opsPerSec(readSum, blockSize),
		WriteOpsPerSec:   opsPerSec(writeSum, blockSize),
	}
	return next, records, agg
}

// opsPerSec converts a byte rate to whole operations per second at the
// given filesystem block size. Only positive rates convert; anything else
// is zero ops.
func opsPerSec(byteRate float64, blockSize int64) int64 {
	if byteRate <= 0 || blockSize <= 0 {
		return 0
	}
	return int64(math.Floor(byteRate / float64(blockSize)))
}

// recordFromRunning lifts a raw running row into a render record,
// re-clamping the duration in case the data source misbehaved.
func recordFromRunning(row RunningRow) ProcessRecord {
	return ProcessRecord{
		Kind:           KindRunning,
		PID:            row.PID,
		Database:       row.Database,
		AppName:        row.AppName,
		User:           row.User,
		Client:         row.Client,
		Query:          row.Query,
		State:          row.State,
		Duration:       clampDuration(row.Duration),
		ParallelWorker: row.ParallelWorker,
		Waiting:        row.Waiting,
		WaitEvent:      row.WaitEvent,
	}
}

// recordFromLock lifts a raw lock row into a render record.
func recordFromLock(row LockRow) ProcessRecord {
	return ProcessRecord{
		Kind:           KindLock,
		PID:            row.PID,
		Database:       row.Database,
		AppName:        row.AppName,
		User:           row.User,
		Client:         row.Client,
		Query:          row.Query,
		State:          row.State,
		Duration:       clampDuration(row.Duration),
		ParallelWorker: row.ParallelWorker,
		LockMode:       row.LockMode,
		LockType:       row.LockType,
		Relation:       row.Relation,
	}
}

// clampDuration normalizes durations from the data source. Negative and
// NaN values (clock skew on the server, missing query_start) clamp to zero.
func clampDuration(d float64) float64 {
	if math.IsNaN(d) || d < 0 {
		return 0
	}
	return d
}
