// Package activity implements the polling-and-reconciliation engine behind
// the pgtop display: merging successive server snapshots into rate-annotated
// records, tracking interactive selection across snapshots, and ordering
// records for rendering. It has no knowledge of SQL or the terminal; those
// live behind the DataSource and ResourceSampler interfaces.
package activity

import "time"

// QueryMode selects which class of server activity is being polled.
type QueryMode int

const (
	ModeRunning QueryMode = iota
	ModeWaiting
	ModeBlocking
)

// String returns a human-readable label for the query mode.
func (m QueryMode) String() string {
	switch m {
	case ModeRunning:
		return "running"
	case ModeWaiting:
		return "waiting"
	case ModeBlocking:
		return "blocking"
	default:
		return "unknown"
	}
}

// BackendState is the server-reported state of a backend.
type BackendState int

const (
	StateActive BackendState = iota
	StateIdle
	StateIdleInTx
	StateIdleInTxAborted
	StateOther
)

// String returns the display label for a backend state.
func (s BackendState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateIdle:
		return "idle"
	case StateIdleInTx:
		return "idle in tx"
	case StateIdleInTxAborted:
		return "idle in tx (aborted)"
	default:
		return "other"
	}
}

// LockMode is the mode of a held or requested lock.
type LockMode string

const (
	LockAccessShare          LockMode = "AccessShareLock"
	LockRowShare             LockMode = "RowShareLock"
	LockRowExclusive         LockMode = "RowExclusiveLock"
	LockShareUpdateExclusive LockMode = "ShareUpdateExclusiveLock"
	LockShare                LockMode = "ShareLock"
	LockShareRowExclusive    LockMode = "ShareRowExclusiveLock"
	LockExclusive            LockMode = "ExclusiveLock"
	LockAccessExclusive      LockMode = "AccessExclusiveLock"
)

// HighRisk reports whether this lock mode should be visually flagged.
func (m LockMode) HighRisk() bool {
	switch m {
	case LockExclusive, LockRowExclusive, LockAccessExclusive:
		return true
	}
	return false
}

// LockType is what kind of object the lock targets.
type LockType string

const (
	LockTypeRelation      LockType = "relation"
	LockTypeExtend        LockType = "extend"
	LockTypePage          LockType = "page"
	LockTypeTuple         LockType = "tuple"
	LockTypeTransactionID LockType = "transactionid"
	LockTypeVirtualXID    LockType = "virtualxid"
	LockTypeObject        LockType = "object"
	LockTypeUserLock      LockType = "userlock"
	LockTypeAdvisory      LockType = "advisory"
)

// RecordKind tags the variant of a ProcessRecord.
type RecordKind int

const (
	KindRunning RecordKind = iota
	KindLock
)

// ProcessRecord is one render-ready row: a backend observed in the latest
// snapshot, with lock fields populated for KindLock records and Local
// resource stats attached for KindRunning records when a sampler is active.
// Consumers switch on Kind rather than on a type hierarchy.
type ProcessRecord struct {
	Kind RecordKind

	PID            int32
	Database       string
	AppName        string
	User           string
	Client         string
	Query          string
	State          BackendState
	Duration       float64 // seconds, never negative
	ParallelWorker bool

	// KindRunning only.
	Waiting   bool
	WaitEvent string

	// KindLock only.
	LockMode LockMode
	LockType LockType
	Relation string

	// Host-local resource stats; nil when the server is not local,
	// the mode is not running, or sampling failed for this pid.
	Local *LocalStats
}

// LocalStats carries per-process host resource usage for one tick.
type LocalStats struct {
	CPUPercent float64
	MemPercent float64
	ReadRate   float64 // bytes/sec since the previous sighting
	WriteRate  float64
	IOWait     bool // process is in uninterruptible disk sleep
}

// IOCounters are cumulative OS-level I/O counters for a process.
type IOCounters struct {
	ReadBytes  uint64
	WriteBytes uint64
}

// AggregateIO sums per-process I/O rates across one merged snapshot.
// Ops figures are derived from byte rates via the configured block size
// and only ever computed from positive byte rates.
type AggregateIO struct {
	ReadBytesPerSec  float64
	WriteBytesPerSec float64
	ReadOpsPerSec    int64
	WriteOpsPerSec   int64
}

// RenderSnapshot is the per-tick output handed to the view layer.
type RenderSnapshot struct {
	Mode    QueryMode
	Records []ProcessRecord
	IO      AggregateIO
	TakenAt time.Time
}

// PIDs returns the pid of every record in snapshot order.
func (s RenderSnapshot) PIDs() []int32 {
	pids := make([]int32, len(s.Records))
	for i, r := range s.Records {
		pids[i] = r.PID
	}
	return pids
}
