package activity

import "context"

// RunningRow is one raw pg_stat_activity row as delivered by the data
// source: duration already normalized to non-negative seconds, query text
// whitespace-collapsed.
type RunningRow struct {
	PID            int32
	Database       string
	AppName        string
	User           string
	Client         string
	Query          string
	State          BackendState
	Duration       float64
	ParallelWorker bool
	Waiting        bool
	WaitEvent      string
}

// LockRow is one raw lock-centric row (waiting or blocking mode).
type LockRow struct {
	PID            int32
	Database       string
	AppName        string
	User           string
	Client         string
	Query          string
	State          BackendState
	Duration       float64
	ParallelWorker bool
	LockMode       LockMode
	LockType       LockType
	Relation       string
}

// DataSource is the server-side collaborator. Implementations own the SQL
// and any server-version branching; the engine only sees uniform rows.
// Empty result slices are a normal outcome, not an error.
type DataSource interface {
	FetchRunning(ctx context.Context) ([]RunningRow, error)
	FetchWaiting(ctx context.Context) ([]LockRow, error)
	FetchBlocking(ctx context.Context) ([]LockRow, error)

	// Cancel interrupts the current query of a backend; Terminate kills
	// the backend. Both report whether the server acknowledged the signal.
	Cancel(ctx context.Context, pid int32) (bool, error)
	Terminate(ctx context.Context, pid int32) (bool, error)
}
