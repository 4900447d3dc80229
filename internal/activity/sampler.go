package activity

import (
	"errors"
	"time"
)

// Sampling failure modes the merge tolerates per pid. Anything else coming
// out of a sampler is treated the same way: no local data for that pid
// this tick.
var (
	// ErrNoProcess means the OS process vanished between the server
	// snapshot and the sampler read.
	ErrNoProcess = errors.New("process not found")

	// ErrAccessDenied means the OS refused access to the process table
	// entry (e.g. the server runs as another user).
	ErrAccessDenied = errors.New("access denied")
)

// ResourceSample is one host-level reading for a single process.
type ResourceSample struct {
	CPUPercent float64
	MemPercent float64
	IO         IOCounters
	IOTime     time.Time // when IO was read; rates need strictly increasing times
	DiskSleep  bool      // OS reports the process in uninterruptible disk sleep
}

// ResourceSampler abstracts the host OS process table. It is only available
// when the monitored server runs on the same host; callers hold nil
// otherwise and skip resource attribution entirely.
type ResourceSampler interface {
	Sample(pid int32) (ResourceSample, error)
}
