// Package sampler provides the host-local resource sampler backing pgtop's
// per-backend CPU/memory/I/O attribution. It is a thin adapter over
// gopsutil's process API and is only constructed when the monitored server
// runs on the same host.
package sampler

import (
	"errors"
	"net"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/rileyhilliard/pgtop/internal/activity"
)

// OS samples the local process table. Process handles are cached per pid:
// gopsutil computes CPU percent from the interval since the previous call
// on the same handle, so a fresh handle every tick would report usage
// since process start instead of usage this tick.
type OS struct {
	mu    sync.Mutex
	procs map[int32]*process.Process
}

// New returns a sampler over the local OS process table.
func New() *OS {
	return &OS{procs: make(map[int32]*process.Process)}
}

// Sample reads CPU%, memory%, cumulative I/O counters and the scheduler
// state for one pid. Returns activity.ErrNoProcess when the process is
// gone and activity.ErrAccessDenied when the OS refuses; both are
// per-pid conditions the caller tolerates.
func (s *OS) Sample(pid int32) (activity.ResourceSample, error) {
	proc, err := s.handle(pid)
	if err != nil {
		return activity.ResourceSample{}, mapError(err)
	}

	var sample activity.ResourceSample

	// Individual metric failures degrade to zero rather than losing the
	// whole sample; only a dead handle aborts.
	if cpu, err := proc.CPUPercent(); err == nil {
		sample.CPUPercent = cpu
	} else if gone(err) {
		s.drop(pid)
		return activity.ResourceSample{}, mapError(err)
	}

	if mem, err := proc.MemoryPercent(); err == nil {
		sample.MemPercent = float64(mem)
	}

	if io, err := proc.IOCounters(); err == nil && io != nil {
		sample.IO = activity.IOCounters{
			ReadBytes:  io.ReadBytes,
			WriteBytes: io.WriteBytes,
		}
		sample.IOTime = time.Now()
	}

	if statuses, err := proc.Status(); err == nil {
		for _, st := range statuses {
			// "D" state on Linux: uninterruptible sleep, almost
			// always waiting on disk.
			if st == process.Blocked {
				sample.DiskSleep = true
			}
		}
	}

	return sample, nil
}

// Prune drops cached handles for pids no longer in the snapshot so the
// cache tracks the live process set.
func (s *OS) Prune(live []int32) {
	keep := make(map[int32]struct{}, len(live))
	for _, pid := range live {
		keep[pid] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for pid := range s.procs {
		if _, ok := keep[pid]; !ok {
			delete(s.procs, pid)
		}
	}
}

func (s *OS) handle(pid int32) (*process.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if proc, ok := s.procs[pid]; ok {
		return proc, nil
	}
	proc, err := process.NewProcess(pid)
	if err != nil {
		return nil, err
	}
	s.procs[pid] = proc
	return proc, nil
}

func (s *OS) drop(pid int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.procs, pid)
}

// mapError folds OS-level failures into the two sentinel conditions the
// engine knows how to tolerate.
func mapError(err error) error {
	if denied(err) {
		return activity.ErrAccessDenied
	}
	return activity.ErrNoProcess
}

func gone(err error) bool {
	return errors.Is(err, process.ErrorProcessNotRunning) ||
		errors.Is(err, syscall.ESRCH) ||
		errors.Is(err, os.ErrNotExist)
}

func denied(err error) bool {
	return errors.Is(err, syscall.EACCES) ||
		errors.Is(err, syscall.EPERM) ||
		errors.Is(err, os.ErrPermission)
}

// IsLocalHost reports whether a connection host refers to this machine:
// empty (unix socket), a socket directory path, loopback, or our own
// hostname. Only then is per-process resource attribution possible.
func IsLocalHost(host string) bool {
	if host == "" || strings.HasPrefix(host, "/") {
		return true
	}
	switch strings.ToLower(host) {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return true
	}
	if name, err := os.Hostname(); err == nil && strings.EqualFold(name, host) {
		return true
	}
	return false
}
