package sampler

import (
	"os"
	"syscall"
	"testing"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/pgtop/internal/activity"
)

func TestIsLocalHost(t *testing.T) {
	hostname, err := os.Hostname()
	require.NoError(t, err)

	tests := []struct {
		host   string
		expect bool
	}{
		{"", true},
		{"/var/run/postgresql", true},
		{"localhost", true},
		{"LOCALHOST", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"127.0.0.53", true},
		{hostname, true},
		{"db.example.com", false},
		{"10.1.2.3", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.expect, IsLocalHost(tt.host))
		})
	}
}

func TestSample_OwnProcess(t *testing.T) {
	s := New()

	sample, err := s.Sample(int32(os.Getpid()))

	require.NoError(t, err)
	assert.GreaterOrEqual(t, sample.CPUPercent, 0.0)
	assert.GreaterOrEqual(t, sample.MemPercent, 0.0)
}

func TestSample_VanishedProcess(t *testing.T) {
	s := New()

	// Pid well above any default pid_max.
	_, err := s.Sample(1 << 22)

	require.Error(t, err)
	assert.ErrorIs(t, err, activity.ErrNoProcess)
}

func TestSample_CachesHandles(t *testing.T) {
	s := New()
	pid := int32(os.Getpid())

	_, err := s.Sample(pid)
	require.NoError(t, err)
	_, err = s.Sample(pid)
	require.NoError(t, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Len(t, s.procs, 1)
}

func TestPrune(t *testing.T) {
	s := New()
	pid := int32(os.Getpid())

	_, err := s.Sample(pid)
	require.NoError(t, err)

	s.Prune(nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Empty(t, s.procs)
}

func TestMapError(t *testing.T) {
	assert.ErrorIs(t, mapError(syscall.EACCES), activity.ErrAccessDenied)
	assert.ErrorIs(t, mapError(syscall.EPERM), activity.ErrAccessDenied)
	assert.ErrorIs(t, mapError(syscall.ESRCH), activity.ErrNoProcess)
	assert.ErrorIs(t, mapError(process.ErrorProcessNotRunning), activity.ErrNoProcess)
}
