package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/pgtop/internal/logger"
)

// fakeSource returns canned rows, or an error, per mode.
type fakeSource struct {
	running  []RunningRow
	waiting  []LockRow
	blocking []LockRow
	err      error

	cancelled  []int32
	terminated []int32
}

func (f *fakeSource) FetchRunning(ctx context.Context) ([]RunningRow, error) {
	return f.running, f.err
}

func (f *fakeSource) FetchWaiting(ctx context.Context) ([]LockRow, error) {
	return f.waiting, f.err
}

func (f *fakeSource) FetchBlocking(ctx context.Context) ([]LockRow, error) {
	return f.blocking, f.err
}

func (f *fakeSource) Cancel(ctx context.Context, pid int32) (bool, error) {
	f.cancelled = append(f.cancelled, pid)
	return true, nil
}

func (f *fakeSource) Terminate(ctx context.Context, pid int32) (bool, error) {
	f.terminated = append(f.terminated, pid)
	return true, nil
}

func TestAssembler_Tick_RunningMergesResources(t *testing.T) {
	src := &fakeSource{running: []RunningRow{runningRow(100), runningRow(200)}}
	sampler := &fakeSampler{samples: map[int32]ResourceSample{
		100: {CPUPercent: 25, IOTime: time.Unix(1, 0)},
		200: {CPUPercent: 5, IOTime: time.Unix(1, 0)},
	}}
	a := NewAssembler(src, sampler, 4096, logger.Noop())

	snap, reg, err := a.Tick(context.Background(), ModeRunning, NewRegistry())

	require.NoError(t, err)
	assert.Equal(t, ModeRunning, snap.Mode)
	require.Len(t, snap.Records, 2)
	require.NotNil(t, snap.Records[0].Local)
	assert.Equal(t, 25.0, snap.Records[0].Local.CPUPercent)
	assert.Equal(t, 2, reg.Len())
	assert.True(t, a.Local())
}

func TestAssembler_Tick_LockModesNoResourceAttribution(t *testing.T) {
	lockRow := LockRow{
		PID:      300,
		Database: "shop",
		Query:    "UPDATE orders SET ...",
		Duration: 12.5,
		LockMode: LockAccessExclusive,
		LockType: LockTypeRelation,
		Relation: "orders",
	}
	src := &fakeSource{waiting: []LockRow{lockRow}, blocking: []LockRow{lockRow}}
	sampler := &fakeSampler{samples: map[int32]ResourceSample{
		300: {CPUPercent: 99, IOTime: time.Unix(1, 0)},
	}}
	a := NewAssembler(src, sampler, 4096, logger.Noop())

	for _, mode := range []QueryMode{ModeWaiting, ModeBlocking} {
		t.Run(mode.String(), func(t *testing.T) {
			prev := NewRegistry()
			snap, reg, err := a.Tick(context.Background(), mode, prev)

			require.NoError(t, err)
			require.Len(t, snap.Records, 1)
			assert.Equal(t, KindLock, snap.Records[0].Kind)
			assert.Nil(t, snap.Records[0].Local)
			assert.Equal(t, LockAccessExclusive, snap.Records[0].LockMode)
			assert.True(t, snap.Records[0].LockMode.HighRisk())

			// Lock modes never touch the running-mode registry.
			assert.Equal(t, 0, reg.Len())
			assert.Empty(t, sampler.calls)
		})
	}
}

func TestAssembler_Tick_FetchErrorKeepsRegistry(t *testing.T) {
	sampler := &fakeSampler{samples: map[int32]ResourceSample{
		100: {IOTime: time.Unix(1, 0)},
	}}
	src := &fakeSource{running: []RunningRow{runningRow(100)}}
	a := NewAssembler(src, sampler, 4096, logger.Noop())

	_, reg, err := a.Tick(context.Background(), ModeRunning, NewRegistry())
	require.NoError(t, err)
	require.Equal(t, 1, reg.Len())

	// Connection drops mid-tick: the previous registry survives so rate
	// history isn't lost across the transient failure.
	src.err = errors.New("connection reset")
	_, next, err := a.Tick(context.Background(), ModeRunning, reg)

	assert.Error(t, err)
	assert.Equal(t, 1, next.Len())
	assert.True(t, next.Has(100))
}

func TestAssembler_Tick_EmptySnapshotIsNormal(t *testing.T) {
	a := NewAssembler(&fakeSource{}, nil, 4096, logger.Noop())

	snap, reg, err := a.Tick(context.Background(), ModeRunning, NewRegistry())

	require.NoError(t, err)
	assert.Empty(t, snap.Records)
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, AggregateIO{}, snap.IO)
	assert.False(t, a.Local())
}

func TestAssembler_Tick_DefensiveDurationClamp(t *testing.T) {
	// A hostile data source hands back a negative duration; rendering
	// must still see zero.
	row := runningRow(100)
	row.Duration = -42
	a := NewAssembler(&fakeSource{running: []RunningRow{row}}, nil, 4096, logger.Noop())

	snap, _, err := a.Tick(context.Background(), ModeRunning, NewRegistry())

	require.NoError(t, err)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, 0.0, snap.Records[0].Duration)
}
