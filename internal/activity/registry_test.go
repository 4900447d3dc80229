package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSampler serves canned samples per pid and records which pids were
// asked for. Pids in the fail map return the mapped error.
type fakeSampler struct {
	samples map[int32]ResourceSample
	fail    map[int32]error
	calls   []int32
}

func (f *fakeSampler) Sample(pid int32) (ResourceSample, error) {
	f.calls = append(f.calls, pid)
	if err, ok := f.fail[pid]; ok {
		return ResourceSample{}, err
	}
	if s, ok := f.samples[pid]; ok {
		return s, nil
	}
	return ResourceSample{}, ErrNoProcess
}

func runningRow(pid int32) RunningRow {
	return RunningRow{
		PID:      pid,
		Database: "shop",
		User:     "app",
		Query:    "SELECT 1",
		State:    StateActive,
		Duration: 1.5,
	}
}

func TestRegistry_Merge_FirstSightingZeroBaseline(t *testing.T) {
	// Scenario: empty registry, one pid appears with counters at zero.
	base := time.Unix(0, 0)
	sampler := &fakeSampler{samples: map[int32]ResourceSample{
		100: {CPUPercent: 12, MemPercent: 3, IO: IOCounters{ReadBytes: 0}, IOTime: base},
	}}

	reg, records, _ := NewRegistry().Merge([]RunningRow{runningRow(100)}, sampler, 4096)

	require.Len(t, records, 1)
	require.NotNil(t, records[0].Local)
	assert.Equal(t, 0.0, records[0].Local.ReadRate)
	assert.Equal(t, 0.0, records[0].Local.WriteRate)
	assert.Equal(t, 12.0, records[0].Local.CPUPercent)
	assert.True(t, reg.Has(100))
}

func TestRegistry_Merge_ComputesRates(t *testing.T) {
	// Scenario: pid 100 read 1000 bytes at t=10, 5000 bytes at t=11.
	t10 := time.Unix(10, 0)
	t11 := time.Unix(11, 0)

	first := &fakeSampler{samples: map[int32]ResourceSample{
		100: {IO: IOCounters{ReadBytes: 1000}, IOTime: t10},
	}}
	reg, _, _ := NewRegistry().Merge([]RunningRow{runningRow(100)}, first, 4096)

	second := &fakeSampler{samples: map[int32]ResourceSample{
		100: {IO: IOCounters{ReadBytes: 5000}, IOTime: t11},
	}}
	_, records, agg := reg.Merge([]RunningRow{runningRow(100)}, second, 4096)

	require.Len(t, records, 1)
	require.NotNil(t, records[0].Local)
	assert.Equal(t, 4000.0, records[0].Local.ReadRate)
	assert.Equal(t, 4000.0, agg.ReadBytesPerSec)
}

func TestRegistry_Merge_ClockBackwardYieldsZeroRate(t *testing.T) {
	// Same as above but the second sample is timestamped earlier.
	t10 := time.Unix(10, 0)
	t9 := time.Unix(9, 0)

	first := &fakeSampler{samples: map[int32]ResourceSample{
		100: {IO: IOCounters{ReadBytes: 1000}, IOTime: t10},
	}}
	reg, _, _ := NewRegistry().Merge([]RunningRow{runningRow(100)}, first, 4096)

	second := &fakeSampler{samples: map[int32]ResourceSample{
		100: {IO: IOCounters{ReadBytes: 5000}, IOTime: t9},
	}}
	_, records, _ := reg.Merge([]RunningRow{runningRow(100)}, second, 4096)

	require.NotNil(t, records[0].Local)
	assert.Equal(t, 0.0, records[0].Local.ReadRate)
}

func TestRegistry_Merge_DropsVanishedPids(t *testing.T) {
	sampler := &fakeSampler{samples: map[int32]ResourceSample{
		100: {IOTime: time.Unix(1, 0)},
		101: {IOTime: time.Unix(1, 0)},
	}}
	reg, _, _ := NewRegistry().Merge([]RunningRow{runningRow(100), runningRow(101)}, sampler, 4096)
	require.Equal(t, 2, reg.Len())

	// pid 100 is gone from the next snapshot.
	reg, records, _ := reg.Merge([]RunningRow{runningRow(101)}, sampler, 4096)

	assert.Equal(t, 1, reg.Len())
	assert.False(t, reg.Has(100))
	assert.True(t, reg.Has(101))
	require.Len(t, records, 1)
	assert.Equal(t, int32(101), records[0].PID)
}

func TestRegistry_Merge_KeySetMatchesSnapshot(t *testing.T) {
	// No stale pids survive, no snapshot pid is missed, sampler or not.
	rows := []RunningRow{runningRow(5), runningRow(7), runningRow(9)}

	reg, records, _ := NewRegistry().Merge(rows, nil, 4096)

	assert.Equal(t, len(rows), reg.Len())
	for _, row := range rows {
		assert.True(t, reg.Has(row.PID))
	}
	require.Len(t, records, len(rows))
	// No sampler: no local stats anywhere.
	for _, rec := range records {
		assert.Nil(t, rec.Local)
	}
}

func TestRegistry_Merge_IdempotentAtZeroElapsed(t *testing.T) {
	// Merging the identical snapshot twice with the same sample time must
	// not divide by zero; rates are exactly zero the second time too.
	ts := time.Unix(50, 0)
	sampler := &fakeSampler{samples: map[int32]ResourceSample{
		100: {CPUPercent: 8, IO: IOCounters{ReadBytes: 1 << 20, WriteBytes: 1 << 18}, IOTime: ts},
	}}

	rows := []RunningRow{runningRow(100)}
	reg, recs1, _ := NewRegistry().Merge(rows, sampler, 4096)
	reg, recs2, agg := reg.Merge(rows, sampler, 4096)

	require.NotNil(t, recs2[0].Local)
	assert.Equal(t, 0.0, recs2[0].Local.ReadRate)
	assert.Equal(t, 0.0, recs2[0].Local.WriteRate)
	assert.Equal(t, AggregateIO{}, agg)
	assert.True(t, reg.Has(100))

	// Identical apart from rate fields.
	recs1[0].Local = nil
	recs2[0].Local = nil
	assert.Equal(t, recs1, recs2)
}

func TestRegistry_Merge_SamplerFailureKeepsBusinessFields(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"process vanished", ErrNoProcess},
		{"access denied", ErrAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler := &fakeSampler{
				samples: map[int32]ResourceSample{101: {IOTime: time.Unix(1, 0)}},
				fail:    map[int32]error{100: tt.err},
			}

			reg, records, _ := NewRegistry().Merge(
				[]RunningRow{runningRow(100), runningRow(101)}, sampler, 4096)

			// The failed pid still renders, just without extras.
			require.Len(t, records, 2)
			assert.Nil(t, records[0].Local)
			assert.Equal(t, "SELECT 1", records[0].Query)
			assert.NotNil(t, records[1].Local)

			// And it is still tracked in the registry.
			assert.True(t, reg.Has(100))
		})
	}
}

func TestRegistry_Merge_NegativeDurationClamped(t *testing.T) {
	row := runningRow(100)
	row.Duration = -3.7

	_, records, _ := NewRegistry().Merge([]RunningRow{row}, nil, 4096)

	require.Len(t, records, 1)
	assert.Equal(t, 0.0, records[0].Duration)
}

func TestOpsPerSec(t *testing.T) {
	tests := []struct {
		name      string
		byteRate  float64
		blockSize int64
		expect    int64
	}{
		{"floor conversion", 10000, 4096, 2},
		{"exact multiple", 8192, 4096, 2},
		{"below one block", 1000, 4096, 0},
		{"zero rate", 0, 4096, 0},
		{"negative rate never converts", -5000, 4096, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, opsPerSec(tt.byteRate, tt.blockSize))
		})
	}
}

func TestRegistry_Merge_AggregateSumsOnlyPositiveRates(t *testing.T) {
	t0 := time.Unix(10, 0)
	t1 := time.Unix(11, 0)

	first := &fakeSampler{samples: map[int32]ResourceSample{
		1: {IO: IOCounters{ReadBytes: 0}, IOTime: t0},
		2: {IO: IOCounters{ReadBytes: 9000}, IOTime: t0},
	}}
	reg, _, _ := NewRegistry().Merge([]RunningRow{runningRow(1), runningRow(2)}, first, 4096)

	// pid 1 read 10000 bytes; pid 2's counters reset (restart), rate 0.
	second := &fakeSampler{samples: map[int32]ResourceSample{
		1: {IO: IOCounters{ReadBytes: 10000}, IOTime: t1},
		2: {IO: IOCounters{ReadBytes: 100}, IOTime: t1},
	}}
	_, _, agg := reg.Merge([]RunningRow{runningRow(1), runningRow(2)}, second, 4096)

	assert.Equal(t, 10000.0, agg.ReadBytesPerSec)
	assert.Equal(t, int64(2), agg.ReadOpsPerSec)
	assert.Equal(t, 0.0, agg.WriteBytesPerSec)
	assert.Equal(t, int64(0), agg.WriteOpsPerSec)
}
