package activity

import "sort"

// SortKey selects the metric records are ordered by.
type SortKey int

const (
	SortDuration SortKey = iota
	SortCPU
	SortMem
	SortRead
	SortWrite
)

// String returns a human-readable label for the sort key.
func (k SortKey) String() string {
	switch k {
	case SortDuration:
		return "duration"
	case SortCPU:
		return "CPU"
	case SortMem:
		return "MEM"
	case SortRead:
		return "read/s"
	case SortWrite:
		return "write/s"
	default:
		return "duration"
	}
}

// ApplicableTo reports whether the key makes sense for the mode: resource
// keys need running mode with local sampling, since lock rows never carry
// host stats.
func (k SortKey) ApplicableTo(mode QueryMode, local bool) bool {
	switch k {
	case SortDuration:
		return true
	default:
		return mode == ModeRunning && local
	}
}

// EffectiveSortKey resolves the key actually used: an inapplicable request
// silently falls back to duration.
func EffectiveSortKey(k SortKey, mode QueryMode, local bool) SortKey {
	if k.ApplicableTo(mode, local) {
		return k
	}
	return SortDuration
}

// SortRecords orders records in place, descending by the requested metric.
// The sort is stable, so records tied on the metric keep their snapshot
// order across repeated sorts. Inapplicable keys fall back to duration.
func SortRecords(records []ProcessRecord, key SortKey, mode QueryMode, local bool) {
	metric := metricFunc(EffectiveSortKey(key, mode, local))
	sort.SliceStable(records, func(i, j int) bool {
		return metric(records[i]) > metric(records[j])
	})
}

func metricFunc(key SortKey) func(ProcessRecord) float64 {
	switch key {
	case SortCPU:
		return func(r ProcessRecord) float64 {
			if r.Local == nil {
				return 0
			}
			return r.Local.CPUPercent
		}
	case SortMem:
		return func(r ProcessRecord) float64 {
			if r.Local == nil {
				return 0
			}
			return r.Local.MemPercent
		}
	case SortRead:
		return func(r ProcessRecord) float64 {
			if r.Local == nil {
				return 0
			}
			return r.Local.ReadRate
		}
	case SortWrite:
		return func(r ProcessRecord) float64 {
			if r.Local == nil {
				return 0
			}
			return r.Local.WriteRate
		}
	default:
		return func(r ProcessRecord) float64 { return r.Duration }
	}
}
