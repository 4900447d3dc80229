package activity

import "time"

// Rate converts two timestamped readings of a monotonic counter into a
// per-second rate. It never returns a negative or non-finite value:
// a non-increasing clock (skew, duplicate sample) or a counter that went
// backwards (process restart reset the OS counters) both yield 0.
func Rate(prevValue uint64, prevTime time.Time, currValue uint64, currTime time.Time) float64 {
	if !currTime.After(prevTime) {
		return 0
	}
	if currValue < prevValue {
		return 0
	}
	elapsed := currTime.Sub(prevTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(currValue-prevValue) / elapsed
}
