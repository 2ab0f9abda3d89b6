package reminder

import "time"

// Next returns the threshold to notify for a task due at due, given the
// thresholds already fired. At most one threshold is returned.
//
// An overdue or exactly-due task only ever gets the terminal threshold.
// Otherwise the timed thresholds are scanned from the smallest offset up and
// the first unfired one that covers the remaining time wins.
func Next(now, due time.Time, fired Set) (Threshold, bool) {
	remaining := due.Sub(now)

	for _, th := range thresholds {
		if fired.Has(th.Key) {
			continue
		}
		if th.Terminal {
			if remaining <= 0 {
				return th, true
			}
			continue
		}
		if remaining > 0 && remaining <= th.Offset {
			return th, true
		}
	}
	return Threshold{}, false
}
