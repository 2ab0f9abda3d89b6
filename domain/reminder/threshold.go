// Package reminder defines the deadline notification thresholds and the
// policy that picks which one, if any, is due for a task.
package reminder

import (
	"sort"
	"time"
)

// Key identifies a threshold. The value doubles as the storage column name.
type Key string

const (
	Key24h Key = "notified_24h"
	Key12h Key = "notified_12h"
	Key6h  Key = "notified_6h"
	Key3h  Key = "notified_3h"
	Key1h  Key = "notified_1h"
	Key15m Key = "notified_15m"
	KeyDue Key = "notified_final_due"
)

// Threshold is a named offset before the due time at which one
// notification may fire. The terminal threshold has a zero offset and
// also covers any overdue time.
type Threshold struct {
	Key      Key
	Offset   time.Duration
	Label    string
	Terminal bool
}

// thresholds is sorted by ascending offset, terminal first.
var thresholds = sorted([]Threshold{
	{Key: Key24h, Offset: 24 * time.Hour, Label: "in less than 24 hours"},
	{Key: Key12h, Offset: 12 * time.Hour, Label: "in less than 12 hours"},
	{Key: Key6h, Offset: 6 * time.Hour, Label: "in less than 6 hours"},
	{Key: Key3h, Offset: 3 * time.Hour, Label: "in less than 3 hours"},
	{Key: Key1h, Offset: time.Hour, Label: "in less than 1 hour"},
	{Key: Key15m, Offset: 15 * time.Minute, Label: "in less than 15 minutes"},
	{Key: KeyDue, Offset: 0, Label: "NOW or is OVERDUE", Terminal: true},
})

func sorted(ts []Threshold) []Threshold {
	out := make([]Threshold, len(ts))
	copy(out, ts)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// All returns the thresholds ordered by decreasing offset.
func All() []Threshold {
	out := make([]Threshold, 0, len(thresholds))
	for i := len(thresholds) - 1; i >= 0; i-- {
		out = append(out, thresholds[i])
	}
	return out
}

// Lookup returns the threshold for key.
func Lookup(key Key) (Threshold, bool) {
	for _, th := range thresholds {
		if th.Key == key {
			return th, true
		}
	}
	return Threshold{}, false
}

// Set is the set of thresholds already notified for a task.
type Set map[Key]bool

// Has reports whether key is in the set.
func (s Set) Has(key Key) bool {
	return s[key]
}

// With returns a copy of s that also contains key.
func (s Set) With(key Key) Set {
	out := make(Set, len(s)+1)
	for k, v := range s {
		if v {
			out[k] = true
		}
	}
	out[key] = true
	return out
}

// Keys returns the members of s in decreasing-offset order.
func (s Set) Keys() []Key {
	var keys []Key
	for _, th := range All() {
		if s.Has(th.Key) {
			keys = append(keys, th.Key)
		}
	}
	return keys
}
