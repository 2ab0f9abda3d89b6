// Package timezone resolves stored zone names and renders instants as
// local wall-clock strings.
package timezone

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	_ "time/tzdata"
)

// Reference is the zone used whenever no valid preference exists.
const Reference = "UTC"

// Layout is the rendering format for due dates shown to users.
const Layout = "2006-01-02 15:04"

const (
	placeholderNoDate  = "[No Date Set]"
	placeholderBadDate = "[Date Error]"
)

// ErrUnknownZone is returned by Validate for names that are not IANA zones.
var ErrUnknownZone = errors.New("invalid timezone")

// Validate reports whether name is a loadable IANA zone identifier.
func Validate(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownZone)
	}
	// "Local" resolves to the host zone, which is not a user preference.
	if name == "Local" {
		return fmt.Errorf("%w: %q", ErrUnknownZone, name)
	}
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownZone, name)
	}
	return nil
}

// Resolve returns the location for name, or UTC when name is empty or invalid.
func Resolve(name string) *time.Location {
	if strings.TrimSpace(name) == "" {
		return time.UTC
	}
	if err := Validate(name); err != nil {
		log.Printf("[timezone] Warning: %v, falling back to %s", err, Reference)
		return time.UTC
	}
	loc, _ := time.LoadLocation(strings.TrimSpace(name))
	return loc
}

// Name returns the zone name actually used for a stored preference.
func Name(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || Validate(name) != nil {
		return Reference
	}
	return name
}

// Format renders t in loc using Layout. It never fails: a missing instant
// or one that cannot be rendered degrades to a placeholder.
func Format(t *time.Time, loc *time.Location) string {
	if t == nil {
		return placeholderNoDate
	}
	if t.IsZero() {
		return placeholderBadDate
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(Layout)
}
