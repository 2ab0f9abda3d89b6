// Package duedate turns free-text due dates into absolute instants.
package duedate

import (
	"log"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// absolute layouts are tried before natural-language parsing.
var layouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006 15:04",
	"02.01.2006",
}

// Resolver resolves due-date text relative to the user's local time.
type Resolver struct {
	parser *when.Parser
}

// NewResolver creates a Resolver with English and common rules.
func NewResolver() *Resolver {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Resolver{parser: w}
}

// Resolve interprets text in loc relative to now and returns the instant in
// UTC. The second result is false when the text could not be understood.
func (r *Resolver) Resolve(text string, loc *time.Location, now time.Time) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t.UTC(), true
		}
	}

	result, err := r.parser.Parse(text, now.In(loc))
	if err != nil {
		log.Printf("[duedate] Warning: failed to parse %q: %v", text, err)
		return time.Time{}, false
	}
	if result == nil {
		return time.Time{}, false
	}
	return result.Time.UTC(), true
}
