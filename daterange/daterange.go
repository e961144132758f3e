// Package daterange computes the [start, end] window for timetable queries.
// Unset sides default to the current week: Monday for the start, Sunday for
// the end, in the system local zone. The resolver never forces end >= start;
// the intranet is queried as given and may answer with an empty result set.
package daterange

import (
	"time"

	"github.com/opentam/tamclient/tamerrors"
)

// InputLayout is the literal date format accepted at the library boundary.
const InputLayout = "02.01.06"

// Resolver resolves optional date literals into calendar dates.
type Resolver struct {
	now func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithNow sets the clock function, primarily for testing.
func WithNow(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve parses the optional DD.MM.YY literals and fills the unset sides
// with the Monday and Sunday of the current week. "" and "0" both mean
// unset. A malformed literal is rejected naming the offending value.
func (r *Resolver) Resolve(startInput, endInput string) (start, end time.Time, err error) {
	today := startOfDay(r.now())

	start = startOfWeek(today)
	if set(startInput) {
		start, err = parseInput(startInput)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	end = startOfWeek(today).AddDate(0, 0, 6)
	if set(endInput) {
		end, err = parseInput(endInput)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return start, end, nil
}

func set(input string) bool {
	return input != "" && input != "0"
}

func parseInput(input string) (time.Time, error) {
	t, err := time.ParseInLocation(InputLayout, input, time.Local)
	if err != nil {
		return time.Time{}, &tamerrors.MalformedDateError{Value: input}
	}
	return t, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns the Monday of the week containing t.
func startOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return startOfDay(t.AddDate(0, 0, -(weekday - 1)))
}
