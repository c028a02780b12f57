// Package interval implements half-open [start, end) time ranges.
package interval

import (
	"errors"
	"time"
)

// ErrInvalid is returned when start is not strictly before end.
var ErrInvalid = errors.New("interval start must be before end")

// Interval is a half-open time range. The zero value is not valid.
type Interval struct {
	start time.Time
	end   time.Time
}

// New builds an Interval normalised to UTC.
func New(start, end time.Time) (Interval, error) {
	if !IsValidRange(start, end) {
		return Interval{}, ErrInvalid
	}
	return Interval{start: start.UTC(), end: end.UTC()}, nil
}

// MustNew is New for literals in tests and fixtures; it panics on an invalid range.
func MustNew(start, end time.Time) Interval {
	iv, err := New(start, end)
	if err != nil {
		panic(err)
	}
	return iv
}

// Start returns the inclusive lower bound.
func (i Interval) Start() time.Time { return i.start }

// End returns the exclusive upper bound.
func (i Interval) End() time.Time { return i.end }

// Overlaps reports whether i and other share at least one instant.
func (i Interval) Overlaps(other Interval) bool {
	return Overlaps(i.start, i.end, other.start, other.end)
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// IsValidRange reports start < end.
func IsValidRange(start, end time.Time) bool {
	return start.Before(end)
}

// ParseInstant parses an RFC 3339 timestamp. A UTC offset or Z is mandatory.
func ParseInstant(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
