// Package timeslot implements sorted-interval arithmetic on minute offsets within a day.
//
// Intervals are half-open: [Start, End). All functions are pure and never mutate their input.
package timeslot

import (
	"fmt"
	"sort"
	"strconv"
)

// MinutesPerDay is the exclusive upper bound of a day's minute offsets.
const MinutesPerDay = 24 * 60

// Interval is a span of minutes from midnight.
type Interval struct {
	Start int
	End   int
}

// Length returns the interval length in minutes.
func (i Interval) Length() int {
	return i.End - i.Start
}

// Valid reports whether the interval is non-empty and lies within a day.
func (i Interval) Valid() bool {
	return i.Start >= 0 && i.End <= MinutesPerDay && i.Start < i.End
}

// Contains reports whether other lies entirely inside i.
func (i Interval) Contains(other Interval) bool {
	return other.Start >= i.Start && other.End <= i.End
}

// Overlaps reports whether the two intervals share at least one minute.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

// String renders the interval as HH:MM-HH:MM.
func (i Interval) String() string {
	return fmt.Sprintf("%s-%s", Format(i.Start), Format(i.End))
}

// Parse converts an HH:MM clock time into minutes from midnight. "24:00" is accepted as end of day.
func Parse(clock string) (int, error) {
	if len(clock) != 5 || clock[2] != ':' {
		return 0, fmt.Errorf("invalid clock time %q", clock)
	}
	h, errH := strconv.Atoi(clock[:2])
	m, errM := strconv.Atoi(clock[3:])
	if errH != nil || errM != nil || h < 0 || m < 0 {
		return 0, fmt.Errorf("invalid clock time %q", clock)
	}
	if m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("clock time out of range %q", clock)
	}
	return h*60 + m, nil
}

// Format renders minutes from midnight as HH:MM.
func Format(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseRange parses a start/end clock pair into a non-empty interval.
func ParseRange(start, end string) (Interval, error) {
	s, err := Parse(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := Parse(end)
	if err != nil {
		return Interval{}, err
	}
	if s >= e {
		return Interval{}, fmt.Errorf("start %s must be before end %s", start, end)
	}
	return Interval{Start: s, End: e}, nil
}

func sorted(in []Interval) []Interval {
	out := make([]Interval, 0, len(in))
	for _, iv := range in {
		if iv.Start < iv.End {
			out = append(out, iv)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Start == out[b].Start {
			return out[a].End < out[b].End
		}
		return out[a].Start < out[b].Start
	})
	return out
}

// Merge sorts intervals and coalesces overlapping or touching ones.
func Merge(in []Interval) []Interval {
	ordered := sorted(in)
	if len(ordered) == 0 {
		return nil
	}
	merged := []Interval{ordered[0]}
	for _, iv := range ordered[1:] {
		last := &merged[len(merged)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// Subtract removes every block from the windows. A block strictly inside a window splits it in two.
// Blocks are merged first so overlapping blocks never free time twice.
func Subtract(windows, blocks []Interval) []Interval {
	base := Merge(windows)
	cuts := Merge(blocks)
	var out []Interval
	for _, w := range base {
		cursor := w.Start
		for _, b := range cuts {
			if b.End <= cursor {
				continue
			}
			if b.Start >= w.End {
				break
			}
			if b.Start > cursor {
				out = append(out, Interval{Start: cursor, End: b.Start})
			}
			if b.End > cursor {
				cursor = b.End
			}
			if cursor >= w.End {
				break
			}
		}
		if cursor < w.End {
			out = append(out, Interval{Start: cursor, End: w.End})
		}
	}
	return out
}

// FilterMinLength keeps intervals at least minutes long.
func FilterMinLength(in []Interval, minutes int) []Interval {
	out := make([]Interval, 0, len(in))
	for _, iv := range in {
		if iv.Length() >= minutes {
			out = append(out, iv)
		}
	}
	return out
}

// Fits reports whether candidate lies entirely inside one of the free intervals.
func Fits(free []Interval, candidate Interval) bool {
	for _, f := range free {
		if f.Contains(candidate) {
			return true
		}
	}
	return false
}

// Clip bounds intervals to a single day, dropping the ones left empty.
func Clip(in []Interval) []Interval {
	out := make([]Interval, 0, len(in))
	for _, iv := range in {
		if iv.Start < 0 {
			iv.Start = 0
		}
		if iv.End > MinutesPerDay {
			iv.End = MinutesPerDay
		}
		if iv.Start < iv.End {
			out = append(out, iv)
		}
	}
	return out
}
