package timeslot

import "sort"

// State labels a segment of a day.
type State string

const (
	StateUnavailable State = "unavailable"
	StateAvailable   State = "available"
	StateBusy        State = "busy"
)

// Segment is a labelled run of minutes.
type Segment struct {
	Interval
	State State
}

// Segments covers the whole day with labelled runs. Booked sessions are busy wherever they fall,
// free window time is available and everything else (including exception blocks) is unavailable.
func Segments(windows, exceptions, busy []Interval) []Segment {
	booked := Merge(Clip(busy))
	open := Subtract(Subtract(Clip(windows), exceptions), booked)

	pieces := make([]Segment, 0, len(open)+len(booked))
	for _, iv := range open {
		pieces = append(pieces, Segment{Interval: iv, State: StateAvailable})
	}
	for _, iv := range booked {
		pieces = append(pieces, Segment{Interval: iv, State: StateBusy})
	}
	sort.Slice(pieces, func(a, b int) bool { return pieces[a].Start < pieces[b].Start })

	var out []Segment
	push := func(seg Segment) {
		if seg.Start >= seg.End {
			return
		}
		if n := len(out); n > 0 && out[n-1].State == seg.State && out[n-1].End == seg.Start {
			out[n-1].End = seg.End
			return
		}
		out = append(out, seg)
	}

	cursor := 0
	for _, p := range pieces {
		if p.Start > cursor {
			push(Segment{Interval: Interval{Start: cursor, End: p.Start}, State: StateUnavailable})
		}
		push(p)
		cursor = p.End
	}
	push(Segment{Interval: Interval{Start: cursor, End: MinutesPerDay}, State: StateUnavailable})
	return out
}
