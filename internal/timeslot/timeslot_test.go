package timeslot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func iv(t *testing.T, start, end string) Interval {
	t.Helper()
	r, err := ParseRange(start, end)
	require.NoError(t, err)
	return r
}

func TestParseAndFormat(t *testing.T) {
	m, err := Parse("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, m)
	assert.Equal(t, "09:30", Format(m))

	end, err := Parse("24:00")
	require.NoError(t, err)
	assert.Equal(t, MinutesPerDay, end)

	for _, bad := range []string{"9:30", "25:00", "10:60", "24:01", "ab:cd", ""} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}

	_, err = ParseRange("12:00", "09:00")
	assert.Error(t, err)
}

func TestSubtractSplitsWindowAroundBooking(t *testing.T) {
	window := iv(t, "09:00", "12:00")
	booked := iv(t, "10:00", "11:30")

	free := FilterMinLength(Subtract([]Interval{window}, []Interval{booked}), 60)

	require.Len(t, free, 1)
	assert.Equal(t, "09:00-10:00", free[0].String())

	all := Subtract([]Interval{window}, []Interval{booked})
	require.Len(t, all, 2)
	assert.Equal(t, "09:00-10:00", all[0].String())
	assert.Equal(t, "11:30-12:00", all[1].String())
}

func TestSubtractReconstructsWindow(t *testing.T) {
	window := iv(t, "08:00", "18:00")
	block := iv(t, "11:15", "13:45")

	pieces := Subtract([]Interval{window}, []Interval{block})
	require.Len(t, pieces, 2)

	total := 0
	for _, p := range pieces {
		assert.False(t, p.Overlaps(block))
		total += p.Length()
	}
	assert.Equal(t, window.Length(), total+block.Length())
	assert.Equal(t, window.Start, pieces[0].Start)
	assert.Equal(t, block.Start, pieces[0].End)
	assert.Equal(t, block.End, pieces[1].Start)
	assert.Equal(t, window.End, pieces[1].End)
}

func TestSubtractMergesOverlappingBlocks(t *testing.T) {
	window := iv(t, "09:00", "13:00")
	blocks := []Interval{iv(t, "10:00", "11:00"), iv(t, "10:30", "11:30"), iv(t, "11:30", "12:00")}

	free := Subtract([]Interval{window}, blocks)

	require.Len(t, free, 2)
	assert.Equal(t, "09:00-10:00", free[0].String())
	assert.Equal(t, "12:00-13:00", free[1].String())
}

func TestSubtractEdgeCases(t *testing.T) {
	window := iv(t, "09:00", "10:00")

	assert.Empty(t, Subtract(nil, []Interval{window}))
	assert.Equal(t, []Interval{window}, Subtract([]Interval{window}, nil))
	assert.Empty(t, Subtract([]Interval{window}, []Interval{iv(t, "08:00", "11:00")}))
	assert.Equal(t, []Interval{window}, Subtract([]Interval{window}, []Interval{iv(t, "10:00", "11:00")}))

	free := Subtract([]Interval{iv(t, "14:00", "16:00"), window}, []Interval{iv(t, "09:30", "14:30")})
	require.Len(t, free, 2)
	assert.Equal(t, "09:00-09:30", free[0].String())
	assert.Equal(t, "14:30-16:00", free[1].String())
}

func TestFilterMinLengthNeverReturnsShortSlots(t *testing.T) {
	in := []Interval{iv(t, "09:00", "09:45"), iv(t, "10:00", "11:00"), iv(t, "12:00", "14:00")}
	for _, d := range []int{30, 45, 60, 90, 120, 121} {
		for _, slot := range FilterMinLength(in, d) {
			assert.GreaterOrEqual(t, slot.Length(), d)
		}
	}
	assert.Len(t, FilterMinLength(in, 60), 2)
	assert.Empty(t, FilterMinLength(in, 121))
}

func TestFits(t *testing.T) {
	free := []Interval{iv(t, "09:00", "10:00"), iv(t, "11:30", "12:00")}

	assert.True(t, Fits(free, iv(t, "09:00", "10:00")))
	assert.True(t, Fits(free, iv(t, "11:30", "12:00")))
	assert.False(t, Fits(free, iv(t, "09:30", "10:30")))
	assert.False(t, Fits(free, iv(t, "08:59", "09:30")))
}

func TestSegmentsCoverWholeDay(t *testing.T) {
	windows := []Interval{iv(t, "09:00", "12:00"), iv(t, "14:00", "16:00")}
	exceptions := []Interval{iv(t, "15:00", "16:00")}
	busy := []Interval{iv(t, "10:00", "11:30")}

	segs := Segments(windows, exceptions, busy)

	expected := []struct {
		span  string
		state State
	}{
		{"00:00-09:00", StateUnavailable},
		{"09:00-10:00", StateAvailable},
		{"10:00-11:30", StateBusy},
		{"11:30-12:00", StateAvailable},
		{"12:00-14:00", StateUnavailable},
		{"14:00-15:00", StateAvailable},
		{"15:00-24:00", StateUnavailable},
	}
	require.Len(t, segs, len(expected))
	for i, want := range expected {
		assert.Equal(t, want.span, segs[i].String())
		assert.Equal(t, want.state, segs[i].State)
	}
}

func TestSegmentsWithoutAvailability(t *testing.T) {
	segs := Segments(nil, nil, nil)
	require.Len(t, segs, 1)
	assert.Equal(t, StateUnavailable, segs[0].State)
	assert.Equal(t, MinutesPerDay, segs[0].Length())
}

func TestSegmentsClipLateSession(t *testing.T) {
	segs := Segments(nil, nil, []Interval{{Start: 23*60 + 30, End: 24*60 + 30}})
	require.Len(t, segs, 2)
	assert.Equal(t, StateBusy, segs[1].State)
	assert.Equal(t, MinutesPerDay, segs[1].End)
}
