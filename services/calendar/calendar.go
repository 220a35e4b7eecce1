package calendar

import (
	"time"

	"calibook/models"
)

// Snapshot is everything the window computation needs for one agent, frozen
// at load time. The computation itself is pure and deterministic; callers
// must re-validate at commit time since the live calendar keeps moving.
type Snapshot struct {
	AgentID string
	// Hours holds the effective business hours keyed by weekday (0 = Sunday).
	// A missing weekday contributes no open interval.
	Hours   map[int]models.BusinessHours
	Blocked []models.BlockedRange
	Busy    []models.Appointment
	Loc     *time.Location
}

// DayWindows computes the bookable windows for one calendar day: the day's
// open interval minus blocked ranges and non-cancelled appointments, keeping
// only residuals long enough for durationMin. Windows are clipped to
// [from, to) and returned in chronological order.
func DayWindows(s Snapshot, day time.Time, from, to time.Time, durationMin int) []models.Window {
	hours, ok := s.Hours[int(day.Weekday())]
	if !ok || hours.IsClosed {
		return nil
	}

	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.Loc)
	open := interval{
		start: midnight.Add(time.Duration(hours.OpenMinute) * time.Minute),
		end:   midnight.Add(time.Duration(hours.CloseMinute) * time.Minute),
	}
	open = clip(open, from, to)
	if open.empty() {
		return nil
	}

	var busy []interval
	for _, b := range s.Blocked {
		busy = append(busy, interval{start: b.Start, end: b.End})
	}
	for _, a := range s.Busy {
		if !a.Blocks() {
			continue
		}
		busy = append(busy, interval{start: a.Start, end: a.End()})
	}

	need := time.Duration(durationMin) * time.Minute
	var out []models.Window
	for _, iv := range subtract([]interval{open}, busy) {
		if iv.end.Sub(iv.start) < need {
			continue
		}
		out = append(out, models.Window{AgentID: s.AgentID, Start: iv.start, End: iv.end})
	}
	return out
}

// Windows materializes every window in [from, to). Prefer Iterator when only
// the next few are needed.
func Windows(s Snapshot, from, to time.Time, durationMin int) []models.Window {
	it := NewIterator(s, from, to, durationMin)
	var out []models.Window
	for {
		batch := it.Next(31)
		if len(batch) == 0 {
			return out
		}
		out = append(out, batch...)
	}
}

// Iterator yields windows lazily in chronological order, one day at a time,
// so an effectively unbounded horizon never gets materialized at once.
type Iterator struct {
	snap        Snapshot
	from        time.Time
	to          time.Time
	durationMin int
	cursor      time.Time // midnight of the next day to expand
	pending     []models.Window
}

// NewIterator prepares a lazy walk over [from, to).
func NewIterator(s Snapshot, from, to time.Time, durationMin int) *Iterator {
	f := from.In(s.Loc)
	return &Iterator{
		snap:        s,
		from:        from,
		to:          to,
		durationMin: durationMin,
		cursor:      time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, s.Loc),
	}
}

// Next returns up to n further windows; an empty result means the range is
// exhausted.
func (it *Iterator) Next(n int) []models.Window {
	for len(it.pending) < n && it.cursor.Before(it.to) {
		it.pending = append(it.pending, DayWindows(it.snap, it.cursor, it.from, it.to, it.durationMin)...)
		it.cursor = it.cursor.AddDate(0, 0, 1)
	}
	if len(it.pending) == 0 {
		return nil
	}
	if n > len(it.pending) {
		n = len(it.pending)
	}
	out := it.pending[:n]
	it.pending = it.pending[n:]
	return out
}
