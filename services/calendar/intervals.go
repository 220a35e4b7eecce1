package calendar

import "time"

// interval is a half-open [start, end) range on the absolute timeline.
type interval struct {
	start time.Time
	end   time.Time
}

func (iv interval) empty() bool {
	return !iv.end.After(iv.start)
}

// subtract removes each busy interval from the available set. One available
// interval may fragment into many; order is preserved.
func subtract(available []interval, busy []interval) []interval {
	for _, b := range busy {
		var updated []interval
		for _, iv := range available {
			if !b.end.After(iv.start) || !iv.end.After(b.start) {
				updated = append(updated, iv)
				continue
			}
			if b.start.After(iv.start) {
				updated = append(updated, interval{start: iv.start, end: b.start})
			}
			if b.end.Before(iv.end) {
				updated = append(updated, interval{start: b.end, end: iv.end})
			}
		}
		available = updated
	}
	return available
}

// clip trims iv to [from, to); an empty result is reported by empty().
func clip(iv interval, from, to time.Time) interval {
	if iv.start.Before(from) {
		iv.start = from
	}
	if iv.end.After(to) {
		iv.end = to
	}
	return iv
}
