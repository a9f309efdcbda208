package filter

import "time"

const minutesPerDay = 24 * 60

// Window is a weekly opening interval. Open and Close are minutes since
// local midnight. A Close at or before Open runs past midnight into the
// next day.
type Window struct {
	Day   time.Weekday `json:"day"`
	Open  int          `json:"open"`
	Close int          `json:"close"`
}

// Valid reports whether the window describes a real interval.
func (w Window) Valid() bool {
	return w.Day >= time.Sunday && w.Day <= time.Saturday &&
		w.Open >= 0 && w.Open < minutesPerDay &&
		w.Close >= 0 && w.Close <= minutesPerDay
}

// Hours is a weekly opening schedule.
type Hours []Window

// Overlaps reports whether any valid window intersects [start, end).
// ok is false when the schedule has no valid window, meaning there is no
// data to judge by.
func (h Hours) Overlaps(start, end time.Time) (overlaps, ok bool) {
	loc := start.Location()
	y, m, d := start.Date()
	weekStart := time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, -int(start.Weekday()))

	for _, w := range h {
		if !w.Valid() {
			continue
		}
		ok = true
		// The previous week catches windows running past Saturday midnight.
		for week := -1; week <= 1; week++ {
			day := weekStart.AddDate(0, 0, 7*week+int(w.Day))
			open := day.Add(time.Duration(w.Open) * time.Minute)
			closeDay := day
			if w.Close <= w.Open {
				closeDay = day.AddDate(0, 0, 1)
			}
			shut := closeDay.Add(time.Duration(w.Close) * time.Minute)
			if open.Before(end) && start.Before(shut) {
				return true, true
			}
		}
	}
	return false, ok
}

// Window returns the concrete interval a bucket covers relative to now.
// ok is false for TimeAny and unrecognized buckets.
func (b TimeBucket) Window(now time.Time) (start, end time.Time, ok bool) {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	switch b {
	case TimeMorning:
		return midnight.Add(6 * time.Hour), midnight.Add(12 * time.Hour), true
	case TimeAfternoon:
		return midnight.Add(12 * time.Hour), midnight.Add(18 * time.Hour), true
	case TimeTonight:
		return midnight.Add(18 * time.Hour), midnight.AddDate(0, 0, 1).Add(2 * time.Hour), true
	case TimeWeekend:
		var sat time.Time
		switch now.Weekday() {
		case time.Sunday:
			sat = midnight.AddDate(0, 0, -1)
		default:
			sat = midnight.AddDate(0, 0, int(time.Saturday-now.Weekday()))
		}
		return sat, sat.AddDate(0, 0, 2), true
	}
	return time.Time{}, time.Time{}, false
}
