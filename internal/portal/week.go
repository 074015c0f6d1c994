package portal

import "time"

// SchoolWeek returns the portal week number for now, week 1 starting on
// start. Counting from the day after now makes a Sunday report the week
// ahead. Days are calendar days in now's location, so DST shifts never move
// the week boundary off midnight.
func SchoolWeek(now, start time.Time) int {
	days := civilDay(now.AddDate(0, 0, 1)).Sub(civilDay(start.In(now.Location()))) / (24 * time.Hour)
	return 1 + int(days)/7
}

// civilDay maps t's calendar date to midnight UTC, where every day is 24h.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SchoolYearStart is September 1st of the school year containing now.
func SchoolYearStart(now time.Time) time.Time {
	y := now.Year()
	if now.Month() < time.September {
		y--
	}
	return time.Date(y, time.September, 1, 0, 0, 0, 0, now.Location())
}
