package gameday

import "time"

// Layout is the canonical game-day format. Every stored record is scoped by a
// day string in this format, so it must never change.
const Layout = "2006-01-02"

// Format renders t as a game day.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Today returns the current game day in the given location.
func Today(loc *time.Location) string {
	return Format(time.Now().In(loc))
}

// Valid reports whether day is a well-formed game day.
func Valid(day string) bool {
	t, err := time.Parse(Layout, day)
	if err != nil {
		return false
	}
	return Format(t) == day
}
