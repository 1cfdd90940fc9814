package services

import (
	"log"
	"os"
	"time"
)

// BusinessLocation resolves the timezone day boundaries are computed
// in. Accrual counts calendar days in this location, not raw UTC, so a
// batch run shortly after midnight UTC cannot shift a due date across
// days.
func BusinessLocation() *time.Location {
	name := os.Getenv("BUSINESS_TIMEZONE")
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("Invalid BUSINESS_TIMEZONE %q, falling back to local: %v", name, err)
		return time.Local
	}
	return loc
}

// DateIn truncates t to midnight of its calendar day in loc
func DateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DaysBetween counts whole calendar days from a to b in loc.
// Negative when b precedes a. The dates are compared on a fixed-offset
// axis so a DST transition day (23 or 25 hours) still counts as one
// calendar day.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}
