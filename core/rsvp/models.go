package rsvp

import "time"

// RSVPs close Wednesday 23:59 New York time for the upcoming Saturday.
var nyLocation *time.Location

func init() {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic(err)
	}
	nyLocation = loc
}

// UWSRsvp is a participant's attendance intent for a specific Saturday.
// At most one row exists per (participant, week): setting again updates in
// place.
type UWSRsvp struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participant_id"`
	WeekDate      time.Time `json:"week_date"` // Saturday, midnight UTC
	Attending     bool      `json:"attending"`
	RsvpAt        time.Time `json:"rsvp_at"`
}

// NormalizeWeekDate truncates t to midnight UTC so week keys compare equal
// regardless of the time-of-day the client sent.
func NormalizeWeekDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WindowOpen reports whether participants may still change their RSVP for the
// upcoming Saturday: until Wednesday 23:59 New York time. The boundary minute
// itself is closed (Wednesday 23:59:00 already rejects).
func WindowOpen(now time.Time) bool {
	ny := now.In(nyLocation)
	switch wd := ny.Weekday(); {
	case wd > time.Wednesday:
		return false
	case wd == time.Wednesday && ny.Hour() == 23 && ny.Minute() >= 59:
		return false
	}
	return true
}

// UpcomingSaturday returns the next Saturday on or after now, normalized.
func UpcomingSaturday(now time.Time) time.Time {
	days := (int(time.Saturday) - int(now.UTC().Weekday()) + 7) % 7
	return NormalizeWeekDate(now.UTC().AddDate(0, 0, days))
}
