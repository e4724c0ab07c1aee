package shabbaton

import (
	"time"

	"github.com/uwsprogram/tracker/core"
)

type AttendanceStatus string

const (
	StatusPending   AttendanceStatus = "Pending"
	StatusConfirmed AttendanceStatus = "Confirmed"
	StatusDenied    AttendanceStatus = "Denied"
)

// Default credits granted for attending a shabbaton.
const (
	DefaultMeals   = 3
	DefaultMinutes = 180
)

type Shabbaton struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Date           time.Time `json:"date"`
	DefaultMeals   int       `json:"default_meals"`
	DefaultMinutes int       `json:"default_minutes"`
	// AttendanceCount is the denormalized count of Confirmed attendances,
	// refreshed by the lifecycle service after every confirm/revoke.
	AttendanceCount int `json:"attendance_count"`
}

// Attendance links a participant to a shabbaton. Granted credits and the
// applied month are snapshot from the shabbaton at request time: later edits
// to the shabbaton never retroactively change an existing attendance.
type Attendance struct {
	ID             string           `json:"id"`
	ParticipantID  string           `json:"participant_id"`
	ShabbatonID    string           `json:"shabbaton_id"`
	AppliedYear    int              `json:"applied_year"`
	AppliedMonth   int              `json:"applied_month"`
	GrantedMeals   int              `json:"granted_meals"`
	GrantedMinutes int              `json:"granted_minutes"`
	Status         AttendanceStatus `json:"status"`
	MarkedBy       string           `json:"marked_by,omitempty"`
	MarkedAt       time.Time        `json:"marked_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

type NewShabbaton struct {
	Title          string    `json:"title" validate:"required"`
	Date           time.Time `json:"date" validate:"required"`
	DefaultMeals   int       `json:"default_meals" validate:"omitempty,min=0"`
	DefaultMinutes int       `json:"default_minutes" validate:"omitempty,min=0"`
}

func (ns *NewShabbaton) Validate() error {
	ns.Title = core.CleanString(ns.Title)
	return core.Validate.Struct(ns)
}
