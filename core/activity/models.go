package activity

import (
	"time"

	"github.com/uwsprogram/tracker/core"
)

type (
	MealType      string
	MealSource    string
	SessionSource string
)

const (
	MealUWS       MealType = "UWS"
	MealShabbaton MealType = "Shabbaton"
	MealOther     MealType = "Other"

	MealSelfReport      MealSource = "Self report"
	MealAdminEntry      MealSource = "Admin entry"
	MealAttendanceGrant MealSource = "Attendance grant"

	SessionSelf       SessionSource = "Self"
	SessionHevruta    SessionSource = "Hevruta"
	SessionShabbaton  SessionSource = "Shabbaton"
	SessionAdminEntry SessionSource = "Admin entry"
)

// Session length bounds, minutes.
const (
	MinSessionMinutes = 1
	MaxSessionMinutes = 360
)

// MealLog is a single meal credited to a participant's applied month. Rows are
// append-only: removal is a soft delete that preserves the audit trail, and
// only non-deleted rows count toward any rollup.
type MealLog struct {
	ID            string     `json:"id"`
	ParticipantID string     `json:"participant_id"`
	OccurredAt    time.Time  `json:"occurred_at"`
	AppliedYear   int        `json:"applied_year"`
	AppliedMonth  int        `json:"applied_month"`
	Type          MealType   `json:"type"`
	Notes         string     `json:"notes,omitempty"`
	Source        MealSource `json:"source"`
	ShabbatonID   string     `json:"shabbaton_id,omitempty"`
	CreatedBy     string     `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Deleted       bool       `json:"deleted"`
	DeletedReason string     `json:"deleted_reason,omitempty"`
	DeletedBy     string     `json:"deleted_by,omitempty"`
	DeletedAt     time.Time  `json:"deleted_at,omitempty"`
}

// LearningSession has the same lifecycle as MealLog but contributes minutes.
type LearningSession struct {
	ID            string        `json:"id"`
	ParticipantID string        `json:"participant_id"`
	StartedAt     time.Time     `json:"started_at"`
	Minutes       int           `json:"minutes"`
	Notes         string        `json:"notes,omitempty"`
	AppliedYear   int           `json:"applied_year"`
	AppliedMonth  int           `json:"applied_month"`
	Source        SessionSource `json:"source"`
	ShabbatonID   string        `json:"shabbaton_id,omitempty"`
	CreatedBy     string        `json:"created_by"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	Deleted       bool          `json:"deleted"`
	DeletedReason string        `json:"deleted_reason,omitempty"`
	DeletedBy     string        `json:"deleted_by,omitempty"`
	DeletedAt     time.Time     `json:"deleted_at,omitempty"`
}

type NewMealLog struct {
	ParticipantID string    `json:"participant_id" validate:"required"`
	OccurredAt    time.Time `json:"occurred_at" validate:"required"`
	AppliedYear   int       `json:"applied_year" validate:"required"`
	AppliedMonth  int       `json:"applied_month" validate:"required,min=1,max=12"`
	Type          MealType  `json:"type" validate:"required,oneof=UWS Shabbaton Other"`
	Notes         string    `json:"notes"`
}

func (nm *NewMealLog) Validate() error {
	nm.Notes = core.CleanString(nm.Notes)
	return core.Validate.Struct(nm)
}

type NewLearningSession struct {
	ParticipantID string        `json:"participant_id" validate:"required"`
	StartedAt     time.Time     `json:"started_at" validate:"required"`
	Minutes       int           `json:"minutes" validate:"required,min=1,max=360"`
	AppliedYear   int           `json:"applied_year" validate:"required"`
	AppliedMonth  int           `json:"applied_month" validate:"required,min=1,max=12"`
	Source        SessionSource `json:"source" validate:"omitempty,oneof=Self Hevruta"`
	Notes         string        `json:"notes"`
}

func (ns *NewLearningSession) Validate() error {
	ns.Notes = core.CleanString(ns.Notes)
	return core.Validate.Struct(ns)
}
