package participant

import (
	"time"

	"github.com/uwsprogram/tracker/core"
)

// Roles
const (
	RoleParticipant = "participant"
	RoleAdmin       = "admin"
)

// Statuses
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

type Participant struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	Status        string    `json:"status"`
	PreferredName string    `json:"preferred_name"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"` // UTC
}

func (p Participant) IsAdmin() bool  { return p.Role == RoleAdmin }
func (p Participant) IsActive() bool { return p.Status == StatusActive }

type NewParticipant struct {
	Email         string `json:"email" validate:"required,email"`
	Role          string `json:"role" validate:"required,oneof=participant admin"`
	PreferredName string `json:"preferred_name" validate:"required"`
	Notes         string `json:"notes"`
}

func (np *NewParticipant) Validate() error {
	np.Email = core.CleanString(np.Email, true /* lower */)
	np.PreferredName = core.CleanString(np.PreferredName)
	return core.Validate.Struct(np)
}
