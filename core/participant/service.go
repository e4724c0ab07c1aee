package participant

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/uwsprogram/tracker/core"
)

var (
	// errors
	ErrNotFound    = errors.New("participant not found")
	ErrEmailExists = errors.New("a participant with this email already exists")
)

type (
	Repository interface {
		CreateParticipant(ctx context.Context, p Participant, exec ...core.DBExecutor) (Participant, error)
		GetParticipantByID(ctx context.Context, id string, exec ...core.DBExecutor) (Participant, error)
		GetParticipantByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (Participant, error)
		// QueryParticipants returns participants ordered by creation time;
		// activeOnly filters out disabled accounts.
		QueryParticipants(ctx context.Context, activeOnly bool, exec ...core.DBExecutor) ([]Participant, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, np NewParticipant) (Participant, error) {
	if _, err := svc.repo.GetParticipantByEmail(ctx, np.Email); err == nil {
		return Participant{}, core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	} else if errors.Cause(err) != ErrNotFound {
		return Participant{}, err
	}

	p := Participant{
		Email:         np.Email,
		Role:          np.Role,
		Status:        StatusActive,
		PreferredName: np.PreferredName,
		Notes:         np.Notes,
		CreatedAt:     time.Now().UTC(),
	}
	return svc.repo.CreateParticipant(ctx, p)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Participant, error) {
	return svc.repo.GetParticipantByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Participant, error) {
	return svc.repo.GetParticipantByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) QueryAll(ctx context.Context) ([]Participant, error) {
	return svc.repo.QueryParticipants(ctx, false)
}

func (svc *Service) QueryActive(ctx context.Context) ([]Participant, error) {
	return svc.repo.QueryParticipants(ctx, true)
}
