package rsvp

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/uwsprogram/tracker/core"
)

var (
	// errors
	ErrNotFound     = errors.New("RSVP not found")
	ErrWindowClosed = errors.New("the RSVP window for this week has closed")
)

type (
	Repository interface {
		// UpsertRsvp inserts or updates the row keyed by
		// (participantID, weekDate), returning the stored row.
		UpsertRsvp(ctx context.Context, r UWSRsvp, exec ...core.DBExecutor) (UWSRsvp, error)
		GetRsvp(ctx context.Context, participantID string, weekDate time.Time, exec ...core.DBExecutor) (UWSRsvp, error)
		// QueryRsvps returns RSVPs newest first, optionally restricted to one week.
		QueryRsvps(ctx context.Context, weekDate *time.Time, exec ...core.DBExecutor) ([]UWSRsvp, error)
		DeleteRsvp(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo Repository
		now  func() time.Time // mockable
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Set records a participant's RSVP for a Saturday, subject to the weekly
// cutoff window. A zero weekDate targets the upcoming Saturday.
func (svc *Service) Set(ctx context.Context, participantID string, weekDate time.Time, attending bool) (UWSRsvp, error) {
	now := svc.now()
	if !WindowOpen(now) {
		return UWSRsvp{}, core.NewValidationError(ErrWindowClosed)
	}
	return svc.set(ctx, participantID, weekDate, attending, now)
}

// AdminSet records an RSVP on a participant's behalf, bypassing the window.
func (svc *Service) AdminSet(ctx context.Context, participantID string, weekDate time.Time, attending bool) (UWSRsvp, error) {
	return svc.set(ctx, participantID, weekDate, attending, svc.now())
}

func (svc *Service) set(ctx context.Context, participantID string, weekDate time.Time, attending bool, now time.Time) (UWSRsvp, error) {
	if weekDate.IsZero() {
		weekDate = UpcomingSaturday(now)
	}
	return svc.repo.UpsertRsvp(ctx, UWSRsvp{
		ParticipantID: participantID,
		WeekDate:      NormalizeWeekDate(weekDate),
		Attending:     attending,
		RsvpAt:        now.UTC(),
	})
}

func (svc *Service) Get(ctx context.Context, participantID string, weekDate time.Time) (UWSRsvp, error) {
	return svc.repo.GetRsvp(ctx, participantID, NormalizeWeekDate(weekDate))
}

func (svc *Service) QueryAll(ctx context.Context, weekDate ...time.Time) ([]UWSRsvp, error) {
	var week *time.Time
	if len(weekDate) > 0 {
		w := NormalizeWeekDate(weekDate[0])
		week = &w
	}
	return svc.repo.QueryRsvps(ctx, week)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteRsvp(ctx, id)
}
