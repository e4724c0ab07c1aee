package activity

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/uwsprogram/tracker/core"
)

var (
	// errors
	ErrMealNotFound    = errors.New("meal log not found")
	ErrSessionNotFound = errors.New("learning session not found")
	ErrSourceRequired  = errors.New("a session source is required")

	makeUpNotAllowedText = "entries may only be applied to the immediately preceding, still-incomplete month"
	makeUpNotCurrentText = "a make-up entry must have happened in the current month"
)

type (
	QueryFilter struct {
		ParticipantID string
		AppliedYear   int // 0 = any
		AppliedMonth  int // 0 = any
	}

	Repository interface {
		CreateMealLog(ctx context.Context, m MealLog, exec ...core.DBExecutor) (MealLog, error)
		GetMealLogByID(ctx context.Context, id string, exec ...core.DBExecutor) (MealLog, error)
		SoftDeleteMealLog(ctx context.Context, id, reason, deletedBy string, at time.Time, exec ...core.DBExecutor) error
		// QueryMealLogs returns non-deleted rows matching the filter,
		// newest occurrence first.
		QueryMealLogs(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]MealLog, error)

		CreateLearningSession(ctx context.Context, s LearningSession, exec ...core.DBExecutor) (LearningSession, error)
		GetLearningSessionByID(ctx context.Context, id string, exec ...core.DBExecutor) (LearningSession, error)
		SoftDeleteLearningSession(ctx context.Context, id, reason, deletedBy string, at time.Time, exec ...core.DBExecutor) error
		QueryLearningSessions(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]LearningSession, error)

		// SoftDeleteGrants soft-deletes every non-deleted grant row materialized
		// for (participantID, shabbatonID): meal logs with the attendance-grant
		// source and learning sessions with the shabbaton source.
		SoftDeleteGrants(ctx context.Context, participantID, shabbatonID, reason, deletedBy string, at time.Time, exec ...core.DBExecutor) error

		// Credit aggregations over non-deleted rows, keyed by applied month.
		CountMeals(ctx context.Context, participantID string, year, month int, exec ...core.DBExecutor) (int, error)
		SumLearningMinutes(ctx context.Context, participantID string, year, month int, exec ...core.DBExecutor) (int, error)
	}

	// Compliance is the slice of the compliance service the activity flow needs.
	Compliance interface {
		Recompute(ctx context.Context, participantID string, year, month int) error
		CanApplyMakeUp(ctx context.Context, participantID string, currentYear, currentMonth, targetYear, targetMonth int) (bool, error)
	}

	Service struct {
		repo       Repository
		compliance Compliance
		now        func() time.Time // mockable
	}
)

func NewService(repo Repository, compliance Compliance) *Service {
	return &Service{repo: repo, compliance: compliance, now: time.Now}
}

// checkMakeUp validates the applied month of a manual entry against the
// make-up rule whenever it differs from the current month.
func (svc *Service) checkMakeUp(ctx context.Context, participantID string, occurredAt time.Time, appliedYear, appliedMonth int) error {
	now := svc.now().UTC()
	curYear, curMonth := now.Year(), int(now.Month())
	if appliedYear == curYear && appliedMonth == curMonth {
		return nil
	}

	ok, err := svc.compliance.CanApplyMakeUp(ctx, participantID, curYear, curMonth, appliedYear, appliedMonth)
	if err != nil {
		return err
	}
	if !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "applied_month", Error: makeUpNotAllowedText})
	}
	// a make-up is done now and applied retroactively, not backdated
	occurred := occurredAt.UTC()
	if occurred.Year() != curYear || int(occurred.Month()) != curMonth {
		return core.NewValidationError(nil, core.FieldError{Field: "occurred_at", Error: makeUpNotCurrentText})
	}
	return nil
}

// LogMeal records a manual meal entry (self report or admin entry) and
// recomputes the applied month.
func (svc *Service) LogMeal(ctx context.Context, nm NewMealLog, source MealSource, createdBy string) (MealLog, error) {
	if err := nm.Validate(); err != nil {
		return MealLog{}, err
	}
	if err := svc.checkMakeUp(ctx, nm.ParticipantID, nm.OccurredAt, nm.AppliedYear, nm.AppliedMonth); err != nil {
		return MealLog{}, err
	}

	now := svc.now().UTC()
	m := MealLog{
		ParticipantID: nm.ParticipantID,
		OccurredAt:    nm.OccurredAt.UTC(),
		AppliedYear:   nm.AppliedYear,
		AppliedMonth:  nm.AppliedMonth,
		Type:          nm.Type,
		Notes:         nm.Notes,
		Source:        source,
		CreatedBy:     createdBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m, err := svc.repo.CreateMealLog(ctx, m)
	if err != nil {
		return MealLog{}, err
	}
	if err = svc.compliance.Recompute(ctx, m.ParticipantID, m.AppliedYear, m.AppliedMonth); err != nil {
		return MealLog{}, err
	}
	return m, nil
}

// DeleteMeal soft-deletes a meal log and recomputes its applied month.
func (svc *Service) DeleteMeal(ctx context.Context, id, reason, deletedBy string) error {
	m, err := svc.repo.GetMealLogByID(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.repo.SoftDeleteMealLog(ctx, id, reason, deletedBy, svc.now().UTC()); err != nil {
		return err
	}
	return svc.compliance.Recompute(ctx, m.ParticipantID, m.AppliedYear, m.AppliedMonth)
}

func (svc *Service) GetMeal(ctx context.Context, id string) (MealLog, error) {
	return svc.repo.GetMealLogByID(ctx, id)
}

func (svc *Service) QueryMeals(ctx context.Context, filter QueryFilter) ([]MealLog, error) {
	return svc.repo.QueryMealLogs(ctx, filter)
}

// LogSession records a manual learning session and recomputes the applied
// month. source overrides the payload's source when set (admin entries).
func (svc *Service) LogSession(ctx context.Context, ns NewLearningSession, source SessionSource, createdBy string) (LearningSession, error) {
	if err := ns.Validate(); err != nil {
		return LearningSession{}, err
	}
	if source == "" {
		source = ns.Source
	}
	if source == "" {
		return LearningSession{}, core.NewValidationError(ErrSourceRequired, core.FieldError{Field: "source", Error: ErrSourceRequired.Error()})
	}
	if err := svc.checkMakeUp(ctx, ns.ParticipantID, ns.StartedAt, ns.AppliedYear, ns.AppliedMonth); err != nil {
		return LearningSession{}, err
	}

	now := svc.now().UTC()
	s := LearningSession{
		ParticipantID: ns.ParticipantID,
		StartedAt:     ns.StartedAt.UTC(),
		Minutes:       ns.Minutes,
		Notes:         ns.Notes,
		AppliedYear:   ns.AppliedYear,
		AppliedMonth:  ns.AppliedMonth,
		Source:        source,
		CreatedBy:     createdBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s, err := svc.repo.CreateLearningSession(ctx, s)
	if err != nil {
		return LearningSession{}, err
	}
	if err = svc.compliance.Recompute(ctx, s.ParticipantID, s.AppliedYear, s.AppliedMonth); err != nil {
		return LearningSession{}, err
	}
	return s, nil
}

// DeleteSession soft-deletes a learning session and recomputes its applied month.
func (svc *Service) DeleteSession(ctx context.Context, id, reason, deletedBy string) error {
	s, err := svc.repo.GetLearningSessionByID(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.repo.SoftDeleteLearningSession(ctx, id, reason, deletedBy, svc.now().UTC()); err != nil {
		return err
	}
	return svc.compliance.Recompute(ctx, s.ParticipantID, s.AppliedYear, s.AppliedMonth)
}

func (svc *Service) GetSession(ctx context.Context, id string) (LearningSession, error) {
	return svc.repo.GetLearningSessionByID(ctx, id)
}

func (svc *Service) QuerySessions(ctx context.Context, filter QueryFilter) ([]LearningSession, error) {
	return svc.repo.QueryLearningSessions(ctx, filter)
}
