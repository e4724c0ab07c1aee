package compliance

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/uwsprogram/tracker/core"
	"github.com/uwsprogram/tracker/core/participant"
)

var (
	// errors
	ErrNotFound = errors.New("month log not found")
)

type (
	QueryFilter struct {
		ParticipantID   string
		Year            int // 0 = any
		Month           int // 0 = any
		PaymentStatuses []PaymentStatus
	}

	Repository interface {
		GetMonthLog(ctx context.Context, participantID string, year, month int, exec ...core.DBExecutor) (MonthLog, error)
		CreateMonthLog(ctx context.Context, ml MonthLog, exec ...core.DBExecutor) (MonthLog, error)
		UpdateMonthLog(ctx context.Context, ml MonthLog, exec ...core.DBExecutor) error
		// QueryMonthLogs applies AND on set QueryFilter fields, ordered by
		// (year, month) descending.
		QueryMonthLogs(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]MonthLog, error)
	}

	// CreditSource exposes the earned-credit aggregations over the activity
	// tables. Confirmed attendance credits are counted through the grant rows
	// materialized at confirmation time, never through a separate sum over the
	// attendance table, so a confirmed attendance contributes exactly once.
	CreditSource interface {
		CountMeals(ctx context.Context, participantID string, year, month int, exec ...core.DBExecutor) (int, error)
		SumLearningMinutes(ctx context.Context, participantID string, year, month int, exec ...core.DBExecutor) (int, error)
	}

	// Directory resolves a participant id to its account, for notifications.
	Directory interface {
		GetParticipantByID(ctx context.Context, id string, exec ...core.DBExecutor) (participant.Participant, error)
	}

	Service struct {
		repo      Repository
		credits   CreditSource
		directory Directory
		mailSvc   core.EmailService
		logger    core.Logger

		mealsRequired   int
		minutesRequired int
		now             func() time.Time // mockable
	}
)

func NewService(repo Repository, credits CreditSource, directory Directory, mailSvc core.EmailService, logger core.Logger, conf *core.Config) *Service {
	svc := &Service{
		repo:            repo,
		credits:         credits,
		directory:       directory,
		mailSvc:         mailSvc,
		logger:          logger,
		mealsRequired:   conf.MealsRequired,
		minutesRequired: conf.MinutesRequired,
		now:             time.Now,
	}
	if svc.mealsRequired <= 0 {
		svc.mealsRequired = DefaultMealsRequired
	}
	if svc.minutesRequired <= 0 {
		svc.minutesRequired = DefaultMinutesRequired
	}
	return svc
}

// GetOrCreate returns the MonthLog for (participantID, year, month), lazily
// creating it with the program defaults on first access.
func (svc *Service) GetOrCreate(ctx context.Context, participantID string, year, month int) (MonthLog, error) {
	ml, err := svc.repo.GetMonthLog(ctx, participantID, year, month)
	if err == nil {
		return ml, nil
	}
	if errors.Cause(err) != ErrNotFound {
		return MonthLog{}, err
	}

	ml = MonthLog{
		ParticipantID:       participantID,
		Year:                year,
		Month:               month,
		MealsRequired:       svc.mealsRequired,
		MinutesRequired:     svc.minutesRequired,
		ComputedPaymentDate: PaymentDate(year, month),
		PaymentStatus:       PaymentNotDue,
	}
	return svc.repo.CreateMonthLog(ctx, ml)
}

func (svc *Service) Get(ctx context.Context, participantID string, year, month int) (MonthLog, error) {
	return svc.repo.GetMonthLog(ctx, participantID, year, month)
}

func (svc *Service) QueryForParticipant(ctx context.Context, participantID string) ([]MonthLog, error) {
	return svc.repo.QueryMonthLogs(ctx, QueryFilter{ParticipantID: participantID})
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]MonthLog, error) {
	return svc.repo.QueryMonthLogs(ctx, filter)
}

// Recompute re-derives the MonthLog for (participantID, year, month) from the
// current non-deleted activity rows. It is idempotent and must run after every
// meal/session insert or soft-delete, keyed by the row's applied year/month.
func (svc *Service) Recompute(ctx context.Context, participantID string, year, month int) error {
	ml, err := svc.GetOrCreate(ctx, participantID, year, month)
	if err != nil {
		return err
	}

	meals, err := svc.credits.CountMeals(ctx, participantID, year, month)
	if err != nil {
		return errors.Wrap(err, "counting meals")
	}
	minutes, err := svc.credits.SumLearningMinutes(ctx, participantID, year, month)
	if err != nil {
		return errors.Wrap(err, "summing learning minutes")
	}

	wasComplete := ml.IsComplete
	ml.MealsEarned = meals
	ml.MinutesEarned = minutes
	ml.IsComplete = meals >= ml.MealsRequired && minutes >= ml.MinutesRequired

	now := svc.now().UTC()
	if ml.IsComplete && !wasComplete {
		ml.CompletedAt = now
	} else if !ml.IsComplete && wasComplete {
		ml.CompletedAt = time.Time{}
	}

	// Payment only ever advances here; Due/Paid are never auto-regressed.
	if ml.IsComplete && !now.Before(ml.ComputedPaymentDate) && ml.PaymentStatus == PaymentNotDue {
		ml.PaymentStatus = PaymentDue
	}

	if err := svc.repo.UpdateMonthLog(ctx, ml); err != nil {
		return err
	}

	if ml.IsComplete && !wasComplete {
		svc.sendCompletionMail(ctx, ml)
	}
	return nil
}

// MarkPayment records an explicit admin payment decision on an existing
// MonthLog. paid=true marks Paid; paid=false falls back to the derived
// Due/NotDue status for the month.
func (svc *Service) MarkPayment(ctx context.Context, participantID string, year, month int, paid bool, markedBy string) (MonthLog, error) {
	ml, err := svc.repo.GetMonthLog(ctx, participantID, year, month)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return MonthLog{}, core.NewValidationError(ErrNotFound)
		}
		return MonthLog{}, err
	}

	now := svc.now().UTC()
	switch {
	case paid:
		ml.PaymentStatus = PaymentPaid
	case ml.IsComplete && !now.Before(ml.ComputedPaymentDate):
		ml.PaymentStatus = PaymentDue
	default:
		ml.PaymentStatus = PaymentNotDue
	}
	ml.PaymentMarkedAt = now
	ml.PaymentMarkedBy = markedBy

	if err := svc.repo.UpdateMonthLog(ctx, ml); err != nil {
		return MonthLog{}, err
	}
	return ml, nil
}

// CanApplyMakeUp reports whether an activity performed in the current month
// may be credited to (targetYear, targetMonth): the target must be exactly the
// preceding month and its MonthLog must exist and still be incomplete.
func (svc *Service) CanApplyMakeUp(ctx context.Context, participantID string, currentYear, currentMonth, targetYear, targetMonth int) (bool, error) {
	prevYear, prevMonth := PreviousMonth(currentYear, currentMonth)
	if targetYear != prevYear || targetMonth != prevMonth {
		return false, nil
	}

	ml, err := svc.repo.GetMonthLog(ctx, participantID, targetYear, targetMonth)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return !ml.IsComplete, nil
}

func (svc *Service) sendCompletionMail(ctx context.Context, ml MonthLog) {
	p, err := svc.directory.GetParticipantByID(ctx, ml.ParticipantID)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("looking up participant %s for completion mail: %v", ml.ParticipantID, err))
		return
	}
	monthName := time.Month(ml.Month).String()
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: p.PreferredName, Address: p.Email}},
		Subject: fmt.Sprintf("%s %d complete!", monthName, ml.Year),
		BodyStr: fmt.Sprintf(
			"Mazal tov %s! You completed the program for %s %d: %d/%d meals and %d/%d learning minutes.",
			p.PreferredName, monthName, ml.Year,
			ml.MealsEarned, ml.MealsRequired, ml.MinutesEarned, ml.MinutesRequired,
		),
	})
}
