package shabbaton

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/uwsprogram/tracker/core"
	"github.com/uwsprogram/tracker/core/activity"
	"github.com/uwsprogram/tracker/core/participant"
)

const revokedReason = "Attendance revoked"

var (
	// errors
	ErrNotFound           = errors.New("shabbaton not found")
	ErrAttendanceNotFound = errors.New("attendance not found")
	ErrAttendanceExists   = errors.New("attendance already requested for this shabbaton")
)

type (
	AttendanceFilter struct {
		ParticipantID string
		ShabbatonID   string
	}

	Repository interface {
		CreateShabbaton(ctx context.Context, s Shabbaton, exec ...core.DBExecutor) (Shabbaton, error)
		GetShabbatonByID(ctx context.Context, id string, exec ...core.DBExecutor) (Shabbaton, error)
		// QueryShabbatons returns all shabbatons ordered by date ascending.
		QueryShabbatons(ctx context.Context, exec ...core.DBExecutor) ([]Shabbaton, error)

		CreateAttendance(ctx context.Context, a Attendance, exec ...core.DBExecutor) (Attendance, error)
		GetAttendanceByID(ctx context.Context, id string, exec ...core.DBExecutor) (Attendance, error)
		// AttendanceExists reports whether any attendance row (whatever its
		// status) exists for (participantID, shabbatonID).
		AttendanceExists(ctx context.Context, participantID, shabbatonID string, exec ...core.DBExecutor) (bool, error)
		QueryAttendances(ctx context.Context, filter AttendanceFilter, exec ...core.DBExecutor) ([]Attendance, error)
		UpdateAttendanceStatus(ctx context.Context, id string, status AttendanceStatus, markedBy string, markedAt time.Time, exec ...core.DBExecutor) error
		CountConfirmed(ctx context.Context, shabbatonID string, exec ...core.DBExecutor) (int, error)
		SetAttendanceCount(ctx context.Context, shabbatonID string, count int, exec ...core.DBExecutor) error
	}

	// GrantStore writes and retires the activity rows materialized by a
	// confirmed attendance.
	GrantStore interface {
		CreateMealLog(ctx context.Context, m activity.MealLog, exec ...core.DBExecutor) (activity.MealLog, error)
		CreateLearningSession(ctx context.Context, s activity.LearningSession, exec ...core.DBExecutor) (activity.LearningSession, error)
		SoftDeleteGrants(ctx context.Context, participantID, shabbatonID, reason, deletedBy string, at time.Time, exec ...core.DBExecutor) error
	}

	Recomputer interface {
		Recompute(ctx context.Context, participantID string, year, month int) error
	}

	Directory interface {
		GetParticipantByID(ctx context.Context, id string, exec ...core.DBExecutor) (participant.Participant, error)
	}

	Service struct {
		repo       Repository
		grants     GrantStore
		atomic     core.Atomic
		compliance Recomputer
		directory  Directory
		mailSvc    core.EmailService
		logger     core.Logger
		now        func() time.Time // mockable
	}
)

func NewService(repo Repository, grants GrantStore, atomic core.Atomic, compliance Recomputer, directory Directory, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		repo:       repo,
		grants:     grants,
		atomic:     atomic,
		compliance: compliance,
		directory:  directory,
		mailSvc:    mailSvc,
		logger:     logger,
		now:        time.Now,
	}
}

func (svc *Service) Create(ctx context.Context, ns NewShabbaton) (Shabbaton, error) {
	if err := ns.Validate(); err != nil {
		return Shabbaton{}, err
	}
	s := Shabbaton{
		Title:          ns.Title,
		Date:           ns.Date.UTC(),
		DefaultMeals:   ns.DefaultMeals,
		DefaultMinutes: ns.DefaultMinutes,
	}
	if s.DefaultMeals == 0 {
		s.DefaultMeals = DefaultMeals
	}
	if s.DefaultMinutes == 0 {
		s.DefaultMinutes = DefaultMinutes
	}
	return svc.repo.CreateShabbaton(ctx, s)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Shabbaton, error) {
	return svc.repo.GetShabbatonByID(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Shabbaton, error) {
	return svc.repo.QueryShabbatons(ctx)
}

func (svc *Service) QueryAttendances(ctx context.Context, filter AttendanceFilter) ([]Attendance, error) {
	return svc.repo.QueryAttendances(ctx, filter)
}

// RequestAttendance creates a Pending attendance for (participantID,
// shabbatonID), snapshotting the shabbaton's credits and applied month.
// A second request for the same shabbaton fails, whatever the first one's
// status: a denied attendance cannot be resubmitted.
func (svc *Service) RequestAttendance(ctx context.Context, participantID, shabbatonID string) (Attendance, error) {
	s, err := svc.repo.GetShabbatonByID(ctx, shabbatonID)
	if err != nil {
		return Attendance{}, err
	}

	exists, err := svc.repo.AttendanceExists(ctx, participantID, shabbatonID)
	if err != nil {
		return Attendance{}, err
	}
	if exists {
		return Attendance{}, core.NewValidationError(ErrAttendanceExists)
	}

	a := Attendance{
		ParticipantID:  participantID,
		ShabbatonID:    shabbatonID,
		AppliedYear:    s.Date.Year(),
		AppliedMonth:   int(s.Date.Month()),
		GrantedMeals:   s.DefaultMeals,
		GrantedMinutes: s.DefaultMinutes,
		Status:         StatusPending,
		CreatedAt:      svc.now().UTC(),
	}
	return svc.repo.CreateAttendance(ctx, a)
}

// ConfirmAttendance moves an attendance to Confirmed and materializes its
// grants: one learning session plus grantedMeals meal logs, all written in a
// single transaction with the status change so a partial grant can never leak
// into the rollup. No-op when already Confirmed.
func (svc *Service) ConfirmAttendance(ctx context.Context, attendanceID, confirmedBy string) error {
	a, err := svc.repo.GetAttendanceByID(ctx, attendanceID)
	if err != nil {
		return err
	}
	if a.Status == StatusConfirmed {
		return nil
	}

	s, err := svc.repo.GetShabbatonByID(ctx, a.ShabbatonID)
	if err != nil {
		return err
	}

	now := svc.now().UTC()
	err = svc.atomic.RunInTx(ctx, func(exec core.DBExecutor) error {
		if err := svc.repo.UpdateAttendanceStatus(ctx, a.ID, StatusConfirmed, confirmedBy, now, exec); err != nil {
			return err
		}

		session := activity.LearningSession{
			ParticipantID: a.ParticipantID,
			StartedAt:     s.Date,
			Minutes:       a.GrantedMinutes,
			Notes:         fmt.Sprintf("Shabbaton attendance grant: %s", s.Title),
			AppliedYear:   a.AppliedYear,
			AppliedMonth:  a.AppliedMonth,
			Source:        activity.SessionShabbaton,
			ShabbatonID:   a.ShabbatonID,
			CreatedBy:     confirmedBy,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if _, err := svc.grants.CreateLearningSession(ctx, session, exec); err != nil {
			return err
		}

		for i := 0; i < a.GrantedMeals; i++ {
			meal := activity.MealLog{
				ParticipantID: a.ParticipantID,
				OccurredAt:    s.Date,
				AppliedYear:   a.AppliedYear,
				AppliedMonth:  a.AppliedMonth,
				Type:          activity.MealShabbaton,
				Notes:         fmt.Sprintf("Shabbaton meal grant %d: %s", i+1, s.Title),
				Source:        activity.MealAttendanceGrant,
				ShabbatonID:   a.ShabbatonID,
				CreatedBy:     confirmedBy,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if _, err := svc.grants.CreateMealLog(ctx, meal, exec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "confirming attendance")
	}

	if err = svc.compliance.Recompute(ctx, a.ParticipantID, a.AppliedYear, a.AppliedMonth); err != nil {
		return err
	}
	if err = svc.refreshAttendanceCount(ctx, a.ShabbatonID); err != nil {
		return err
	}
	svc.sendConfirmationMail(ctx, a, s)
	return nil
}

// RevokeAttendance retires a confirmed attendance: soft-deletes every
// materialized grant row and moves the attendance to Denied, in one
// transaction. No-op when not Confirmed.
func (svc *Service) RevokeAttendance(ctx context.Context, attendanceID, revokedBy string) error {
	a, err := svc.repo.GetAttendanceByID(ctx, attendanceID)
	if err != nil {
		return err
	}
	if a.Status != StatusConfirmed {
		return nil
	}

	now := svc.now().UTC()
	err = svc.atomic.RunInTx(ctx, func(exec core.DBExecutor) error {
		if err := svc.grants.SoftDeleteGrants(ctx, a.ParticipantID, a.ShabbatonID, revokedReason, revokedBy, now, exec); err != nil {
			return err
		}
		return svc.repo.UpdateAttendanceStatus(ctx, a.ID, StatusDenied, revokedBy, now, exec)
	})
	if err != nil {
		return errors.Wrap(err, "revoking attendance")
	}

	if err = svc.compliance.Recompute(ctx, a.ParticipantID, a.AppliedYear, a.AppliedMonth); err != nil {
		return err
	}
	return svc.refreshAttendanceCount(ctx, a.ShabbatonID)
}

func (svc *Service) refreshAttendanceCount(ctx context.Context, shabbatonID string) error {
	count, err := svc.repo.CountConfirmed(ctx, shabbatonID)
	if err != nil {
		return errors.Wrap(err, "counting confirmed attendances")
	}
	return svc.repo.SetAttendanceCount(ctx, shabbatonID, count)
}

func (svc *Service) sendConfirmationMail(ctx context.Context, a Attendance, s Shabbaton) {
	p, err := svc.directory.GetParticipantByID(ctx, a.ParticipantID)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("looking up participant %s for confirmation mail: %v", a.ParticipantID, err))
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: p.PreferredName, Address: p.Email}},
		Subject: fmt.Sprintf("Attendance confirmed: %s", s.Title),
		BodyStr: fmt.Sprintf(
			"Hi %s, your attendance at %s was confirmed. %d meals and %d learning minutes were credited to %s %d.",
			p.PreferredName, s.Title, a.GrantedMeals, a.GrantedMinutes,
			time.Month(a.AppliedMonth), a.AppliedYear,
		),
	})
}
