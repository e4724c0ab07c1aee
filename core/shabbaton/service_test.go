package shabbaton_test

import (
	"context"
	"testing"
	"time"

	"github.com/uwsprogram/tracker/core"
	"github.com/uwsprogram/tracker/core/activity"
	"github.com/uwsprogram/tracker/core/compliance"
	"github.com/uwsprogram/tracker/core/participant"
	"github.com/uwsprogram/tracker/core/shabbaton"
	emailsvc "github.com/uwsprogram/tracker/services/email"
	inmemdb "github.com/uwsprogram/tracker/storage/database/inmem"
)

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type fixture struct {
	activity   *inmemdb.ActivityRepo
	compliance *compliance.Service
	svc        *shabbaton.Service
	pid        string
	shab       shabbaton.Shabbaton
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	ctx := context.Background()

	db := inmemdb.Open()
	participantRepo := inmemdb.NewParticipantRepo(db)
	activityRepo := inmemdb.NewActivityRepo(db)
	shabbatonRepo := inmemdb.NewShabbatonRepo(db)
	conf := &core.Config{
		AppName:         "UWS Tracker",
		DefaultFromName: "UWS Program",
		DefaultFromAddr: "noreply@localhost",
		MealsRequired:   4,
		MinutesRequired: 720,
	}
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	p, err := participantRepo.CreateParticipant(ctx, participant.Participant{
		Email:         "rivka@test.test",
		Role:          participant.RoleParticipant,
		Status:        participant.StatusActive,
		PreferredName: "Rivka",
		CreatedAt:     now,
	})
	if err != nil {
		t.Fatalf("creating participant: %v", err)
	}

	clock := func() time.Time { return now }
	complianceSvc := compliance.NewServiceMock(
		inmemdb.NewMonthLogRepo(db), activityRepo, participantRepo,
		mailSvc, nopLogger{}, conf, clock,
	)
	svc := shabbaton.NewServiceMock(
		shabbatonRepo, activityRepo, db, complianceSvc, participantRepo,
		mailSvc, nopLogger{}, clock,
	)

	s, err := svc.Create(ctx, shabbaton.NewShabbaton{
		Title: "Winter Shabbaton",
		Date:  time.Date(2024, time.June, 22, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("creating shabbaton: %v", err)
	}

	return &fixture{activity: activityRepo, compliance: complianceSvc, svc: svc, pid: p.ID, shab: s}
}

func TestServiceCreate(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, now)

	if f.shab.DefaultMeals != shabbaton.DefaultMeals {
		t.Errorf("DefaultMeals = %d, want %d", f.shab.DefaultMeals, shabbaton.DefaultMeals)
	}
	if f.shab.DefaultMinutes != shabbaton.DefaultMinutes {
		t.Errorf("DefaultMinutes = %d, want %d", f.shab.DefaultMinutes, shabbaton.DefaultMinutes)
	}
}

func TestServiceRequestAttendance(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("snapshots credits and the applied month", func(t *testing.T) {
		f := newFixture(t, now)
		a, err := f.svc.RequestAttendance(ctx, f.pid, f.shab.ID)
		if err != nil {
			t.Fatalf("RequestAttendance() error = %v", err)
		}
		if a.Status != shabbaton.StatusPending {
			t.Errorf("Status = %q, want %q", a.Status, shabbaton.StatusPending)
		}
		if a.AppliedYear != 2024 || a.AppliedMonth != 6 {
			t.Errorf("applied = (%d, %d), want (2024, 6)", a.AppliedYear, a.AppliedMonth)
		}
		if a.GrantedMeals != 3 || a.GrantedMinutes != 180 {
			t.Errorf("granted = (%d, %d), want (3, 180)", a.GrantedMeals, a.GrantedMinutes)
		}
	})

	t.Run("a second request is rejected", func(t *testing.T) {
		f := newFixture(t, now)
		if _, err := f.svc.RequestAttendance(ctx, f.pid, f.shab.ID); err != nil {
			t.Fatalf("RequestAttendance() error = %v", err)
		}
		_, err := f.svc.RequestAttendance(ctx, f.pid, f.shab.ID)
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("RequestAttendance() error = %v, want ValidationError", err)
		}
	})

	t.Run("a denied attendance blocks a new request", func(t *testing.T) {
		f := newFixture(t, now)
		a, err := f.svc.RequestAttendance(ctx, f.pid, f.shab.ID)
		if err != nil {
			t.Fatalf("RequestAttendance() error = %v", err)
		}
		if err = f.svc.ConfirmAttendance(ctx, a.ID, "admin-id"); err != nil {
			t.Fatalf("ConfirmAttendance() error = %v", err)
		}
		if err = f.svc.RevokeAttendance(ctx, a.ID, "admin-id"); err != nil {
			t.Fatalf("RevokeAttendance() error = %v", err)
		}

		_, err = f.svc.RequestAttendance(ctx, f.pid, f.shab.ID)
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("RequestAttendance() error = %v, want ValidationError", err)
		}
	})
}

func TestServiceConfirmAttendance(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("materializes the grant rows exactly once", func(t *testing.T) {
		f := newFixture(t, now)
		a, err := f.svc.RequestAttendance(ctx, f.pid, f.shab.ID)
		if err != nil {
			t.Fatalf("RequestAttendance() error = %v", err)
		}
		if err = f.svc.ConfirmAttendance(ctx, a.ID, "admin-id"); err != nil {
			t.Fatalf("ConfirmAttendance() error = %v", err)
		}

		meals, err := f.activity.QueryMealLogs(ctx, activity.QueryFilter{ParticipantID: f.pid})
		if err != nil {
			t.Fatalf("QueryMealLogs() error = %v", err)
		}
		if len(meals) != 3 {
			t.Fatalf("meal grants = %d, want 3", len(meals))
		}
		for _, m := range meals {
			if m.Source != activity.MealAttendanceGrant || m.ShabbatonID != f.shab.ID {
				t.Errorf("meal grant = (%q, %q), want attendance grant for %q", m.Source, m.ShabbatonID, f.shab.ID)
			}
		}

		sessions, err := f.activity.QueryLearningSessions(ctx, activity.QueryFilter{ParticipantID: f.pid})
		if err != nil {
			t.Fatalf("QueryLearningSessions() error = %v", err)
		}
		if len(sessions) != 1 {
			t.Fatalf("session grants = %d, want 1", len(sessions))
		}
		if sessions[0].Minutes != 180 || sessions[0].Source != activity.SessionShabbaton {
			t.Errorf("session grant = (%d, %q), want (180, %q)", sessions[0].Minutes, sessions[0].Source, activity.SessionShabbaton)
		}

		ml, err := f.compliance.Get(ctx, f.pid, 2024, 6)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ml.MealsEarned != 3 || ml.MinutesEarned != 180 {
			t.Errorf("earned = (%d, %d), want (3, 180)", ml.MealsEarned, ml.MinutesEarned)
		}

		// confirming again is a no-op
		if err = f.svc.ConfirmAttendance(ctx, a.ID, "admin-id"); err != nil {
			t.Fatalf("ConfirmAttendance() error = %v", err)
		}
		meals, _ = f.activity.QueryMealLogs(ctx, activity.QueryFilter{ParticipantID: f.pid})
		if len(meals) != 3 {
			t.Errorf("meal grants = %d after re-confirm, want 3", len(meals))
		}
	})

	t.Run("refreshes the attendance count", func(t *testing.T) {
		f := newFixture(t, now)
		a, _ := f.svc.RequestAttendance(ctx, f.pid, f.shab.ID)
		if err := f.svc.ConfirmAttendance(ctx, a.ID, "admin-id"); err != nil {
			t.Fatalf("ConfirmAttendance() error = %v", err)
		}
		s, err := f.svc.GetByID(ctx, f.shab.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if s.AttendanceCount != 1 {
			t.Errorf("AttendanceCount = %d, want 1", s.AttendanceCount)
		}
	})
}

func TestServiceRevokeAttendance(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("retires the grants and the earned credits", func(t *testing.T) {
		f := newFixture(t, now)
		a, _ := f.svc.RequestAttendance(ctx, f.pid, f.shab.ID)
		if err := f.svc.ConfirmAttendance(ctx, a.ID, "admin-id"); err != nil {
			t.Fatalf("ConfirmAttendance() error = %v", err)
		}
		if err := f.svc.RevokeAttendance(ctx, a.ID, "admin-id"); err != nil {
			t.Fatalf("RevokeAttendance() error = %v", err)
		}

		meals, _ := f.activity.QueryMealLogs(ctx, activity.QueryFilter{ParticipantID: f.pid})
		sessions, _ := f.activity.QueryLearningSessions(ctx, activity.QueryFilter{ParticipantID: f.pid})
		if len(meals) != 0 || len(sessions) != 0 {
			t.Errorf("live grants = (%d, %d) after revoke, want (0, 0)", len(meals), len(sessions))
		}

		ml, _ := f.compliance.Get(ctx, f.pid, 2024, 6)
		if ml.MealsEarned != 0 || ml.MinutesEarned != 0 {
			t.Errorf("earned = (%d, %d) after revoke, want (0, 0)", ml.MealsEarned, ml.MinutesEarned)
		}

		as, err := f.svc.QueryAttendances(ctx, shabbaton.AttendanceFilter{ParticipantID: f.pid})
		if err != nil {
			t.Fatalf("QueryAttendances() error = %v", err)
		}
		if as[0].Status != shabbaton.StatusDenied {
			t.Errorf("Status = %q after revoke, want %q", as[0].Status, shabbaton.StatusDenied)
		}

		s, _ := f.svc.GetByID(ctx, f.shab.ID)
		if s.AttendanceCount != 0 {
			t.Errorf("AttendanceCount = %d after revoke, want 0", s.AttendanceCount)
		}
	})

	t.Run("revoking a pending attendance is a no-op", func(t *testing.T) {
		f := newFixture(t, now)
		a, _ := f.svc.RequestAttendance(ctx, f.pid, f.shab.ID)
		if err := f.svc.RevokeAttendance(ctx, a.ID, "admin-id"); err != nil {
			t.Fatalf("RevokeAttendance() error = %v", err)
		}
		as, _ := f.svc.QueryAttendances(ctx, shabbaton.AttendanceFilter{ParticipantID: f.pid})
		if as[0].Status != shabbaton.StatusPending {
			t.Errorf("Status = %q, want %q", as[0].Status, shabbaton.StatusPending)
		}
	})

	t.Run("manual credits survive a revoke", func(t *testing.T) {
		f := newFixture(t, now)
		// a self-reported meal in the same month, tied to nothing
		_, err := f.activity.CreateMealLog(ctx, activity.MealLog{
			ParticipantID: f.pid,
			OccurredAt:    now,
			AppliedYear:   2024,
			AppliedMonth:  6,
			Type:          activity.MealUWS,
			Source:        activity.MealSelfReport,
			CreatedBy:     f.pid,
		})
		if err != nil {
			t.Fatalf("CreateMealLog() error = %v", err)
		}

		a, _ := f.svc.RequestAttendance(ctx, f.pid, f.shab.ID)
		if err = f.svc.ConfirmAttendance(ctx, a.ID, "admin-id"); err != nil {
			t.Fatalf("ConfirmAttendance() error = %v", err)
		}
		if err = f.svc.RevokeAttendance(ctx, a.ID, "admin-id"); err != nil {
			t.Fatalf("RevokeAttendance() error = %v", err)
		}

		ml, _ := f.compliance.Get(ctx, f.pid, 2024, 6)
		if ml.MealsEarned != 1 {
			t.Errorf("MealsEarned = %d after revoke, want the manual 1", ml.MealsEarned)
		}
	})
}
