package compliance_test

import (
	"context"
	"testing"
	"time"

	"github.com/uwsprogram/tracker/core"
	"github.com/uwsprogram/tracker/core/activity"
	"github.com/uwsprogram/tracker/core/compliance"
	"github.com/uwsprogram/tracker/core/participant"
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

func testConfig() *core.Config {
	return &core.Config{
		AppName:         "UWS Tracker",
		DefaultFromName: "UWS Program",
		DefaultFromAddr: "noreply@localhost",
		MealsRequired:   4,
		MinutesRequired: 720,
	}
}

type fixture struct {
	db       *inmemdb.DB
	activity *inmemdb.ActivityRepo
	svc      *compliance.Service
	pid      string
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	db := inmemdb.Open()
	participantRepo := inmemdb.NewParticipantRepo(db)
	activityRepo := inmemdb.NewActivityRepo(db)
	conf := testConfig()

	p, err := participantRepo.CreateParticipant(context.Background(), participant.Participant{
		Email:         "sarah@test.test",
		Role:          participant.RoleParticipant,
		Status:        participant.StatusActive,
		PreferredName: "Sarah",
		CreatedAt:     now,
	})
	if err != nil {
		t.Fatalf("creating participant: %v", err)
	}

	svc := compliance.NewServiceMock(
		inmemdb.NewMonthLogRepo(db), activityRepo, participantRepo,
		emailsvc.NewConsoleServiceMock(conf), nopLogger{}, conf,
		func() time.Time { return now },
	)
	return &fixture{db: db, activity: activityRepo, svc: svc, pid: p.ID}
}

func (f *fixture) seedMeals(t *testing.T, year, month, count int) {
	t.Helper()
	occurred := time.Date(year, time.Month(month), 5, 19, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		_, err := f.activity.CreateMealLog(context.Background(), activity.MealLog{
			ParticipantID: f.pid,
			OccurredAt:    occurred,
			AppliedYear:   year,
			AppliedMonth:  month,
			Type:          activity.MealUWS,
			Source:        activity.MealSelfReport,
			CreatedBy:     f.pid,
		})
		if err != nil {
			t.Fatalf("seeding meal: %v", err)
		}
	}
}

func (f *fixture) seedSession(t *testing.T, year, month, minutes int) activity.LearningSession {
	t.Helper()
	s, err := f.activity.CreateLearningSession(context.Background(), activity.LearningSession{
		ParticipantID: f.pid,
		StartedAt:     time.Date(year, time.Month(month), 6, 9, 0, 0, 0, time.UTC),
		Minutes:       minutes,
		AppliedYear:   year,
		AppliedMonth:  month,
		Source:        activity.SessionSelf,
		CreatedBy:     f.pid,
	})
	if err != nil {
		t.Fatalf("seeding session: %v", err)
	}
	return s
}

func TestServiceRecompute(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("insufficient credits stay incomplete", func(t *testing.T) {
		f := newFixture(t, now)
		f.seedMeals(t, 2024, 6, 3)
		f.seedSession(t, 2024, 6, 360)
		f.seedSession(t, 2024, 6, 240)

		if err := f.svc.Recompute(ctx, f.pid, 2024, 6); err != nil {
			t.Fatalf("Recompute() error = %v", err)
		}
		ml, err := f.svc.Get(ctx, f.pid, 2024, 6)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ml.MealsEarned != 3 || ml.MinutesEarned != 600 {
			t.Errorf("earned = (%d, %d), want (3, 600)", ml.MealsEarned, ml.MinutesEarned)
		}
		if ml.IsComplete {
			t.Error("IsComplete = true, want false")
		}
		if !ml.CompletedAt.IsZero() {
			t.Errorf("CompletedAt = %v, want zero", ml.CompletedAt)
		}
		wantDate := time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC)
		if !ml.ComputedPaymentDate.Equal(wantDate) {
			t.Errorf("ComputedPaymentDate = %v, want %v", ml.ComputedPaymentDate, wantDate)
		}
	})

	t.Run("both thresholds must be met", func(t *testing.T) {
		f := newFixture(t, now)
		f.seedMeals(t, 2024, 6, 4)
		f.seedSession(t, 2024, 6, 360)
		f.seedSession(t, 2024, 6, 240)

		if err := f.svc.Recompute(ctx, f.pid, 2024, 6); err != nil {
			t.Fatalf("Recompute() error = %v", err)
		}
		ml, _ := f.svc.Get(ctx, f.pid, 2024, 6)
		if ml.IsComplete {
			t.Error("IsComplete = true with 4 meals but only 600 minutes")
		}
	})

	t.Run("completion stamps the clock and mails once", func(t *testing.T) {
		f := newFixture(t, now)
		f.seedMeals(t, 2024, 6, 4)
		f.seedSession(t, 2024, 6, 360)
		f.seedSession(t, 2024, 6, 240)
		f.seedSession(t, 2024, 6, 120)
		emailsvc.ClearSentMessages()

		if err := f.svc.Recompute(ctx, f.pid, 2024, 6); err != nil {
			t.Fatalf("Recompute() error = %v", err)
		}
		ml, _ := f.svc.Get(ctx, f.pid, 2024, 6)
		if !ml.IsComplete {
			t.Fatal("IsComplete = false, want true")
		}
		if !ml.CompletedAt.Equal(now) {
			t.Errorf("CompletedAt = %v, want %v", ml.CompletedAt, now)
		}
		// payment date has not arrived yet
		if ml.PaymentStatus != compliance.PaymentNotDue {
			t.Errorf("PaymentStatus = %q, want %q", ml.PaymentStatus, compliance.PaymentNotDue)
		}
		if len(emailsvc.SentMessages) != 1 {
			t.Fatalf("sent messages = %d, want 1", len(emailsvc.SentMessages))
		}

		// an already complete month does not mail again
		if err := f.svc.Recompute(ctx, f.pid, 2024, 6); err != nil {
			t.Fatalf("Recompute() error = %v", err)
		}
		if len(emailsvc.SentMessages) != 1 {
			t.Errorf("sent messages = %d after idempotent recompute, want 1", len(emailsvc.SentMessages))
		}
	})

	t.Run("soft-deleted rows drop out of the rollup", func(t *testing.T) {
		f := newFixture(t, now)
		f.seedMeals(t, 2024, 6, 4)
		s := f.seedSession(t, 2024, 6, 720)

		if err := f.svc.Recompute(ctx, f.pid, 2024, 6); err != nil {
			t.Fatalf("Recompute() error = %v", err)
		}
		if ml, _ := f.svc.Get(ctx, f.pid, 2024, 6); !ml.IsComplete {
			t.Fatal("IsComplete = false, want true")
		}

		if err := f.activity.SoftDeleteLearningSession(ctx, s.ID, "typo", f.pid, now); err != nil {
			t.Fatalf("SoftDeleteLearningSession() error = %v", err)
		}
		if err := f.svc.Recompute(ctx, f.pid, 2024, 6); err != nil {
			t.Fatalf("Recompute() error = %v", err)
		}
		ml, _ := f.svc.Get(ctx, f.pid, 2024, 6)
		if ml.IsComplete {
			t.Error("IsComplete = true after losing all minutes")
		}
		if ml.MinutesEarned != 0 {
			t.Errorf("MinutesEarned = %d, want 0", ml.MinutesEarned)
		}
		if !ml.CompletedAt.IsZero() {
			t.Errorf("CompletedAt = %v, want zero after regression", ml.CompletedAt)
		}
	})

	t.Run("complete month past its payment date becomes due", func(t *testing.T) {
		late := time.Date(2024, time.August, 2, 8, 0, 0, 0, time.UTC)
		f := newFixture(t, late)
		f.seedMeals(t, 2024, 6, 4)
		f.seedSession(t, 2024, 6, 720)

		if err := f.svc.Recompute(ctx, f.pid, 2024, 6); err != nil {
			t.Fatalf("Recompute() error = %v", err)
		}
		ml, _ := f.svc.Get(ctx, f.pid, 2024, 6)
		if ml.PaymentStatus != compliance.PaymentDue {
			t.Errorf("PaymentStatus = %q, want %q", ml.PaymentStatus, compliance.PaymentDue)
		}
	})
}

func TestServiceMarkPayment(t *testing.T) {
	now := time.Date(2024, time.August, 2, 8, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("missing month log is rejected", func(t *testing.T) {
		f := newFixture(t, now)
		_, err := f.svc.MarkPayment(ctx, f.pid, 2024, 6, true, "admin@test.test")
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("MarkPayment() error = %v, want ValidationError", err)
		}
	})

	t.Run("paid and unpaid transitions", func(t *testing.T) {
		f := newFixture(t, now)
		f.seedMeals(t, 2024, 6, 4)
		f.seedSession(t, 2024, 6, 720)
		if err := f.svc.Recompute(ctx, f.pid, 2024, 6); err != nil {
			t.Fatalf("Recompute() error = %v", err)
		}

		ml, err := f.svc.MarkPayment(ctx, f.pid, 2024, 6, true, "admin@test.test")
		if err != nil {
			t.Fatalf("MarkPayment() error = %v", err)
		}
		if ml.PaymentStatus != compliance.PaymentPaid {
			t.Errorf("PaymentStatus = %q, want %q", ml.PaymentStatus, compliance.PaymentPaid)
		}
		if ml.PaymentMarkedBy != "admin@test.test" {
			t.Errorf("PaymentMarkedBy = %q", ml.PaymentMarkedBy)
		}
		if !ml.PaymentMarkedAt.Equal(now) {
			t.Errorf("PaymentMarkedAt = %v, want %v", ml.PaymentMarkedAt, now)
		}

		// unmarking falls back to the derived status: complete + past due date
		ml, err = f.svc.MarkPayment(ctx, f.pid, 2024, 6, false, "admin@test.test")
		if err != nil {
			t.Fatalf("MarkPayment() error = %v", err)
		}
		if ml.PaymentStatus != compliance.PaymentDue {
			t.Errorf("PaymentStatus = %q, want %q", ml.PaymentStatus, compliance.PaymentDue)
		}
	})

	t.Run("unpaid incomplete month is not due", func(t *testing.T) {
		f := newFixture(t, now)
		f.seedMeals(t, 2024, 6, 1)
		if err := f.svc.Recompute(ctx, f.pid, 2024, 6); err != nil {
			t.Fatalf("Recompute() error = %v", err)
		}

		ml, err := f.svc.MarkPayment(ctx, f.pid, 2024, 6, false, "admin@test.test")
		if err != nil {
			t.Fatalf("MarkPayment() error = %v", err)
		}
		if ml.PaymentStatus != compliance.PaymentNotDue {
			t.Errorf("PaymentStatus = %q, want %q", ml.PaymentStatus, compliance.PaymentNotDue)
		}
	})
}

func TestServiceCanApplyMakeUp(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("previous incomplete month is eligible", func(t *testing.T) {
		f := newFixture(t, now)
		f.seedMeals(t, 2024, 5, 1)
		if err := f.svc.Recompute(ctx, f.pid, 2024, 5); err != nil {
			t.Fatalf("Recompute() error = %v", err)
		}

		ok, err := f.svc.CanApplyMakeUp(ctx, f.pid, 2024, 6, 2024, 5)
		if err != nil {
			t.Fatalf("CanApplyMakeUp() error = %v", err)
		}
		if !ok {
			t.Error("CanApplyMakeUp() = false, want true")
		}
	})

	t.Run("complete previous month is not eligible", func(t *testing.T) {
		f := newFixture(t, now)
		f.seedMeals(t, 2024, 5, 4)
		f.seedSession(t, 2024, 5, 720)
		if err := f.svc.Recompute(ctx, f.pid, 2024, 5); err != nil {
			t.Fatalf("Recompute() error = %v", err)
		}

		if ok, _ := f.svc.CanApplyMakeUp(ctx, f.pid, 2024, 6, 2024, 5); ok {
			t.Error("CanApplyMakeUp() = true for a complete month")
		}
	})

	t.Run("two months back is not eligible", func(t *testing.T) {
		f := newFixture(t, now)
		f.seedMeals(t, 2024, 4, 1)
		if err := f.svc.Recompute(ctx, f.pid, 2024, 4); err != nil {
			t.Fatalf("Recompute() error = %v", err)
		}

		if ok, _ := f.svc.CanApplyMakeUp(ctx, f.pid, 2024, 6, 2024, 4); ok {
			t.Error("CanApplyMakeUp() = true two months back")
		}
	})

	t.Run("missing month log is not eligible", func(t *testing.T) {
		f := newFixture(t, now)
		if ok, _ := f.svc.CanApplyMakeUp(ctx, f.pid, 2024, 6, 2024, 5); ok {
			t.Error("CanApplyMakeUp() = true with no month log")
		}
	})

	t.Run("january looks back to december", func(t *testing.T) {
		jan := time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC)
		f := newFixture(t, jan)
		f.seedMeals(t, 2024, 12, 1)
		if err := f.svc.Recompute(ctx, f.pid, 2024, 12); err != nil {
			t.Fatalf("Recompute() error = %v", err)
		}

		ok, err := f.svc.CanApplyMakeUp(ctx, f.pid, 2025, 1, 2024, 12)
		if err != nil {
			t.Fatalf("CanApplyMakeUp() error = %v", err)
		}
		if !ok {
			t.Error("CanApplyMakeUp() = false across the year boundary")
		}
	})
}
