package rsvp_test

import (
	"context"
	"testing"
	"time"

	"github.com/uwsprogram/tracker/core"
	"github.com/uwsprogram/tracker/core/rsvp"
	inmemdb "github.com/uwsprogram/tracker/storage/database/inmem"
)

func newService(now time.Time) *rsvp.Service {
	return rsvp.NewServiceMock(inmemdb.NewRsvpRepo(inmemdb.Open()), func() time.Time { return now })
}

func TestServiceSet(t *testing.T) {
	// Tuesday in New York
	open := time.Date(2024, time.June, 11, 15, 0, 0, 0, time.UTC)
	saturday := time.Date(2024, time.June, 15, 9, 30, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("set inside the window", func(t *testing.T) {
		svc := newService(open)
		r, err := svc.Set(ctx, "p1", saturday, true)
		if err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		want := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
		if !r.WeekDate.Equal(want) {
			t.Errorf("WeekDate = %v, want normalized %v", r.WeekDate, want)
		}
		if !r.Attending {
			t.Error("Attending = false, want true")
		}
	})

	t.Run("setting twice updates in place", func(t *testing.T) {
		svc := newService(open)
		first, err := svc.Set(ctx, "p1", saturday, true)
		if err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		second, err := svc.Set(ctx, "p1", saturday, false)
		if err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if second.ID != first.ID {
			t.Errorf("ID = %q, want the original %q", second.ID, first.ID)
		}
		if second.Attending {
			t.Error("Attending = true after update, want false")
		}

		rs, err := svc.QueryAll(ctx, saturday)
		if err != nil {
			t.Fatalf("QueryAll() error = %v", err)
		}
		if len(rs) != 1 {
			t.Errorf("rows = %d, want 1", len(rs))
		}
	})

	t.Run("zero week date targets the upcoming Saturday", func(t *testing.T) {
		svc := newService(open)
		r, err := svc.Set(ctx, "p1", time.Time{}, true)
		if err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		want := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
		if !r.WeekDate.Equal(want) {
			t.Errorf("WeekDate = %v, want %v", r.WeekDate, want)
		}
	})

	t.Run("closed window is rejected", func(t *testing.T) {
		// Friday in New York
		closed := time.Date(2024, time.June, 14, 15, 0, 0, 0, time.UTC)
		svc := newService(closed)
		_, err := svc.Set(ctx, "p1", saturday, true)
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("Set() error = %v, want ValidationError", err)
		}
	})

	t.Run("admin bypasses the window", func(t *testing.T) {
		closed := time.Date(2024, time.June, 14, 15, 0, 0, 0, time.UTC)
		svc := newService(closed)
		if _, err := svc.AdminSet(ctx, "p1", saturday, true); err != nil {
			t.Fatalf("AdminSet() error = %v", err)
		}
	})
}

func TestServiceGetDelete(t *testing.T) {
	open := time.Date(2024, time.June, 11, 15, 0, 0, 0, time.UTC)
	saturday := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	svc := newService(open)
	r, err := svc.Set(ctx, "p1", saturday, true)
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := svc.Get(ctx, "p1", saturday)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != r.ID {
		t.Errorf("ID = %q, want %q", got.ID, r.ID)
	}

	if err = svc.Delete(ctx, r.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err = svc.Get(ctx, "p1", saturday); err != rsvp.ErrNotFound {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}
