package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/uwsprogram/tracker/core"
	"github.com/uwsprogram/tracker/core/rsvp"
)

type RsvpRepo struct {
	db *DB
}

var _ rsvp.Repository = (*RsvpRepo)(nil)

func NewRsvpRepo(db *DB) *RsvpRepo {
	return &RsvpRepo{db: db}
}

func (repo *RsvpRepo) UpsertRsvp(_ context.Context, r rsvp.UWSRsvp, _ ...core.DBExecutor) (rsvp.UWSRsvp, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for id, existing := range repo.db.rsvps {
		if existing.ParticipantID == r.ParticipantID && existing.WeekDate.Equal(r.WeekDate) {
			existing.Attending = r.Attending
			existing.RsvpAt = r.RsvpAt
			repo.db.rsvps[id] = existing
			return existing, nil
		}
	}
	r.ID = uuid.New().String()
	repo.db.rsvps[r.ID] = r
	return r, nil
}

func (repo *RsvpRepo) GetRsvp(_ context.Context, participantID string, weekDate time.Time, _ ...core.DBExecutor) (rsvp.UWSRsvp, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, r := range repo.db.rsvps {
		if r.ParticipantID == participantID && r.WeekDate.Equal(weekDate) {
			return r, nil
		}
	}
	return rsvp.UWSRsvp{}, rsvp.ErrNotFound
}

func (repo *RsvpRepo) QueryRsvps(_ context.Context, weekDate *time.Time, _ ...core.DBExecutor) ([]rsvp.UWSRsvp, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var rs []rsvp.UWSRsvp
	for _, r := range repo.db.rsvps {
		if weekDate != nil && !r.WeekDate.Equal(*weekDate) {
			continue
		}
		rs = append(rs, r)
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].RsvpAt.After(rs[j].RsvpAt) })
	return rs, nil
}

func (repo *RsvpRepo) DeleteRsvp(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.rsvps[id]; !ok {
		return rsvp.ErrNotFound
	}
	delete(repo.db.rsvps, id)
	return nil
}
