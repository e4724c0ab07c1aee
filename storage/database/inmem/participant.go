package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/uwsprogram/tracker/core"
	"github.com/uwsprogram/tracker/core/participant"
)

type ParticipantRepo struct {
	db *DB
}

var _ participant.Repository = (*ParticipantRepo)(nil)

func NewParticipantRepo(db *DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

func (repo *ParticipantRepo) CreateParticipant(_ context.Context, p participant.Participant, _ ...core.DBExecutor) (participant.Participant, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	repo.db.participants[p.ID] = p
	return p, nil
}

func (repo *ParticipantRepo) GetParticipantByID(_ context.Context, id string, _ ...core.DBExecutor) (participant.Participant, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	p, ok := repo.db.participants[id]
	if !ok {
		return participant.Participant{}, participant.ErrNotFound
	}
	return p, nil
}

func (repo *ParticipantRepo) GetParticipantByEmail(_ context.Context, email string, _ ...core.DBExecutor) (participant.Participant, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, p := range repo.db.participants {
		if p.Email == email {
			return p, nil
		}
	}
	return participant.Participant{}, participant.ErrNotFound
}

func (repo *ParticipantRepo) QueryParticipants(_ context.Context, activeOnly bool, _ ...core.DBExecutor) ([]participant.Participant, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var ps []participant.Participant
	for _, p := range repo.db.participants {
		if activeOnly && !p.IsActive() {
			continue
		}
		ps = append(ps, p)
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].CreatedAt.Before(ps[j].CreatedAt) })
	return ps, nil
}
