package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/uwsprogram/tracker/core"
	"github.com/uwsprogram/tracker/core/activity"
)

type ActivityRepo struct {
	db *DB
}

var _ activity.Repository = (*ActivityRepo)(nil)

func NewActivityRepo(db *DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (repo *ActivityRepo) CreateMealLog(_ context.Context, m activity.MealLog, _ ...core.DBExecutor) (activity.MealLog, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	repo.db.mealLogs[m.ID] = m
	return m, nil
}

func (repo *ActivityRepo) GetMealLogByID(_ context.Context, id string, _ ...core.DBExecutor) (activity.MealLog, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	m, ok := repo.db.mealLogs[id]
	if !ok || m.Deleted {
		return activity.MealLog{}, activity.ErrMealNotFound
	}
	return m, nil
}

func (repo *ActivityRepo) SoftDeleteMealLog(_ context.Context, id, reason, deletedBy string, at time.Time, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	m, ok := repo.db.mealLogs[id]
	if !ok || m.Deleted {
		return activity.ErrMealNotFound
	}
	m.Deleted = true
	m.DeletedReason = reason
	m.DeletedBy = deletedBy
	m.DeletedAt = at
	m.UpdatedAt = at
	repo.db.mealLogs[id] = m
	return nil
}

func (repo *ActivityRepo) QueryMealLogs(_ context.Context, filter activity.QueryFilter, _ ...core.DBExecutor) ([]activity.MealLog, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var ms []activity.MealLog
	for _, m := range repo.db.mealLogs {
		if m.Deleted || !matchesFilter(filter, m.ParticipantID, m.AppliedYear, m.AppliedMonth) {
			continue
		}
		ms = append(ms, m)
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].OccurredAt.After(ms[j].OccurredAt) })
	return ms, nil
}

func (repo *ActivityRepo) CreateLearningSession(_ context.Context, s activity.LearningSession, _ ...core.DBExecutor) (activity.LearningSession, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	repo.db.sessions[s.ID] = s
	return s, nil
}

func (repo *ActivityRepo) GetLearningSessionByID(_ context.Context, id string, _ ...core.DBExecutor) (activity.LearningSession, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	s, ok := repo.db.sessions[id]
	if !ok || s.Deleted {
		return activity.LearningSession{}, activity.ErrSessionNotFound
	}
	return s, nil
}

func (repo *ActivityRepo) SoftDeleteLearningSession(_ context.Context, id, reason, deletedBy string, at time.Time, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	s, ok := repo.db.sessions[id]
	if !ok || s.Deleted {
		return activity.ErrSessionNotFound
	}
	s.Deleted = true
	s.DeletedReason = reason
	s.DeletedBy = deletedBy
	s.DeletedAt = at
	s.UpdatedAt = at
	repo.db.sessions[id] = s
	return nil
}

func (repo *ActivityRepo) QueryLearningSessions(_ context.Context, filter activity.QueryFilter, _ ...core.DBExecutor) ([]activity.LearningSession, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var ss []activity.LearningSession
	for _, s := range repo.db.sessions {
		if s.Deleted || !matchesFilter(filter, s.ParticipantID, s.AppliedYear, s.AppliedMonth) {
			continue
		}
		ss = append(ss, s)
	}
	sort.Slice(ss, func(i, j int) bool { return ss[i].StartedAt.After(ss[j].StartedAt) })
	return ss, nil
}

func (repo *ActivityRepo) SoftDeleteGrants(_ context.Context, participantID, shabbatonID, reason, deletedBy string, at time.Time, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for id, m := range repo.db.mealLogs {
		if m.Deleted || m.ParticipantID != participantID || m.ShabbatonID != shabbatonID || m.Source != activity.MealAttendanceGrant {
			continue
		}
		m.Deleted = true
		m.DeletedReason = reason
		m.DeletedBy = deletedBy
		m.DeletedAt = at
		m.UpdatedAt = at
		repo.db.mealLogs[id] = m
	}
	for id, s := range repo.db.sessions {
		if s.Deleted || s.ParticipantID != participantID || s.ShabbatonID != shabbatonID || s.Source != activity.SessionShabbaton {
			continue
		}
		s.Deleted = true
		s.DeletedReason = reason
		s.DeletedBy = deletedBy
		s.DeletedAt = at
		s.UpdatedAt = at
		repo.db.sessions[id] = s
	}
	return nil
}

func (repo *ActivityRepo) CountMeals(_ context.Context, participantID string, year, month int, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for _, m := range repo.db.mealLogs {
		if !m.Deleted && m.ParticipantID == participantID && m.AppliedYear == year && m.AppliedMonth == month {
			count++
		}
	}
	return count, nil
}

func (repo *ActivityRepo) SumLearningMinutes(_ context.Context, participantID string, year, month int, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var minutes int
	for _, s := range repo.db.sessions {
		if !s.Deleted && s.ParticipantID == participantID && s.AppliedYear == year && s.AppliedMonth == month {
			minutes += s.Minutes
		}
	}
	return minutes, nil
}

func matchesFilter(filter activity.QueryFilter, participantID string, year, month int) bool {
	if filter.ParticipantID != "" && participantID != filter.ParticipantID {
		return false
	}
	if filter.AppliedYear != 0 && year != filter.AppliedYear {
		return false
	}
	if filter.AppliedMonth != 0 && month != filter.AppliedMonth {
		return false
	}
	return true
}
