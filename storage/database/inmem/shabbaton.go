package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/uwsprogram/tracker/core"
	"github.com/uwsprogram/tracker/core/shabbaton"
)

type ShabbatonRepo struct {
	db *DB
}

var _ shabbaton.Repository = (*ShabbatonRepo)(nil)

func NewShabbatonRepo(db *DB) *ShabbatonRepo {
	return &ShabbatonRepo{db: db}
}

func (repo *ShabbatonRepo) CreateShabbaton(_ context.Context, s shabbaton.Shabbaton, _ ...core.DBExecutor) (shabbaton.Shabbaton, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	repo.db.shabbatons[s.ID] = s
	return s, nil
}

func (repo *ShabbatonRepo) GetShabbatonByID(_ context.Context, id string, _ ...core.DBExecutor) (shabbaton.Shabbaton, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	s, ok := repo.db.shabbatons[id]
	if !ok {
		return shabbaton.Shabbaton{}, shabbaton.ErrNotFound
	}
	return s, nil
}

func (repo *ShabbatonRepo) QueryShabbatons(_ context.Context, _ ...core.DBExecutor) ([]shabbaton.Shabbaton, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var ss []shabbaton.Shabbaton
	for _, s := range repo.db.shabbatons {
		ss = append(ss, s)
	}
	sort.Slice(ss, func(i, j int) bool { return ss[i].Date.Before(ss[j].Date) })
	return ss, nil
}

func (repo *ShabbatonRepo) CreateAttendance(_ context.Context, a shabbaton.Attendance, _ ...core.DBExecutor) (shabbaton.Attendance, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	repo.db.attendances[a.ID] = a
	return a, nil
}

func (repo *ShabbatonRepo) GetAttendanceByID(_ context.Context, id string, _ ...core.DBExecutor) (shabbaton.Attendance, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	a, ok := repo.db.attendances[id]
	if !ok {
		return shabbaton.Attendance{}, shabbaton.ErrAttendanceNotFound
	}
	return a, nil
}

func (repo *ShabbatonRepo) AttendanceExists(_ context.Context, participantID, shabbatonID string, _ ...core.DBExecutor) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, a := range repo.db.attendances {
		if a.ParticipantID == participantID && a.ShabbatonID == shabbatonID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *ShabbatonRepo) QueryAttendances(_ context.Context, filter shabbaton.AttendanceFilter, _ ...core.DBExecutor) ([]shabbaton.Attendance, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var as []shabbaton.Attendance
	for _, a := range repo.db.attendances {
		if filter.ParticipantID != "" && a.ParticipantID != filter.ParticipantID {
			continue
		}
		if filter.ShabbatonID != "" && a.ShabbatonID != filter.ShabbatonID {
			continue
		}
		as = append(as, a)
	}
	sort.Slice(as, func(i, j int) bool { return as[i].CreatedAt.After(as[j].CreatedAt) })
	return as, nil
}

func (repo *ShabbatonRepo) UpdateAttendanceStatus(_ context.Context, id string, status shabbaton.AttendanceStatus, markedBy string, markedAt time.Time, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	a, ok := repo.db.attendances[id]
	if !ok {
		return shabbaton.ErrAttendanceNotFound
	}
	a.Status = status
	a.MarkedBy = markedBy
	a.MarkedAt = markedAt
	repo.db.attendances[id] = a
	return nil
}

func (repo *ShabbatonRepo) CountConfirmed(_ context.Context, shabbatonID string, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for _, a := range repo.db.attendances {
		if a.ShabbatonID == shabbatonID && a.Status == shabbaton.StatusConfirmed {
			count++
		}
	}
	return count, nil
}

func (repo *ShabbatonRepo) SetAttendanceCount(_ context.Context, shabbatonID string, count int, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	s, ok := repo.db.shabbatons[shabbatonID]
	if !ok {
		return shabbaton.ErrNotFound
	}
	s.AttendanceCount = count
	repo.db.shabbatons[shabbatonID] = s
	return nil
}
