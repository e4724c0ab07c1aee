package inmemdb

import (
	"context"
	"sort"

	"github.com/uwsprogram/tracker/core"
	"github.com/uwsprogram/tracker/core/compliance"
)

type MonthLogRepo struct {
	db *DB
}

var _ compliance.Repository = (*MonthLogRepo)(nil)

func NewMonthLogRepo(db *DB) *MonthLogRepo {
	return &MonthLogRepo{db: db}
}

func (repo *MonthLogRepo) GetMonthLog(_ context.Context, participantID string, year, month int, _ ...core.DBExecutor) (compliance.MonthLog, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	ml, ok := repo.db.monthLogs[monthKey{participantID, year, month}]
	if !ok {
		return compliance.MonthLog{}, compliance.ErrNotFound
	}
	return ml, nil
}

func (repo *MonthLogRepo) CreateMonthLog(_ context.Context, ml compliance.MonthLog, _ ...core.DBExecutor) (compliance.MonthLog, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	repo.db.monthLogs[monthKey{ml.ParticipantID, ml.Year, ml.Month}] = ml
	return ml, nil
}

func (repo *MonthLogRepo) UpdateMonthLog(_ context.Context, ml compliance.MonthLog, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	key := monthKey{ml.ParticipantID, ml.Year, ml.Month}
	if _, ok := repo.db.monthLogs[key]; !ok {
		return compliance.ErrNotFound
	}
	repo.db.monthLogs[key] = ml
	return nil
}

func (repo *MonthLogRepo) QueryMonthLogs(_ context.Context, filter compliance.QueryFilter, _ ...core.DBExecutor) ([]compliance.MonthLog, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var mls []compliance.MonthLog
	for _, ml := range repo.db.monthLogs {
		if filter.ParticipantID != "" && ml.ParticipantID != filter.ParticipantID {
			continue
		}
		if filter.Year != 0 && ml.Year != filter.Year {
			continue
		}
		if filter.Month != 0 && ml.Month != filter.Month {
			continue
		}
		if len(filter.PaymentStatuses) > 0 && !containsStatus(filter.PaymentStatuses, ml.PaymentStatus) {
			continue
		}
		mls = append(mls, ml)
	}
	sort.Slice(mls, func(i, j int) bool {
		if mls[i].Year != mls[j].Year {
			return mls[i].Year > mls[j].Year
		}
		return mls[i].Month > mls[j].Month
	})
	return mls, nil
}

func containsStatus(statuses []compliance.PaymentStatus, status compliance.PaymentStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
