// Package inmemdb provides in-memory repository implementations for tests and
// local development without a database.
package inmemdb

import (
	"context"
	"sync"

	"github.com/uwsprogram/tracker/core"
	"github.com/uwsprogram/tracker/core/activity"
	"github.com/uwsprogram/tracker/core/compliance"
	"github.com/uwsprogram/tracker/core/participant"
	"github.com/uwsprogram/tracker/core/rsvp"
	"github.com/uwsprogram/tracker/core/shabbaton"
)

type monthKey struct {
	participantID string
	year, month   int
}

type DB struct {
	mu sync.RWMutex

	participants map[string]participant.Participant
	monthLogs    map[monthKey]compliance.MonthLog
	mealLogs     map[string]activity.MealLog
	sessions     map[string]activity.LearningSession
	shabbatons   map[string]shabbaton.Shabbaton
	attendances  map[string]shabbaton.Attendance
	rsvps        map[string]rsvp.UWSRsvp
}

var _ core.Atomic = (*DB)(nil)

func Open() *DB {
	return &DB{
		participants: make(map[string]participant.Participant),
		monthLogs:    make(map[monthKey]compliance.MonthLog),
		mealLogs:     make(map[string]activity.MealLog),
		sessions:     make(map[string]activity.LearningSession),
		shabbatons:   make(map[string]shabbaton.Shabbaton),
		attendances:  make(map[string]shabbaton.Attendance),
		rsvps:        make(map[string]rsvp.UWSRsvp),
	}
}

// RunInTx just runs fn; the map store has no transactions, every write is
// applied immediately.
func (db *DB) RunInTx(_ context.Context, fn func(exec core.DBExecutor) error) error {
	return fn(nil)
}
