package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/uwsprogram/tracker/core"
	"github.com/uwsprogram/tracker/core/activity"
)

type mealLogRow struct {
	ID            string         `db:"id"`
	ParticipantID string         `db:"participant_id"`
	OccurredAt    time.Time      `db:"occurred_at"`
	AppliedYear   int            `db:"applied_year"`
	AppliedMonth  int            `db:"applied_month"`
	Type          string         `db:"type"`
	Notes         sql.NullString `db:"notes"`
	Source        string         `db:"source"`
	ShabbatonID   sql.NullString `db:"shabbaton_id"`
	CreatedBy     string         `db:"created_by"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
	Deleted       bool           `db:"deleted"`
	DeletedReason sql.NullString `db:"deleted_reason"`
	DeletedBy     sql.NullString `db:"deleted_by"`
	DeletedAt     sql.NullTime   `db:"deleted_at"`
}

func (row mealLogRow) toDomain() activity.MealLog {
	m := activity.MealLog{
		ID:            row.ID,
		ParticipantID: row.ParticipantID,
		OccurredAt:    row.OccurredAt.UTC(),
		AppliedYear:   row.AppliedYear,
		AppliedMonth:  row.AppliedMonth,
		Type:          activity.MealType(row.Type),
		Notes:         row.Notes.String,
		Source:        activity.MealSource(row.Source),
		ShabbatonID:   row.ShabbatonID.String,
		CreatedBy:     row.CreatedBy,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
		Deleted:       row.Deleted,
		DeletedReason: row.DeletedReason.String,
		DeletedBy:     row.DeletedBy.String,
	}
	if row.DeletedAt.Valid {
		m.DeletedAt = row.DeletedAt.Time.UTC()
	}
	return m
}

type learningSessionRow struct {
	ID            string         `db:"id"`
	ParticipantID string         `db:"participant_id"`
	StartedAt     time.Time      `db:"started_at"`
	Minutes       int            `db:"minutes"`
	Notes         sql.NullString `db:"notes"`
	AppliedYear   int            `db:"applied_year"`
	AppliedMonth  int            `db:"applied_month"`
	Source        string         `db:"source"`
	ShabbatonID   sql.NullString `db:"shabbaton_id"`
	CreatedBy     string         `db:"created_by"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
	Deleted       bool           `db:"deleted"`
	DeletedReason sql.NullString `db:"deleted_reason"`
	DeletedBy     sql.NullString `db:"deleted_by"`
	DeletedAt     sql.NullTime   `db:"deleted_at"`
}

func (row learningSessionRow) toDomain() activity.LearningSession {
	s := activity.LearningSession{
		ID:            row.ID,
		ParticipantID: row.ParticipantID,
		StartedAt:     row.StartedAt.UTC(),
		Minutes:       row.Minutes,
		Notes:         row.Notes.String,
		AppliedYear:   row.AppliedYear,
		AppliedMonth:  row.AppliedMonth,
		Source:        activity.SessionSource(row.Source),
		ShabbatonID:   row.ShabbatonID.String,
		CreatedBy:     row.CreatedBy,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
		Deleted:       row.Deleted,
		DeletedReason: row.DeletedReason.String,
		DeletedBy:     row.DeletedBy.String,
	}
	if row.DeletedAt.Valid {
		s.DeletedAt = row.DeletedAt.Time.UTC()
	}
	return s
}

type ActivityRepo struct {
	db *sqlx.DB
}

var _ activity.Repository = (*ActivityRepo)(nil)

func NewActivityRepo(db *sqlx.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (repo *ActivityRepo) CreateMealLog(ctx context.Context, m activity.MealLog, exec ...core.DBExecutor) (activity.MealLog, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	q := `
INSERT INTO meal_logs (
	id, participant_id, occurred_at, applied_year, applied_month, type, notes,
	source, shabbaton_id, created_by, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, NULLIF($9, '')::uuid, $10, $11, $12)`
	_, err := getExec(repo.db, exec).ExecContext(ctx, q,
		m.ID, m.ParticipantID, m.OccurredAt, m.AppliedYear, m.AppliedMonth, string(m.Type), m.Notes,
		string(m.Source), m.ShabbatonID, m.CreatedBy, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return activity.MealLog{}, errors.Wrap(err, "inserting meal log")
	}
	return m, nil
}

func (repo *ActivityRepo) GetMealLogByID(ctx context.Context, id string, exec ...core.DBExecutor) (activity.MealLog, error) {
	var row mealLogRow
	q := `SELECT * FROM meal_logs WHERE id = $1 AND NOT deleted`
	if err := getExec(repo.db, exec).GetContext(ctx, &row, q, id); err != nil {
		return activity.MealLog{}, trapNoRowsErr(err, activity.ErrMealNotFound, "getting meal log")
	}
	return row.toDomain(), nil
}

func (repo *ActivityRepo) SoftDeleteMealLog(ctx context.Context, id, reason, deletedBy string, at time.Time, exec ...core.DBExecutor) error {
	q := `
UPDATE meal_logs
SET deleted = TRUE, deleted_reason = NULLIF($2, ''), deleted_by = $3, deleted_at = $4, updated_at = $4
WHERE id = $1 AND NOT deleted`
	res, err := getExec(repo.db, exec).ExecContext(ctx, q, id, reason, deletedBy, at)
	if err != nil {
		return errors.Wrap(err, "soft-deleting meal log")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return activity.ErrMealNotFound
	}
	return nil
}

func (repo *ActivityRepo) QueryMealLogs(ctx context.Context, filter activity.QueryFilter, exec ...core.DBExecutor) ([]activity.MealLog, error) {
	q, args := activityQuery("meal_logs", "occurred_at", filter)
	var rows []mealLogRow
	if err := getExec(repo.db, exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying meal logs")
	}
	ms := make([]activity.MealLog, len(rows))
	for i, row := range rows {
		ms[i] = row.toDomain()
	}
	return ms, nil
}

func (repo *ActivityRepo) CreateLearningSession(ctx context.Context, s activity.LearningSession, exec ...core.DBExecutor) (activity.LearningSession, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	q := `
INSERT INTO learning_sessions (
	id, participant_id, started_at, minutes, notes, applied_year, applied_month,
	source, shabbaton_id, created_by, created_at, updated_at
)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, NULLIF($9, '')::uuid, $10, $11, $12)`
	_, err := getExec(repo.db, exec).ExecContext(ctx, q,
		s.ID, s.ParticipantID, s.StartedAt, s.Minutes, s.Notes, s.AppliedYear, s.AppliedMonth,
		string(s.Source), s.ShabbatonID, s.CreatedBy, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return activity.LearningSession{}, errors.Wrap(err, "inserting learning session")
	}
	return s, nil
}

func (repo *ActivityRepo) GetLearningSessionByID(ctx context.Context, id string, exec ...core.DBExecutor) (activity.LearningSession, error) {
	var row learningSessionRow
	q := `SELECT * FROM learning_sessions WHERE id = $1 AND NOT deleted`
	if err := getExec(repo.db, exec).GetContext(ctx, &row, q, id); err != nil {
		return activity.LearningSession{}, trapNoRowsErr(err, activity.ErrSessionNotFound, "getting learning session")
	}
	return row.toDomain(), nil
}

func (repo *ActivityRepo) SoftDeleteLearningSession(ctx context.Context, id, reason, deletedBy string, at time.Time, exec ...core.DBExecutor) error {
	q := `
UPDATE learning_sessions
SET deleted = TRUE, deleted_reason = NULLIF($2, ''), deleted_by = $3, deleted_at = $4, updated_at = $4
WHERE id = $1 AND NOT deleted`
	res, err := getExec(repo.db, exec).ExecContext(ctx, q, id, reason, deletedBy, at)
	if err != nil {
		return errors.Wrap(err, "soft-deleting learning session")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return activity.ErrSessionNotFound
	}
	return nil
}

func (repo *ActivityRepo) QueryLearningSessions(ctx context.Context, filter activity.QueryFilter, exec ...core.DBExecutor) ([]activity.LearningSession, error) {
	q, args := activityQuery("learning_sessions", "started_at", filter)
	var rows []learningSessionRow
	if err := getExec(repo.db, exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying learning sessions")
	}
	ss := make([]activity.LearningSession, len(rows))
	for i, row := range rows {
		ss[i] = row.toDomain()
	}
	return ss, nil
}

func (repo *ActivityRepo) SoftDeleteGrants(ctx context.Context, participantID, shabbatonID, reason, deletedBy string, at time.Time, exec ...core.DBExecutor) error {
	ex := getExec(repo.db, exec)
	q := `
UPDATE meal_logs
SET deleted = TRUE, deleted_reason = $3, deleted_by = $4, deleted_at = $5, updated_at = $5
WHERE participant_id = $1 AND shabbaton_id = $2 AND source = $6 AND NOT deleted`
	if _, err := ex.ExecContext(ctx, q, participantID, shabbatonID, reason, deletedBy, at, string(activity.MealAttendanceGrant)); err != nil {
		return errors.Wrap(err, "soft-deleting granted meal logs")
	}
	q = `
UPDATE learning_sessions
SET deleted = TRUE, deleted_reason = $3, deleted_by = $4, deleted_at = $5, updated_at = $5
WHERE participant_id = $1 AND shabbaton_id = $2 AND source = $6 AND NOT deleted`
	if _, err := ex.ExecContext(ctx, q, participantID, shabbatonID, reason, deletedBy, at, string(activity.SessionShabbaton)); err != nil {
		return errors.Wrap(err, "soft-deleting granted learning sessions")
	}
	return nil
}

func (repo *ActivityRepo) CountMeals(ctx context.Context, participantID string, year, month int, exec ...core.DBExecutor) (int, error) {
	var count int
	q := `
SELECT COUNT(*) FROM meal_logs
WHERE participant_id = $1 AND applied_year = $2 AND applied_month = $3 AND NOT deleted`
	if err := getExec(repo.db, exec).GetContext(ctx, &count, q, participantID, year, month); err != nil {
		return 0, errors.Wrap(err, "counting meals")
	}
	return count, nil
}

func (repo *ActivityRepo) SumLearningMinutes(ctx context.Context, participantID string, year, month int, exec ...core.DBExecutor) (int, error) {
	var minutes int
	q := `
SELECT COALESCE(SUM(minutes), 0) FROM learning_sessions
WHERE participant_id = $1 AND applied_year = $2 AND applied_month = $3 AND NOT deleted`
	if err := getExec(repo.db, exec).GetContext(ctx, &minutes, q, participantID, year, month); err != nil {
		return 0, errors.Wrap(err, "summing learning minutes")
	}
	return minutes, nil
}

// activityQuery builds the filtered non-deleted select shared by both tables.
func activityQuery(table, orderField string, filter activity.QueryFilter) (string, []interface{}) {
	conds := []string{"NOT deleted"}
	var args []interface{}
	if filter.ParticipantID != "" {
		args = append(args, filter.ParticipantID)
		conds = append(conds, fmt.Sprintf("participant_id = $%d", len(args)))
	}
	if filter.AppliedYear != 0 {
		args = append(args, filter.AppliedYear)
		conds = append(conds, fmt.Sprintf("applied_year = $%d", len(args)))
	}
	if filter.AppliedMonth != 0 {
		args = append(args, filter.AppliedMonth)
		conds = append(conds, fmt.Sprintf("applied_month = $%d", len(args)))
	}
	q := fmt.Sprintf(
		"SELECT * FROM %s WHERE %s ORDER BY %s DESC",
		table, strings.Join(conds, " AND "), orderField,
	)
	return q, args
}
