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
	"github.com/uwsprogram/tracker/core/shabbaton"
)

type shabbatonRow struct {
	ID              string    `db:"id"`
	Title           string    `db:"title"`
	Date            time.Time `db:"date"`
	DefaultMeals    int       `db:"default_meals"`
	DefaultMinutes  int       `db:"default_minutes"`
	AttendanceCount int       `db:"attendance_count"`
}

func (row shabbatonRow) toDomain() shabbaton.Shabbaton {
	return shabbaton.Shabbaton{
		ID:              row.ID,
		Title:           row.Title,
		Date:            row.Date.UTC(),
		DefaultMeals:    row.DefaultMeals,
		DefaultMinutes:  row.DefaultMinutes,
		AttendanceCount: row.AttendanceCount,
	}
}

type attendanceRow struct {
	ID             string         `db:"id"`
	ParticipantID  string         `db:"participant_id"`
	ShabbatonID    string         `db:"shabbaton_id"`
	AppliedYear    int            `db:"applied_year"`
	AppliedMonth   int            `db:"applied_month"`
	GrantedMeals   int            `db:"granted_meals"`
	GrantedMinutes int            `db:"granted_minutes"`
	Status         string         `db:"status"`
	MarkedBy       sql.NullString `db:"marked_by"`
	MarkedAt       sql.NullTime   `db:"marked_at"`
	CreatedAt      time.Time      `db:"created_at"`
}

func (row attendanceRow) toDomain() shabbaton.Attendance {
	a := shabbaton.Attendance{
		ID:             row.ID,
		ParticipantID:  row.ParticipantID,
		ShabbatonID:    row.ShabbatonID,
		AppliedYear:    row.AppliedYear,
		AppliedMonth:   row.AppliedMonth,
		GrantedMeals:   row.GrantedMeals,
		GrantedMinutes: row.GrantedMinutes,
		Status:         shabbaton.AttendanceStatus(row.Status),
		MarkedBy:       row.MarkedBy.String,
		CreatedAt:      row.CreatedAt.UTC(),
	}
	if row.MarkedAt.Valid {
		a.MarkedAt = row.MarkedAt.Time.UTC()
	}
	return a
}

type ShabbatonRepo struct {
	db *sqlx.DB
}

var _ shabbaton.Repository = (*ShabbatonRepo)(nil)

func NewShabbatonRepo(db *sqlx.DB) *ShabbatonRepo {
	return &ShabbatonRepo{db: db}
}

func (repo *ShabbatonRepo) CreateShabbaton(ctx context.Context, s shabbaton.Shabbaton, exec ...core.DBExecutor) (shabbaton.Shabbaton, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	q := `
INSERT INTO shabbatons (id, title, date, default_meals, default_minutes, attendance_count)
VALUES ($1, $2, $3, $4, $5, 0)`
	_, err := getExec(repo.db, exec).ExecContext(ctx, q, s.ID, s.Title, s.Date, s.DefaultMeals, s.DefaultMinutes)
	if err != nil {
		return shabbaton.Shabbaton{}, errors.Wrap(err, "inserting shabbaton")
	}
	return s, nil
}

func (repo *ShabbatonRepo) GetShabbatonByID(ctx context.Context, id string, exec ...core.DBExecutor) (shabbaton.Shabbaton, error) {
	var row shabbatonRow
	q := `SELECT * FROM shabbatons WHERE id = $1`
	if err := getExec(repo.db, exec).GetContext(ctx, &row, q, id); err != nil {
		return shabbaton.Shabbaton{}, trapNoRowsErr(err, shabbaton.ErrNotFound, "getting shabbaton")
	}
	return row.toDomain(), nil
}

func (repo *ShabbatonRepo) QueryShabbatons(ctx context.Context, exec ...core.DBExecutor) ([]shabbaton.Shabbaton, error) {
	var rows []shabbatonRow
	q := `SELECT * FROM shabbatons ORDER BY date`
	if err := getExec(repo.db, exec).SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying shabbatons")
	}
	ss := make([]shabbaton.Shabbaton, len(rows))
	for i, row := range rows {
		ss[i] = row.toDomain()
	}
	return ss, nil
}

func (repo *ShabbatonRepo) CreateAttendance(ctx context.Context, a shabbaton.Attendance, exec ...core.DBExecutor) (shabbaton.Attendance, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	q := `
INSERT INTO attendances (
	id, participant_id, shabbaton_id, applied_year, applied_month,
	granted_meals, granted_minutes, status, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := getExec(repo.db, exec).ExecContext(ctx, q,
		a.ID, a.ParticipantID, a.ShabbatonID, a.AppliedYear, a.AppliedMonth,
		a.GrantedMeals, a.GrantedMinutes, string(a.Status), a.CreatedAt,
	)
	if err != nil {
		return shabbaton.Attendance{}, errors.Wrap(err, "inserting attendance")
	}
	return a, nil
}

func (repo *ShabbatonRepo) GetAttendanceByID(ctx context.Context, id string, exec ...core.DBExecutor) (shabbaton.Attendance, error) {
	var row attendanceRow
	q := `SELECT * FROM attendances WHERE id = $1`
	if err := getExec(repo.db, exec).GetContext(ctx, &row, q, id); err != nil {
		return shabbaton.Attendance{}, trapNoRowsErr(err, shabbaton.ErrAttendanceNotFound, "getting attendance")
	}
	return row.toDomain(), nil
}

func (repo *ShabbatonRepo) AttendanceExists(ctx context.Context, participantID, shabbatonID string, exec ...core.DBExecutor) (bool, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM attendances WHERE participant_id = $1 AND shabbaton_id = $2)`
	if err := getExec(repo.db, exec).GetContext(ctx, &exists, q, participantID, shabbatonID); err != nil {
		return false, errors.Wrap(err, "checking attendance existence")
	}
	return exists, nil
}

func (repo *ShabbatonRepo) QueryAttendances(ctx context.Context, filter shabbaton.AttendanceFilter, exec ...core.DBExecutor) ([]shabbaton.Attendance, error) {
	q := `SELECT * FROM attendances`
	var (
		conds []string
		args  []interface{}
	)
	if filter.ParticipantID != "" {
		args = append(args, filter.ParticipantID)
		conds = append(conds, fmt.Sprintf("participant_id = $%d", len(args)))
	}
	if filter.ShabbatonID != "" {
		args = append(args, filter.ShabbatonID)
		conds = append(conds, fmt.Sprintf("shabbaton_id = $%d", len(args)))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"

	var rows []attendanceRow
	if err := getExec(repo.db, exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendances")
	}
	as := make([]shabbaton.Attendance, len(rows))
	for i, row := range rows {
		as[i] = row.toDomain()
	}
	return as, nil
}

func (repo *ShabbatonRepo) UpdateAttendanceStatus(ctx context.Context, id string, status shabbaton.AttendanceStatus, markedBy string, markedAt time.Time, exec ...core.DBExecutor) error {
	q := `UPDATE attendances SET status = $2, marked_by = $3, marked_at = $4 WHERE id = $1`
	res, err := getExec(repo.db, exec).ExecContext(ctx, q, id, string(status), markedBy, markedAt)
	if err != nil {
		return errors.Wrap(err, "updating attendance status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return shabbaton.ErrAttendanceNotFound
	}
	return nil
}

func (repo *ShabbatonRepo) CountConfirmed(ctx context.Context, shabbatonID string, exec ...core.DBExecutor) (int, error) {
	var count int
	q := `SELECT COUNT(*) FROM attendances WHERE shabbaton_id = $1 AND status = $2`
	if err := getExec(repo.db, exec).GetContext(ctx, &count, q, shabbatonID, string(shabbaton.StatusConfirmed)); err != nil {
		return 0, errors.Wrap(err, "counting confirmed attendances")
	}
	return count, nil
}

func (repo *ShabbatonRepo) SetAttendanceCount(ctx context.Context, shabbatonID string, count int, exec ...core.DBExecutor) error {
	q := `UPDATE shabbatons SET attendance_count = $2 WHERE id = $1`
	_, err := getExec(repo.db, exec).ExecContext(ctx, q, shabbatonID, count)
	return errors.Wrap(err, "setting attendance count")
}
