package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/uwsprogram/tracker/core"
	"github.com/uwsprogram/tracker/core/compliance"
)

type monthLogRow struct {
	ParticipantID       string         `db:"participant_id"`
	Year                int            `db:"year"`
	Month               int            `db:"month"`
	MealsRequired       int            `db:"meals_required"`
	MinutesRequired     int            `db:"minutes_required"`
	MealsEarned         int            `db:"meals_earned"`
	MinutesEarned       int            `db:"minutes_earned"`
	IsComplete          bool           `db:"is_complete"`
	CompletedAt         sql.NullTime   `db:"completed_at"`
	ComputedPaymentDate time.Time      `db:"computed_payment_date"`
	PaymentStatus       string         `db:"payment_status"`
	PaymentMarkedAt     sql.NullTime   `db:"payment_marked_at"`
	PaymentMarkedBy     sql.NullString `db:"payment_marked_by"`
}

func (row monthLogRow) toDomain() compliance.MonthLog {
	ml := compliance.MonthLog{
		ParticipantID:       row.ParticipantID,
		Year:                row.Year,
		Month:               row.Month,
		MealsRequired:       row.MealsRequired,
		MinutesRequired:     row.MinutesRequired,
		MealsEarned:         row.MealsEarned,
		MinutesEarned:       row.MinutesEarned,
		IsComplete:          row.IsComplete,
		ComputedPaymentDate: row.ComputedPaymentDate.UTC(),
		PaymentStatus:       compliance.PaymentStatus(row.PaymentStatus),
		PaymentMarkedBy:     row.PaymentMarkedBy.String,
	}
	if row.CompletedAt.Valid {
		ml.CompletedAt = row.CompletedAt.Time.UTC()
	}
	if row.PaymentMarkedAt.Valid {
		ml.PaymentMarkedAt = row.PaymentMarkedAt.Time.UTC()
	}
	return ml
}

// nullTime maps the domain's zero time to a database NULL.
func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

type MonthLogRepo struct {
	db *sqlx.DB
}

var _ compliance.Repository = (*MonthLogRepo)(nil)

func NewMonthLogRepo(db *sqlx.DB) *MonthLogRepo {
	return &MonthLogRepo{db: db}
}

func (repo *MonthLogRepo) GetMonthLog(ctx context.Context, participantID string, year, month int, exec ...core.DBExecutor) (compliance.MonthLog, error) {
	var row monthLogRow
	q := `SELECT * FROM month_logs WHERE participant_id = $1 AND year = $2 AND month = $3`
	if err := getExec(repo.db, exec).GetContext(ctx, &row, q, participantID, year, month); err != nil {
		return compliance.MonthLog{}, trapNoRowsErr(err, compliance.ErrNotFound, "getting month log")
	}
	return row.toDomain(), nil
}

func (repo *MonthLogRepo) CreateMonthLog(ctx context.Context, ml compliance.MonthLog, exec ...core.DBExecutor) (compliance.MonthLog, error) {
	q := `
INSERT INTO month_logs (
	participant_id, year, month, meals_required, minutes_required,
	meals_earned, minutes_earned, is_complete, completed_at,
	computed_payment_date, payment_status, payment_marked_at, payment_marked_by
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''))`
	_, err := getExec(repo.db, exec).ExecContext(ctx, q,
		ml.ParticipantID, ml.Year, ml.Month, ml.MealsRequired, ml.MinutesRequired,
		ml.MealsEarned, ml.MinutesEarned, ml.IsComplete, nullTime(ml.CompletedAt),
		ml.ComputedPaymentDate, string(ml.PaymentStatus), nullTime(ml.PaymentMarkedAt), ml.PaymentMarkedBy,
	)
	if err != nil {
		return compliance.MonthLog{}, errors.Wrap(err, "inserting month log")
	}
	return ml, nil
}

func (repo *MonthLogRepo) UpdateMonthLog(ctx context.Context, ml compliance.MonthLog, exec ...core.DBExecutor) error {
	q := `
UPDATE month_logs
SET meals_earned = $4, minutes_earned = $5, is_complete = $6, completed_at = $7,
	payment_status = $8, payment_marked_at = $9, payment_marked_by = NULLIF($10, '')
WHERE participant_id = $1 AND year = $2 AND month = $3`
	res, err := getExec(repo.db, exec).ExecContext(ctx, q,
		ml.ParticipantID, ml.Year, ml.Month,
		ml.MealsEarned, ml.MinutesEarned, ml.IsComplete, nullTime(ml.CompletedAt),
		string(ml.PaymentStatus), nullTime(ml.PaymentMarkedAt), ml.PaymentMarkedBy,
	)
	if err != nil {
		return errors.Wrap(err, "updating month log")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return compliance.ErrNotFound
	}
	return nil
}

func (repo *MonthLogRepo) QueryMonthLogs(ctx context.Context, filter compliance.QueryFilter, exec ...core.DBExecutor) ([]compliance.MonthLog, error) {
	q := `SELECT * FROM month_logs`
	var (
		conds []string
		args  []interface{}
	)
	if filter.ParticipantID != "" {
		args = append(args, filter.ParticipantID)
		conds = append(conds, fmt.Sprintf("participant_id = $%d", len(args)))
	}
	if filter.Year != 0 {
		args = append(args, filter.Year)
		conds = append(conds, fmt.Sprintf("year = $%d", len(args)))
	}
	if filter.Month != 0 {
		args = append(args, filter.Month)
		conds = append(conds, fmt.Sprintf("month = $%d", len(args)))
	}
	if len(filter.PaymentStatuses) > 0 {
		statuses := make([]string, len(filter.PaymentStatuses))
		for i, status := range filter.PaymentStatuses {
			statuses[i] = string(status)
		}
		args = append(args, pq.Array(statuses))
		conds = append(conds, fmt.Sprintf("payment_status = ANY($%d)", len(args)))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY year DESC, month DESC"

	var rows []monthLogRow
	if err := getExec(repo.db, exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying month logs")
	}
	mls := make([]compliance.MonthLog, len(rows))
	for i, row := range rows {
		mls[i] = row.toDomain()
	}
	return mls, nil
}
