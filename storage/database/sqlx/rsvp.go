package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/uwsprogram/tracker/core"
	"github.com/uwsprogram/tracker/core/rsvp"
)

type rsvpRow struct {
	ID            string    `db:"id"`
	ParticipantID string    `db:"participant_id"`
	WeekDate      time.Time `db:"week_date"`
	Attending     bool      `db:"attending"`
	RsvpAt        time.Time `db:"rsvp_at"`
}

func (row rsvpRow) toDomain() rsvp.UWSRsvp {
	return rsvp.UWSRsvp{
		ID:            row.ID,
		ParticipantID: row.ParticipantID,
		WeekDate:      row.WeekDate.UTC(),
		Attending:     row.Attending,
		RsvpAt:        row.RsvpAt.UTC(),
	}
}

type RsvpRepo struct {
	db *sqlx.DB
}

var _ rsvp.Repository = (*RsvpRepo)(nil)

func NewRsvpRepo(db *sqlx.DB) *RsvpRepo {
	return &RsvpRepo{db: db}
}

func (repo *RsvpRepo) UpsertRsvp(ctx context.Context, r rsvp.UWSRsvp, exec ...core.DBExecutor) (rsvp.UWSRsvp, error) {
	var row rsvpRow
	q := `
INSERT INTO uws_rsvps (id, participant_id, week_date, attending, rsvp_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (participant_id, week_date)
DO UPDATE SET attending = EXCLUDED.attending, rsvp_at = EXCLUDED.rsvp_at
RETURNING *`
	err := getExec(repo.db, exec).GetContext(ctx, &row, q,
		uuid.New().String(), r.ParticipantID, r.WeekDate, r.Attending, r.RsvpAt,
	)
	if err != nil {
		return rsvp.UWSRsvp{}, errors.Wrap(err, "upserting RSVP")
	}
	return row.toDomain(), nil
}

func (repo *RsvpRepo) GetRsvp(ctx context.Context, participantID string, weekDate time.Time, exec ...core.DBExecutor) (rsvp.UWSRsvp, error) {
	var row rsvpRow
	q := `SELECT * FROM uws_rsvps WHERE participant_id = $1 AND week_date = $2`
	if err := getExec(repo.db, exec).GetContext(ctx, &row, q, participantID, weekDate); err != nil {
		return rsvp.UWSRsvp{}, trapNoRowsErr(err, rsvp.ErrNotFound, "getting RSVP")
	}
	return row.toDomain(), nil
}

func (repo *RsvpRepo) QueryRsvps(ctx context.Context, weekDate *time.Time, exec ...core.DBExecutor) ([]rsvp.UWSRsvp, error) {
	q := `SELECT * FROM uws_rsvps`
	var args []interface{}
	if weekDate != nil {
		q += ` WHERE week_date = $1`
		args = append(args, *weekDate)
	}
	q += ` ORDER BY rsvp_at DESC`

	var rows []rsvpRow
	if err := getExec(repo.db, exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying RSVPs")
	}
	rs := make([]rsvp.UWSRsvp, len(rows))
	for i, row := range rows {
		rs[i] = row.toDomain()
	}
	return rs, nil
}

func (repo *RsvpRepo) DeleteRsvp(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := getExec(repo.db, exec).ExecContext(ctx, `DELETE FROM uws_rsvps WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting RSVP")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return rsvp.ErrNotFound
	}
	return nil
}
