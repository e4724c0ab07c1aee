package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/uwsprogram/tracker/core"
	"github.com/uwsprogram/tracker/core/participant"
)

type participantRow struct {
	ID            string         `db:"id"`
	Email         string         `db:"email"`
	Role          string         `db:"role"`
	Status        string         `db:"status"`
	PreferredName string         `db:"preferred_name"`
	Notes         sql.NullString `db:"notes"`
	CreatedAt     time.Time      `db:"created_at"`
}

func (row participantRow) toDomain() participant.Participant {
	return participant.Participant{
		ID:            row.ID,
		Email:         row.Email,
		Role:          row.Role,
		Status:        row.Status,
		PreferredName: row.PreferredName,
		Notes:         row.Notes.String,
		CreatedAt:     row.CreatedAt.UTC(),
	}
}

type ParticipantRepo struct {
	db *sqlx.DB
}

var _ participant.Repository = (*ParticipantRepo)(nil)

func NewParticipantRepo(db *sqlx.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

func (repo *ParticipantRepo) CreateParticipant(ctx context.Context, p participant.Participant, exec ...core.DBExecutor) (participant.Participant, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	q := `
INSERT INTO participants (id, email, role, status, preferred_name, notes, created_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)`
	_, err := getExec(repo.db, exec).ExecContext(ctx, q,
		p.ID, p.Email, p.Role, p.Status, p.PreferredName, p.Notes, p.CreatedAt,
	)
	if err != nil {
		return participant.Participant{}, errors.Wrap(err, "inserting participant")
	}
	return p, nil
}

func (repo *ParticipantRepo) GetParticipantByID(ctx context.Context, id string, exec ...core.DBExecutor) (participant.Participant, error) {
	var row participantRow
	q := `SELECT * FROM participants WHERE id = $1`
	if err := getExec(repo.db, exec).GetContext(ctx, &row, q, id); err != nil {
		return participant.Participant{}, trapNoRowsErr(err, participant.ErrNotFound, "getting participant by id")
	}
	return row.toDomain(), nil
}

func (repo *ParticipantRepo) GetParticipantByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (participant.Participant, error) {
	var row participantRow
	q := `SELECT * FROM participants WHERE email = $1`
	if err := getExec(repo.db, exec).GetContext(ctx, &row, q, email); err != nil {
		return participant.Participant{}, trapNoRowsErr(err, participant.ErrNotFound, "getting participant by email")
	}
	return row.toDomain(), nil
}

func (repo *ParticipantRepo) QueryParticipants(ctx context.Context, activeOnly bool, exec ...core.DBExecutor) ([]participant.Participant, error) {
	q := `SELECT * FROM participants`
	if activeOnly {
		q += ` WHERE status = 'active'`
	}
	q += ` ORDER BY created_at`

	var rows []participantRow
	if err := getExec(repo.db, exec).SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying participants")
	}
	ps := make([]participant.Participant, len(rows))
	for i, row := range rows {
		ps[i] = row.toDomain()
	}
	return ps, nil
}
