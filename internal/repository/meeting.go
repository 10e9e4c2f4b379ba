package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/rundown-api/rundown/internal/domain"
)

type MeetingRepository struct {
	db *sql.DB
}

func NewMeetingRepository(db *sql.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

func (r *MeetingRepository) Create(ctx context.Context, filename, content string) (domain.Meeting, error) {
	meeting := domain.Meeting{
		ID:        uuid.NewString(),
		Filename:  filename,
		Content:   content,
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO meetings (id, filename, content, summary, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, meeting.ID, meeting.Filename, meeting.Content, meeting.Summary, meeting.Status, meeting.CreatedAt)
	return meeting, err
}

func (r *MeetingRepository) Get(ctx context.Context, id string) (domain.Meeting, error) {
	var meeting domain.Meeting
	err := r.db.QueryRowContext(ctx, `
		SELECT id, filename, content, summary, status, created_at
		FROM meetings
		WHERE id = $1
	`, id).Scan(&meeting.ID, &meeting.Filename, &meeting.Content, &meeting.Summary, &meeting.Status, &meeting.CreatedAt)
	return meeting, err
}

// Claim moves a meeting into in_progress ahead of summarization. The update
// only matches pending or in_progress rows, so a completed meeting is never
// regressed; the return value reports whether the caller holds the claim.
func (r *MeetingRepository) Claim(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE meetings
		SET status = $1
		WHERE id = $2 AND status IN ($3, $4)
	`, domain.StatusInProgress, id, domain.StatusPending, domain.StatusInProgress)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// Complete writes the summary and the completed status in one statement, so
// the summary/status pairing can never be observed half-written. Only an
// in_progress row is eligible; anything else means a concurrent writer got
// there first.
func (r *MeetingRepository) Complete(ctx context.Context, id, summary string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE meetings
		SET summary = $1, status = $2
		WHERE id = $3 AND status = $4
	`, summary, domain.StatusCompleted, id, domain.StatusInProgress)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
