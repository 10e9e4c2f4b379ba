package domain

import "time"

// MeetingStatus only ever moves forward: pending -> in_progress -> completed.
type MeetingStatus string

const (
	StatusPending    MeetingStatus = "pending"
	StatusInProgress MeetingStatus = "in_progress"
	StatusCompleted  MeetingStatus = "completed"
)

// Meeting is one uploaded transcript and its derived summary. Content is set
// once at creation and never mutated afterwards; Summary stays nil until the
// meeting reaches StatusCompleted.
type Meeting struct {
	ID        string        `db:"id"`
	Filename  string        `db:"filename"`
	Content   string        `db:"content"`
	Summary   *string       `db:"summary"`
	Status    MeetingStatus `db:"status"`
	CreatedAt time.Time     `db:"created_at"`
}
