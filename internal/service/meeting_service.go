package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/rundown-api/rundown/internal/domain"
	"github.com/rundown-api/rundown/internal/providers"
	"github.com/rundown-api/rundown/internal/repository"
)

// MeetingService drives the meeting lifecycle: Ingest creates a pending
// record (transcribing audio first if needed), Analyze moves it to completed
// through the summarizer, Fetch reads it back. Each operation re-reads from
// the repository; no record state is held across calls.
type MeetingService struct {
	meetings    *repository.MeetingRepository
	transcriber providers.Transcriber
	summarizer  providers.Summarizer
	logger      *slog.Logger

	analyses singleflight.Group
}

func NewMeetingService(
	meetings *repository.MeetingRepository,
	transcriber providers.Transcriber,
	summarizer providers.Summarizer,
	logger *slog.Logger,
) *MeetingService {
	return &MeetingService{
		meetings:    meetings,
		transcriber: transcriber,
		summarizer:  summarizer,
		logger:      logger,
	}
}

func (s *MeetingService) Ingest(ctx context.Context, filename string, data []byte) (domain.Meeting, error) {
	var content string

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		if !utf8.Valid(data) {
			return domain.Meeting{}, fmt.Errorf("%w: file is not valid UTF-8", ErrUnsupportedFileType)
		}
		content = string(data)
	case ".mp3", ".wav":
		transcript, err := s.transcriber.Transcribe(ctx, data, filename)
		if err != nil {
			return domain.Meeting{}, err
		}
		content = transcript
	default:
		return domain.Meeting{}, ErrUnsupportedFileType
	}

	meeting, err := s.meetings.Create(ctx, filename, content)
	if err != nil {
		return domain.Meeting{}, err
	}

	s.logger.Info("meeting ingested",
		slog.String("id", meeting.ID),
		slog.String("filename", meeting.Filename))
	return meeting, nil
}

// Analyze is idempotent: a completed meeting is returned unchanged without
// touching the summarizer. Concurrent calls for the same id are collapsed
// into a single execution; every caller blocks until it finishes and
// receives the same result, so the external call runs at most once per
// committed transition.
func (s *MeetingService) Analyze(ctx context.Context, id string) (domain.Meeting, error) {
	result, err, _ := s.analyses.Do(id, func() (any, error) {
		return s.analyze(ctx, id)
	})
	if err != nil {
		return domain.Meeting{}, err
	}
	return result.(domain.Meeting), nil
}

func (s *MeetingService) analyze(ctx context.Context, id string) (domain.Meeting, error) {
	meeting, err := s.get(ctx, id)
	if err != nil {
		return domain.Meeting{}, err
	}
	if meeting.Status == domain.StatusCompleted {
		return meeting, nil
	}

	claimed, err := s.meetings.Claim(ctx, id)
	if err != nil {
		return domain.Meeting{}, err
	}
	if !claimed {
		// Completed under a concurrent writer between the read and the
		// claim; return the committed record.
		return s.get(ctx, id)
	}

	summary, err := s.summarizer.Summarize(ctx, meeting.Content)
	if err != nil {
		// The record stays in_progress; a later Analyze retries in place.
		s.logger.Warn("summarization failed",
			slog.String("id", id),
			slog.Any("error", err))
		return domain.Meeting{}, err
	}

	if err := s.meetings.Complete(ctx, id, summary); err != nil {
		return domain.Meeting{}, err
	}

	s.logger.Info("meeting analyzed", slog.String("id", id))
	return s.get(ctx, id)
}

func (s *MeetingService) Fetch(ctx context.Context, id string) (domain.Meeting, error) {
	return s.get(ctx, id)
}

func (s *MeetingService) get(ctx context.Context, id string) (domain.Meeting, error) {
	meeting, err := s.meetings.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Meeting{}, ErrMeetingNotFound
	}
	return meeting, err
}
