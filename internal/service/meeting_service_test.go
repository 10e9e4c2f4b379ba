package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rundown-api/rundown/internal/config"
	"github.com/rundown-api/rundown/internal/domain"
	"github.com/rundown-api/rundown/internal/providers"
	"github.com/rundown-api/rundown/internal/repository"
	"github.com/rundown-api/rundown/internal/storage"
)

type stubTranscriber struct {
	mu         sync.Mutex
	calls      int
	transcript string
	err        error
}

func (s *stubTranscriber) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.transcript, nil
}

type stubSummarizer struct {
	mu      sync.Mutex
	calls   int
	summary string
	err     error
	delay   time.Duration
}

func (s *stubSummarizer) Summarize(_ context.Context, _ string) (string, error) {
	s.mu.Lock()
	s.calls++
	err := s.err
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if err != nil {
		return "", err
	}
	return s.summary, nil
}

func (s *stubSummarizer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fixture struct {
	service     *MeetingService
	db          *sql.DB
	transcriber *stubTranscriber
	summarizer  *stubSummarizer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := storage.NewSQLite(config.DatabaseConfig{
		Path: filepath.Join(t.TempDir(), "rundown.db"),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := storage.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	transcriber := &stubTranscriber{transcript: "transcribed audio"}
	summarizer := &stubSummarizer{summary: "stub summary"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		service:     NewMeetingService(repository.NewMeetingRepository(db), transcriber, summarizer, logger),
		db:          db,
		transcriber: transcriber,
		summarizer:  summarizer,
	}
}

func (f *fixture) meetingCount(t *testing.T) int {
	t.Helper()
	var count int
	if err := f.db.QueryRow(`SELECT COUNT(*) FROM meetings`).Scan(&count); err != nil {
		t.Fatalf("count meetings: %v", err)
	}
	return count
}

func TestIngestText(t *testing.T) {
	f := newFixture(t)

	meeting, err := f.service.Ingest(context.Background(), "test.txt", []byte("Sample meeting content"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if meeting.Status != domain.StatusPending {
		t.Fatalf("status = %q, want %q", meeting.Status, domain.StatusPending)
	}
	if meeting.Summary != nil {
		t.Fatal("summary should be nil on ingest")
	}
	if meeting.Content != "Sample meeting content" {
		t.Fatalf("content = %q", meeting.Content)
	}
	if f.transcriber.calls != 0 {
		t.Fatal("transcriber called for a text upload")
	}
}

func TestIngestUnsupportedExtension(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Ingest(context.Background(), "test.pdf", []byte("Invalid content"))
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("err = %v, want ErrUnsupportedFileType", err)
	}
	if got := f.meetingCount(t); got != 0 {
		t.Fatalf("meeting count = %d, want 0", got)
	}
}

func TestIngestAudio(t *testing.T) {
	f := newFixture(t)

	meeting, err := f.service.Ingest(context.Background(), "meeting.mp3", []byte{0x49, 0x44, 0x33})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if meeting.Content != "transcribed audio" {
		t.Fatalf("content = %q, want the transcript", meeting.Content)
	}
	if meeting.Status != domain.StatusPending {
		t.Fatalf("status = %q, want %q", meeting.Status, domain.StatusPending)
	}
	if f.transcriber.calls != 1 {
		t.Fatalf("transcriber calls = %d, want 1", f.transcriber.calls)
	}
}

func TestIngestTranscriptionFailure(t *testing.T) {
	f := newFixture(t)
	f.transcriber.err = &providers.TranscriptionError{Err: errors.New("model unavailable")}

	_, err := f.service.Ingest(context.Background(), "meeting.wav", []byte{0x52})
	var transcriptionErr *providers.TranscriptionError
	if !errors.As(err, &transcriptionErr) {
		t.Fatalf("err = %v, want TranscriptionError", err)
	}
	if got := f.meetingCount(t); got != 0 {
		t.Fatalf("meeting count = %d, want 0", got)
	}
}

func TestAnalyzeUnknownID(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Analyze(context.Background(), "missing")
	if !errors.Is(err, ErrMeetingNotFound) {
		t.Fatalf("err = %v, want ErrMeetingNotFound", err)
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.summarizer.summary = "Mocked summary: Key points discussed"

	meeting, err := f.service.Ingest(ctx, "test.txt", []byte("Sample meeting content"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	first, err := f.service.Analyze(ctx, meeting.ID)
	if err != nil {
		t.Fatalf("first analyze: %v", err)
	}
	second, err := f.service.Analyze(ctx, meeting.ID)
	if err != nil {
		t.Fatalf("second analyze: %v", err)
	}

	for _, got := range []domain.Meeting{first, second} {
		if got.Status != domain.StatusCompleted {
			t.Fatalf("status = %q, want %q", got.Status, domain.StatusCompleted)
		}
		if got.Summary == nil || *got.Summary != "Mocked summary: Key points discussed" {
			t.Fatalf("summary = %v", got.Summary)
		}
	}
	if calls := f.summarizer.callCount(); calls != 1 {
		t.Fatalf("summarizer calls = %d, want 1", calls)
	}
}

func TestAnalyzeFailureLeavesInProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.summarizer.err = &providers.SummarizationError{Err: errors.New("quota exceeded")}

	meeting, err := f.service.Ingest(ctx, "test.txt", []byte("content"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	_, err = f.service.Analyze(ctx, meeting.ID)
	var summarizationErr *providers.SummarizationError
	if !errors.As(err, &summarizationErr) {
		t.Fatalf("err = %v, want SummarizationError", err)
	}

	got, err := f.service.Fetch(ctx, meeting.ID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Status != domain.StatusInProgress {
		t.Fatalf("status = %q, want %q", got.Status, domain.StatusInProgress)
	}
	if got.Summary != nil {
		t.Fatal("summary written despite failure")
	}

	// A later Analyze retries in place and completes.
	f.summarizer.mu.Lock()
	f.summarizer.err = nil
	f.summarizer.mu.Unlock()

	retried, err := f.service.Analyze(ctx, meeting.ID)
	if err != nil {
		t.Fatalf("retry analyze: %v", err)
	}
	if retried.Status != domain.StatusCompleted {
		t.Fatalf("status = %q, want %q", retried.Status, domain.StatusCompleted)
	}
}

func TestFetchUnknownID(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Fetch(context.Background(), "missing")
	if !errors.Is(err, ErrMeetingNotFound) {
		t.Fatalf("err = %v, want ErrMeetingNotFound", err)
	}
}

func TestRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.summarizer.summary = "Mocked summary: Key points discussed"

	meeting, err := f.service.Ingest(ctx, "test.txt", []byte("Sample meeting content"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if _, err := f.service.Analyze(ctx, meeting.ID); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	got, err := f.service.Fetch(ctx, meeting.ID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Status != domain.StatusCompleted {
		t.Fatalf("status = %q, want %q", got.Status, domain.StatusCompleted)
	}
	if got.Summary == nil || *got.Summary != "Mocked summary: Key points discussed" {
		t.Fatalf("summary = %v", got.Summary)
	}
	if got.Content != "Sample meeting content" {
		t.Fatalf("content = %q", got.Content)
	}
}

func TestConcurrentAnalyze(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.summarizer.delay = 50 * time.Millisecond

	meeting, err := f.service.Ingest(ctx, "test.txt", []byte("content"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]domain.Meeting, 2)
	errs := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.service.Analyze(ctx, meeting.ID)
		}(i)
	}
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatalf("analyze %d: %v", i, errs[i])
		}
		if results[i].Status != domain.StatusCompleted {
			t.Fatalf("analyze %d status = %q", i, results[i].Status)
		}
		if results[i].Summary == nil || *results[i].Summary != "stub summary" {
			t.Fatalf("analyze %d summary = %v", i, results[i].Summary)
		}
	}
	if calls := f.summarizer.callCount(); calls != 1 {
		t.Fatalf("summarizer calls = %d, want 1", calls)
	}
}
