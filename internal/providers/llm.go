package providers

import "context"

// Transcriber converts an audio payload to plain text via an external model.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Summarizer condenses a transcript into a structured summary via an
// external model. Output is non-deterministic across calls.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// TranscriptionError wraps any failure of the external transcription call.
// The underlying message is preserved for diagnostics; no retry happens at
// this layer.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return "transcription failed: " + e.Err.Error()
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// SummarizationError wraps any failure of the external summarization call.
type SummarizationError struct {
	Err error
}

func (e *SummarizationError) Error() string {
	return "summarization failed: " + e.Err.Error()
}

func (e *SummarizationError) Unwrap() error { return e.Err }
