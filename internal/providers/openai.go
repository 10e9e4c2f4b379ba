package providers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/rundown-api/rundown/internal/config"
)

const summarySystemPrompt = "You are a helpful assistant that generates concise, structured summaries of meeting transcripts."

const summaryUserPrompt = "Summarize the following meeting transcript in a structured format (e.g., key points, decisions, action items):\n\n"

// OpenAIClient implements both Transcriber and Summarizer against the OpenAI
// API (or any compatible endpoint via BaseURL).
type OpenAIClient struct {
	client          *openai.Client
	chatModel       string
	transcribeModel string
}

func NewOpenAIClient(cfg config.OpenAIConfig) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client:          openai.NewClientWithConfig(clientCfg),
		chatModel:       cfg.ChatModel,
		transcribeModel: cfg.TranscribeModel,
	}
}

func (c *OpenAIClient) Summarize(ctx context.Context, transcript string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: summarySystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: summaryUserPrompt + transcript,
			},
		},
		Temperature: 0.3,
		MaxTokens:   500,
	})
	if err != nil {
		return "", &SummarizationError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &SummarizationError{Err: errors.New("openai returned no choices")}
	}
	return resp.Choices[0].Message.Content, nil
}

// Transcribe stages the audio in a temp file for the upload; the file is
// removed on every exit path.
func (c *OpenAIClient) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	tmpFile, err := os.CreateTemp("", "rundown-upload-*"+filepath.Ext(filename))
	if err != nil {
		return "", &TranscriptionError{Err: err}
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(audio); err != nil {
		tmpFile.Close()
		return "", &TranscriptionError{Err: err}
	}
	if err := tmpFile.Close(); err != nil {
		return "", &TranscriptionError{Err: err}
	}

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.transcribeModel,
		FilePath: tmpFile.Name(),
	})
	if err != nil {
		return "", &TranscriptionError{Err: err}
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", &TranscriptionError{Err: errors.New("model returned an empty transcription")}
	}
	return resp.Text, nil
}
