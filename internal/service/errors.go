package service

import "errors"

var (
	ErrMeetingNotFound     = errors.New("meeting not found")
	ErrUnsupportedFileType = errors.New("only .txt, .mp3, or .wav files are supported")
)
