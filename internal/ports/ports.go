package ports

import (
	"context"
	"errors"
	"io"
	"time"

	"moodjournal/internal/domain"
)

var (
	// ErrCollectionNotFound is returned by EntryStorage when a user has no stored collection.
	ErrCollectionNotFound = errors.New("entry collection not found")
	// ErrCollectionMalformed is returned by EntryStorage when a stored collection cannot be decoded.
	ErrCollectionMalformed = errors.New("entry collection is malformed")
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is an open microphone handle.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture acquires the microphone. Start blocks until access is granted or refused.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// ClipStore turns finalized recordings into playable references.
type ClipStore interface {
	// Publish creates a temporary reference owned by a capture session.
	Publish(recording domain.AudioRecording) (string, error)
	// Revoke invalidates a reference returned by Publish.
	Revoke(url string) error
	// Archive stores the recording permanently for a saved journal entry.
	Archive(recording domain.AudioRecording) (string, error)
}

// StreamingConfig describes provider-agnostic streaming settings.
type StreamingConfig struct {
	SampleRate     int
	Channels       int
	Encoding       string
	InterimResults bool
}

// StreamingSession is an active recognition session.
type StreamingSession interface {
	SendAudio(chunk []byte) error
	CloseSend() error
	Events() <-chan domain.TranscriptEvent
	Wait() error
	Close() error
}

// TranscriptionProvider starts live speech-to-text sessions.
type TranscriptionProvider interface {
	Available() bool
	StartStreaming(ctx context.Context, cfg StreamingConfig) (StreamingSession, error)
}

// RulesEngine transforms transcripts using deterministic rules.
type RulesEngine interface {
	Apply(text string) (string, error)
}

// SentimentAnalyzer scores transcript text.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (domain.Sentiment, error)
}

// EntryStorage persists one ordered entry collection per user.
type EntryStorage interface {
	Load(ctx context.Context, userID string) ([]domain.JournalEntry, error)
	Save(ctx context.Context, userID string, entries []domain.JournalEntry) error
}

// IdentityProvider exposes the signed-in user, if any.
type IdentityProvider interface {
	CurrentUser() (domain.User, bool)
}

// Notifier presents user-facing notifications.
type Notifier interface {
	Notify(notification domain.Notification)
}

// EventSink emits recorder state to the UI.
type EventSink interface {
	RecordingStateChanged(state domain.RecordingState, reason domain.RecordingReason)
	RecordingTick(elapsed time.Duration)
	TranscriptionProgress(percent int)
	TranscriptReady(transcription domain.Transcription)
}
