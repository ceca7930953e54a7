package domain

import "time"

// RecordingState models the capture lifecycle of a journal recording.
type RecordingState string

const (
	RecordingStateIdle      RecordingState = "idle"
	RecordingStateRecording RecordingState = "recording"
	RecordingStatePaused    RecordingState = "paused"
	RecordingStateStopped   RecordingState = "stopped"
)

// RecordingReason provides a structured reason for state transitions.
type RecordingReason string

const (
	RecordingReasonReady            RecordingReason = "ready"
	RecordingReasonStarted          RecordingReason = "recording_started"
	RecordingReasonPaused           RecordingReason = "recording_paused"
	RecordingReasonResumed          RecordingReason = "recording_resumed"
	RecordingReasonStopped          RecordingReason = "recording_stopped"
	RecordingReasonAutoStopped      RecordingReason = "auto_stopped"
	RecordingReasonDiscarded        RecordingReason = "recording_discarded"
	RecordingReasonMicrophoneDenied RecordingReason = "microphone_denied"
)

// SentimentLabel is the coarse band derived from a sentiment score.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// Sentiment describes the emotional tone of a transcript.
// Score is in [-1, 1]; Magnitude is non-negative and unbounded.
type Sentiment struct {
	Score     float64        `json:"score"`
	Magnitude float64        `json:"magnitude"`
	Label     SentimentLabel `json:"label"`
}

// User is the signed-in identity. Only ID partitions journal data.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// JournalEntry is one journaled voice note with derived sentiment.
type JournalEntry struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Transcript string    `json:"transcript"`
	Sentiment  Sentiment `json:"sentiment"`
	AudioURL   string    `json:"audioUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// AudioRecording is the finalized audio of one capture session (s16le PCM).
type AudioRecording struct {
	Data       []byte        `json:"-"`
	SampleRate int           `json:"sampleRate"`
	Channels   int           `json:"channels"`
	Duration   time.Duration `json:"duration"`
}

// Empty reports whether no audio was captured.
func (r AudioRecording) Empty() bool {
	return len(r.Data) == 0
}

// TranscriptSource identifies which transcription path produced the text.
type TranscriptSource string

const (
	TranscriptSourceLive        TranscriptSource = "live"
	TranscriptSourcePlaceholder TranscriptSource = "placeholder"
	TranscriptSourceFallback    TranscriptSource = "fallback"
)

// Transcription is the completed output of one transcription attempt.
type Transcription struct {
	Text   string           `json:"text"`
	Source TranscriptSource `json:"source"`
}

// TranscriptKind identifies whether a stream event is partial or final text.
type TranscriptKind string

const (
	TranscriptKindPartial TranscriptKind = "partial"
	TranscriptKindFinal   TranscriptKind = "final"
)

// TranscriptEvent represents incremental recognition output from a provider.
type TranscriptEvent struct {
	Kind          TranscriptKind `json:"kind"`
	Text          string         `json:"text"`
	IsSpeechFinal bool           `json:"isSpeechFinal"`
}

// RecordingStatus is a snapshot of the current capture session.
type RecordingStatus struct {
	State                 RecordingState `json:"recordingState"`
	RecordingTime         int64          `json:"recordingTime"`
	AudioURL              string         `json:"audioUrl,omitempty"`
	Transcript            string         `json:"transcript"`
	IsTranscribing        bool           `json:"isTranscribing"`
	TranscriptionProgress int            `json:"transcriptionProgress"`
}
