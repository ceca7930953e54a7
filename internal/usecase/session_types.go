package usecase

import (
	"bytes"
	"context"
	"sync"
	"time"

	"moodjournal/internal/domain"
	"moodjournal/internal/ports"
)

// captureSession owns everything one recording attempt acquires. All fields
// except the context and microphone release are guarded by Recorder.mu.
type captureSession struct {
	id     uint64
	ctx    context.Context
	cancel context.CancelFunc

	mic         ports.AudioSession
	releaseOnce sync.Once
	releaseErr  error
	pumpDone    chan struct{}
	tickerStop  chan struct{}

	state     domain.RecordingState
	elapsed   time.Duration
	resumedAt time.Time
	chunks    [][]byte

	recording    domain.AudioRecording
	audioURL     string
	transcript   string
	transcribing bool
	progress     int
}

func newCaptureSession(parent context.Context, id uint64) *captureSession {
	ctx, cancel := context.WithCancel(parent)
	return &captureSession{
		id:     id,
		ctx:    ctx,
		cancel: cancel,
		state:  domain.RecordingStateIdle,
	}
}

func (s *captureSession) recordingTime(now time.Time) time.Duration {
	if s.state == domain.RecordingStateRecording {
		return s.elapsed + now.Sub(s.resumedAt)
	}
	return s.elapsed
}

func (s *captureSession) haltTicker() {
	if s.tickerStop != nil {
		close(s.tickerStop)
		s.tickerStop = nil
	}
}

// releaseMicrophone stops the capture stream exactly once.
func (s *captureSession) releaseMicrophone() error {
	s.releaseOnce.Do(func() {
		if s.mic != nil {
			s.releaseErr = s.mic.Stop()
		}
	})
	return s.releaseErr
}

func (s *captureSession) finalize(cfg ports.AudioConfig) domain.AudioRecording {
	return domain.AudioRecording{
		Data:       bytes.Join(s.chunks, nil),
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
		Duration:   s.elapsed,
	}
}

func (s *captureSession) status(now time.Time) domain.RecordingStatus {
	return domain.RecordingStatus{
		State:                 s.state,
		RecordingTime:         s.recordingTime(now).Milliseconds(),
		AudioURL:              s.audioURL,
		Transcript:            s.transcript,
		IsTranscribing:        s.transcribing,
		TranscriptionProgress: s.progress,
	}
}
