package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"moodjournal/internal/domain"
	"moodjournal/internal/ports"
)

var (
	ErrMicrophoneDenied = errors.New("microphone access denied")
	ErrNotRecording     = errors.New("no recording in progress")
	ErrSessionDiscarded = errors.New("recording session was discarded")
)

const (
	DefaultMaxDuration  = 120 * time.Second
	DefaultTickInterval = 100 * time.Millisecond
	defaultChunkSize    = 4096
)

// Config controls capture behavior.
type Config struct {
	Audio        ports.AudioConfig
	ChunkSize    int
	MaxDuration  time.Duration
	TickInterval time.Duration
}

type transcriber interface {
	Transcribe(ctx context.Context, recording domain.AudioRecording, progress func(int)) (domain.Transcription, error)
}

// Recorder is the capture state machine:
// idle -> recording <-> paused -> stopped -> idle (on reset).
//
// Every goroutine a session starts checks that its session is still current
// before touching state, so callbacks from a discarded session are dropped.
type Recorder struct {
	capture     ports.AudioCapture
	clips       ports.ClipStore
	transcriber transcriber
	events      ports.EventSink
	notifier    ports.Notifier
	cfg         Config

	mu       sync.Mutex
	current  *captureSession
	consumer func(domain.Transcription)
	nextID   uint64
}

func NewRecorder(
	capture ports.AudioCapture,
	clips ports.ClipStore,
	transcriber transcriber,
	events ports.EventSink,
	notifier ports.Notifier,
	cfg Config,
) *Recorder {
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = DefaultMaxDuration
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	return &Recorder{
		capture:     capture,
		clips:       clips,
		transcriber: transcriber,
		events:      events,
		notifier:    notifier,
		cfg:         cfg,
	}
}

// OnTranscript registers the consumer of completed transcriptions. It is
// called once per transcription attempt of a session that is still current.
func (r *Recorder) OnTranscript(consumer func(domain.Transcription)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumer = consumer
}

// Start discards any previous session and begins a new capture. It blocks
// until the microphone is granted or refused.
func (r *Recorder) Start(ctx context.Context) error {
	r.Reset()

	r.mu.Lock()
	r.nextID++
	session := newCaptureSession(ctx, r.nextID)
	r.current = session
	r.mu.Unlock()

	mic, err := r.capture.Start(session.ctx, r.cfg.Audio)
	if err != nil {
		r.mu.Lock()
		superseded := r.current != session
		r.mu.Unlock()
		if superseded {
			return ErrSessionDiscarded
		}

		log.Warn().Err(err).Uint64("session", session.id).Msg("Microphone access failed")
		r.notifier.Notify(domain.Notification{Kind: domain.NotificationMicrophoneDenied, Detail: err.Error()})
		r.discard(session, domain.RecordingReasonMicrophoneDenied)
		return fmt.Errorf("%w: %v", ErrMicrophoneDenied, err)
	}

	r.mu.Lock()
	if r.current != session {
		r.mu.Unlock()
		_ = mic.Stop()
		return ErrSessionDiscarded
	}
	session.mic = mic
	session.pumpDone = make(chan struct{})
	session.state = domain.RecordingStateRecording
	session.resumedAt = time.Now()
	r.startTicker(session)
	r.mu.Unlock()

	go r.pump(session, mic, session.pumpDone)

	log.Debug().Uint64("session", session.id).Msg("Recording started")
	r.events.RecordingStateChanged(domain.RecordingStateRecording, domain.RecordingReasonStarted)
	return nil
}

// Pause suspends capture. It reports false when not recording.
func (r *Recorder) Pause() bool {
	r.mu.Lock()
	session := r.current
	if session == nil || session.state != domain.RecordingStateRecording {
		r.mu.Unlock()
		return false
	}
	session.elapsed += time.Since(session.resumedAt)
	session.state = domain.RecordingStatePaused
	session.haltTicker()
	r.mu.Unlock()

	r.events.RecordingStateChanged(domain.RecordingStatePaused, domain.RecordingReasonPaused)
	return true
}

// Resume continues a paused capture. It reports false when not paused.
func (r *Recorder) Resume() bool {
	r.mu.Lock()
	session := r.current
	if session == nil || session.state != domain.RecordingStatePaused {
		r.mu.Unlock()
		return false
	}
	session.state = domain.RecordingStateRecording
	session.resumedAt = time.Now()
	r.startTicker(session)
	r.mu.Unlock()

	r.events.RecordingStateChanged(domain.RecordingStateRecording, domain.RecordingReasonResumed)
	return true
}

// Stop finalizes the capture and starts transcription in the background.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	session := r.current
	r.mu.Unlock()
	if session == nil {
		return ErrNotRecording
	}
	return r.stop(session, domain.RecordingReasonStopped)
}

// Reset discards the current session from any state and returns to idle.
func (r *Recorder) Reset() {
	r.mu.Lock()
	session := r.current
	r.mu.Unlock()
	if session != nil {
		r.discard(session, domain.RecordingReasonDiscarded)
	}
}

// Close releases everything the recorder holds.
func (r *Recorder) Close() {
	r.Reset()
}

// Status returns a snapshot of the current session.
func (r *Recorder) Status() domain.RecordingStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return domain.RecordingStatus{State: domain.RecordingStateIdle}
	}
	return r.current.status(time.Now())
}

// Recording returns the finalized audio of a stopped session.
func (r *Recorder) Recording() (domain.AudioRecording, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil || r.current.state != domain.RecordingStateStopped {
		return domain.AudioRecording{}, false
	}
	return r.current.recording, true
}

func (r *Recorder) stop(session *captureSession, reason domain.RecordingReason) error {
	r.mu.Lock()
	if r.current != session {
		r.mu.Unlock()
		return ErrSessionDiscarded
	}
	switch session.state {
	case domain.RecordingStateRecording:
		session.elapsed += time.Since(session.resumedAt)
	case domain.RecordingStatePaused:
	default:
		r.mu.Unlock()
		return ErrNotRecording
	}
	// Chunks stop accumulating here; the pump drops anything read later.
	session.state = domain.RecordingStateStopped
	session.haltTicker()
	pumpDone := session.pumpDone
	r.mu.Unlock()

	if err := session.releaseMicrophone(); err != nil {
		log.Warn().Err(err).Uint64("session", session.id).Msg("Microphone did not stop cleanly")
	}
	<-pumpDone

	r.mu.Lock()
	if r.current != session {
		r.mu.Unlock()
		return ErrSessionDiscarded
	}
	recording := session.finalize(r.cfg.Audio)
	r.mu.Unlock()

	audioURL := ""
	if !recording.Empty() {
		ref, err := r.clips.Publish(recording)
		if err != nil {
			log.Warn().Err(err).Uint64("session", session.id).Msg("Failed to publish recording clip")
		} else {
			audioURL = ref
		}
	}

	r.mu.Lock()
	if r.current != session {
		r.mu.Unlock()
		r.revoke(audioURL)
		return ErrSessionDiscarded
	}
	session.recording = recording
	session.audioURL = audioURL
	session.transcribing = true
	session.progress = 0
	session.chunks = nil
	r.mu.Unlock()

	log.Debug().
		Uint64("session", session.id).
		Dur("duration", recording.Duration).
		Int("bytes", len(recording.Data)).
		Str("reason", string(reason)).
		Msg("Recording stopped")
	r.events.RecordingStateChanged(domain.RecordingStateStopped, reason)

	go r.transcribe(session, recording)
	return nil
}

func (r *Recorder) discard(session *captureSession, reason domain.RecordingReason) {
	r.mu.Lock()
	if r.current == session {
		r.current = nil
	}
	session.state = domain.RecordingStateIdle
	session.haltTicker()
	session.chunks = nil
	pumpDone := session.pumpDone
	audioURL := session.audioURL
	session.audioURL = ""
	r.mu.Unlock()

	session.cancel()
	if err := session.releaseMicrophone(); err != nil {
		log.Debug().Err(err).Uint64("session", session.id).Msg("Microphone release reported an error")
	}
	if pumpDone != nil {
		<-pumpDone
	}
	r.revoke(audioURL)

	r.events.RecordingStateChanged(domain.RecordingStateIdle, reason)
}

func (r *Recorder) revoke(audioURL string) {
	if audioURL == "" {
		return
	}
	if err := r.clips.Revoke(audioURL); err != nil {
		log.Warn().Err(err).Str("clip", audioURL).Msg("Failed to revoke recording clip")
	}
}

// startTicker must be called with r.mu held.
func (r *Recorder) startTicker(session *captureSession) {
	stop := make(chan struct{})
	session.tickerStop = stop
	go r.tick(session, stop)
}

func (r *Recorder) tick(session *captureSession, stop <-chan struct{}) {
	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		r.mu.Lock()
		select {
		case <-stop:
			r.mu.Unlock()
			return
		default:
		}
		if r.current != session || session.state != domain.RecordingStateRecording {
			r.mu.Unlock()
			return
		}
		elapsed := session.recordingTime(time.Now())
		// Emitted under the lock so no tick can follow a transition out of recording.
		r.events.RecordingTick(elapsed)
		exceeded := elapsed > r.cfg.MaxDuration
		r.mu.Unlock()

		if exceeded {
			log.Debug().Uint64("session", session.id).Dur("max", r.cfg.MaxDuration).Msg("Maximum duration reached")
			if err := r.stop(session, domain.RecordingReasonAutoStopped); err != nil && !errors.Is(err, ErrSessionDiscarded) {
				log.Debug().Err(err).Uint64("session", session.id).Msg("Auto-stop skipped")
			}
			return
		}
	}
}

func (r *Recorder) transcribe(session *captureSession, recording domain.AudioRecording) {
	result, err := r.transcriber.Transcribe(session.ctx, recording, func(percent int) {
		r.reportProgress(session, percent)
	})
	if err != nil {
		log.Debug().Err(err).Uint64("session", session.id).Msg("Transcription abandoned")
		return
	}

	r.mu.Lock()
	if r.current != session {
		r.mu.Unlock()
		return
	}
	session.transcript = result.Text
	session.transcribing = false
	session.progress = 100
	consumer := r.consumer
	r.mu.Unlock()

	r.events.TranscriptReady(result)
	if consumer != nil {
		consumer(result)
	}
}

func (r *Recorder) reportProgress(session *captureSession, percent int) {
	r.mu.Lock()
	if r.current != session || !session.transcribing || percent < session.progress {
		r.mu.Unlock()
		return
	}
	session.progress = percent
	r.mu.Unlock()

	r.events.TranscriptionProgress(percent)
}
