package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"moodjournal/internal/domain"
	"moodjournal/internal/ports"
)

const (
	PlaceholderTranscript = "Automatic transcription is not available. Please type your journal entry here."
	FallbackTranscript    = "Your recording was saved, but it could not be transcribed. Please edit this entry manually."
)

var (
	errRecognitionUnavailable = errors.New("live recognition is not available")
	errNoSpeech               = errors.New("recognition produced no text")
)

// TranscriberConfig controls recognition timing and synthetic progress.
type TranscriberConfig struct {
	Streaming          ports.StreamingConfig
	ChunkSize          int
	RecognitionTimeout time.Duration
	ProgressInterval   time.Duration
	ProgressStep       int
	ProgressCeiling    int
	SimulatedStepDelay time.Duration
}

// Transcriber turns a finalized recording into text. It tries live
// recognition first, then a manual-entry placeholder, and always completes.
type Transcriber struct {
	provider ports.TranscriptionProvider
	rules    ports.RulesEngine
	notifier ports.Notifier
	cfg      TranscriberConfig
}

func NewTranscriber(provider ports.TranscriptionProvider, rules ports.RulesEngine, notifier ports.Notifier, cfg TranscriberConfig) *Transcriber {
	if cfg.RecognitionTimeout <= 0 {
		cfg.RecognitionTimeout = 15 * time.Second
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = 500 * time.Millisecond
	}
	if cfg.ProgressStep <= 0 {
		cfg.ProgressStep = 10
	}
	if cfg.ProgressCeiling <= 0 || cfg.ProgressCeiling >= 100 {
		cfg.ProgressCeiling = 90
	}
	if cfg.SimulatedStepDelay < 0 {
		cfg.SimulatedStepDelay = 0
	}
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = defaultChunkSize
	}
	return &Transcriber{provider: provider, rules: rules, notifier: notifier, cfg: cfg}
}

// Transcribe reports non-decreasing progress ending at 100. The only error
// it returns is ctx's, when the attempt was abandoned.
func (t *Transcriber) Transcribe(ctx context.Context, recording domain.AudioRecording, report func(int)) (result domain.Transcription, err error) {
	progress := newProgressGauge(report)
	defer func() {
		if recovered := recover(); recovered != nil {
			result, err = t.fail(progress, &unexpectedError{value: recovered})
		}
	}()

	progress.set(0)

	text, liveErr := t.recognize(ctx, recording, progress)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.Transcription{}, ctxErr
	}
	var unexpected *unexpectedError
	if errors.As(liveErr, &unexpected) {
		return t.fail(progress, liveErr)
	}
	if liveErr == nil {
		progress.set(100)
		return domain.Transcription{Text: text, Source: domain.TranscriptSourceLive}, nil
	}

	log.Info().Err(liveErr).Msg("Live transcription unavailable, asking for manual entry")
	if err := t.simulate(ctx, progress); err != nil {
		return domain.Transcription{}, err
	}
	t.notifier.Notify(domain.Notification{Kind: domain.NotificationManualTranscription, Detail: liveErr.Error()})
	return domain.Transcription{Text: PlaceholderTranscript, Source: domain.TranscriptSourcePlaceholder}, nil
}

func (t *Transcriber) recognize(ctx context.Context, recording domain.AudioRecording, progress *progressGauge) (string, error) {
	if t.provider == nil || !t.provider.Available() {
		return "", errRecognitionUnavailable
	}
	if recording.Empty() {
		return "", errNoSpeech
	}

	liveCtx, cancel := context.WithTimeout(ctx, t.cfg.RecognitionTimeout)
	defer cancel()

	streamCfg := t.cfg.Streaming
	if streamCfg.SampleRate <= 0 {
		streamCfg.SampleRate = recording.SampleRate
	}
	if streamCfg.Channels <= 0 {
		streamCfg.Channels = recording.Channels
	}

	stream, err := t.provider.StartStreaming(liveCtx, streamCfg)
	if err != nil {
		return "", fmt.Errorf("start recognition: %w", err)
	}
	defer func() {
		_ = stream.Close()
	}()

	stopTicking := progress.tick(t.cfg.ProgressInterval, t.cfg.ProgressStep, t.cfg.ProgressCeiling)
	defer stopTicking()

	var collector transcriptCollector
	group, groupCtx := errgroup.WithContext(liveCtx)
	group.Go(guard(func() error {
		return sendRecording(groupCtx, stream, recording.Data, t.cfg.ChunkSize)
	}))
	group.Go(guard(func() error {
		return collectTranscript(groupCtx, stream, &collector)
	}))
	groupErr := group.Wait()

	var unexpected *unexpectedError
	if errors.As(groupErr, &unexpected) {
		return "", groupErr
	}

	raw := collector.Text()
	if raw == "" {
		switch {
		case errors.Is(liveCtx.Err(), context.DeadlineExceeded):
			return "", fmt.Errorf("recognition timed out after %s", t.cfg.RecognitionTimeout)
		case groupErr != nil:
			return "", groupErr
		}
		if streamErr := stream.Wait(); streamErr != nil {
			return "", streamErr
		}
		return "", errNoSpeech
	}

	text, err := t.rules.Apply(raw)
	if err != nil {
		log.Warn().Err(err).Msg("Substitution rules failed, keeping raw transcript")
		return raw, nil
	}
	return text, nil
}

func (t *Transcriber) simulate(ctx context.Context, progress *progressGauge) error {
	for step := 0; step <= 100; step += 10 {
		progress.set(step)
		if step == 100 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.cfg.SimulatedStepDelay):
		}
	}
	return nil
}

func (t *Transcriber) fail(progress *progressGauge, cause error) (domain.Transcription, error) {
	log.Error().Err(cause).Msg("Transcription failed")
	progress.set(100)
	t.notifier.Notify(domain.Notification{Kind: domain.NotificationTranscriptionFailed, Detail: cause.Error()})
	return domain.Transcription{Text: FallbackTranscript, Source: domain.TranscriptSourceFallback}, nil
}

type unexpectedError struct {
	value any
}

func (e *unexpectedError) Error() string {
	return fmt.Sprintf("unexpected transcription failure: %v", e.value)
}

// guard turns a panic inside an errgroup goroutine into an error.
func guard(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				err = &unexpectedError{value: recovered}
			}
		}()
		return fn()
	}
}

// progressGauge forwards progress without ever going backwards.
type progressGauge struct {
	mu       sync.Mutex
	value    int
	reported bool
	report   func(int)
}

func newProgressGauge(report func(int)) *progressGauge {
	if report == nil {
		report = func(int) {}
	}
	return &progressGauge{report: report}
}

func (g *progressGauge) set(percent int) {
	percent = max(0, min(percent, 100))

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.reported && percent <= g.value {
		return
	}
	g.value = percent
	g.reported = true
	g.report(percent)
}

func (g *progressGauge) advance(step, ceiling int) {
	g.mu.Lock()
	next := min(g.value+step, ceiling)
	g.mu.Unlock()
	g.set(next)
}

func (g *progressGauge) current() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

// tick advances the gauge on every interval until the returned stop func is called.
func (g *progressGauge) tick(interval time.Duration, step, ceiling int) func() {
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				g.advance(step, ceiling)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
		})
	}
}
