package bootstrap

import (
	"errors"
	"fmt"

	"moodjournal/internal/audio"
	"moodjournal/internal/auth"
	"moodjournal/internal/config"
	"moodjournal/internal/domain"
	"moodjournal/internal/journal"
	"moodjournal/internal/logging"
	"moodjournal/internal/ports"
	"moodjournal/internal/providers/deepgram"
	"moodjournal/internal/rules"
	"moodjournal/internal/sentiment"
	"moodjournal/internal/storage/sqlite"
	"moodjournal/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Config   config.Config
	Auth     *auth.Session
	Recorder *usecase.Recorder
	Journal  *journal.Store
	Flow     *usecase.EntryFlow

	storage *sqlite.Store
}

// Close stops any capture in progress and closes the database.
func (s Services) Close() error {
	if s.Recorder != nil {
		s.Recorder.Close()
	}
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}

// Build loads configuration and wires all backend dependencies.
func Build(events ports.EventSink, notifier ports.Notifier) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}
	if err := logging.Setup(cfg.Log); err != nil {
		return Services{}, err
	}
	return BuildWith(cfg, events, notifier)
}

// BuildWith wires dependencies from an already loaded configuration.
func BuildWith(cfg config.Config, events ports.EventSink, notifier ports.Notifier) (Services, error) {
	rulesEngine, err := rules.Load(cfg.Rules.Path, cfg.Rules.IterationLimit)
	if err != nil {
		return Services{}, err
	}

	clips, err := audio.NewClipDir(cfg.Journal.ClipsDir)
	if err != nil {
		return Services{}, err
	}

	store, err := sqlite.Open(cfg.Journal.DBPath)
	if err != nil {
		return Services{}, err
	}

	session := auth.NewSession()
	if cfg.Journal.User != "" {
		if err := session.SignIn(domain.User{ID: cfg.Journal.User}); err != nil {
			return Services{}, errors.Join(fmt.Errorf("sign in configured user: %w", err), store.Close())
		}
	}

	audioCfg := ports.AudioConfig{
		SampleRate:  cfg.Audio.SampleRate,
		Channels:    cfg.Audio.Channels,
		InputFormat: cfg.Audio.InputFormat,
		InputDevice: cfg.Audio.InputDevice,
	}

	transcriber := usecase.NewTranscriber(
		deepgram.NewProvider(deepgram.Config{
			APIKey:      cfg.Deepgram.APIKey,
			APIBaseURL:  cfg.Deepgram.APIBaseURL,
			Model:       cfg.Deepgram.Model,
			Language:    cfg.Deepgram.Language,
			SmartFormat: cfg.Deepgram.SmartFormat,
		}),
		rulesEngine,
		notifier,
		usecase.TranscriberConfig{
			Streaming: ports.StreamingConfig{
				SampleRate: cfg.Audio.SampleRate,
				Channels:   cfg.Audio.Channels,
				Encoding:   "linear16",
			},
			ChunkSize:          cfg.Recorder.ChunkSize,
			RecognitionTimeout: cfg.Transcription.RecognitionTimeout,
			ProgressInterval:   cfg.Transcription.ProgressInterval,
			SimulatedStepDelay: cfg.Transcription.SimulatedStepDelay,
		},
	)

	recorder := usecase.NewRecorder(
		audio.NewMicrophoneCapture(cfg.Audio.RecorderCommand),
		clips,
		transcriber,
		events,
		notifier,
		usecase.Config{
			Audio:        audioCfg,
			ChunkSize:    cfg.Recorder.ChunkSize,
			MaxDuration:  cfg.Recorder.MaxDuration,
			TickInterval: cfg.Recorder.TickInterval,
		},
	)

	entries := journal.NewStore(session, store, sentiment.NewAnalyzer(cfg.Journal.SentimentLatency), notifier)

	return Services{
		Config:   cfg,
		Auth:     session,
		Recorder: recorder,
		Journal:  entries,
		Flow:     usecase.NewEntryFlow(recorder, entries, clips),
		storage:  store,
	}, nil
}
