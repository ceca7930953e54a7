package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"moodjournal/internal/bootstrap"
	"moodjournal/internal/domain"
	"moodjournal/internal/trend"
	"moodjournal/internal/usecase"
)

const (
	eventRecording  = "moodjournal:recording"
	eventTick       = "moodjournal:tick"
	eventProgress   = "moodjournal:progress"
	eventTranscript = "moodjournal:transcript"
	eventNotify     = "moodjournal:notify"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	services bootstrap.Services
	ready    bool
	bootErr  error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a, a)
	if err != nil {
		a.bootErr = err
		log.Error().Err(err).Msg("Startup failed")
		return
	}

	a.services = services
	a.ready = true
	a.RecordingStateChanged(domain.RecordingStateIdle, domain.RecordingReasonReady)
}

func (a *App) shutdown(context.Context) {
	if !a.ready {
		return
	}
	if err := a.services.Close(); err != nil {
		log.Warn().Err(err).Msg("Shutdown did not complete cleanly")
	}
}

// StartRecording opens the microphone and begins a new capture.
func (a *App) StartRecording() (domain.RecordingStatus, error) {
	if err := a.requireReady(); err != nil {
		return domain.RecordingStatus{}, err
	}
	if err := a.services.Recorder.Start(a.ctx); err != nil {
		return a.services.Recorder.Status(), err
	}
	return a.services.Recorder.Status(), nil
}

func (a *App) PauseRecording() (domain.RecordingStatus, error) {
	if err := a.requireReady(); err != nil {
		return domain.RecordingStatus{}, err
	}
	a.services.Recorder.Pause()
	return a.services.Recorder.Status(), nil
}

func (a *App) ResumeRecording() (domain.RecordingStatus, error) {
	if err := a.requireReady(); err != nil {
		return domain.RecordingStatus{}, err
	}
	a.services.Recorder.Resume()
	return a.services.Recorder.Status(), nil
}

// StopRecording finalizes the capture; the transcript arrives as an event.
func (a *App) StopRecording() (domain.RecordingStatus, error) {
	if err := a.requireReady(); err != nil {
		return domain.RecordingStatus{}, err
	}
	if err := a.services.Recorder.Stop(); err != nil && !errors.Is(err, usecase.ErrNotRecording) {
		return a.services.Recorder.Status(), err
	}
	return a.services.Recorder.Status(), nil
}

// ResetRecording discards the current capture from any state.
func (a *App) ResetRecording() (domain.RecordingStatus, error) {
	if err := a.requireReady(); err != nil {
		return domain.RecordingStatus{}, err
	}
	a.services.Flow.Discard()
	return a.services.Recorder.Status(), nil
}

// GetStatus returns the current recording snapshot.
func (a *App) GetStatus() domain.RecordingStatus {
	if !a.ready {
		return domain.RecordingStatus{State: domain.RecordingStateIdle}
	}
	return a.services.Recorder.Status()
}

// SaveEntry stores the (possibly edited) transcript as a new journal entry.
func (a *App) SaveEntry(transcript string) (domain.JournalEntry, error) {
	if err := a.requireReady(); err != nil {
		return domain.JournalEntry{}, err
	}
	return a.services.Flow.Save(a.ctx, transcript)
}

func (a *App) ListEntries() ([]domain.JournalEntry, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.services.Journal.List(a.ctx)
}

func (a *App) UpdateEntry(id, transcript string) (domain.JournalEntry, error) {
	if err := a.requireReady(); err != nil {
		return domain.JournalEntry{}, err
	}
	return a.services.Journal.Update(a.ctx, id, transcript)
}

func (a *App) DeleteEntry(id string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Journal.Delete(a.ctx, id)
}

// MoodSummary aggregates the signed-in user's entries over "week" or "month".
func (a *App) MoodSummary(period string) (trend.Summary, error) {
	if err := a.requireReady(); err != nil {
		return trend.Summary{}, err
	}
	p, err := trend.ParsePeriod(period)
	if err != nil {
		return trend.Summary{}, err
	}
	entries, err := a.services.Journal.List(a.ctx)
	if err != nil {
		return trend.Summary{}, err
	}
	return trend.Summarize(entries, p, time.Now()), nil
}

func (a *App) SignIn(id, name, email string) (domain.User, error) {
	if err := a.requireReady(); err != nil {
		return domain.User{}, err
	}
	if err := a.services.Auth.SignIn(domain.User{ID: id, Name: name, Email: email}); err != nil {
		return domain.User{}, err
	}
	user, _ := a.services.Auth.CurrentUser()
	return user, nil
}

// SignOut discards any capture in progress and clears the signed-in user.
func (a *App) SignOut() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.services.Flow.Discard()
	a.services.Auth.SignOut()
	return nil
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}
	if !a.ready {
		return map[string]string{}
	}

	cfg := a.services.Config
	live := "unavailable"
	if cfg.Deepgram.APIKey != "" {
		live = "Deepgram"
	}
	return map[string]string{
		"provider":    live,
		"model":       cfg.Deepgram.Model,
		"language":    cfg.Deepgram.Language,
		"rulesFile":   cfg.Rules.Path,
		"audioInput":  cfg.Audio.InputDevice,
		"maxDuration": cfg.Recorder.MaxDuration.String(),
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if !a.ready {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// RecordingStateChanged emits capture lifecycle updates to the frontend.
func (a *App) RecordingStateChanged(state domain.RecordingState, reason domain.RecordingReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventRecording, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": reasonMessage(reason),
	})
}

func (a *App) RecordingTick(elapsed time.Duration) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTick, map[string]int64{"recordingTime": elapsed.Milliseconds()})
}

func (a *App) TranscriptionProgress(percent int) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventProgress, map[string]int{"progress": percent})
}

func (a *App) TranscriptReady(transcription domain.Transcription) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTranscript, transcription)
}

// Notify presents a toast in the frontend.
func (a *App) Notify(notification domain.Notification) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventNotify, toast(notification))
}

func toast(n domain.Notification) map[string]any {
	return map[string]any{
		"kind":        string(n.Kind),
		"title":       n.Title(),
		"description": n.Description(),
		"destructive": n.Destructive(),
	}
}

func reasonMessage(reason domain.RecordingReason) string {
	switch reason {
	case domain.RecordingReasonReady:
		return "Ready to record"
	case domain.RecordingReasonStarted:
		return "Recording started"
	case domain.RecordingReasonPaused:
		return "Recording paused"
	case domain.RecordingReasonResumed:
		return "Recording resumed"
	case domain.RecordingReasonStopped:
		return "Recording stopped. Transcribing..."
	case domain.RecordingReasonAutoStopped:
		return "Maximum length reached. Transcribing..."
	case domain.RecordingReasonDiscarded:
		return "Recording discarded"
	case domain.RecordingReasonMicrophoneDenied:
		return "Microphone access denied"
	default:
		return ""
	}
}
