package usecase

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"moodjournal/internal/domain"
	"moodjournal/internal/ports"
)

type recorderHarness struct {
	recorder    *Recorder
	capture     *fakeAudioCapture
	clips       *fakeClips
	transcriber *fakeTranscriber
	events      *fakeEventSink
	notifier    *fakeNotifier
}

func newRecorderHarness(t *testing.T, cfg Config, mics ...*fakeMic) *recorderHarness {
	t.Helper()

	sessions := make([]ports.AudioSession, 0, len(mics))
	for _, mic := range mics {
		sessions = append(sessions, mic)
	}
	h := &recorderHarness{
		capture:     &fakeAudioCapture{sessions: sessions},
		clips:       &fakeClips{},
		transcriber: &fakeTranscriber{result: domain.Transcription{Text: "a calm day", Source: domain.TranscriptSourceLive}},
		events:      &fakeEventSink{},
		notifier:    &fakeNotifier{},
	}
	h.recorder = NewRecorder(h.capture, h.clips, h.transcriber, h.events, h.notifier, cfg)
	t.Cleanup(h.recorder.Close)
	return h
}

func waitFor(t *testing.T, condition func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting: %s", msg)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestRecorderPauseWhileIdleIsNoop(t *testing.T) {
	t.Parallel()

	h := newRecorderHarness(t, Config{})
	if h.recorder.Pause() {
		t.Fatalf("expected pause to be rejected while idle")
	}
	if got := h.recorder.Status().State; got != domain.RecordingStateIdle {
		t.Fatalf("expected idle, got %s", got)
	}
	if len(h.events.snapshotStates()) != 0 {
		t.Fatalf("expected no state events")
	}
}

func TestRecorderResumeWhileRecordingIsNoop(t *testing.T) {
	t.Parallel()

	h := newRecorderHarness(t, Config{}, newFakeMic())
	if err := h.recorder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if h.recorder.Resume() {
		t.Fatalf("expected resume to be rejected while recording")
	}
	if got := h.recorder.Status().State; got != domain.RecordingStateRecording {
		t.Fatalf("expected recording, got %s", got)
	}
}

func TestRecorderStartStopTranscribes(t *testing.T) {
	t.Parallel()

	mic := newFakeMic()
	h := newRecorderHarness(t, Config{Audio: ports.AudioConfig{SampleRate: 16000, Channels: 1}}, mic)
	delivered := make(chan domain.Transcription, 1)
	h.recorder.OnTranscript(func(result domain.Transcription) { delivered <- result })

	if err := h.recorder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	mic.feed(t, []byte("ab"))
	mic.feed(t, []byte("cd"))

	if err := h.recorder.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if mic.stopCalls.Load() == 0 {
		t.Fatalf("expected microphone to be released")
	}

	select {
	case result := <-delivered:
		if result.Text != "a calm day" {
			t.Fatalf("unexpected transcript: %q", result.Text)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("transcript was not delivered")
	}

	status := h.recorder.Status()
	if status.State != domain.RecordingStateStopped {
		t.Fatalf("expected stopped, got %s", status.State)
	}
	if status.IsTranscribing || status.TranscriptionProgress != 100 {
		t.Fatalf("unexpected transcription status: %+v", status)
	}
	if status.Transcript != "a calm day" || status.AudioURL == "" {
		t.Fatalf("unexpected status: %+v", status)
	}

	recording, ok := h.recorder.Recording()
	if !ok || !bytes.Equal(recording.Data, []byte("abcd")) {
		t.Fatalf("unexpected recording: %q", recording.Data)
	}
	if recording.SampleRate != 16000 || recording.Channels != 1 {
		t.Fatalf("unexpected recording format: %+v", recording)
	}

	progress := h.events.snapshotProgress()
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Fatalf("progress went backwards: %v", progress)
		}
	}
	if len(progress) == 0 || progress[len(progress)-1] != 100 {
		t.Fatalf("expected progress to end at 100: %v", progress)
	}
	if !h.events.hasReason(domain.RecordingReasonStopped) {
		t.Fatalf("expected stopped reason in %v", h.events.snapshotStates())
	}
}

func TestRecorderPauseDropsChunksUntilResume(t *testing.T) {
	t.Parallel()

	mic := newFakeMic()
	h := newRecorderHarness(t, Config{}, mic)
	if err := h.recorder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	mic.feed(t, []byte("a"))
	if !h.recorder.Pause() {
		t.Fatalf("expected pause to succeed")
	}
	pausedAt := h.recorder.Status().RecordingTime
	mic.feed(t, []byte("b"))
	time.Sleep(20 * time.Millisecond)
	if got := h.recorder.Status().RecordingTime; got != pausedAt {
		t.Fatalf("elapsed time advanced while paused: %d -> %d", pausedAt, got)
	}

	if !h.recorder.Resume() {
		t.Fatalf("expected resume to succeed")
	}
	mic.feed(t, []byte("c"))
	if err := h.recorder.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	recording, _ := h.recorder.Recording()
	if string(recording.Data) != "ac" {
		t.Fatalf("expected paused chunk to be dropped, got %q", recording.Data)
	}
	if recording.Duration < time.Duration(pausedAt)*time.Millisecond {
		t.Fatalf("elapsed time was reset on resume: %s", recording.Duration)
	}
}

func TestRecorderStopFromPaused(t *testing.T) {
	t.Parallel()

	h := newRecorderHarness(t, Config{}, newFakeMic())
	if err := h.recorder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	h.recorder.Pause()
	if err := h.recorder.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if got := h.recorder.Status().State; got != domain.RecordingStateStopped {
		t.Fatalf("expected stopped, got %s", got)
	}
}

func TestRecorderStopWithoutSession(t *testing.T) {
	t.Parallel()

	h := newRecorderHarness(t, Config{}, newFakeMic())
	if err := h.recorder.Stop(); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("expected ErrNotRecording, got %v", err)
	}

	if err := h.recorder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := h.recorder.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := h.recorder.Stop(); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("expected second stop to fail with ErrNotRecording, got %v", err)
	}
}

func TestRecorderEmptyRecordingIsNotPublished(t *testing.T) {
	t.Parallel()

	h := newRecorderHarness(t, Config{}, newFakeMic())
	if err := h.recorder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := h.recorder.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if len(h.clips.published) != 0 {
		t.Fatalf("expected no clip for empty recording")
	}
	if h.recorder.Status().AudioURL != "" {
		t.Fatalf("expected no audio url")
	}
}

func TestRecorderAutoStopsAtMaxDuration(t *testing.T) {
	t.Parallel()

	mic := newFakeMic()
	h := newRecorderHarness(t, Config{MaxDuration: 150 * time.Millisecond, TickInterval: 10 * time.Millisecond}, mic)
	if err := h.recorder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	waitFor(t, func() bool {
		return h.recorder.Status().State == domain.RecordingStateStopped
	}, "auto-stop")

	if !h.events.hasReason(domain.RecordingReasonAutoStopped) {
		t.Fatalf("expected auto_stopped reason in %v", h.events.snapshotStates())
	}
	if mic.stopCalls.Load() == 0 {
		t.Fatalf("expected microphone to be released on auto-stop")
	}
	if got := h.recorder.Status().RecordingTime; got < 150 {
		t.Fatalf("expected elapsed to reach the maximum, got %dms", got)
	}
}

func TestRecorderNoTicksAfterPause(t *testing.T) {
	t.Parallel()

	h := newRecorderHarness(t, Config{TickInterval: 5 * time.Millisecond}, newFakeMic())
	if err := h.recorder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitFor(t, func() bool { return h.events.tickCount() >= 2 }, "ticks")

	h.recorder.Pause()
	ticks := h.events.tickCount()
	time.Sleep(30 * time.Millisecond)
	if got := h.events.tickCount(); got != ticks {
		t.Fatalf("ticks fired while paused: %d -> %d", ticks, got)
	}
}

func TestRecorderStartDeniedReturnsToIdle(t *testing.T) {
	t.Parallel()

	h := newRecorderHarness(t, Config{})
	h.capture.err = errors.New("permission denied")

	err := h.recorder.Start(context.Background())
	if !errors.Is(err, ErrMicrophoneDenied) {
		t.Fatalf("expected ErrMicrophoneDenied, got %v", err)
	}
	if got := h.recorder.Status().State; got != domain.RecordingStateIdle {
		t.Fatalf("expected idle, got %s", got)
	}
	kinds := h.notifier.snapshot()
	if len(kinds) != 1 || kinds[0] != domain.NotificationMicrophoneDenied {
		t.Fatalf("expected microphone notification, got %v", kinds)
	}
	if !h.events.hasReason(domain.RecordingReasonMicrophoneDenied) {
		t.Fatalf("expected microphone_denied reason")
	}
}

func TestRecorderStartTwiceDiscardsPreviousSession(t *testing.T) {
	t.Parallel()

	first := newFakeMic()
	second := newFakeMic()
	h := newRecorderHarness(t, Config{}, first, second)

	if err := h.recorder.Start(context.Background()); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	first.feed(t, []byte("old"))
	if err := h.recorder.Start(context.Background()); err != nil {
		t.Fatalf("second start failed: %v", err)
	}
	if first.stopCalls.Load() == 0 {
		t.Fatalf("expected first microphone to be released")
	}

	second.feed(t, []byte("new"))
	if err := h.recorder.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	recording, _ := h.recorder.Recording()
	if string(recording.Data) != "new" {
		t.Fatalf("expected only the second session's audio, got %q", recording.Data)
	}
}

func TestRecorderResetInvalidatesInFlightTranscription(t *testing.T) {
	t.Parallel()

	mic := newFakeMic()
	h := newRecorderHarness(t, Config{}, mic)
	h.transcriber.block = true
	h.transcriber.canceled = make(chan struct{})
	delivered := make(chan domain.Transcription, 1)
	h.recorder.OnTranscript(func(result domain.Transcription) { delivered <- result })

	if err := h.recorder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	mic.feed(t, []byte("audio"))
	if err := h.recorder.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	audioURL := h.recorder.Status().AudioURL
	if audioURL == "" {
		t.Fatalf("expected published clip")
	}

	h.recorder.Reset()

	select {
	case <-h.transcriber.canceled:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected transcription to be cancelled")
	}
	select {
	case result := <-delivered:
		t.Fatalf("discarded session delivered transcript %q", result.Text)
	case <-time.After(20 * time.Millisecond):
	}

	status := h.recorder.Status()
	if status.State != domain.RecordingStateIdle || status.IsTranscribing || status.AudioURL != "" {
		t.Fatalf("expected clean idle status, got %+v", status)
	}
	revoked := h.clips.snapshotRevoked()
	if len(revoked) != 1 || revoked[0] != audioURL {
		t.Fatalf("expected %s to be revoked, got %v", audioURL, revoked)
	}
}
