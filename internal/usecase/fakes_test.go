package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"moodjournal/internal/domain"
	"moodjournal/internal/ports"
)

type fakeAudioCapture struct {
	mu       sync.Mutex
	sessions []ports.AudioSession
	err      error
	calls    int
}

func (f *fakeAudioCapture) Start(_ context.Context, _ ports.AudioConfig) (ports.AudioSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.sessions) {
		return nil, errors.New("no audio session configured")
	}
	session := f.sessions[f.calls]
	f.calls++
	return session, nil
}

// fakeMic delivers fed chunks until it is stopped.
type fakeMic struct {
	chunks    chan []byte
	stopped   chan struct{}
	once      sync.Once
	readCalls atomic.Int32
	stopCalls atomic.Int32
}

func newFakeMic() *fakeMic {
	return &fakeMic{chunks: make(chan []byte, 16), stopped: make(chan struct{})}
}

func (m *fakeMic) Read(p []byte) (int, error) {
	m.readCalls.Add(1)
	select {
	case chunk := <-m.chunks:
		return copy(p, chunk), nil
	case <-m.stopped:
		return 0, io.EOF
	}
}

func (m *fakeMic) Close() error { return m.Stop() }

func (m *fakeMic) Stop() error {
	m.stopCalls.Add(1)
	m.once.Do(func() { close(m.stopped) })
	return nil
}

// feed hands one chunk to the pump and waits until the pump has handled it.
func (m *fakeMic) feed(t *testing.T, chunk []byte) {
	t.Helper()
	before := m.readCalls.Load()
	m.chunks <- chunk
	deadline := time.Now().Add(2 * time.Second)
	for m.readCalls.Load() <= before {
		if time.Now().After(deadline) {
			t.Fatalf("pump did not consume chunk")
		}
		time.Sleep(time.Millisecond)
	}
}

type fakeClips struct {
	mu        sync.Mutex
	published []domain.AudioRecording
	revoked   []string
	archived  []domain.AudioRecording
	err       error
}

func (f *fakeClips) Publish(recording domain.AudioRecording) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.published = append(f.published, recording)
	return fmt.Sprintf("file:///tmp/clip-%d.wav", len(f.published)), nil
}

func (f *fakeClips) Revoke(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, url)
	return nil
}

func (f *fakeClips) Archive(recording domain.AudioRecording) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.archived = append(f.archived, recording)
	return "file:///data/entries/archived.wav", nil
}

func (f *fakeClips) snapshotRevoked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.revoked...)
}

type fakeTranscriber struct {
	result   domain.Transcription
	block    bool
	canceled chan struct{}

	mu         sync.Mutex
	recordings []domain.AudioRecording
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, recording domain.AudioRecording, progress func(int)) (domain.Transcription, error) {
	f.mu.Lock()
	f.recordings = append(f.recordings, recording)
	f.mu.Unlock()

	progress(0)
	progress(50)
	if f.block {
		<-ctx.Done()
		close(f.canceled)
		return domain.Transcription{}, ctx.Err()
	}
	progress(100)
	return f.result, nil
}

type fakeRules struct {
	transform string
	err       error
	panics    bool
}

func (f *fakeRules) Apply(text string) (string, error) {
	if f.panics {
		panic("rules exploded")
	}
	if f.err != nil {
		return "", f.err
	}
	if f.transform != "" {
		return f.transform, nil
	}
	return text, nil
}

type stateEvent struct {
	state  domain.RecordingState
	reason domain.RecordingReason
}

type fakeEventSink struct {
	mu          sync.Mutex
	states      []stateEvent
	ticks       []time.Duration
	progress    []int
	transcripts []domain.Transcription
}

func (f *fakeEventSink) RecordingStateChanged(state domain.RecordingState, reason domain.RecordingReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, stateEvent{state: state, reason: reason})
}

func (f *fakeEventSink) RecordingTick(elapsed time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticks = append(f.ticks, elapsed)
}

func (f *fakeEventSink) TranscriptionProgress(percent int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, percent)
}

func (f *fakeEventSink) TranscriptReady(transcription domain.Transcription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcripts = append(f.transcripts, transcription)
}

func (f *fakeEventSink) snapshotStates() []stateEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]stateEvent(nil), f.states...)
}

func (f *fakeEventSink) tickCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ticks)
}

func (f *fakeEventSink) snapshotProgress() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.progress...)
}

func (f *fakeEventSink) hasReason(reason domain.RecordingReason) bool {
	for _, event := range f.snapshotStates() {
		if event.reason == reason {
			return true
		}
	}
	return false
}

type fakeNotifier struct {
	mu    sync.Mutex
	kinds []domain.NotificationKind
}

func (f *fakeNotifier) Notify(notification domain.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, notification.Kind)
}

func (f *fakeNotifier) snapshot() []domain.NotificationKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.NotificationKind(nil), f.kinds...)
}

type fakeProvider struct {
	available bool
	stream    ports.StreamingSession
	err       error
	calls     atomic.Int32
}

func (f *fakeProvider) Available() bool { return f.available }

func (f *fakeProvider) StartStreaming(_ context.Context, _ ports.StreamingConfig) (ports.StreamingSession, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

// scriptedStream replays its script once the caller half-closes. A hanging
// stream never ends until Close.
type scriptedStream struct {
	events    chan domain.TranscriptEvent
	script    []domain.TranscriptEvent
	hang      bool
	sendErr   error
	sendPanic bool
	waitErr   error

	mu         sync.Mutex
	sent       [][]byte
	closeSends int
	closeCalls int
	finishOnce sync.Once
}

func newScriptedStream(script ...domain.TranscriptEvent) *scriptedStream {
	return &scriptedStream{events: make(chan domain.TranscriptEvent, 16), script: script}
}

func (s *scriptedStream) SendAudio(chunk []byte) error {
	if s.sendPanic {
		panic("send exploded")
	}
	if s.sendErr != nil {
		return s.sendErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, append([]byte(nil), chunk...))
	return nil
}

func (s *scriptedStream) CloseSend() error {
	s.mu.Lock()
	s.closeSends++
	s.mu.Unlock()
	if !s.hang {
		s.finish(s.script)
	}
	return nil
}

func (s *scriptedStream) Events() <-chan domain.TranscriptEvent { return s.events }

func (s *scriptedStream) Wait() error { return s.waitErr }

func (s *scriptedStream) Close() error {
	s.mu.Lock()
	s.closeCalls++
	s.mu.Unlock()
	s.finish(nil)
	return nil
}

func (s *scriptedStream) finish(script []domain.TranscriptEvent) {
	s.finishOnce.Do(func() {
		for _, event := range script {
			s.events <- event
		}
		close(s.events)
	})
}

func (s *scriptedStream) snapshotSent() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.sent...)
}
