package usecase

import (
	"context"
	"errors"
	"testing"

	"moodjournal/internal/domain"
)

func TestSendRecordingChunksAndHalfCloses(t *testing.T) {
	t.Parallel()

	stream := newScriptedStream()
	pcm := make([]byte, 600)
	if err := sendRecording(context.Background(), stream, pcm, 256); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sent := stream.snapshotSent()
	if len(sent) != 3 || len(sent[0]) != 256 || len(sent[2]) != 88 {
		t.Fatalf("unexpected chunking: %d chunks", len(sent))
	}
	if stream.closeSends != 1 {
		t.Fatalf("expected CloseSend once, got %d", stream.closeSends)
	}
}

func TestSendRecordingReportsSendError(t *testing.T) {
	t.Parallel()

	stream := &scriptedStream{events: make(chan domain.TranscriptEvent), sendErr: errors.New("send failed")}
	err := sendRecording(context.Background(), stream, make([]byte, 300), 256)
	if err == nil || !errors.Is(err, stream.sendErr) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
	if stream.closeSends != 1 {
		t.Fatalf("expected CloseSend even after failure")
	}
}

func TestSendRecordingStopsOnCancel(t *testing.T) {
	t.Parallel()

	stream := newScriptedStream()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sendRecording(ctx, stream, make([]byte, 1024), 256); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(stream.snapshotSent()) != 0 {
		t.Fatalf("expected nothing to be sent after cancel")
	}
}

func TestRecorderPumpStopsAtEndOfStream(t *testing.T) {
	t.Parallel()

	mic := newFakeMic()
	h := newRecorderHarness(t, Config{}, mic)
	session := newCaptureSession(context.Background(), 1)
	session.state = domain.RecordingStateRecording
	h.recorder.current = session

	done := make(chan struct{})
	go h.recorder.pump(session, mic, done)
	mic.feed(t, []byte("chunk"))
	_ = mic.Stop()
	<-done

	h.recorder.mu.Lock()
	defer h.recorder.mu.Unlock()
	if len(session.chunks) != 1 || string(session.chunks[0]) != "chunk" {
		t.Fatalf("unexpected chunks: %q", session.chunks)
	}
	h.recorder.current = nil
}
