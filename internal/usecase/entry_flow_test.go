package usecase

import (
	"context"
	"errors"
	"testing"

	"moodjournal/internal/domain"
)

type fakeEntries struct {
	err     error
	created []domain.JournalEntry
}

func (f *fakeEntries) Create(_ context.Context, transcript, audioURL string) (domain.JournalEntry, error) {
	if f.err != nil {
		return domain.JournalEntry{}, f.err
	}
	entry := domain.JournalEntry{ID: "entry-1", Transcript: transcript, AudioURL: audioURL}
	f.created = append(f.created, entry)
	return entry, nil
}

func stoppedHarness(t *testing.T) *recorderHarness {
	t.Helper()

	mic := newFakeMic()
	h := newRecorderHarness(t, Config{}, mic)
	if err := h.recorder.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	mic.feed(t, []byte("pcm"))
	if err := h.recorder.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	return h
}

func TestEntryFlowSaveArchivesAndResets(t *testing.T) {
	t.Parallel()

	h := stoppedHarness(t)
	entries := &fakeEntries{}
	flow := NewEntryFlow(h.recorder, entries, h.clips)

	entry, err := flow.Save(context.Background(), "  a good walk  ")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if entry.Transcript != "a good walk" {
		t.Fatalf("expected trimmed transcript, got %q", entry.Transcript)
	}
	if entry.AudioURL != "file:///data/entries/archived.wav" {
		t.Fatalf("expected archived audio url, got %q", entry.AudioURL)
	}
	if len(h.clips.archived) != 1 || string(h.clips.archived[0].Data) != "pcm" {
		t.Fatalf("expected recording to be archived")
	}
	if got := h.recorder.Status().State; got != domain.RecordingStateIdle {
		t.Fatalf("expected recorder reset to idle, got %s", got)
	}
}

func TestEntryFlowRejectsBlankTranscript(t *testing.T) {
	t.Parallel()

	h := stoppedHarness(t)
	entries := &fakeEntries{}
	flow := NewEntryFlow(h.recorder, entries, h.clips)

	if _, err := flow.Save(context.Background(), " \n\t "); !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("expected ErrEmptyTranscript, got %v", err)
	}
	if len(entries.created) != 0 || len(h.clips.archived) != 0 {
		t.Fatalf("blank transcript must not create anything")
	}
}

func TestEntryFlowCreateFailureKeepsRecording(t *testing.T) {
	t.Parallel()

	h := stoppedHarness(t)
	flow := NewEntryFlow(h.recorder, &fakeEntries{err: errors.New("disk full")}, h.clips)

	if _, err := flow.Save(context.Background(), "words"); err == nil {
		t.Fatalf("expected create error")
	}
	if got := h.recorder.Status().State; got != domain.RecordingStateStopped {
		t.Fatalf("expected recording to survive a failed save, got %s", got)
	}
}

func TestEntryFlowWithoutRecordingSavesTextOnly(t *testing.T) {
	t.Parallel()

	h := newRecorderHarness(t, Config{})
	entries := &fakeEntries{}
	flow := NewEntryFlow(h.recorder, entries, h.clips)

	entry, err := flow.Save(context.Background(), "typed by hand")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if entry.AudioURL != "" || len(h.clips.archived) != 0 {
		t.Fatalf("expected no audio for a text-only entry")
	}
}

func TestEntryFlowDiscard(t *testing.T) {
	t.Parallel()

	h := stoppedHarness(t)
	flow := NewEntryFlow(h.recorder, &fakeEntries{}, h.clips)
	flow.Discard()

	if got := h.recorder.Status().State; got != domain.RecordingStateIdle {
		t.Fatalf("expected idle after discard, got %s", got)
	}
	if len(h.clips.snapshotRevoked()) != 1 {
		t.Fatalf("expected temporary clip to be revoked")
	}
}
