package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"moodjournal/internal/domain"
	"moodjournal/internal/ports"
)

var ErrEmptyTranscript = errors.New("transcript is empty")

type entryCreator interface {
	Create(ctx context.Context, transcript, audioURL string) (domain.JournalEntry, error)
}

// EntryFlow turns a reviewed transcript of the current recording into a
// journal entry and returns the recorder to idle.
type EntryFlow struct {
	recorder *Recorder
	entries  entryCreator
	clips    ports.ClipStore
}

func NewEntryFlow(recorder *Recorder, entries entryCreator, clips ports.ClipStore) *EntryFlow {
	return &EntryFlow{recorder: recorder, entries: entries, clips: clips}
}

// Save archives the stopped recording, if any, and creates the entry. The
// recorder is only reset once the entry exists so a failed save can be retried.
func (f *EntryFlow) Save(ctx context.Context, transcript string) (domain.JournalEntry, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return domain.JournalEntry{}, ErrEmptyTranscript
	}

	audioURL := ""
	if recording, ok := f.recorder.Recording(); ok && !recording.Empty() {
		ref, err := f.clips.Archive(recording)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to archive recording, saving entry without audio")
		} else {
			audioURL = ref
		}
	}

	entry, err := f.entries.Create(ctx, transcript, audioURL)
	if err != nil {
		return domain.JournalEntry{}, err
	}

	f.recorder.Reset()
	return entry, nil
}

// Discard drops the current recording without saving.
func (f *EntryFlow) Discard() {
	f.recorder.Reset()
}
