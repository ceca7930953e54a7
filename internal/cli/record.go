package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"moodjournal/internal/domain"
	"moodjournal/internal/output"
	"moodjournal/internal/usecase"
)

func NewRecordCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "record",
		Short: "Record a spoken journal entry",
		Long:  "Record from the microphone until Enter is pressed, review the transcript, and save it.\nType p to pause or resume and q to discard.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd.Context(), deps)
		},
	}
}

func runRecord(ctx context.Context, deps *Dependencies) error {
	transcripts := make(chan domain.Transcription, 1)
	deps.Recorder.OnTranscript(func(t domain.Transcription) {
		select {
		case transcripts <- t:
		default:
		}
	})
	defer deps.Recorder.OnTranscript(nil)

	if err := deps.Recorder.Start(ctx); err != nil {
		return err
	}

	discarded, err := captureUntilStopped(ctx, deps)
	if err != nil || discarded {
		deps.Flow.Discard()
		return err
	}

	if err := deps.Recorder.Stop(); err != nil && !errors.Is(err, usecase.ErrNotRecording) {
		deps.Flow.Discard()
		return err
	}

	var transcription domain.Transcription
	select {
	case transcription = <-transcripts:
	case <-ctx.Done():
		deps.Flow.Discard()
		return ctx.Err()
	}

	text, keep := review(ctx, deps, transcription)
	if !keep {
		deps.Flow.Discard()
		deps.Output.Info("Entry not saved")
		return nil
	}

	entry, err := deps.Flow.Save(ctx, text)
	if err != nil {
		return err
	}
	deps.Output.Success("Saved " + output.ShortID(entry.ID))
	return nil
}

// captureUntilStopped handles pause and discard commands until the user asks
// to stop. End of input stops the recording.
func captureUntilStopped(ctx context.Context, deps *Dependencies) (discarded bool, err error) {
	for {
		line, err := deps.readLine(ctx)
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return false, nil
		case "q":
			return true, nil
		case "p":
			if !deps.Recorder.Pause() && !deps.Recorder.Resume() {
				log.Debug().Msg("Pause toggle ignored outside an active recording")
			}
		default:
			deps.Output.Warning("Enter stops, p pauses or resumes, q discards")
		}
	}
}

// review lets the user accept, replace or drop the transcript. Only live
// transcripts can be accepted unchanged.
func review(ctx context.Context, deps *Dependencies, transcription domain.Transcription) (string, bool) {
	live := transcription.Source == domain.TranscriptSourceLive
	if live {
		deps.Output.Prompt("Press Enter to save, type a replacement, or q to discard:")
	} else {
		deps.Output.Prompt("Type your journal entry (q to discard):")
	}

	line, _ := deps.readLine(ctx)
	line = strings.TrimSpace(line)
	switch {
	case strings.EqualFold(line, "q"):
		return "", false
	case line != "":
		return line, true
	case live:
		return transcription.Text, true
	default:
		return "", false
	}
}
