package usecase

import (
	"context"
	"strings"

	"moodjournal/internal/domain"
	"moodjournal/internal/ports"
)

// transcriptCollector assembles recognized text from stream events. Final
// segments are kept in order; a repeated final (the provider re-sends the
// closing segment as speech_final) is dropped. The latest partial is held
// until a final replaces it, so an utterance cut off by the end of the
// stream still ends up in the text.
type transcriptCollector struct {
	finals  []string
	pending string
}

func (c *transcriptCollector) Add(event domain.TranscriptEvent) {
	text := strings.TrimSpace(event.Text)
	if text == "" {
		return
	}
	if event.Kind != domain.TranscriptKindFinal {
		c.pending = text
		return
	}
	c.pending = ""
	if n := len(c.finals); n > 0 && event.IsSpeechFinal && c.finals[n-1] == text {
		return
	}
	c.finals = append(c.finals, text)
}

func (c *transcriptCollector) Text() string {
	parts := c.finals
	if c.pending != "" {
		parts = append(parts[:len(parts):len(parts)], c.pending)
	}
	return strings.Join(parts, " ")
}

// collectTranscript feeds stream events into the collector until the stream
// ends. Cancellation closes the stream.
func collectTranscript(ctx context.Context, stream ports.StreamingSession, collector *transcriptCollector) error {
	events := stream.Events()
	for {
		select {
		case <-ctx.Done():
			_ = stream.Close()
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			collector.Add(event)
		}
	}
}
