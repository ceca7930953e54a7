package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"moodjournal/internal/domain"
	"moodjournal/internal/ports"
)

// pump moves microphone chunks into the session while it is recording.
// Chunks read while paused or after stop are dropped.
func (r *Recorder) pump(session *captureSession, mic ports.AudioSession, done chan struct{}) {
	defer close(done)

	buf := make([]byte, r.cfg.ChunkSize)
	for {
		n, err := mic.Read(buf)
		if n > 0 {
			r.mu.Lock()
			if r.current == session && session.state == domain.RecordingStateRecording {
				session.chunks = append(session.chunks, append([]byte(nil), buf[:n]...))
			}
			r.mu.Unlock()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				log.Warn().Err(err).Uint64("session", session.id).Msg("Audio capture error")
			}
			return
		}
	}
}

// sendRecording streams finalized PCM to the recognizer in chunkSize pieces
// and always half-closes the stream.
func sendRecording(ctx context.Context, stream ports.StreamingSession, pcm []byte, chunkSize int) error {
	defer func() {
		_ = stream.CloseSend()
	}()

	if chunkSize < 256 {
		chunkSize = defaultChunkSize
	}
	for offset := 0; offset < len(pcm); offset += chunkSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(offset+chunkSize, len(pcm))
		if err := stream.SendAudio(pcm[offset:end]); err != nil {
			return fmt.Errorf("send audio: %w", err)
		}
	}
	return nil
}
