package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"moodjournal/internal/ports"
)

// ErrMicrophoneUnavailable means the microphone could not be opened, either
// because the recorder is missing or the device refused access.
var ErrMicrophoneUnavailable = errors.New("microphone unavailable")

const (
	startupProbe = 250 * time.Millisecond
	stopGrace    = 1200 * time.Millisecond
)

// MicrophoneCapture records raw PCM from the default input through ffmpeg.
type MicrophoneCapture struct {
	command string
}

func NewMicrophoneCapture(command string) *MicrophoneCapture {
	if command == "" {
		command = "ffmpeg"
	}
	return &MicrophoneCapture{command: command}
}

// Start opens the microphone. It returns once ffmpeg has survived the
// startup probe, which is how a device refusal shows up.
func (c *MicrophoneCapture) Start(ctx context.Context, cfg ports.AudioConfig) (ports.AudioSession, error) {
	if _, err := exec.LookPath(c.command); err != nil {
		return nil, fmt.Errorf("%w: recorder %q not found", ErrMicrophoneUnavailable, c.command)
	}

	cmd := exec.CommandContext(ctx, c.command, captureArgs(cfg)...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("recorder stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMicrophoneUnavailable, err)
	}

	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
		close(exited)
	}()

	probe := time.NewTimer(startupProbe)
	defer probe.Stop()

	select {
	case err := <-exited:
		detail := strings.TrimSpace(stderr.String())
		if err != nil {
			return nil, fmt.Errorf("%w: recorder exited: %v: %s", ErrMicrophoneUnavailable, err, detail)
		}
		return nil, fmt.Errorf("%w: recorder exited before capture started", ErrMicrophoneUnavailable)
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-exited
		return nil, ctx.Err()
	case <-probe.C:
	}

	log.Debug().Str("device", cfg.InputDevice).Int("pid", cmd.Process.Pid).Msg("Microphone opened")

	return &microphoneSession{
		stdout:  stdout,
		stderr:  stderr,
		process: cmd.Process,
		exited:  exited,
	}, nil
}

func captureArgs(cfg ports.AudioConfig) []string {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}

	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"-",
	}
}

type microphoneSession struct {
	stdout  io.ReadCloser
	stderr  *bytes.Buffer
	process *os.Process
	exited  <-chan error

	once    sync.Once
	stopErr error
}

func (s *microphoneSession) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *microphoneSession) Close() error {
	return s.Stop()
}

// Stop interrupts ffmpeg so it flushes, then kills it after a grace period.
// Safe to call more than once.
func (s *microphoneSession) Stop() error {
	s.once.Do(func() {
		_ = s.process.Signal(os.Interrupt)

		grace := time.NewTimer(stopGrace)
		defer grace.Stop()

		var err error
		select {
		case err = <-s.exited:
		case <-grace.C:
			_ = s.process.Kill()
			err = <-s.exited
		}
		s.stopErr = ignoreExitStatus(err)

		if closeErr := s.stdout.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) && s.stopErr == nil {
			s.stopErr = closeErr
		}
		if s.stopErr != nil {
			if detail := strings.TrimSpace(s.stderr.String()); detail != "" {
				s.stopErr = fmt.Errorf("%w: %s", s.stopErr, detail)
			}
		}
	})
	return s.stopErr
}

// ignoreExitStatus drops the non-zero exit ffmpeg reports when interrupted.
func ignoreExitStatus(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
