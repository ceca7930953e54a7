package audio

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"moodjournal/internal/ports"
)

func TestMicrophoneCaptureStartReadAndStop(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "capture.sh", "#!/usr/bin/env bash\nprintf 'pcm!'\nsleep 2\n")
	session, err := NewMicrophoneCapture(script).Start(context.Background(), ports.AudioConfig{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	buf := make([]byte, 16)
	n, _ := session.Read(buf)
	if !strings.Contains(string(buf[:n]), "pcm!") {
		t.Fatalf("unexpected bytes: %q", string(buf[:n]))
	}

	if err := session.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := session.Stop(); err != nil {
		t.Fatalf("second stop should be a no-op, got %v", err)
	}
}

func TestMicrophoneCaptureEarlyExitIsUnavailable(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "denied.sh", "#!/usr/bin/env bash\necho 'Permission denied' 1>&2\nexit 1\n")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewMicrophoneCapture(script).Start(ctx, ports.AudioConfig{})
	if !errors.Is(err, ErrMicrophoneUnavailable) {
		t.Fatalf("expected ErrMicrophoneUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "Permission denied") {
		t.Fatalf("expected stderr detail, got %v", err)
	}
}

func TestMicrophoneCaptureMissingRecorder(t *testing.T) {
	t.Parallel()

	_, err := NewMicrophoneCapture(filepath.Join(t.TempDir(), "nope")).Start(context.Background(), ports.AudioConfig{})
	if !errors.Is(err, ErrMicrophoneUnavailable) {
		t.Fatalf("expected ErrMicrophoneUnavailable, got %v", err)
	}
}

func TestCaptureArgsDefaults(t *testing.T) {
	t.Parallel()

	args := strings.Join(captureArgs(ports.AudioConfig{}), " ")
	for _, want := range []string{"-f pulse", "-i default", "-ac 1", "-ar 16000", "-f s16le -"} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in %q", want, args)
		}
	}
}

func TestIgnoreExitStatus(t *testing.T) {
	t.Parallel()

	err := exec.Command("bash", "-c", "exit 1").Run()
	if err == nil {
		t.Fatalf("expected command to fail")
	}
	if got := ignoreExitStatus(err); got != nil {
		t.Fatalf("expected nil for exit error, got %v", got)
	}
	other := errors.New("other")
	if got := ignoreExitStatus(other); !errors.Is(got, other) {
		t.Fatalf("expected passthrough, got %v", got)
	}
}

func writeScript(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o700); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}
