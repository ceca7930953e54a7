package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"

	"moodjournal/internal/domain"
)

const (
	bitDepth      = 16
	wavFormatPCM  = 1
	tempSubdir    = "tmp"
	archiveSubdir = "entries"
)

var errEmptyRecording = errors.New("recording has no audio")

// ClipDir stores recordings as WAV files and hands out file:// references.
// Temporary clips live under tmp/ and are removed on Revoke; archived clips
// live under entries/ and are kept.
type ClipDir struct {
	root string
}

func NewClipDir(root string) (*ClipDir, error) {
	for _, sub := range []string{tempSubdir, archiveSubdir} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create clip dir: %w", err)
		}
	}
	return &ClipDir{root: root}, nil
}

func (d *ClipDir) Publish(recording domain.AudioRecording) (string, error) {
	return d.write(tempSubdir, recording)
}

func (d *ClipDir) Archive(recording domain.AudioRecording) (string, error) {
	return d.write(archiveSubdir, recording)
}

// Revoke deletes a temporary clip. Unknown or archived references are ignored.
func (d *ClipDir) Revoke(ref string) error {
	path, err := PathFromURL(ref)
	if err != nil {
		return err
	}
	if filepath.Dir(path) != filepath.Join(d.root, tempSubdir) {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("revoke clip: %w", err)
	}
	return nil
}

func (d *ClipDir) write(sub string, recording domain.AudioRecording) (string, error) {
	if recording.Empty() {
		return "", errEmptyRecording
	}

	path := filepath.Join(d.root, sub, uuid.NewString()+".wav")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create clip: %w", err)
	}

	if err := encodeWAV(file, recording); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close clip: %w", err)
	}

	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String(), nil
}

func encodeWAV(file *os.File, recording domain.AudioRecording) error {
	sampleRate := recording.SampleRate
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	channels := recording.Channels
	if channels <= 0 {
		channels = 1
	}

	samples := make([]int, len(recording.Data)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(recording.Data[2*i:])))
	}

	encoder := wav.NewEncoder(file, sampleRate, bitDepth, channels, wavFormatPCM)
	buffer := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := encoder.Write(buffer); err != nil {
		return fmt.Errorf("encode clip: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("finish clip: %w", err)
	}
	return nil
}

// PathFromURL resolves a file:// clip reference to a local path.
func PathFromURL(ref string) (string, error) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid clip reference: %w", err)
	}
	if !strings.EqualFold(parsed.Scheme, "file") {
		return "", fmt.Errorf("unsupported clip reference %q", ref)
	}
	return filepath.FromSlash(parsed.Path), nil
}
