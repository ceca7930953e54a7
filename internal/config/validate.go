package config

import (
	"fmt"
	"slices"
	"strings"
)

var (
	logLevels  = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}
	logFormats = []string{"console", "json"}
)

// Validate performs range checks on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be > 0 (got %d)", c.Audio.SampleRate)
	}
	if c.Audio.Channels <= 0 {
		return fmt.Errorf("audio.channels must be > 0 (got %d)", c.Audio.Channels)
	}
	if c.Rules.IterationLimit <= 0 {
		return fmt.Errorf("rules.iteration_limit must be > 0 (got %d)", c.Rules.IterationLimit)
	}
	if c.Recorder.ChunkSize < 256 {
		return fmt.Errorf("recorder.chunk_size must be >= 256 (got %d)", c.Recorder.ChunkSize)
	}
	if c.Recorder.MaxDuration <= 0 {
		return fmt.Errorf("recorder.max_duration must be > 0 (got %s)", c.Recorder.MaxDuration)
	}
	if c.Recorder.TickInterval <= 0 || c.Recorder.TickInterval > c.Recorder.MaxDuration {
		return fmt.Errorf("recorder.tick_interval must be in (0, max_duration] (got %s)", c.Recorder.TickInterval)
	}
	if c.Transcription.RecognitionTimeout <= 0 {
		return fmt.Errorf("transcription.recognition_timeout must be > 0 (got %s)", c.Transcription.RecognitionTimeout)
	}
	if c.Transcription.ProgressInterval <= 0 {
		return fmt.Errorf("transcription.progress_interval must be > 0 (got %s)", c.Transcription.ProgressInterval)
	}
	if c.Transcription.SimulatedStepDelay < 0 || c.Journal.SentimentLatency < 0 {
		return fmt.Errorf("delays must not be negative")
	}

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if !slices.Contains(logLevels, c.Log.Level) {
		return fmt.Errorf("log.level %q is not one of %s", c.Log.Level, strings.Join(logLevels, ", "))
	}
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if !slices.Contains(logFormats, c.Log.Format) {
		return fmt.Errorf("log.format %q is not one of %s", c.Log.Format, strings.Join(logFormats, ", "))
	}
	return nil
}
