package config

import "time"

// Config stores runtime configuration for the journal.
type Config struct {
	Deepgram      DeepgramConfig      `yaml:"deepgram"`
	Audio         AudioConfig         `yaml:"audio"`
	Rules         RulesConfig         `yaml:"rules"`
	Recorder      RecorderConfig      `yaml:"recorder"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Journal       JournalConfig       `yaml:"journal"`
	Log           LogConfig           `yaml:"log"`
}

type DeepgramConfig struct {
	APIKey      string `yaml:"api_key"      env:"DEEPGRAM_API_KEY"`
	APIBaseURL  string `yaml:"api_base"     env:"DEEPGRAM_API_BASE"     env-default:"https://api.deepgram.com/v1"`
	Model       string `yaml:"model"        env:"DEEPGRAM_MODEL"        env-default:"nova-2"`
	Language    string `yaml:"language"     env:"DEEPGRAM_LANGUAGE"`
	SmartFormat bool   `yaml:"smart_format" env:"DEEPGRAM_SMART_FORMAT" env-default:"true"`
}

type AudioConfig struct {
	RecorderCommand string `yaml:"ffmpeg_command" env:"MOODJOURNAL_FFMPEG_COMMAND"     env-default:"ffmpeg"`
	InputFormat     string `yaml:"input_format"   env:"MOODJOURNAL_AUDIO_INPUT_FORMAT" env-default:"pulse"`
	InputDevice     string `yaml:"input_device"   env:"MOODJOURNAL_AUDIO_INPUT_DEVICE" env-default:"default"`
	SampleRate      int    `yaml:"sample_rate"    env:"MOODJOURNAL_SAMPLE_RATE"        env-default:"16000"`
	Channels        int    `yaml:"channels"       env:"MOODJOURNAL_CHANNELS"           env-default:"1"`
}

type RulesConfig struct {
	Path           string `yaml:"path"            env:"MOODJOURNAL_RULES_FILE"`
	IterationLimit int    `yaml:"iteration_limit" env:"MOODJOURNAL_RULE_ITERATION_LIMIT" env-default:"30"`
}

type RecorderConfig struct {
	ChunkSize    int           `yaml:"chunk_size"    env:"MOODJOURNAL_CHUNK_SIZE"    env-default:"4096"`
	MaxDuration  time.Duration `yaml:"max_duration"  env:"MOODJOURNAL_MAX_DURATION"  env-default:"120s"`
	TickInterval time.Duration `yaml:"tick_interval" env:"MOODJOURNAL_TICK_INTERVAL" env-default:"100ms"`
}

type TranscriptionConfig struct {
	RecognitionTimeout time.Duration `yaml:"recognition_timeout"  env:"MOODJOURNAL_RECOGNITION_TIMEOUT"  env-default:"15s"`
	ProgressInterval   time.Duration `yaml:"progress_interval"    env:"MOODJOURNAL_PROGRESS_INTERVAL"    env-default:"500ms"`
	SimulatedStepDelay time.Duration `yaml:"simulated_step_delay" env:"MOODJOURNAL_SIMULATED_STEP_DELAY" env-default:"150ms"`
}

type JournalConfig struct {
	DBPath           string        `yaml:"db_path"           env:"MOODJOURNAL_DB_PATH"`
	ClipsDir         string        `yaml:"clips_dir"         env:"MOODJOURNAL_CLIPS_DIR"`
	User             string        `yaml:"user"              env:"MOODJOURNAL_USER"`
	SentimentLatency time.Duration `yaml:"sentiment_latency" env:"MOODJOURNAL_SENTIMENT_LATENCY" env-default:"0s"`
}

type LogConfig struct {
	Level  string `yaml:"level"  env:"MOODJOURNAL_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"MOODJOURNAL_LOG_FORMAT" env-default:"console"`
}
