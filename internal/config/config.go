// Package config loads runtime settings from flags, the environment and an
// optional voiceguide.yaml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"

	"github.com/hammamikhairi/voiceguide/internal/speech"
)

// AppName names the config file, the env prefix and the config dirs.
const AppName = "voiceguide"

// Engine names accepted by the "speech.engine" setting.
const (
	EngineAuto     = "auto"
	EngineAzure    = "azure"
	EngineDeepgram = "deepgram"
	EngineNone     = "none"
)

// Audio output names accepted by the "speech.audio" setting.
const (
	AudioOto       = "oto"
	AudioMiniaudio = "miniaudio"
)

// Config is the full runtime configuration.
type Config struct {
	Profile string // path to a profile YAML file, empty = built-in
	Watch   bool   // reload the profile file on change
	Voice   bool   // start with narration on
	Trace   bool   // export announcement spans to the log

	Log    LogConfig
	Guide  GuideConfig
	Speech SpeechConfig
}

// LogConfig controls the logger.
type LogConfig struct {
	Level string
	File  string // "stderr" logs to the console
}

// GuideConfig holds the interaction timings.
type GuideConfig struct {
	HoverDwell   time.Duration
	ClickDelay   time.Duration
	WelcomeDelay time.Duration
	MaxQueue     int
}

// SpeechConfig selects and tunes the speech pipeline.
type SpeechConfig struct {
	Engine    string
	Audio     string
	Voice     string
	Language  string
	Model     string // Deepgram Aura model
	Prosody   speech.Prosody
	ChunkSize int
	Timeout   time.Duration // one synthesis round trip
	CacheDir  string
	DiskCache bool
	CacheMax  int64 // bytes of audio kept in memory, 0 = unbounded

	AzureKey    string
	AzureRegion string
	DeepgramKey string
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("profile", "")
	v.SetDefault("watch", false)
	v.SetDefault("voice", true)
	v.SetDefault("trace", false)

	v.SetDefault("log.level", "normal")
	v.SetDefault("log.file", ".voiceguide-logs/voiceguide.log")

	v.SetDefault("guide.hover_dwell", time.Second)
	v.SetDefault("guide.click_delay", 300*time.Millisecond)
	v.SetDefault("guide.welcome_delay", 2500*time.Millisecond)
	v.SetDefault("guide.max_queue", 0)

	v.SetDefault("speech.engine", EngineAuto)
	v.SetDefault("speech.audio", AudioOto)
	v.SetDefault("speech.voice", speech.DefaultVoice)
	v.SetDefault("speech.language", speech.DefaultLanguage)
	v.SetDefault("speech.model", speech.DefaultDeepgramModel)
	v.SetDefault("speech.rate", speech.DefaultProsody.Rate)
	v.SetDefault("speech.pitch", speech.DefaultProsody.Pitch)
	v.SetDefault("speech.volume", speech.DefaultProsody.Volume)
	v.SetDefault("speech.chunk_size", speech.DefaultChunkSize)
	v.SetDefault("speech.timeout", speech.DefaultHTTPTimeout)
	v.SetDefault("speech.cache_dir", ".voiceguide-cache")
	v.SetDefault("speech.disk_cache", true)
	v.SetDefault("speech.cache_limit", "64MB")
}

// Setup prepares v the way the CLI uses it: .env loaded into the process
// environment, VOICEGUIDE_* variables bound, and the config file searched
// in the user config dirs unless file is set.
func Setup(v *viper.Viper, file string) error {
	// A missing .env is normal.
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix(AppName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		dirs, err := ConfigDirs()
		if err != nil {
			return err
		}
		for _, d := range dirs {
			v.AddConfigPath(d)
		}
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// ConfigDirs lists the directories searched for voiceguide.yaml, most
// specific first.
func ConfigDirs() ([]string, error) {
	scope := gap.NewScope(gap.User, AppName)
	dirs, err := scope.ConfigDirs()
	if err != nil {
		return nil, fmt.Errorf("finding config dirs: %w", err)
	}
	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, AppName)}, dirs...)
	}
	if c := os.Getenv("VOICEGUIDE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}
	return dirs, nil
}

// Load reads the configuration out of v and validates it.
func Load(v *viper.Viper) (Config, error) {
	cacheMax, err := parseSize(v.GetString("speech.cache_limit"))
	if err != nil {
		return Config{}, fmt.Errorf("speech.cache_limit: %w", err)
	}

	cfg := Config{
		Profile: v.GetString("profile"),
		Watch:   v.GetBool("watch"),
		Voice:   v.GetBool("voice"),
		Trace:   v.GetBool("trace"),
		Log: LogConfig{
			Level: v.GetString("log.level"),
			File:  v.GetString("log.file"),
		},
		Guide: GuideConfig{
			HoverDwell:   v.GetDuration("guide.hover_dwell"),
			ClickDelay:   v.GetDuration("guide.click_delay"),
			WelcomeDelay: v.GetDuration("guide.welcome_delay"),
			MaxQueue:     v.GetInt("guide.max_queue"),
		},
		Speech: SpeechConfig{
			Engine:   strings.ToLower(v.GetString("speech.engine")),
			Audio:    strings.ToLower(v.GetString("speech.audio")),
			Voice:    v.GetString("speech.voice"),
			Language: v.GetString("speech.language"),
			Model:    v.GetString("speech.model"),
			Prosody: speech.Prosody{
				Rate:   v.GetFloat64("speech.rate"),
				Pitch:  v.GetFloat64("speech.pitch"),
				Volume: v.GetFloat64("speech.volume"),
			},
			ChunkSize: v.GetInt("speech.chunk_size"),
			Timeout:   v.GetDuration("speech.timeout"),
			CacheDir:  v.GetString("speech.cache_dir"),
			DiskCache: v.GetBool("speech.disk_cache"),
			CacheMax:  cacheMax,

			AzureKey:    os.Getenv(speech.EnvAzureSpeechKey),
			AzureRegion: os.Getenv(speech.EnvAzureSpeechRegion),
			DeepgramKey: os.Getenv(speech.EnvDeepgramKey),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the program cannot run with.
func (c Config) Validate() error {
	switch c.Speech.Engine {
	case EngineAuto, EngineAzure, EngineDeepgram, EngineNone:
	default:
		return fmt.Errorf("unknown speech engine %q (want auto, azure, deepgram or none)", c.Speech.Engine)
	}
	switch c.Speech.Audio {
	case AudioOto, AudioMiniaudio:
	default:
		return fmt.Errorf("unknown audio output %q (want oto or miniaudio)", c.Speech.Audio)
	}
	if c.Speech.Prosody.Volume < 0 || c.Speech.Prosody.Volume > 1 {
		return fmt.Errorf("speech volume %.2f out of range [0, 1]", c.Speech.Prosody.Volume)
	}
	if c.Speech.Prosody.Rate <= 0 || c.Speech.Prosody.Pitch <= 0 {
		return errors.New("speech rate and pitch must be positive")
	}
	if c.Speech.Timeout <= 0 {
		return fmt.Errorf("speech timeout %s must be positive", c.Speech.Timeout)
	}
	if c.Guide.HoverDwell < 0 || c.Guide.ClickDelay < 0 || c.Guide.WelcomeDelay < 0 {
		return errors.New("guide delays must not be negative")
	}
	if c.Guide.MaxQueue < 0 {
		return fmt.Errorf("guide max queue %d must not be negative", c.Guide.MaxQueue)
	}
	return nil
}

// parseSize reads sizes like "64MB" or "512KiB". Empty and "0" mean no
// limit.
func parseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

// ResolveEngine turns "auto" into a concrete engine based on which
// credentials are present.
func (c SpeechConfig) ResolveEngine() string {
	if c.Engine != EngineAuto {
		return c.Engine
	}
	switch {
	case c.AzureKey != "" && c.AzureRegion != "":
		return EngineAzure
	case c.DeepgramKey != "":
		return EngineDeepgram
	default:
		return EngineNone
	}
}
