// VoiceGuide is a spoken social link card for the terminal.
//
// Usage:
//
//	voiceguide [--profile me.yaml] [--engine azure|deepgram|none] [-v] [--trace]
//	voiceguide say [--high] TEXT...
//	voiceguide platforms [--search QUERY]
package main

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hammamikhairi/voiceguide/internal/config"
	"github.com/hammamikhairi/voiceguide/internal/logger"
)

var (
	configFile string
	verbose    bool
	quiet      bool
	noVoice    bool
	tracing    bool

	rootCmd = &cobra.Command{
		Use:           "voiceguide",
		Short:         "A spoken social link card for the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runCard,
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default: voiceguide.yaml in the user config dir)")
	flags.String("profile", "", "profile YAML file (default: built-in profile)")
	flags.String("engine", config.EngineAuto, "speech engine: auto, azure, deepgram or none")
	flags.String("audio", config.AudioOto, "audio output: oto or miniaudio")
	flags.String("log-file", "", "file to write logs to (use \"stderr\" to log to console)")
	flags.BoolVar(&noVoice, "no-voice", false, "start with narration off")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose/debug logging")
	flags.BoolVar(&quiet, "quiet", false, "disable all logging")
	flags.BoolVar(&tracing, "trace", false, "write announcement spans to the log (implied by --verbose)")
	rootCmd.Flags().Bool("watch", false, "reload the profile file when it changes")

	_ = viper.BindPFlag("profile", flags.Lookup("profile"))
	_ = viper.BindPFlag("speech.engine", flags.Lookup("engine"))
	_ = viper.BindPFlag("speech.audio", flags.Lookup("audio"))
	_ = viper.BindPFlag("log.file", flags.Lookup("log-file"))
	_ = viper.BindPFlag("watch", rootCmd.Flags().Lookup("watch"))

	rootCmd.AddCommand(sayCmd, platformsCmd)
}

// loadConfig reads flags, env and the config file into a Config.
//
// Bound flags only override the file and environment when set explicitly.
func loadConfig() (config.Config, error) {
	v := viper.GetViper()
	if err := config.Setup(v, configFile); err != nil {
		return config.Config{}, err
	}

	if noVoice {
		v.Set("voice", false)
	}
	switch {
	case quiet:
		v.Set("log.level", "off")
	case verbose:
		v.Set("log.level", "verbose")
		v.Set("trace", true)
	}
	if tracing {
		v.Set("trace", true)
	}

	return config.Load(v)
}

// setupLog opens the log destination. Logs go to a file by default so the
// card stays clean. The raw writer is returned for span export.
func setupLog(cfg config.LogConfig) (*logger.Logger, io.Writer, func() error, error) {
	var out io.Writer = os.Stderr
	closer := func() error { return nil }

	if cfg.File != "" && cfg.File != "stderr" {
		if dir := filepath.Dir(cfg.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, nil, fmt.Errorf("creating log dir: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening log file %s: %w", cfg.File, err)
		}
		out = f
		closer = f.Close
	}

	// Audio libraries log through the standard logger.
	stdlog.SetOutput(out)
	stdlog.SetFlags(stdlog.Ltime)

	return logger.New(logger.ParseLevel(cfg.Level), out), out, closer, nil
}
