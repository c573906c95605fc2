// Package logger builds the node's logrus logger from the log.* settings.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/evalphobia/logrus_sentry"
	"github.com/sirupsen/logrus"
)

// Config mirrors the log.* and sentry.* CLI settings.
type Config struct {
	// Format is "text" or "json".
	Format string
	// Verbosity runs from 0 (fatal only) to 5 (trace).
	Verbosity int
	Color     bool
	// SentryDSN, when set, forwards error and worse entries to Sentry.
	SentryDSN string
	// Output defaults to stderr.
	Output io.Writer
	// WarnOutput, when set, also receives every warning and worse entry.
	WarnOutput io.Writer
}

// DefaultConfig returns text output at info level.
func DefaultConfig() Config {
	return Config{Format: "text", Verbosity: 3}
}

// Level maps a verbosity onto a logrus level, clamping out-of-range values.
func Level(verbosity int) logrus.Level {
	if verbosity < 0 {
		verbosity = 0
	}
	if verbosity > 5 {
		verbosity = 5
	}
	return logrus.Level(verbosity + 1)
}

// New creates a logger from cfg.
func New(cfg Config) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetLevel(Level(cfg.Verbosity))
	if cfg.Output != nil {
		log.SetOutput(cfg.Output)
	} else {
		log.SetOutput(os.Stderr)
	}

	switch cfg.Format {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{
			ForceColors:     cfg.Color,
			DisableColors:   !cfg.Color,
			FullTimestamp:   true,
			TimestampFormat: "01-02|15:04:05.000",
		})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	if cfg.WarnOutput != nil {
		log.AddHook(&WarnHook{Writer: cfg.WarnOutput})
	}
	if cfg.SentryDSN != "" {
		hook, err := logrus_sentry.NewSentryHook(cfg.SentryDSN, []logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
		})
		if err != nil {
			return nil, fmt.Errorf("sentry hook: %w", err)
		}
		hook.Timeout = 5 * time.Second
		hook.StacktraceConfiguration.Enable = true
		log.AddHook(hook)
	}
	return log, nil
}

// WarnHook copies warning and worse entries to a separate writer.
type WarnHook struct {
	Writer io.Writer
}

func (h *WarnHook) Fire(entry *logrus.Entry) error {
	line, err := entry.String()
	if err != nil {
		return err
	}
	_, err = io.WriteString(h.Writer, line)
	return err
}

func (h *WarnHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel}
}
