package config

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

func parseLevel(name string) (logrus.Level, error) {
	if name == "" {
		return logrus.InfoLevel, nil
	}
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

// SetupLogging configures the standard logrus logger. With toTerminal set,
// logs go to stderr; otherwise they go to cfg.File, or nowhere when it is
// empty, since the TUI owns the terminal. The returned closer releases the
// log file.
func SetupLogging(cfg LogConfig, toTerminal bool) (io.Closer, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	switch {
	case toTerminal:
		logrus.SetOutput(os.Stderr)
	case cfg.File == "":
		logrus.SetOutput(io.Discard)
	default:
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		logrus.SetOutput(f)
		return f, nil
	}
	return nopCloser{}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
