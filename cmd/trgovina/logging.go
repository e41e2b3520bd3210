package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/erazemk/trgovina/internal/config"
)

// levelRouter is a zerolog.LevelWriter that sends WARN and above to stderr
// and every level to the log file. Without a file, stderr gets everything.
// Stdout is never used: it carries the responses.
type levelRouter struct {
	stderr io.Writer
	file   io.Writer
}

func (lr levelRouter) Write(p []byte) (int, error) {
	return lr.WriteLevel(zerolog.NoLevel, p)
}

func (lr levelRouter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if lr.file != nil {
		if _, err := lr.file.Write(p); err != nil {
			return 0, err
		}
	}
	if lr.file == nil || level >= zerolog.WarnLevel {
		if _, err := lr.stderr.Write(p); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// setupLogger builds the process logger from cfg. The returned cleanup closes
// the log file, if one was opened.
func setupLogger(cfg *config.Config, stderr io.Writer) (zerolog.Logger, func(), error) {
	level, err := cfg.Level()
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	cleanup := func() {}
	router := levelRouter{stderr: stderr}
	if cfg.Development() {
		router.stderr = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.TimeOnly}
	}
	if cfg.LogPath != "" {
		f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		router.file = f
	}

	log := zerolog.New(router).Level(level).With().Timestamp().Logger()
	return log, cleanup, nil
}
