package logging

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds the process logger writing to stdout and, when a directory is
// configured, to a daily file. The standard log package is redirected to
// the same writer.
func Setup(cfg Config) (io.Closer, *slog.Logger, error) {
	if cfg.Directory == "" {
		logger := New(os.Stdout, cfg)
		return nopCloser{}, logger, nil
	}
	if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	fileName := filepath.Join(cfg.Directory, time.Now().UTC().Format("2006-01-02")+".log")
	file, err := os.OpenFile(fileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	writer := io.MultiWriter(os.Stdout, file)
	logger := New(writer, cfg)
	log.SetOutput(writer)
	log.SetFlags(0)
	log.SetPrefix("")

	return file, logger, nil
}
