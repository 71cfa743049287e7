package core

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// SetupLogging configures log output to both stdout and a file under cfg.LogDir.
// Caller should close the returned io.Closer when the run finishes.
func SetupLogging(cfg Config, filename string) (io.Closer, error) {
	dir := cfg.LogDir
	if dir == "" {
		dir = "."
	}
	if filename == "" {
		filename = "rime.log"
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, filename)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	log.SetOutput(io.MultiWriter(os.Stdout, f))
	return f, nil
}
