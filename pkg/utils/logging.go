package utils

import (
	"io"
	"log"
	"os"
	"path/filepath"
)

// InitLogging tees the standard logger to ATLAS_LOG_FILE when it is set.
// The returned file (nil when logging to stdout only) must be closed by
// the caller.
func InitLogging() *os.File {
	path := envString("ATLAS_LOG_FILE", "")
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("Warning: failed to create log directory: %v", err)
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("Warning: failed to open log file: %v", err)
		return nil
	}
	log.SetOutput(io.MultiWriter(os.Stdout, f))
	return f
}
