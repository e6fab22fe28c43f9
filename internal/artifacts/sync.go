package artifacts

import (
	"fmt"
	"os"
)

// Sync replaces dst with a copy of the artifact tree at src.
func Sync(src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("%w: source %s: %v", ErrMissingArtifact, src, err)
	}
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("clear %s: %w", dst, err)
	}
	if err := os.CopyFS(dst, os.DirFS(src)); err != nil {
		return fmt.Errorf("copy %s -> %s: %w", src, dst, err)
	}
	return nil
}
