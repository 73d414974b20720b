// Package local implements a local filesystem media store.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/redresslabs/redress/internal/rights"
)

// Config captures the parameters for the local filesystem media store.
type Config struct {
	// BaseDir is the root directory of the media tree.
	BaseDir string `mapstructure:"base_dir"`
}

// Store writes media blobs under <base>/<category>/<post>/<name>.
type Store struct {
	baseDir string
}

// New creates a new local filesystem-backed media store.
func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
				return nil, fmt.Errorf("failed to create base directory: %w", mkErr)
			}
		} else {
			return nil, fmt.Errorf("failed to stat base directory: %w", err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	// Check for write permissions.
	probe := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(probe, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(probe); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	return &Store{baseDir: cfg.BaseDir}, nil
}

// Put writes one blob and returns a file:// URI. Post IDs and names come
// from platform payloads, so both are checked against path traversal before
// touching the filesystem.
func (s *Store) Put(_ context.Context, category rights.Category, postID, name, _ string, data []byte) (string, error) {
	if postID == "" || name == "" {
		return "", fmt.Errorf("post id and name are required")
	}
	if !safeSegment(postID) || !safeSegment(name) {
		return "", fmt.Errorf("path traversal detected")
	}

	fullPath := filepath.Join(s.baseDir, string(category), postID, name)
	cleanBase := filepath.Clean(s.baseDir)
	if !strings.HasPrefix(filepath.Clean(fullPath), cleanBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected")
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return "", fmt.Errorf("failed to create parent directories: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return fmt.Sprintf("file://%s", fullPath), nil
}

func safeSegment(segment string) bool {
	if segment == "." || segment == ".." {
		return false
	}
	return !strings.ContainsAny(segment, `/\`)
}
