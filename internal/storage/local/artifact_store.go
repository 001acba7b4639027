// Package local writes page artifacts to the local filesystem.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JakeFAU/depth-scraper/internal/crawler"
)

// Config captures the parameters for the local artifact store.
type Config struct {
	// BaseDir is the root under which the per-depth directories live.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// ArtifactStore lays artifacts out as <BaseDir>/<depth>/<encoded url>.html.
type ArtifactStore struct {
	baseDir string
}

// New creates a store rooted at cfg.BaseDir, creating the directory if needed
// and verifying that it is writable.
func New(cfg Config) (*ArtifactStore, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat base directory: %w", err)
		}
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", mkErr)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	testFile := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	return &ArtifactStore{baseDir: cfg.BaseDir}, nil
}

// PrepareDepths creates the directories for depths 0..maxDepth. Existing
// directories are reused.
func (s *ArtifactStore) PrepareDepths(maxDepth int) error {
	for depth := 0; depth <= maxDepth; depth++ {
		dir := s.depthDir(depth)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("%w: create %s: %v", crawler.ErrPersist, dir, err)
		}
	}
	return nil
}

// Path returns where the artifact for url at depth is written.
func (s *ArtifactStore) Path(depth int, url string) string {
	return filepath.Join(s.depthDir(depth), crawler.EncodeURLToFilename(url)+".html")
}

// PutArtifact writes the artifact body and returns its path. Two URLs that
// encode to the same filename overwrite each other.
func (s *ArtifactStore) PutArtifact(ctx context.Context, artifact crawler.Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: context canceled: %v", crawler.ErrPersist, err)
	}
	if artifact.Depth < 0 {
		return "", fmt.Errorf("%w: negative depth %d", crawler.ErrPersist, artifact.Depth)
	}
	target := s.Path(artifact.Depth, artifact.URL)

	rel, err := filepath.Rel(s.baseDir, target)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: path traversal detected", crawler.ErrPersist)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return "", fmt.Errorf("%w: create %s: %v", crawler.ErrPersist, filepath.Dir(target), err)
	}
	if err := os.WriteFile(target, artifact.Body, 0o600); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", crawler.ErrPersist, target, err)
	}
	return target, nil
}

func (s *ArtifactStore) depthDir(depth int) string {
	return filepath.Join(s.baseDir, strconv.Itoa(depth))
}
