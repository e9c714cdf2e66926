// Package storage handles photo files staged for marketplace upload.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
}

func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

var (
	// ErrNotStaged is returned when a photo is not present in the staging area.
	ErrNotStaged = errors.New("photo not staged")
	// ErrInvalidPath rejects paths that are empty or leave the staging root.
	ErrInvalidPath = errors.New("invalid staged path")
)

// PhotoStaging is a directory (or any afs URL) holding unit photos until
// their advert is published. Photos are addressed by their path relative
// to the root, "<component_ref>/<product_sku>/<filename>".
type PhotoStaging struct {
	fs   afs.Service
	root string
}

// NewPhotoStaging returns a staging area rooted at root. Plain paths are
// treated as local files.
func NewPhotoStaging(root string) *PhotoStaging {
	return &PhotoStaging{fs: afs.New(), root: root}
}

func (s *PhotoStaging) location(relPath string) (string, error) {
	rel := strings.Trim(strings.TrimSpace(relPath), "/")
	if rel == "" || strings.HasPrefix(strings.TrimSpace(relPath), "/") {
		return "", fmt.Errorf("%w %q", ErrInvalidPath, relPath)
	}
	for _, segment := range strings.Split(rel, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return "", fmt.Errorf("%w %q", ErrInvalidPath, relPath)
		}
	}
	return url.Join(s.root, path.Clean(rel)), nil
}

// Stage writes a photo into the staging area, creating parent folders.
func (s *PhotoStaging) Stage(ctx context.Context, relPath string, content io.Reader) error {
	dest, err := s.location(relPath)
	if err != nil {
		return err
	}
	if err := s.fs.Upload(ctx, dest, file.DefaultFileOsMode, content); err != nil {
		return fmt.Errorf("stage %s: %w", relPath, err)
	}
	return nil
}

// Exists reports whether relPath is currently staged.
func (s *PhotoStaging) Exists(ctx context.Context, relPath string) (bool, error) {
	loc, err := s.location(relPath)
	if err != nil {
		return false, err
	}
	return s.fs.Exists(ctx, loc)
}

// Read returns a staged photo, or ErrNotStaged.
func (s *PhotoStaging) Read(ctx context.Context, relPath string) ([]byte, error) {
	exists, err := s.Exists(ctx, relPath)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", relPath, ErrNotStaged)
	}
	loc, _ := s.location(relPath)
	data, err := s.fs.DownloadWithURL(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", relPath, err)
	}
	return data, nil
}

// Cleanup removes the given staged photos. Missing files are skipped; every
// other failure is logged and counted, never returned.
func (s *PhotoStaging) Cleanup(ctx context.Context, relPaths []string) (removed, failed int) {
	for _, relPath := range relPaths {
		loc, err := s.location(relPath)
		if err != nil {
			log.WithError(err).Warn("Skipping staged photo")
			failed++
			continue
		}
		exists, err := s.fs.Exists(ctx, loc)
		if err != nil {
			log.WithError(err).WithField("path", relPath).Warn("Could not stat staged photo")
			failed++
			continue
		}
		if !exists {
			continue
		}
		if err := s.fs.Delete(ctx, loc); err != nil {
			log.WithError(err).WithField("path", relPath).Warn("Failed to delete staged photo")
			failed++
			continue
		}
		removed++
	}
	if removed > 0 || failed > 0 {
		log.WithFields(logrus.Fields{"removed": removed, "failed": failed}).Debug("Staged photo cleanup finished")
	}
	return removed, failed
}
