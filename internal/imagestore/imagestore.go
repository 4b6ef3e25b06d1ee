// Package imagestore persists uploaded detection images to a local
// directory so history entries can show the original photo later.
package imagestore

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Register the image formats uploads may arrive in.
	_ "image/jpeg"
	_ "image/png"

	"github.com/melonguard/melonguard-go/internal/conf"
	"github.com/melonguard/melonguard-go/internal/errors"
)

// Store writes and reads saved detection images.
type Store struct {
	dir string
	now func() time.Time
}

// New creates a store rooted at the configured image directory, creating it
// if needed.
func New(settings *conf.Settings) (*Store, error) {
	dir := settings.ImageStore.Path
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.New(fmt.Errorf("cannot create image directory: %w", err)).
			Component("imagestore").
			Category(errors.CategoryFileIO).
			Context("path", dir).
			Build()
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Validate checks that data decodes as a supported image format.
func Validate(data []byte) error {
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return errors.New(fmt.Errorf("unreadable image: %w", err)).
			Component("imagestore").
			Category(errors.CategoryImageDecode).
			Build()
	}
	return nil
}

// Save writes the image under the name pattern
// {username}_{YYYYMMDD_HHMMSS}_{originalName} and returns the stored path.
// Uniqueness relies on one second timestamp granularity plus the original
// name, which is acceptable for a single user saving by hand.
func (s *Store) Save(username, originalName string, data []byte) (string, error) {
	name := fmt.Sprintf("%s_%s_%s",
		username,
		s.now().Format("20060102_150405"),
		sanitizeName(originalName))
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.New(fmt.Errorf("cannot write image file: %w", err)).
			Component("imagestore").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	return path, nil
}

// Open returns the stored image bytes for a file name previously produced by
// Save. Path traversal outside the store directory is rejected.
func (s *Store) Open(name string) ([]byte, error) {
	if name != filepath.Base(name) {
		return nil, errors.Newf("invalid image name: %q", name).
			Component("imagestore").
			Category(errors.CategoryValidation).
			Build()
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(err).
				Component("imagestore").
				Category(errors.CategoryNotFound).
				Context("name", name).
				Build()
		}
		return nil, errors.New(err).
			Component("imagestore").
			Category(errors.CategoryFileIO).
			Context("name", name).
			Build()
	}
	return data, nil
}

// sanitizeName strips any path components and characters that do not belong
// in a file name.
func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." {
		name = "image"
	}
	return name
}
