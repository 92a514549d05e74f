// Package localfs implements service.ObjectStore on the local filesystem.
// The web UI serves the directory under /files/.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"taskboard/internal/service"
)

// ErrExists is returned when an object already exists at the path.
var ErrExists = errors.New("object already exists")

// Store keeps objects under Dir and resolves them against BaseURL.
type Store struct {
	dir     string
	baseURL string
}

var _ service.ObjectStore = (*Store)(nil)

// New creates the storage directory if needed.
func New(dir, baseURL string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("local storage directory is empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Store{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// UploadObject writes r to path. Existing files are never overwritten.
func (s *Store) UploadObject(ctx context.Context, path string, r io.Reader, contentType string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("create object directory: %w", err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, os.ErrExist) {
		return ErrExists
	}
	if err != nil {
		return err
	}

	_, copyErr := io.Copy(f, &ctxReader{ctx: ctx, r: r})
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(full)
		if copyErr != nil {
			return copyErr
		}
		return closeErr
	}
	return nil
}

// PublicURL returns BaseURL joined with the escaped object path.
func (s *Store) PublicURL(path string) string {
	parts := strings.Split(strings.TrimLeft(path, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return s.baseURL + "/" + strings.Join(parts, "/")
}

// resolve maps an object path to a file inside the storage root.
func (s *Store) resolve(path string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(path))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid object path: %q", path)
	}
	return filepath.Join(s.dir, clean), nil
}

// ctxReader stops copying once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
