// Package storage persists generated audio streams and hands back the
// URL path clients use to fetch them later. The local filesystem is
// the observed backend; the Store interface keeps the pipeline
// indifferent to where the bytes actually land.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Store saves a byte stream and returns the storage-relative URL it
// will be served from.
type Store interface {
	Save(ctx context.Context, r io.Reader) (string, error)
}

// Local writes audio files under a single uploads directory and
// serves them under urlPrefix (e.g. "/uploads"). Generated names are
// collision-resistant so concurrent authoring calls never clash.
type Local struct {
	dir       string
	urlPrefix string
}

// NewLocal creates the uploads directory if needed and returns a
// store rooted there.
func NewLocal(dir, urlPrefix string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Local{dir: dir, urlPrefix: urlPrefix}, nil
}

// Save streams r into a freshly named .mp3 file. A partially written
// file is removed when the copy fails or the context is cancelled, so
// aborted requests do not leave truncated audio behind.
func (l *Local) Save(ctx context.Context, r io.Reader) (string, error) {
	name := fmt.Sprintf("tts-%d-%s.mp3", time.Now().UnixMilli(), uuid.NewString())
	path := filepath.Join(l.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create audio file: %w", err)
	}

	if _, err := io.Copy(f, &contextReader{ctx: ctx, r: r}); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close audio file: %w", err)
	}
	return l.urlPrefix + "/" + name, nil
}

// Dir returns the directory files are written to, for static serving.
func (l *Local) Dir() string { return l.dir }

// contextReader fails the copy as soon as the request context is
// cancelled instead of waiting on a stalled upstream read.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
