package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveWritesFileAndReturnsURL(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir, "/uploads")
	require.NoError(t, err)

	url, err := s.Save(context.Background(), strings.NewReader("audio-data"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/uploads/tts-"), "unexpected url %q", url)
	assert.True(t, strings.HasSuffix(url, ".mp3"))

	b, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, "audio-data", string(b))
}

func TestSaveGeneratesDistinctNames(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir, "/uploads")
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		url, err := s.Save(context.Background(), strings.NewReader("x"))
		require.NoError(t, err)
		assert.False(t, seen[url], "duplicate generated name %q", url)
		seen[url] = true
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("upstream broke") }

func TestSaveRemovesPartialFileOnError(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir, "/uploads")
	require.NoError(t, err)

	_, err = s.Save(context.Background(), failingReader{})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "partial file should have been removed")
}

func TestSaveHonorsCancelledContext(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir, "/uploads")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Save(ctx, strings.NewReader("audio-data"))
	assert.ErrorIs(t, err, context.Canceled)
}
