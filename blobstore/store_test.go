package blobstore

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keyPattern = regexp.MustCompile(`^upscale/\d+-[0-9a-z]{6}\.(png|jpg|webp|bin)$`)

func TestBuildKey(t *testing.T) {
	t.Run("prefix, timestamp, random suffix and extension", func(t *testing.T) {
		key := BuildKey("upscale/", "image/png")
		assert.Regexp(t, keyPattern, key)
		assert.True(t, strings.HasSuffix(key, ".png"))
	})

	t.Run("extension follows content type", func(t *testing.T) {
		assert.True(t, strings.HasSuffix(BuildKey("upscale/", "image/jpeg"), ".jpg"))
		assert.True(t, strings.HasSuffix(BuildKey("upscale/", "image/webp"), ".webp"))
		assert.True(t, strings.HasSuffix(BuildKey("upscale/", "application/octet-stream"), ".bin"))
	})

	t.Run("consecutive keys differ", func(t *testing.T) {
		a := BuildKey("covers/", "image/png")
		b := BuildKey("covers/", "image/png")
		assert.NotEqual(t, a, b)
	})
}

func TestInlineStore(t *testing.T) {
	s := NewInlineStore()

	t.Run("wraps bytes in a data URL", func(t *testing.T) {
		url, err := s.Save(context.Background(), "ignored/", []byte{0x89, 'P', 'N', 'G'}, "image/png")
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

		decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
		require.NoError(t, err)
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, decoded)
	})

	t.Run("empty content type defaults to png", func(t *testing.T) {
		url, err := s.Save(context.Background(), "", []byte("x"), "")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
	})
}

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir)
	require.NoError(t, err)

	url, err := s.Save(context.Background(), "covers/", []byte("image-data"), "image/png")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/images/covers/"))

	rel := strings.TrimPrefix(url, "/images/")
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, []byte("image-data"), data)
}
