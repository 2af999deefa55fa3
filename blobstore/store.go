// Package blobstore turns generated image bytes into referenceable URLs,
// either inline (data URL), on local disk, or in an external object store.
package blobstore

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Store persists image bytes and returns a URL that references them.
type Store interface {
	// Save writes data under a freshly built key below prefix and returns
	// the retrieval URL. The content type travels with the object.
	Save(ctx context.Context, prefix string, data []byte, contentType string) (string, error)
}

const randomSuffixLen = 6

// BuildKey composes an object key from the prefix, the current timestamp and
// a short random suffix, with an extension derived from the content type.
// The suffix keeps concurrent saves within the same millisecond from colliding.
func BuildKey(prefix string, contentType string) string {
	return fmt.Sprintf("%s%d-%s.%s", prefix, time.Now().UnixMilli(), randomSuffix(), extensionFor(contentType))
}

func randomSuffix() string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, randomSuffixLen)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}

// extensionFor maps a MIME type to a file extension, defaulting to "bin" for
// anything unrecognized.
func extensionFor(contentType string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "jpeg"):
		return "jpg"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return "bin"
	}
}
