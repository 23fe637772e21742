package blob

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ErrDisallowedContentType is returned when an upload's content type is not
// on the image allowlist.
var ErrDisallowedContentType = errors.New("disallowed content type")

// allowedContentTypes is the fixed allowlist for avatar uploads.
var allowedContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// AllowedContentType reports whether ct may be stored.
func AllowedContentType(ct string) bool {
	_, ok := allowedContentTypes[ct]
	return ok
}

// Store is a blob store holding uploaded files under caller-namespaced keys.
type Store interface {
	// Put stores data under key and returns its public URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	// Head reports whether the blob exists.
	Head(ctx context.Context, key string) (bool, error)
	// Key maps a public URL back to its storage key; false when the URL is
	// not hosted by this store.
	Key(uri string) (string, bool)
}

var whitespace = regexp.MustCompile(`\s+`)

// ObjectKey builds a storage key from a folder and an original filename:
// a generated unique prefix keeps uploads from colliding, and whitespace in
// the filename is replaced so the key stays URL-friendly.
func ObjectKey(folder, filename string) string {
	name := whitespace.ReplaceAllString(strings.TrimSpace(filename), "-")
	name = fmt.Sprintf("%s-%s", uuid.New().String(), name)
	if folder == "" {
		return name
	}
	return folder + "/" + name
}
