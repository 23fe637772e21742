package validation

import "github.com/forkful/forkful/internal/blob"

// MaxAvatarBytes bounds avatar upload size.
const MaxAvatarBytes = 5 << 20

// ValidateAvatarUpload checks the declared content type against the image
// allowlist before any blob-store call is made.
func ValidateAvatarUpload(contentType string, size int64) []FieldError {
	var errs []FieldError

	if !blob.AllowedContentType(contentType) {
		errs = append(errs, FieldError{Field: "file", Message: "file must be a JPEG, PNG or WEBP image"})
	}
	if size > MaxAvatarBytes {
		errs = append(errs, FieldError{Field: "file", Message: "file must be at most 5 MiB"})
	}

	return errs
}
