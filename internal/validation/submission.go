package validation

import (
	"net/url"
	"path/filepath"
	"strings"
)

// AllowedFileFormat reports whether the filename's extension is in the
// assignment's accepted-formats list. Matching is case-insensitive and
// tolerates a leading dot on either side.
func AllowedFileFormat(filename string, acceptedFormats []string) bool {
	if len(acceptedFormats) == 0 {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return false
	}
	for _, f := range acceptedFormats {
		if strings.ToLower(strings.TrimPrefix(f, ".")) == ext {
			return true
		}
	}
	return false
}

// WithinSizeLimit reports whether a blob fits the assignment's size cap.
// A non-positive limit means unlimited.
func WithinSizeLimit(sizeBytes, maxSizeBytes int64) bool {
	if maxSizeBytes <= 0 {
		return true
	}
	return sizeBytes <= maxSizeBytes
}

// ValidSubmissionURL reports whether the string parses as an absolute
// http or https URL.
func ValidSubmissionURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
