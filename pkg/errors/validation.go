package errors

import (
	"strings"
	"unicode"
)

// indexForbiddenChars are the characters Elasticsearch rejects in index names.
const indexForbiddenChars = `\/*?"<>| ,#:`

// ValidateIndexPrefix validates an Elasticsearch index prefix.
//
// The prefix is joined with a date suffix (e.g. "syslog-ng_" + "2017-06-03"),
// so the same rules as for a full index name apply:
//   - No empty prefix
//   - Lowercase only
//   - No characters Elasticsearch forbids in index names
//   - Must not start with '-', '_' or '+'
func ValidateIndexPrefix(prefix string) error {
	if prefix == "" {
		return New(ErrCodeInvalidConfig, "index prefix cannot be empty")
	}

	if strings.ToLower(prefix) != prefix {
		return New(ErrCodeInvalidConfig, "index prefix must be lowercase: %q", prefix)
	}

	if strings.ContainsAny(prefix, indexForbiddenChars) {
		return New(ErrCodeInvalidConfig, "index prefix contains invalid characters: %q", prefix)
	}

	switch prefix[0] {
	case '-', '_', '+':
		return New(ErrCodeInvalidConfig, "index prefix cannot start with %q", prefix[0])
	}

	return nil
}

// ValidatePath validates an output path given on the command line.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
