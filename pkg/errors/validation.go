package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidatePatternID validates an identifier used for stored pattern sets
// and URL path segments. It rejects names that could be used for path
// traversal or injection attacks.
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - Maximum length of 128 characters
//   - Letters, digits, '.', '_' and '-' only
func ValidatePatternID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "pattern id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidID, "pattern id too long (max 128 characters)")
	}

	if !patternIDRegex.MatchString(id) {
		return New(ErrCodeInvalidID, "pattern id contains invalid characters: %q", id)
	}

	if strings.Contains(id, "..") {
		return New(ErrCodeInvalidID, "pattern id cannot contain path traversal sequences (..)")
	}

	return nil
}

var patternIDRegex = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidatePath validates a relative file path for safety, such as an
// output file name received over the API.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
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

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
