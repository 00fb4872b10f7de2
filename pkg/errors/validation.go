package errors

import (
	"strings"
	"unicode"
)

const (
	// maxIDLength bounds entry ids in bytes. Output file names append a
	// 38-byte stamp, suffix and extension to the id, which keeps them under
	// maxNameLength.
	maxIDLength = 200

	// maxNameLength is the common filesystem limit on a single path element.
	maxNameLength = 255
)

// ValidateEntryID validates an entry id for safety.
// Entry ids become file names in the file store and key suffixes in the
// redis store, so they are rejected if they could escape either namespace.
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - No leading dot (hidden files)
//   - Maximum length of 200 bytes
func ValidateEntryID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "entry id cannot be empty")
	}
	if err := validateBasename(id, maxIDLength); err != nil {
		return New(ErrCodeInvalidID, "invalid entry id %q: %s", id, err.Message)
	}
	return nil
}

// ValidateFileName validates an output file name.
// It ensures the name is a simple basename without path components, at most
// 255 bytes long.
func ValidateFileName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "file name cannot be empty")
	}
	if err := validateBasename(name, maxNameLength); err != nil {
		return New(ErrCodeInvalidName, "invalid file name %q: %s", name, err.Message)
	}
	return nil
}

func validateBasename(s string, maxLen int) *Error {
	if len(s) > maxLen {
		return New(ErrCodeInvalidInput, "too long (max %d bytes)", maxLen)
	}

	for _, r := range s {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "contains control characters")
		}
	}

	if strings.ContainsAny(s, "/\\") {
		return New(ErrCodeInvalidInput, "contains path separators")
	}
	if strings.Contains(s, "..") {
		return New(ErrCodeInvalidInput, "contains path traversal sequence")
	}
	if strings.HasPrefix(s, ".") {
		return New(ErrCodeInvalidInput, "cannot start with a dot")
	}

	return nil
}
