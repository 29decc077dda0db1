package errors

import (
	"strings"
	"unicode"
)

// ValidateSampleName validates a sample identifier read from a sample list.
// Sample names are used as store keys and file name parts, so they must be
// non-empty, free of whitespace and control characters, and must not
// contain the '#' separator used inside GFA SN tags.
func ValidateSampleName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "sample name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "sample name too long (max 256 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "sample name %q contains whitespace or control characters", name)
		}
	}
	if strings.Contains(name, "#") {
		return New(ErrCodeInvalidInput, "sample name %q contains '#'", name)
	}
	return nil
}

// ValidateOutputName validates a population name. The name becomes part of
// output directory and file names.
//
// Validation rules:
//   - Name cannot be empty
//   - Maximum length of 128 characters
//   - No path separators or traversal sequences
//   - No control characters
func ValidateOutputName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPath, "output name cannot be empty")
	}

	const maxNameLength = 128
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidPath, "output name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output name contains invalid characters")
		}
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidPath, "output name cannot contain path separators")
	}

	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidPath, "output name cannot contain path traversal sequences (..)")
	}

	return nil
}

// ValidateFraction validates a probability-like value in [0, 1].
func ValidateFraction(name string, v float64) error {
	if v < 0 || v > 1 || v != v {
		return New(ErrCodeInvalidInput, "%s must be within [0, 1], got %v", name, v)
	}
	return nil
}
