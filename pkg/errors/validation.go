package errors

import (
	"strings"
	"unicode"
)

// ValidateFace checks a face's vertex list against a mesh with n vertices.
//
// Validation rules:
//   - At least 3 vertices
//   - Every index within [0, n)
//   - No vertex repeated within the face
func ValidateFace(face []int, n int) error {
	if len(face) < 3 {
		return New(ErrCodeInvalidMesh, "face must have at least 3 vertices, got %d", len(face))
	}
	seen := make(map[int]bool, len(face))
	for _, v := range face {
		if v < 0 || v >= n {
			return New(ErrCodeInvalidMesh, "vertex index %d out of range [0, %d)", v, n)
		}
		if seen[v] {
			return New(ErrCodeInvalidMesh, "vertex %d repeated in face", v)
		}
		seen[v] = true
	}
	return nil
}

// ValidatePath validates an output path for safety.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
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

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	return nil
}

// ValidateURL validates a backend URL (redis://, mongodb://) for safety.
// It ensures the URL uses one of the allowed schemes.
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	for _, s := range schemes {
		if strings.HasPrefix(rawURL, s+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "URL must use one of the schemes: %s", strings.Join(schemes, ", "))
}
