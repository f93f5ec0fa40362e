package errors

import (
	"testing"
)

func TestValidateFace(t *testing.T) {
	tests := []struct {
		name    string
		face    []int
		n       int
		wantErr bool
	}{
		{"triangle", []int{0, 1, 2}, 3, false},
		{"hexagon", []int{0, 1, 2, 3, 4, 5}, 6, false},

		{"too few", []int{0, 1}, 3, true},
		{"empty", nil, 3, true},
		{"out of range", []int{0, 1, 3}, 3, true},
		{"negative", []int{-1, 0, 1}, 3, true},
		{"repeated", []int{0, 1, 0}, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFace(tt.face, tt.n)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFace(%v) error = %v, wantErr %v", tt.face, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidMesh) {
				t.Errorf("ValidateFace(%v) code = %v, want %v", tt.face, GetCode(err), ErrCodeInvalidMesh)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "out/strands.svg", false},
		{"absolute", "/tmp/strands.svg", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"traversal", "../etc/passwd", true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		schemes []string
		wantErr bool
	}{
		{"redis", "redis://localhost:6379/0", []string{"redis", "rediss"}, false},
		{"rediss", "rediss://cache:6380", []string{"redis", "rediss"}, false},
		{"mongo", "mongodb://localhost:27017", []string{"mongodb", "mongodb+srv"}, false},

		{"empty", "", []string{"redis"}, true},
		{"wrong scheme", "http://localhost", []string{"redis"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input, tt.schemes...)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
