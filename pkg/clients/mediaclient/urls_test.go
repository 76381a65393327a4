package mediaclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFetchable(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{"blank", "   ", false},
		{"no scheme", "example.org/a.jpg", false},
		{"ftp scheme", "ftp://example.org/a.jpg", false},
		{"jpg", "https://example.org/photos/a.jpg", true},
		{"upper case JPEG", "HTTP://example.org/A.JPEG", true},
		{"png with query", "https://example.org/a.png?size=large", true},
		{"gif", "https://example.org/a.gif", true},
		{"webp not accepted", "https://example.org/a.webp", false},
		{"no extension", "https://example.org/photo", false},
		{"drive share link", "https://drive.google.com/file/d/abc123/view?usp=sharing", true},
		{"drive open link", "https://drive.google.com/open?id=abc123", true},
		{"docs host", "https://docs.google.com/uc?id=abc123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsFetchable(tt.url))
		})
	}
}

func TestResolveDirectURL(t *testing.T) {
	const direct = "https://drive.google.com/uc?export=download&id=abc_12-3&confirm=t"

	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"open link", "https://drive.google.com/open?id=abc_12-3", direct},
		{"file view link", "https://drive.google.com/file/d/abc_12-3/view?usp=sharing", direct},
		{"file view without suffix", "https://drive.google.com/file/d/abc_12-3", direct},
		{"uc link", "https://drive.google.com/uc?id=abc_12-3&export=view", direct},
		{"uc link id second", "https://drive.google.com/uc?export=view&id=abc_12-3", direct},
		{"drive folder unchanged", "https://drive.google.com/drive/folders/xyz", "https://drive.google.com/drive/folders/xyz"},
		{"other host unchanged", "https://example.org/a.jpg", "https://example.org/a.jpg"},
		{"trims whitespace", "  https://example.org/a.jpg ", "https://example.org/a.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveDirectURL(tt.url))
		})
	}
}
