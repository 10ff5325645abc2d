package mimetypes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		detected string
		expected MIME
		want     bool
	}{
		{"PNG", "image/png", ImagePNG, true},
		{"JPEG", "image/jpeg", ImageJPEG, true},
		{"GIF", "image/gif", ImageGIF, true},
		{"WEBP", "image/webp", ImageWEBP, true},
		{"Parameters are ignored", "image/png; charset=binary", ImagePNG, true},
		{"Mismatch", "image/gif", ImagePNG, false},
		{"Invalid MIME", "not a mime", ImagePNG, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Matches(tt.detected, tt.expected)
			if ok != tt.want {
				t.Errorf("Matches(%q, %q) = %v; want %v", tt.detected, tt.expected, ok, tt.want)
			}
		})
	}
}

func TestAvatar(t *testing.T) {
	req := require.New(t)

	m, ext, ok := Avatar("image/jpeg")
	req.True(ok)
	req.Equal(ImageJPEG, m)
	req.Equal(".jpg", ext)

	_, _, ok = Avatar("image/svg+xml")
	req.False(ok)

	_, _, ok = Avatar("application/pdf")
	req.False(ok)
}
