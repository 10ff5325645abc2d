package moderation

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// TestModerator_Censor
// The dictionary uses specific words to avoid partial collisions (e.g., "am" inside "amazing")
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dictionary := []string{"scam", "rugpull", "ponzi"}
	mod, err := NewModerator(dictionary, replacementChar, log)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{
			name:     "Simple word and space preservation",
			input:    "This is a scam token",
			expected: "This is a **** token",
			words:    []string{"scam"},
		},
		{
			name:     "Multiple occurrences and preserved spacing",
			input:    "scam scam",
			expected: "**** ****",
			words:    []string{"scam", "scam"},
		},
		{
			name: "Leet speak and internal punctuation",
			// 5 (index 6) . c . 4 . m (index 12) -> 7 characters
			input:    "Total 5.c.4.m here",
			expected: "Total ******* here",
			words:    []string{"scam"},
		},
		{
			name:     "Symbols used as letters",
			input:    "A $c4m!",
			expected: "A ****!",
			words:    []string{"scam"},
		},
		{
			name:     "Uppercase and extreme noise",
			input:    "R-U-G-P-U-L-L alert",
			expected: "************* alert",
			words:    []string{"rugpull"},
		},
		{
			name:     "Accents and special characters (UTF-8)",
			input:    "Un été sans ponzi",
			expected: "Un été sans *****",
			words:    []string{"ponzi"},
		},
		{
			name:     "Word adjacent to trailing punctuation",
			input:    "No ponzi!",
			expected: "No *****!",
			words:    []string{"ponzi"},
		},
		{
			name:     "Nothing to censor",
			input:    "CryptoChat is amazing",
			expected: "CryptoChat is amazing",
			words:    nil,
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
			words:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, words := mod.Censor(tt.input)
			req.Equal(tt.expected, content, "test=%s,", tt.name)
			req.Equal(tt.words, words, "expected=%s,words=%s", tt.expected, words)
		})
	}
}

func TestModerator_CornerCases(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given real noise and not Leet Speak associated
	dictionary := []string{"...", ",,,", "", "scam"}

	mod, err := NewModerator(dictionary, replacementChar, log)
	req.NoError(err)

	// Then the sentence is censored
	content, words := mod.Censor("The scam is over")
	req.Equal("The **** is over", content)
	req.Equal([]string{"scam"}, words)

	// Then real noise is uncensored
	content, words = mod.Censor("Hello ...")
	req.Equal("Hello ...", content)
	req.Nil(words)
}

func TestModerator_NoWords(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given a dictionary reduced to noise
	mod, err := NewModerator([]string{"", "..."}, replacementChar, log)
	req.NoError(err)

	// Then every content goes through unchanged
	content, words := mod.Censor("anything goes")
	req.Equal("anything goes", content)
	req.Nil(words)
}
