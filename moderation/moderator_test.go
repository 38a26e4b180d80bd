package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	mod, err := NewModerator([]string{"badger", "snake"}, replacementChar)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple word, spacing preserved",
			input:    "The badger is here",
			expected: "The ****** is here",
		},
		{
			name:     "multiple occurrences",
			input:    "badger badger",
			expected: "****** ******",
		},
		{
			name:     "uppercase and internal punctuation",
			input:    "watch the S.N.A.K.E move",
			expected: "watch the ********* move",
		},
		{
			name:     "adjacent trailing punctuation kept",
			input:    "I saw a badger!",
			expected: "I saw a ******!",
		},
		{
			name:     "nothing to censor",
			input:    "vocabulary drills are fun",
			expected: "vocabulary drills are fun",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req.Equal(tt.expected, mod.Censor(tt.input))
		})
	}
}

func TestModerator_NoiseOnlyDictionaryEntries(t *testing.T) {
	req := require.New(t)

	// Entries that normalize to nothing must not poison the automaton.
	mod, err := NewModerator([]string{"...", "", "badger"}, replacementChar)
	req.NoError(err)

	req.Equal("The ****** is safe", mod.Censor("The badger is safe"))
	req.Equal("Hello ...", mod.Censor("Hello ..."))
}

func TestDetectLanguage(t *testing.T) {
	req := require.New(t)
	req.Equal("en", DetectLanguage("the quick brown fox jumps over the lazy dog"))
	req.Empty(DetectLanguage("ok"))
}
