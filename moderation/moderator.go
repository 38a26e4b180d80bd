// Package moderation censors forbidden words in chat bodies and tags each
// message with its detected language, which the vocabulary UI surfaces to
// learners.
package moderation

import (
	"unicode"

	"github.com/abadojack/whatlanggo"
	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
}

// NewModerator builds the Aho-Corasick automaton over a normalized copy of
// the forbidden word list.
func NewModerator(words []string, replacement rune) (*Moderator, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		if normalized := normalize(word, nil); len(normalized) > 0 {
			patterns = append(patterns, normalized)
		}
	}
	// An empty word list disables censoring entirely.
	if len(patterns) == 0 {
		return &Moderator{replacement: replacement}, nil
	}
	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: machine, replacement: replacement}, nil
}

// Censor replaces every match of a forbidden word with the replacement
// character, preserving the original spacing and punctuation.
func (m *Moderator) Censor(original string) string {
	if m.matcher == nil {
		return original
	}
	origRunes := []rune(original)
	var origIdx []int
	normalized := normalize(original, &origIdx)
	if len(normalized) == 0 {
		return original
	}

	spans := m.matcher.MultiPatternSearch(normalized, false)
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			origRunes[i] = m.replacement
		}
	}
	return string(origRunes)
}

// DetectLanguage returns the ISO 639-1 code of the body's language, or the
// empty string when detection is inconclusive.
func DetectLanguage(body string) string {
	info := whatlanggo.Detect(body)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}

// normalize lowercases the input and strips punctuation, spaces and
// symbols so matches survive casual obfuscation. When idx is non-nil it
// records, per kept rune, the index of the original rune.
func normalize(input string, idx *[]int) []rune {
	out := make([]rune, 0, len(input))
	for i, r := range []rune(input) {
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		out = append(out, unicode.ToLower(r))
		if idx != nil {
			*idx = append(*idx, i)
		}
	}
	return out
}
