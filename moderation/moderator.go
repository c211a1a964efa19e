// Package moderation censors configured words in outgoing message
// text before it enters the conversation log. The log is immutable
// once appended, so filtering has to happen here or never.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
}

// NewModerator builds the Aho-Corasick automaton over the normalized
// word list. An empty list yields a Moderator that censors nothing.
func NewModerator(words []string, replacement rune) (*Moderator, error) {
	if len(words) == 0 {
		return &Moderator{replacement: replacement}, nil
	}
	patterns := make([][]rune, len(words))
	for i, w := range words {
		norm, _ := normalize(w)
		patterns[i] = norm
	}
	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, replacement: replacement}, nil
}

// Censor replaces every character of a matched word with the
// replacement rune, preserving length and spacing of the original.
// Matching runs over a normalized view (lowercased, punctuation
// stripped) so "B.a.D" still matches "bad".
func (m *Moderator) Censor(original string) (string, []string) {
	if m.matcher == nil {
		return original, nil
	}
	norm, origIdx := normalize(original)
	if len(norm) == 0 {
		return original, nil
	}
	spans := m.matcher.MultiPatternSearch(norm, false)
	if len(spans) == 0 {
		return original, nil
	}

	runes := []rune(original)
	var matched []string
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		matched = append(matched, string(span.Word))
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			runes[i] = m.replacement
		}
	}
	return string(runes), matched
}

// normalize lowercases and drops everything but letters and digits,
// keeping a map from normalized positions back to original rune
// positions so matches can be censored in place.
func normalize(s string) ([]rune, []int) {
	orig := []rune(s)
	norm := make([]rune, 0, len(orig))
	idx := make([]int, 0, len(orig))
	for i, r := range orig {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		norm = append(norm, unicode.ToLower(r))
		idx = append(idx, i)
	}
	return norm, idx
}
