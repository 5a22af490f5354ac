// Package moderation implements the profanity predicate the session
// protocol consults before relaying a message.
package moderation

import (
	"chat-relay/errors"
	"log/slog"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator detects forbidden words with an Aho-Corasick automaton built
// over a normalized alphabet: case-folded, leet speak mapped back to plain
// letters, punctuation and spacing stripped. "B.4.d-ger" matches the
// pattern "badger".
type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
	log         *slog.Logger
}

// textMapping is the normalized view of an input string plus the original
// rune index of every kept rune, so matches can be projected back onto the
// original text.
type textMapping struct {
	normalized []rune
	origIdx    []int
}

// NewModerator builds the automaton from the word list. Words that
// normalize to nothing (pure punctuation) are skipped.
func NewModerator(words []string, replacement rune, log *slog.Logger) (Moderator, error) {
	var patterns [][]rune
	for _, word := range words {
		if p := scrub([]rune(word)); len(p) > 0 {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) == 0 {
		return Moderator{}, errors.ErrEmptyWords
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return Moderator{}, err
	}
	return Moderator{matcher: m, replacement: replacement, log: log}, nil
}

// IsProfane reports whether the text contains at least one forbidden word.
func (m *Moderator) IsProfane(text string) bool {
	mapping := newMapping(text)
	if len(mapping.normalized) == 0 {
		return false
	}
	return len(m.matcher.MultiPatternSearch(mapping.normalized, true)) > 0
}

// Censor replaces every forbidden span with the replacement rune while
// preserving the original spacing and punctuation. It returns the censored
// text and the normalized words that were found, in match order.
func (m *Moderator) Censor(original string) (string, []string) {
	mapping := newMapping(original)
	if len(mapping.normalized) == 0 {
		return original, nil
	}

	spans := m.matcher.MultiPatternSearch(mapping.normalized, false)
	if len(spans) == 0 {
		return original, nil
	}

	origRunes := []rune(original)
	var found []string
	for _, span := range spans {
		found = append(found, string(span.Word))

		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(mapping.origIdx) {
			continue
		}
		// Mask from the first to the last original rune of the span,
		// including any punctuation the normalization skipped in between.
		for i := mapping.origIdx[start]; i <= mapping.origIdx[end-1]; i++ {
			origRunes[i] = m.replacement
		}
	}
	return string(origRunes), found
}

// newMapping lowers the input into the searchable alphabet and records
// where each kept rune came from.
func newMapping(input string) textMapping {
	origRunes := []rune(input)
	mapping := textMapping{
		normalized: make([]rune, 0, len(origRunes)),
		origIdx:    make([]int, 0, len(origRunes)),
	}
	for i, r := range origRunes {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		mapping.normalized = append(mapping.normalized, unicode.ToLower(clean))
		mapping.origIdx = append(mapping.origIdx, i)
	}
	return mapping
}

// scrub normalizes a dictionary pattern the same way inputs are normalized.
func scrub(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune maps common leet speak characters back to their standard
// alphabet counterparts.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

// isNoise identifies characters ignored during the pattern matching phase.
func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
