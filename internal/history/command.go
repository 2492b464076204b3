package history

import (
	"strings"
	"time"
	"unicode"
)

// SummaryWindow is how far back a spoken summary request looks.
const SummaryWindow = 10 * time.Second

// summaryCommands is the reserved vocabulary. Matching is exact on the
// sanitized utterance; no fuzzy or substring matching.
var summaryCommands = map[string]struct{}{
	"summary":   {},
	"summarize": {},
}

// Sanitize normalizes an utterance for command matching: lower-cased, every
// rune that is not a letter, digit, or underscore becomes a space, runs of
// spaces collapse, and the result is trimmed. Stored and displayed text is
// never sanitized.
func Sanitize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	prevSpace := true
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
			prevSpace = false
			continue
		}
		if !prevSpace {
			b.WriteByte(' ')
			prevSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// IsSummaryCommand reports whether the utterance, once sanitized, exactly
// matches the reserved summary vocabulary.
func IsSummaryCommand(text string) bool {
	sanitized := Sanitize(text)
	if sanitized == "" {
		return false
	}
	_, ok := summaryCommands[sanitized]
	return ok
}
