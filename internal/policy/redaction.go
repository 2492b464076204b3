// Package policy scrubs spoken text before it leaves the hot path. The
// conversation context handed to the model keeps the user's exact words;
// only durable copies, such as archived transcripts, go through
// redaction.
package policy

import "regexp"

type rule struct {
	pattern *regexp.Regexp
	token   string
}

// Card numbers run before phone numbers so a spaced 16-digit card is not
// half-masked as a phone match.
var rules = []rule{
	{regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), "[REDACTED_EMAIL]"},
	{regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`), "[REDACTED_CARD]"},
	{regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`), "[REDACTED_PHONE]"},
}

// RedactPII masks common high-risk PII patterns.
func RedactPII(input string) (redacted string, changed bool) {
	out := input
	for _, r := range rules {
		next := r.pattern.ReplaceAllString(out, r.token)
		changed = changed || next != out
		out = next
	}
	return out, changed
}
