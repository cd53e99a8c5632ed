package query

import "strings"

// ContactPatterns is the set of candidate match patterns derived from one
// free-form contact string. Handles may be stored as raw digits, as
// E.164-normalized numbers, or as emails, so a candidate handle matches when
// it satisfies any of the three.
//
// Substring patterns use LIKE semantics. Literal % or _ supplied by a caller
// are significant characters in the matching language and are not escaped by
// this layer.
type ContactPatterns struct {
	// OriginalSubstring matches the raw input anywhere in the handle.
	OriginalSubstring string
	// NormalizedExact matches the E.164-normalized form exactly.
	NormalizedExact string
	// NormalizedSubstring matches the normalized form anywhere in the handle.
	NormalizedSubstring string
}

// NormalizeContact normalizes a free-form phone number toward E.164. Strips
// everything except digits and a leading +, then applies US conventions:
// 11 digits starting with 1 get a + prefix, 10 digits get +1. Already
// +-prefixed numbers pass through. Anything else (emails, non-US or
// malformed numbers) is returned unchanged rather than guessed at.
func NormalizeContact(raw string) string {
	var b strings.Builder
	for i, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	stripped := b.String()

	switch {
	case strings.HasPrefix(stripped, "+"):
		return stripped
	case len(stripped) == 11 && strings.HasPrefix(stripped, "1"):
		return "+" + stripped
	case len(stripped) == 10:
		return "+1" + stripped
	default:
		return raw
	}
}

// PatternsFor builds the three query patterns for a contact string.
func PatternsFor(contact string) ContactPatterns {
	normalized := NormalizeContact(contact)
	return ContactPatterns{
		OriginalSubstring:   "%" + contact + "%",
		NormalizedExact:     normalized,
		NormalizedSubstring: "%" + normalized + "%",
	}
}
