package auth

import (
	"slices"
	"strings"
)

// TokenSet accumulates the tokens contributed by identifiers during a single request.
// Tokens keep the order in which they were added. A TokenSet is request-scoped
// and must not be shared across requests.
type TokenSet struct {
	tokens []string
}

// NewTokenSet creates a token set seeded with tokens
func NewTokenSet(tokens ...string) *TokenSet {
	ts := &TokenSet{}
	ts.Add(tokens...)
	return ts
}

// Add appends tokens after those already present, skipping empty values
func (ts *TokenSet) Add(tokens ...string) {
	for _, token := range tokens {
		if token != "" {
			ts.tokens = append(ts.tokens, token)
		}
	}
}

// Tokens returns a copy of the accumulated tokens
func (ts *TokenSet) Tokens() []string {
	if ts == nil {
		return nil
	}
	return slices.Clone(ts.tokens)
}

// Contains reports whether token was contributed
func (ts *TokenSet) Contains(token string) bool {
	if ts == nil {
		return false
	}
	return slices.Contains(ts.tokens, token)
}

// Len returns the number of accumulated tokens
func (ts *TokenSet) Len() int {
	if ts == nil {
		return 0
	}
	return len(ts.tokens)
}

// String returns the comma-joined tokens
func (ts *TokenSet) String() string {
	if ts == nil {
		return ""
	}
	return strings.Join(ts.tokens, ",")
}
