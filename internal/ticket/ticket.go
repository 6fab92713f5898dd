package ticket

import (
	"errors"
	"strings"
	"time"
)

const (
	// TokenDelimiter separates tokens in their wire representation
	TokenDelimiter = ","

	// NeutralFingerprint is the client binding used when address binding is disabled
	NeutralFingerprint = "0.0.0.0"
)

var (
	// ErrBadTicket is returned when a ticket cannot be verified
	ErrBadTicket = errors.New("bad ticket")

	// ErrInvalidTicket is returned when a ticket cannot be issued from the given values
	ErrInvalidTicket = errors.New("invalid ticket")
)

// Ticket is the identity carried by a signed credential
type Ticket struct {
	// Subject is the unique identifier of the ticket holder
	Subject string

	// Tokens are the holder's tokens in provenance order
	Tokens []string

	// UserData is opaque application data
	UserData string

	// IssuedAt is the time the ticket was signed
	IssuedAt time.Time
}

// Service verifies and issues signed tickets.
// Implementations must be safe for concurrent use.
type Service interface {
	// Verify checks value against the fingerprint and returns the ticket it encodes.
	// Any failure wraps ErrBadTicket.
	Verify(value, fingerprint string) (*Ticket, error)

	// Issue signs t for the given fingerprint.
	Issue(t Ticket, fingerprint string) (string, error)
}

// JoinTokens returns the wire representation of tokens
func JoinTokens(tokens []string) string {
	return strings.Join(tokens, TokenDelimiter)
}

// SplitTokens parses the wire representation of tokens
func SplitTokens(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, TokenDelimiter)
}
