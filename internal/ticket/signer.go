package ticket

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// claims is the JWT payload of a ticket
type claims struct {
	Tokens      string `json:"tokens,omitempty"`
	UserData    string `json:"user_data,omitempty"`
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

// Signer implements Service with HS256 signed JWTs
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// SignerOption configures a Signer
type SignerOption func(*Signer)

// WithTTL makes issued tickets expire after ttl. Zero disables expiry.
func WithTTL(ttl time.Duration) SignerOption {
	return func(s *Signer) {
		s.ttl = ttl
	}
}

// WithClock overrides the time source used for issuing and verifying
func WithClock(now func() time.Time) SignerOption {
	return func(s *Signer) {
		s.now = now
	}
}

// NewSigner creates a new ticket signer
func NewSigner(secret string, opts ...SignerOption) (*Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("ticket signer requires a secret")
	}

	s := &Signer{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ttl < 0 {
		return nil, fmt.Errorf("ticket TTL must not be negative")
	}

	return s, nil
}

// Issue signs t for the given fingerprint
func (s *Signer) Issue(t Ticket, fingerprint string) (string, error) {
	if t.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidTicket)
	}
	for _, token := range t.Tokens {
		if strings.Contains(token, TokenDelimiter) {
			return "", fmt.Errorf("%w: token %q contains %q", ErrInvalidTicket, token, TokenDelimiter)
		}
	}

	issuedAt := t.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = s.now()
	}

	c := claims{
		Tokens:      JoinTokens(t.Tokens),
		UserData:    t.UserData,
		Fingerprint: hashFingerprint(fingerprint),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  t.Subject,
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
	}
	if s.ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(s.ttl))
	}

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign ticket: %w", err)
	}
	return value, nil
}

// Verify checks value against the fingerprint and returns the ticket it encodes
func (s *Signer) Verify(value, fingerprint string) (*Ticket, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(value, &c, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTicket, err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid signature", ErrBadTicket)
	}

	expected := hashFingerprint(fingerprint)
	if subtle.ConstantTimeCompare([]byte(c.Fingerprint), []byte(expected)) != 1 {
		return nil, fmt.Errorf("%w: fingerprint mismatch", ErrBadTicket)
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrBadTicket)
	}

	t := &Ticket{
		Subject:  c.Subject,
		Tokens:   SplitTokens(c.Tokens),
		UserData: c.UserData,
	}
	if c.IssuedAt != nil {
		t.IssuedAt = c.IssuedAt.Time
	}
	return t, nil
}

func hashFingerprint(fingerprint string) string {
	sum := sha256.Sum256([]byte(fingerprint))
	return hex.EncodeToString(sum[:])
}
