package ticket

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewSignerRequiresSecret(t *testing.T) {
	if _, err := NewSigner(""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	now := time.Unix(1700000000, 0)
	s, err := NewSigner("s3cret", WithClock(fixedClock(now)))
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	value, err := s.Issue(Ticket{Subject: "chris", Tokens: []string{"admin", "editor"}, UserData: "42"}, "10.0.0.1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := s.Verify(value, "10.0.0.1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.Subject != "chris" || got.UserData != "42" {
		t.Fatalf("unexpected ticket %+v", got)
	}
	if JoinTokens(got.Tokens) != "admin,editor" {
		t.Fatalf("expected tokens admin,editor, got %v", got.Tokens)
	}
	if !got.IssuedAt.Equal(now) {
		t.Fatalf("expected issued at %v, got %v", now, got.IssuedAt)
	}
}

func TestIssueIsDeterministicWithinClockTick(t *testing.T) {
	s, _ := NewSigner("s3cret", WithClock(fixedClock(time.Unix(1700000000, 0))))
	tk := Ticket{Subject: "chris", Tokens: []string{"a"}}

	first, err := s.Issue(tk, NeutralFingerprint)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, err := s.Issue(tk, NeutralFingerprint)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if first != second {
		t.Fatal("expected identical encodings for identical input")
	}
}

func TestVerifyRejects(t *testing.T) {
	now := time.Unix(1700000000, 0)
	s, _ := NewSigner("s3cret", WithClock(fixedClock(now)), WithTTL(time.Hour))
	other, _ := NewSigner("other", WithClock(fixedClock(now)))
	later, _ := NewSigner("s3cret", WithClock(fixedClock(now.Add(2*time.Hour))))

	value, err := s.Issue(Ticket{Subject: "chris"}, "10.0.0.1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tests := []struct {
		name        string
		signer      *Signer
		value       string
		fingerprint string
	}{
		{"wrong secret", other, value, "10.0.0.1"},
		{"wrong fingerprint", s, value, "10.0.0.2"},
		{"expired", later, value, "10.0.0.1"},
		{"tampered", s, value + "x", "10.0.0.1"},
		{"garbage", s, "not-a-ticket", "10.0.0.1"},
		{"empty", s, "", "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.signer.Verify(tt.value, tt.fingerprint)
			if !errors.Is(err, ErrBadTicket) {
				t.Fatalf("expected ErrBadTicket, got %v", err)
			}
		})
	}
}

func TestIssueRejectsInvalidTickets(t *testing.T) {
	s, _ := NewSigner("s3cret")

	if _, err := s.Issue(Ticket{}, NeutralFingerprint); !errors.Is(err, ErrInvalidTicket) {
		t.Fatalf("expected ErrInvalidTicket for empty subject, got %v", err)
	}

	_, err := s.Issue(Ticket{Subject: "chris", Tokens: []string{"a,b"}}, NeutralFingerprint)
	if !errors.Is(err, ErrInvalidTicket) || !strings.Contains(err.Error(), "a,b") {
		t.Fatalf("expected ErrInvalidTicket naming the token, got %v", err)
	}
}

func TestSplitTokens(t *testing.T) {
	if got := SplitTokens(""); got != nil {
		t.Fatalf("expected nil tokens, got %v", got)
	}
	if got := SplitTokens("a,b"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected split %v", got)
	}
}
