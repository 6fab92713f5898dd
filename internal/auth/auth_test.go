package auth

import (
	"context"
	"net/http"
	"testing"
)

func TestTokenSetPreservesProvenanceOrder(t *testing.T) {
	ts := NewTokenSet("mtls-ou")
	ts.Add("admin", "", "editor")

	if got := ts.String(); got != "mtls-ou,admin,editor" {
		t.Fatalf("expected mtls-ou,admin,editor, got %q", got)
	}
	if ts.Len() != 3 {
		t.Fatalf("expected 3 tokens, got %d", ts.Len())
	}
	if !ts.Contains("admin") || ts.Contains("viewer") {
		t.Fatal("unexpected Contains result")
	}

	tokens := ts.Tokens()
	tokens[0] = "mutated"
	if ts.Tokens()[0] != "mtls-ou" {
		t.Fatal("Tokens must return a copy")
	}
}

func TestNilTokenSet(t *testing.T) {
	var ts *TokenSet
	if ts.String() != "" || ts.Len() != 0 || ts.Contains("a") || ts.Tokens() != nil {
		t.Fatal("nil token set should behave as empty")
	}
}

func TestHeadersFromHTTPIsSortedAndOrdered(t *testing.T) {
	src := http.Header{}
	src.Add("Set-Cookie", "a")
	src.Add("App", "1")
	src.Add("Set-Cookie", "b")

	got := HeadersFromHTTP(src)
	want := Headers{{"App", "1"}, {"Set-Cookie", "a"}, {"Set-Cookie", "b"}}
	if len(got) != len(want) {
		t.Fatalf("expected %d headers, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("header %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestHeadersGetIsExactMatch(t *testing.T) {
	h := Headers{{"x-authorization-failure-reason", "lower"}, {DefaultReasonHeader, "exact"}}
	value, ok := h.Get(DefaultReasonHeader)
	if !ok || value != "exact" {
		t.Fatalf("expected exact match, got %q %v", value, ok)
	}
	if _, ok := h.Get("Missing"); ok {
		t.Fatal("expected no match")
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if IdentityFromContext(ctx) != nil || TokenSetFromContext(ctx) != nil || AuthTypeFromContext(ctx) != "" {
		t.Fatal("expected empty context values")
	}

	id := &Identity{Subject: "chris"}
	ts := NewTokenSet("a")
	ctx = ContextWithIdentity(ctx, id)
	ctx = ContextWithTokenSet(ctx, ts)
	ctx = ContextWithAuthType(ctx, AuthTypeCookie)
	ctx = ContextWithParam(ctx, "reason", "expired")

	if IdentityFromContext(ctx) != id {
		t.Fatal("identity not stored")
	}
	if TokenSetFromContext(ctx) != ts {
		t.Fatal("token set not stored")
	}
	if AuthTypeFromContext(ctx) != AuthTypeCookie {
		t.Fatal("auth type not stored")
	}
	if ParamFromContext(ctx, "reason") != "expired" || ParamFromContext(ctx, "other") != "" {
		t.Fatal("unexpected param lookup")
	}
}
