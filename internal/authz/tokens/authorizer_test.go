package tokens

import (
	"context"
	"testing"

	"ticketgate/internal/auth"
	"ticketgate/internal/authz"
	"ticketgate/internal/observability/logging"
)

func TestAuthorize(t *testing.T) {
	a := New(logging.NewNopLogger())

	set := auth.NewTokenSet()
	set.Add("ops", "editor")

	tests := []struct {
		name string
		req  *authz.Request
		want authz.Decision
	}{
		{
			name: "no identity",
			req:  &authz.Request{Tokens: set, Permission: "editor"},
			want: authz.Unauthorized,
		},
		{
			name: "token set grants",
			req:  &authz.Request{Identity: &auth.Identity{Subject: "chris"}, Tokens: set, Permission: "ops"},
			want: authz.Allow,
		},
		{
			name: "identity tokens grant",
			req:  &authz.Request{Identity: &auth.Identity{Subject: "chris", Tokens: []string{"admin"}}, Permission: "admin"},
			want: authz.Allow,
		},
		{
			name: "missing token",
			req:  &authz.Request{Identity: &auth.Identity{Subject: "chris", Tokens: []string{"admin"}}, Tokens: set, Permission: "billing", Context: context.Background()},
			want: authz.Deny,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := a.Authorize(tt.req)
			if resp.Decision != tt.want {
				t.Fatalf("expected %s, got %s (%s)", tt.want, resp.Decision, resp.Reason)
			}
		})
	}
}
