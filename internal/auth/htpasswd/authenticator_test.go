package htpasswd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ticketgate/internal/auth"
	"ticketgate/internal/observability/logging"

	"golang.org/x/crypto/bcrypt"
)

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(h)
}

func TestAuthenticate(t *testing.T) {
	file := fmt.Sprintf("# users\n\nchris:%s:admin,editor:42\ntres:%s\n", hash(t, "password"), hash(t, "secret"))
	a, err := Parse(strings.NewReader(file), logging.NewNopLogger(), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	id, err := a.Authenticate(context.Background(), auth.Credentials{Login: "chris", Password: "password"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if id.Subject != "chris" || id.UserData != "42" || id.Provider != Name {
		t.Fatalf("unexpected identity %+v", id)
	}
	if len(id.Tokens) != 2 || id.Tokens[0] != "admin" || id.Tokens[1] != "editor" {
		t.Fatalf("unexpected tokens %v", id.Tokens)
	}

	id, err = a.Authenticate(context.Background(), auth.Credentials{Login: "tres", Password: "secret"})
	if err != nil || id.Subject != "tres" || len(id.Tokens) != 0 {
		t.Fatalf("unexpected result %+v, %v", id, err)
	}

	for _, creds := range []auth.Credentials{
		{Login: "chris", Password: "wrong"},
		{Login: "nobody", Password: "password"},
		{},
	} {
		if _, err := a.Authenticate(context.Background(), creds); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for %q, got %v", creds.Login, err)
		}
	}
}

func TestUnknownLoginPaysForBcrypt(t *testing.T) {
	file := fmt.Sprintf("chris:%s\n", hash(t, "password"))
	a, err := Parse(strings.NewReader(file), logging.NewNopLogger(), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	cost, err := bcrypt.Cost(a.missing)
	if err != nil || cost != bcrypt.MinCost {
		t.Fatalf("placeholder hash must match the file's cost, got %d, %v", cost, err)
	}
	if _, err := a.Authenticate(context.Background(), auth.Credentials{Login: "nobody", Password: Name}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown login must fail even with the placeholder password, got %v", err)
	}
}

func TestParseRejectsMalformedLines(t *testing.T) {
	for _, file := range []string{"chris\n", "chris:\n", ":hash\n", "chris:not-bcrypt\n"} {
		if _, err := Parse(strings.NewReader(file), logging.NewNopLogger(), nil); err == nil {
			t.Fatalf("expected error for %q", file)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users")
	if err := os.WriteFile(path, []byte("chris:"+hash(t, "password")+"\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	a, err := Load(path, logging.NewNopLogger(), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := a.Authenticate(context.Background(), auth.Credentials{Login: "chris", Password: "password"}); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing"), logging.NewNopLogger(), nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}
