package htpasswd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"ticketgate/internal/auth"
	"ticketgate/internal/observability/logging"
	"ticketgate/internal/observability/metrics"
	"ticketgate/internal/ticket"

	"golang.org/x/crypto/bcrypt"
)

// Name is the plugin name of the htpasswd authenticator
const Name = "htpasswd"

// ErrInvalidCredentials is returned for unknown users and wrong passwords alike
var ErrInvalidCredentials = errors.New("invalid login or password")

// entry is one user of the password file
type entry struct {
	hash     []byte
	tokens   []string
	userData string
}

// Authenticator checks form credentials against bcrypt hashes.
// The user table is immutable after construction.
type Authenticator struct {
	logger  *logging.Logger
	metrics *metrics.Collector
	users   map[string]entry
	// missing is compared against for unknown logins so they cost as much as a wrong password
	missing []byte
}

// Load reads a password file from path
func Load(path string, logger *logging.Logger, metrics *metrics.Collector) (*Authenticator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open password file: %w", err)
	}
	defer f.Close()

	a, err := Parse(f, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to parse password file %s: %w", path, err)
	}
	return a, nil
}

// Parse reads a password file. Each line is login:bcrypt-hash[:tokens[:userdata]],
// where tokens are comma separated. Blank lines and lines starting with # are ignored.
func Parse(r io.Reader, logger *logging.Logger, metrics *metrics.Collector) (*Authenticator, error) {
	users := make(map[string]entry)
	cost := 0

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.SplitN(line, ":", 4)
		if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
			return nil, fmt.Errorf("line %d: expected login:hash", lineNo)
		}
		c, err := bcrypt.Cost([]byte(fields[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid bcrypt hash: %w", lineNo, err)
		}
		cost = max(cost, c)

		e := entry{hash: []byte(fields[1])}
		if len(fields) > 2 {
			e.tokens = ticket.SplitTokens(fields[2])
		}
		if len(fields) > 3 {
			e.userData = fields[3]
		}
		users[fields[0]] = e
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	missing, err := bcrypt.GenerateFromPassword([]byte(Name), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to derive placeholder hash: %w", err)
	}

	return &Authenticator{
		logger:  logger.WithModule("auth.htpasswd"),
		metrics: metrics,
		users:   users,
		missing: missing,
	}, nil
}

// Name returns the name of this authenticator
func (a *Authenticator) Name() string {
	return Name
}

// Authenticate checks creds against the password file
func (a *Authenticator) Authenticate(ctx context.Context, creds auth.Credentials) (*auth.Identity, error) {
	logger := logging.FromContextOr(ctx, a.logger)

	e, ok := a.users[creds.Login]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(a.missing, []byte(creds.Password))
		logger.Debug("Unknown login", "login", creds.Login)
		a.metrics.RecordAuthentication(Name, false)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(e.hash, []byte(creds.Password)); err != nil {
		logger.Debug("Password mismatch", "login", creds.Login)
		a.metrics.RecordAuthentication(Name, false)
		return nil, ErrInvalidCredentials
	}

	a.metrics.RecordAuthentication(Name, true)
	return &auth.Identity{
		Subject:  creds.Login,
		Tokens:   e.tokens,
		UserData: e.userData,
		Provider: Name,
	}, nil
}
