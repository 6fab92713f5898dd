package manager

import (
	"context"
	"fmt"

	"ticketgate/internal/auth"
	"ticketgate/internal/auth/authtkt"
	"ticketgate/internal/auth/bearer"
	"ticketgate/internal/auth/htpasswd"
	"ticketgate/internal/auth/mtls"
	"ticketgate/internal/auth/redirector"
	"ticketgate/internal/config"
	"ticketgate/internal/observability/logging"
	"ticketgate/internal/observability/metrics"
	"ticketgate/internal/tls"
)

// NewManagerFromConfig creates a manager with every plugin the configuration enables
func NewManagerFromConfig(cfg *config.Config, tlsConfig *tls.Config, logger *logging.Logger, metrics *metrics.Collector) (*Manager, error) {
	factoryLogger := logger.WithModule("auth.factory")

	// Order matters: the first identity wins. Only the winner remembers, so the
	// ticket cookie never reissues for an mTLS or bearer identity.
	var identifiers []auth.Identifier

	if cfg.Auth.MTLS.Enabled {
		mtlsIdentifier, err := mtls.New(mtls.Config{
			CAPaths:   cfg.Auth.MTLS.CAPaths,
			TLSConfig: tlsConfig, // Pass the TLS config to ensure matching CA pools
		}, logger, metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize mTLS identifier: %w", err)
		}
		identifiers = append(identifiers, mtlsIdentifier)
		factoryLogger.Info("mTLS identification enabled")
	}

	if cfg.Auth.Bearer.Enabled {
		// The provider keeps using this context to refresh signing keys
		bearerIdentifier, err := bearer.New(context.Background(), bearer.Config{
			Issuer:   cfg.Auth.Bearer.Issuer,
			ClientID: cfg.Auth.Bearer.ClientID,
		}, logger, metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Bearer identifier: %w", err)
		}
		identifiers = append(identifiers, bearerIdentifier)
		factoryLogger.Info("Bearer identification enabled")
	}

	ticketIdentifier, err := authtkt.New(authtkt.Config{
		Secret:     cfg.Auth.Ticket.Secret,
		CookieName: cfg.Auth.Ticket.CookieName,
		Secure:     cfg.Auth.Ticket.Secure,
		IncludeIP:  cfg.Auth.Ticket.IncludeIP,
		TTL:        cfg.Auth.Ticket.TTL,
	}, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ticket identifier: %w", err)
	}
	identifiers = append(identifiers, ticketIdentifier)

	var authenticators []auth.Authenticator
	if cfg.Auth.HtpasswdFile != "" {
		passwords, err := htpasswd.Load(cfg.Auth.HtpasswdFile, logger, metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize htpasswd authenticator: %w", err)
		}
		authenticators = append(authenticators, passwords)
		factoryLogger.Info("Form login enabled", "path", cfg.Auth.LoginPath)
	} else {
		factoryLogger.Warn("No password file configured, form login will always fail")
	}

	challenger, err := redirector.New(redirector.Config{
		LoginURL:      cfg.Auth.Redirect.LoginURL,
		CameFromParam: cfg.Auth.Redirect.CameFromParam,
		ReasonParam:   cfg.Auth.Redirect.ReasonParam,
		ReasonHeader:  cfg.Auth.Redirect.ReasonHeader,
	}, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize login redirector: %w", err)
	}

	return NewManager(Config{
		LoginPath:      cfg.Auth.LoginPath,
		LogoutPath:     cfg.Auth.LogoutPath,
		LogoutRedirect: cfg.Auth.LogoutRedirect,
		CameFromParam:  cfg.Auth.Redirect.CameFromParam,
		ReasonParam:    cfg.Auth.Redirect.ReasonParam,
	}, identifiers, authenticators, []auth.Challenger{challenger}, logger), nil
}
