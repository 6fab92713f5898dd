package server

import (
	"crypto/tls"
	"fmt"

	"ticketgate/internal/auth"
	"ticketgate/internal/auth/manager"
	"ticketgate/internal/authz"
	"ticketgate/internal/authz/spicedb"
	"ticketgate/internal/authz/tokens"
	"ticketgate/internal/config"
	"ticketgate/internal/observability"
	"ticketgate/internal/observability/logging"
	"ticketgate/internal/proxy/router"
	tlsconfig "ticketgate/internal/tls"
)

// NewFromConfig creates a new server from configuration
func NewFromConfig(cfg *config.Config) (*Server, error) {
	obs, err := observability.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	logger := obs.Logger

	// Initialize TLS configuration
	var tlsSetup *tlsconfig.Config
	var tlsCfg *tls.Config
	if cfg.TLS.Enabled {
		tlsSetup = &tlsconfig.Config{
			Logger:      logger,
			RootCAPath:  cfg.TLS.CAPath,
			AuthCAFiles: cfg.Auth.MTLS.CAPaths,
			CertPath:    cfg.TLS.CertPath,
			KeyPath:     cfg.TLS.KeyPath,
		}

		tlsCfg, err = tlsSetup.GetTLSConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS configuration: %w", err)
		}
	}

	authManager, err := manager.NewManagerFromConfig(cfg, tlsSetup, logger, obs.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize authentication manager: %w", err)
	}

	authorizer, err := newAuthorizer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize authorizer: %w", err)
	}

	proxyRouter := router.New(router.Config{
		UpstreamURL:     cfg.Upstream.URL,
		UpstreamTimeout: cfg.Upstream.Timeout,
		ReasonHeader:    reasonHeader(authManager),
		Rules:           convertRules(cfg.Rules),
	}, authorizer, logger, obs.Metrics)

	serverConfig := Config{
		Address:         cfg.Server.Address,
		MetricsAddress:  cfg.Metrics.Address,
		TLSConfig:       tlsCfg,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}

	// Complete middleware chain: observability -> auth -> router
	handler := obs.Middleware(authManager.Middleware(proxyRouter))

	return New(serverConfig, handler, obs.MetricsHandler(), logger), nil
}

// newAuthorizer creates the authorizer selected by configuration
func newAuthorizer(cfg *config.Config, logger *logging.Logger) (authz.Authorizer, error) {
	switch cfg.Authz.Type {
	case "", "tokens":
		logger.Info("Using token authorizer")
		return tokens.New(logger), nil
	case "spicedb":
		spiceCfg := spicedb.Config{
			Endpoint:     cfg.Authz.SpiceDB.Endpoint,
			Insecure:     cfg.Authz.SpiceDB.Insecure,
			Token:        cfg.Authz.SpiceDB.Token,
			ResourceType: cfg.Authz.SpiceDB.ResourceType,
			ResourceID:   cfg.Authz.SpiceDB.ResourceID,
			SubjectType:  cfg.Authz.SpiceDB.SubjectType,
		}
		client, err := spicedb.NewClient(spiceCfg)
		if err != nil {
			return nil, err
		}
		logger.Info("Using SpiceDB authorizer",
			"endpoint", spiceCfg.Endpoint,
			"insecure", spiceCfg.Insecure,
		)
		return spicedb.New(spiceCfg, client, logger), nil
	default:
		return nil, fmt.Errorf("unknown authorizer type %q", cfg.Authz.Type)
	}
}

// reasonHeader returns the header the first reason-aware challenger reads
func reasonHeader(m *manager.Manager) string {
	for _, c := range m.GetChallengers() {
		if r, ok := c.(interface{ ReasonHeader() string }); ok && r.ReasonHeader() != "" {
			return r.ReasonHeader()
		}
	}
	return auth.DefaultReasonHeader
}

// convertRules converts config.Rule to router.Rule
func convertRules(configRules []config.Rule) []router.Rule {
	routerRules := make([]router.Rule, len(configRules))
	for i, rule := range configRules {
		routerRules[i] = router.Rule{
			Name:        rule.Name,
			Action:      rule.Action,
			Paths:       rule.Paths,
			MatchPrefix: rule.MatchPrefix,
			Methods:     rule.Methods,
			Permission:  rule.Permission,
			Resource:    rule.Resource,
		}
	}
	return routerRules
}
