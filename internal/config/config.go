package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "TICKETGATE"

// Load loads the configuration from all sources and returns the merged result
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	Settings.PopulateViperDefaults(v)

	// Set up environment variable handling
	v.SetEnvPrefix(EnvPrefix)
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Load from config file if specified
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// It's okay if the config file doesn't exist, but other errors should be reported
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	if err := checkRequired(v); err != nil {
		return nil, err
	}

	// Create the config object
	config := &Config{}

	// Populate server configuration
	config.Server.Address = v.GetString("SERVER_ADDR")
	shutdownTimeout, err := time.ParseDuration(v.GetString("SHUTDOWN_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	config.Server.ShutdownTimeout = shutdownTimeout

	// Populate metrics configuration
	config.Metrics.Address = v.GetString("METRICS_ADDR")

	// Populate TLS configuration
	config.TLS.Enabled = v.GetBool("TLS_ENABLED")
	config.TLS.CertPath = v.GetString("TLS_CERT_PATH")
	config.TLS.KeyPath = v.GetString("TLS_KEY_PATH")
	config.TLS.CAPath = v.GetString("TLS_CA_PATH")

	// Populate upstream configuration
	upstreamURL, err := url.Parse(v.GetString("UPSTREAM_URL"))
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}
	config.Upstream.URL = upstreamURL

	upstreamTimeout, err := time.ParseDuration(v.GetString("UPSTREAM_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid upstream timeout: %w", err)
	}
	config.Upstream.Timeout = upstreamTimeout

	// Populate authentication configuration
	// Ticket cookie
	config.Auth.Ticket.Secret = v.GetString("AUTH_TKT_SECRET")
	config.Auth.Ticket.CookieName = v.GetString("AUTH_TKT_COOKIE_NAME")
	config.Auth.Ticket.Secure = v.GetBool("AUTH_TKT_SECURE")
	config.Auth.Ticket.IncludeIP = v.GetBool("AUTH_TKT_INCLUDE_IP")
	ticketTTL, err := time.ParseDuration(v.GetString("AUTH_TKT_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid ticket TTL: %w", err)
	}
	config.Auth.Ticket.TTL = ticketTTL

	// Redirector
	config.Auth.Redirect.LoginURL = v.GetString("REDIRECT_LOGIN_URL")
	config.Auth.Redirect.CameFromParam = v.GetString("REDIRECT_CAME_FROM_PARAM")
	config.Auth.Redirect.ReasonParam = v.GetString("REDIRECT_REASON_PARAM")
	config.Auth.Redirect.ReasonHeader = v.GetString("REDIRECT_REASON_HEADER")

	// Login endpoints
	config.Auth.LoginPath = v.GetString("LOGIN_PATH")
	config.Auth.LogoutPath = v.GetString("LOGOUT_PATH")
	config.Auth.LogoutRedirect = v.GetString("LOGOUT_REDIRECT")
	config.Auth.HtpasswdFile = v.GetString("HTPASSWD_FILE")

	// mTLS
	config.Auth.MTLS.Enabled = v.GetBool("AUTH_MTLS_ENABLED")
	config.Auth.MTLS.CAPaths = v.GetStringSlice("AUTH_MTLS_CA_PATHS")

	// Bearer
	config.Auth.Bearer.Enabled = v.GetBool("AUTH_BEARER_ENABLED")
	config.Auth.Bearer.Issuer = v.GetString("AUTH_BEARER_ISSUER")
	config.Auth.Bearer.ClientID = v.GetString("AUTH_BEARER_CLIENT_ID")

	// Populate authorization configuration
	config.Authz.Type = v.GetString("AUTHZ_TYPE")
	config.Authz.SpiceDB.Endpoint = v.GetString("AUTHZ_SPICEDB_ENDPOINT")
	config.Authz.SpiceDB.Insecure = v.GetBool("AUTHZ_SPICEDB_INSECURE")
	config.Authz.SpiceDB.Token = v.GetString("AUTHZ_SPICEDB_TOKEN")
	config.Authz.SpiceDB.ResourceType = v.GetString("AUTHZ_SPICEDB_RESOURCE_TYPE")
	config.Authz.SpiceDB.ResourceID = v.GetString("AUTHZ_SPICEDB_RESOURCE_ID")
	config.Authz.SpiceDB.SubjectType = v.GetString("AUTHZ_SPICEDB_SUBJECT_TYPE")

	// Populate observability configuration
	config.Observability.LogLevel = v.GetString("LOG_LEVEL")
	config.Observability.LogFormat = v.GetString("LOG_FORMAT")

	// Rules only come from the config file
	rules, err := loadRules(v)
	if err != nil {
		return nil, err
	}
	config.Rules = rules

	// Validate the configuration
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// checkRequired reports the first required setting left empty
func checkRequired(v *viper.Viper) error {
	for _, s := range Settings {
		if s.Required && strings.TrimSpace(v.GetString(s.Name)) == "" {
			return fmt.Errorf("%s_%s is required", EnvPrefix, s.Env)
		}
	}
	return nil
}

// validateConfig performs validation on the loaded configuration
func validateConfig(cfg *Config) error {
	// Validate required fields
	if cfg.Upstream.URL == nil || cfg.Upstream.URL.String() == "" {
		return fmt.Errorf("upstream URL is required")
	}

	// Validate TLS configuration
	if cfg.TLS.Enabled {
		if cfg.TLS.CertPath == "" {
			return fmt.Errorf("TLS certificate path is required when TLS is enabled")
		}
		if cfg.TLS.KeyPath == "" {
			return fmt.Errorf("TLS key path is required when TLS is enabled")
		}

		// Check if certificate and key files exist
		if _, err := os.Stat(cfg.TLS.CertPath); os.IsNotExist(err) {
			return fmt.Errorf("TLS certificate file not found: %s", cfg.TLS.CertPath)
		}
		if _, err := os.Stat(cfg.TLS.KeyPath); os.IsNotExist(err) {
			return fmt.Errorf("TLS key file not found: %s", cfg.TLS.KeyPath)
		}
	}

	// Validate authentication configurations
	if err := validateAuthConfig(cfg); err != nil {
		return err
	}

	// Validate authorization configurations
	if err := validateAuthzConfig(cfg); err != nil {
		return err
	}

	return validateRules(cfg.Rules)
}

// validateAuthConfig validates authentication configuration
func validateAuthConfig(cfg *Config) error {
	if cfg.Auth.Ticket.Secret == "" {
		return fmt.Errorf("ticket secret is required")
	}
	if cfg.Auth.Ticket.TTL < 0 {
		return fmt.Errorf("ticket TTL must not be negative")
	}

	// Validate redirector configuration
	if cfg.Auth.Redirect.LoginURL == "" {
		return fmt.Errorf("login URL is required")
	}
	if _, err := url.Parse(cfg.Auth.Redirect.LoginURL); err != nil {
		return fmt.Errorf("invalid login URL: %w", err)
	}
	if cfg.Auth.Redirect.ReasonHeader != "" && cfg.Auth.Redirect.ReasonParam == "" {
		return fmt.Errorf("reason header requires a reason parameter")
	}

	if cfg.Auth.HtpasswdFile != "" {
		if _, err := os.Stat(cfg.Auth.HtpasswdFile); os.IsNotExist(err) {
			return fmt.Errorf("password file not found: %s", cfg.Auth.HtpasswdFile)
		}
	}

	// Validate mTLS configuration
	if cfg.Auth.MTLS.Enabled {
		if len(cfg.Auth.MTLS.CAPaths) == 0 {
			return fmt.Errorf("at least one CA path is required when mTLS is enabled")
		}

		// Check if CA files exist
		for _, caPath := range cfg.Auth.MTLS.CAPaths {
			if _, err := os.Stat(caPath); os.IsNotExist(err) {
				return fmt.Errorf("mTLS CA file not found: %s", caPath)
			}
		}
	}

	// Validate Bearer configuration
	if cfg.Auth.Bearer.Enabled {
		if cfg.Auth.Bearer.Issuer == "" {
			return fmt.Errorf("Bearer issuer is required when Bearer is enabled")
		}
		if cfg.Auth.Bearer.ClientID == "" {
			return fmt.Errorf("Bearer client ID is required when Bearer is enabled")
		}
	}

	return nil
}

// validateAuthzConfig validates authorization configuration
func validateAuthzConfig(cfg *Config) error {
	switch cfg.Authz.Type {
	case "tokens":
	case "spicedb":
		if cfg.Authz.SpiceDB.Endpoint == "" {
			return fmt.Errorf("SpiceDB endpoint is required when using SpiceDB authorization")
		}
		if cfg.Authz.SpiceDB.Token == "" {
			return fmt.Errorf("SpiceDB token is required when using SpiceDB authorization")
		}
		if cfg.Authz.SpiceDB.ResourceID == "" {
			return fmt.Errorf("SpiceDB resource ID is required when using SpiceDB authorization")
		}
	default:
		return fmt.Errorf("unknown authorizer type %q", cfg.Authz.Type)
	}

	return nil
}

// validateRules checks every rule names an action and a path
func validateRules(rules []Rule) error {
	for i, rule := range rules {
		switch rule.Action {
		case "allow", "deny":
		case "auth":
			if rule.Permission == "" {
				return fmt.Errorf("rule %d (%s): auth rules require a permission", i, rule.Name)
			}
		default:
			return fmt.Errorf("rule %d (%s): unknown action %q", i, rule.Name, rule.Action)
		}
		if len(rule.Paths) == 0 {
			return fmt.Errorf("rule %d (%s): at least one path is required", i, rule.Name)
		}
	}
	return nil
}

func loadRules(v *viper.Viper) ([]Rule, error) {
	var rules []Rule
	if !v.IsSet("rules") {
		return rules, nil
	}
	if err := v.UnmarshalKey("rules", &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	return rules, nil
}

// LoadRules loads routing rules from a standalone file holding a top-level rules list
func LoadRules(rulesPath string) ([]Rule, error) {
	v := viper.New()
	v.SetConfigFile(rulesPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	rules, err := loadRules(v)
	if err != nil {
		return nil, err
	}
	if err := validateRules(rules); err != nil {
		return nil, err
	}
	return rules, nil
}
