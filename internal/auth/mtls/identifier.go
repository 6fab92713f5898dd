package mtls

import (
	"crypto/x509"
	"fmt"
	"net/http"
	"os"

	"ticketgate/internal/auth"
	"ticketgate/internal/observability/logging"
	"ticketgate/internal/observability/metrics"
	"ticketgate/internal/tls"
)

// Name is the plugin name of the mTLS identifier
const Name = "mtls"

// Identifier identifies callers by their verified client certificate
type Identifier struct {
	logger          *logging.Logger
	metrics         *metrics.Collector
	authCAs         *x509.CertPool
	developmentMode bool
}

// Config holds mTLS identifier configuration
type Config struct {
	// CAPaths is a list of paths to CA certificates for client verification
	CAPaths []string

	// TLSConfig is the server TLS configuration; its AuthCAs pool is reused when set
	TLSConfig *tls.Config

	// DevelopmentMode accepts the first DNS name when a certificate has no Common Name
	DevelopmentMode bool
}

// New creates a new mTLS identifier
func New(config Config, logger *logging.Logger, metrics *metrics.Collector) (*Identifier, error) {
	logger = logger.WithModule("auth.mtls")

	// Reuse the server's pool so both sides trust the same CAs
	if config.TLSConfig != nil && config.TLSConfig.AuthCAs != nil {
		return &Identifier{
			logger:          logger,
			metrics:         metrics,
			authCAs:         config.TLSConfig.AuthCAs,
			developmentMode: config.DevelopmentMode,
		}, nil
	}

	if len(config.CAPaths) == 0 {
		return nil, fmt.Errorf("mTLS identifier requires at least one CA path")
	}

	authCAs := x509.NewCertPool()
	for _, caPath := range config.CAPaths {
		logger.Debug("Loading CA certificate", "path", caPath)

		caCert, err := os.ReadFile(caPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read mTLS CA certificate %s: %w", caPath, err)
		}

		if !authCAs.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse mTLS CA certificate %s", caPath)
		}
	}

	return &Identifier{
		logger:          logger,
		metrics:         metrics,
		authCAs:         authCAs,
		developmentMode: config.DevelopmentMode,
	}, nil
}

// Name returns the name of this identifier
func (a *Identifier) Name() string {
	return Name
}

// Identify returns the identity of a verified client certificate. The
// certificate's organizational units are contributed as tokens.
func (a *Identifier) Identify(r *http.Request) *auth.Identity {
	logger := logging.FromContextOr(r.Context(), a.logger)

	if r.TLS == nil || len(r.TLS.PeerCertificates) == 0 {
		a.metrics.RecordIdentification(Name, metrics.OutcomeAbsent)
		return nil
	}

	if err := tls.ValidateClientCertificates(r.TLS.PeerCertificates[:1], a.authCAs, logger); err != nil {
		a.metrics.RecordIdentification(Name, metrics.OutcomeRejected)
		return nil
	}

	cert := r.TLS.PeerCertificates[0]
	subject, err := tls.ExtractSubject(cert, a.developmentMode)
	if err != nil {
		logger.Warn("Client certificate has no usable subject", logging.Err(err))
		a.metrics.RecordIdentification(Name, metrics.OutcomeRejected)
		return nil
	}

	tokens := cert.Subject.OrganizationalUnit
	if ts := auth.TokenSetFromContext(r.Context()); ts != nil {
		ts.Add(tokens...)
	}

	logger.Debug("Client certificate verified", "subject", subject)
	a.metrics.RecordIdentification(Name, metrics.OutcomeIdentified)

	return &auth.Identity{
		Subject:  subject,
		Tokens:   tokens,
		Provider: Name,
		Attributes: map[string]interface{}{
			"certificate": cert,
		},
	}
}

// Remember is a no-op: the client certificate is the credential
func (a *Identifier) Remember(*http.Request, *auth.Identity) auth.Headers {
	return nil
}

// Forget is a no-op: a client certificate cannot be revoked from the response
func (a *Identifier) Forget(*http.Request, *auth.Identity) auth.Headers {
	return nil
}
