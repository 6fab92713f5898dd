package redirector

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"ticketgate/internal/auth"
	"ticketgate/internal/observability/logging"
	"ticketgate/internal/observability/metrics"
)

const (
	// Name is the plugin name of the login redirector
	Name = "redirector"

	contentType = "text/plain; charset=utf8"
)

// Config holds login redirector configuration
type Config struct {
	// LoginURL is where challenged requests are sent
	LoginURL string

	// CameFromParam names the query parameter carrying the original URL; empty disables it
	CameFromParam string

	// ReasonParam names the query parameter carrying the failure reason; empty disables it
	ReasonParam string

	// ReasonHeader is the response header the reason is read from.
	// Defaults to auth.DefaultReasonHeader when ReasonParam is set.
	ReasonHeader string
}

// Challenger redirects failed requests to a login URL
type Challenger struct {
	logger        *logging.Logger
	metrics       *metrics.Collector
	loginURL      *url.URL
	cameFromParam string
	reasonParam   string
	reasonHeader  string
}

// New creates a login redirector
func New(config Config, logger *logging.Logger, metrics *metrics.Collector) (*Challenger, error) {
	if config.LoginURL == "" {
		return nil, fmt.Errorf("redirector requires a login URL")
	}

	loginURL, err := url.Parse(config.LoginURL)
	if err != nil {
		return nil, fmt.Errorf("invalid login URL: %w", err)
	}

	reasonHeader := config.ReasonHeader
	if config.ReasonParam == "" {
		if reasonHeader != "" {
			return nil, fmt.Errorf("reason header %q requires a reason parameter", reasonHeader)
		}
	} else if reasonHeader == "" {
		reasonHeader = auth.DefaultReasonHeader
	}
	// Captured response headers arrive in canonical form
	reasonHeader = http.CanonicalHeaderKey(reasonHeader)

	return &Challenger{
		logger:        logger.WithModule("auth.redirector"),
		metrics:       metrics,
		loginURL:      loginURL,
		cameFromParam: config.CameFromParam,
		reasonParam:   config.ReasonParam,
		reasonHeader:  reasonHeader,
	}, nil
}

// Name returns the name of this challenger
func (c *Challenger) Name() string {
	return Name
}

// ReasonHeader returns the header the failure reason is read from, or "" when disabled
func (c *Challenger) ReasonHeader() string {
	return c.reasonHeader
}

// Challenge builds a redirect to the login URL carrying the original URL and
// the failure reason as query parameters.
func (c *Challenger) Challenge(r *http.Request, status int, appHeaders, forgetHeaders auth.Headers) http.Handler {
	logger := logging.FromContextOr(r.Context(), c.logger)

	params := parseOrderedQuery(c.loginURL.RawQuery)

	if c.cameFromParam != "" {
		params = append(params, param{c.cameFromParam, ConstructURL(r)})
	}

	if c.reasonParam != "" {
		reason, ok := appHeaders.Get(c.reasonHeader)
		if !ok {
			// The context key shares the query parameter's name.
			reason = auth.ParamFromContext(r.Context(), c.reasonParam)
		}
		if reason != "" {
			params = append(params, param{c.reasonParam, reason})
		}
	}

	location := *c.loginURL
	location.RawQuery = encodeOrderedQuery(params)

	headers := auth.Headers{{Name: "Location", Value: location.String()}}
	headers = append(headers, forgetHeaders...)
	for _, h := range appHeaders {
		if strings.EqualFold(h.Name, "Set-Cookie") {
			headers = append(headers, h)
		}
	}
	headers = append(headers, auth.Header{Name: "content-type", Value: contentType})

	logger.Debug("Redirecting to login", "status", status, "location", logging.RedactURL(&location))
	c.metrics.RecordChallenge(Name)

	return &Response{
		Status:  http.StatusFound,
		Headers: headers,
	}
}

// Response is a fully composed challenge response
type Response struct {
	Status  int
	Headers auth.Headers
	Body    []byte
}

// ServeHTTP writes the response
func (resp *Response) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	resp.Headers.Apply(w.Header())
	w.WriteHeader(resp.Status)
	if len(resp.Body) > 0 {
		w.Write(resp.Body)
	}
}

// ConstructURL reconstructs the absolute URL the caller requested.
// Missing parts are left empty.
func ConstructURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}

	host := r.Host
	if host == "" && r.URL != nil {
		host = r.URL.Host
	}

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	b.WriteString(host)
	if r.URL != nil {
		b.WriteString(r.URL.EscapedPath())
		if r.URL.RawQuery != "" {
			b.WriteByte('?')
			b.WriteString(r.URL.RawQuery)
		}
	}
	return b.String()
}

type param struct {
	name  string
	value string
}

// parseOrderedQuery splits a raw query keeping parameter order.
// Undecodable pairs are kept verbatim.
func parseOrderedQuery(raw string) []param {
	var params []param
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")
		if n, err := url.QueryUnescape(name); err == nil {
			name = n
		}
		if v, err := url.QueryUnescape(value); err == nil {
			value = v
		}
		params = append(params, param{name, value})
	}
	return params
}

func encodeOrderedQuery(params []param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, url.QueryEscape(p.name)+"="+url.QueryEscape(p.value))
	}
	return strings.Join(parts, "&")
}
