package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Common label names for consistent metrics
const (
	LabelRule       = "rule"
	LabelAction     = "action"
	LabelStatus     = "status"
	LabelMethod     = "method"
	LabelPath       = "path"
	LabelPlugin     = "plugin"
	LabelOutcome    = "outcome"
	LabelSuccess    = "success"
	LabelPermission = "permission"
)

// Identification outcomes
const (
	OutcomeIdentified = "identified"
	OutcomeAbsent     = "absent"
	OutcomeRejected   = "rejected"
)

var (
	// RequestsTotal counts all HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketgate_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	// RequestDuration tracks the duration of HTTP requests
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticketgate_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	// IdentificationTotal counts identification attempts by plugin and outcome
	IdentificationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketgate_identification_total",
			Help: "Total number of identification attempts",
		},
		[]string{LabelPlugin, LabelOutcome},
	)

	// AuthenticationTotal counts login attempts by authenticator and outcome
	AuthenticationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketgate_authentication_total",
			Help: "Total number of login attempts",
		},
		[]string{LabelPlugin, LabelSuccess},
	)

	// ChallengeTotal counts challenge responses by challenger
	ChallengeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketgate_challenge_total",
			Help: "Total number of challenge responses",
		},
		[]string{LabelPlugin},
	)

	// TicketIssuedTotal counts credentials reissued by the remember path
	TicketIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketgate_ticket_issued_total",
			Help: "Total number of credentials issued to clients",
		},
		[]string{LabelPlugin},
	)

	// AuthorizationTotal counts authorization checks by permission and outcome
	AuthorizationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketgate_authorization_total",
			Help: "Total number of authorization checks",
		},
		[]string{LabelPermission, LabelSuccess},
	)

	// RuleMatchTotal counts rule matches by rule name and action
	RuleMatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketgate_rule_match_total",
			Help: "Total number of rule matches",
		},
		[]string{LabelRule, LabelAction},
	)

	// UpstreamRequestTotal counts requests to upstream services
	UpstreamRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketgate_upstream_requests_total",
			Help: "Total number of requests to upstream services",
		},
		[]string{LabelMethod, "upstream", LabelStatus},
	)

	// UpstreamRequestDuration tracks the duration of upstream requests
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticketgate_upstream_request_duration_seconds",
			Help:    "Duration of requests to upstream services in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LabelMethod, "upstream"},
	)
)

// Collector provides methods for recording metrics.
// A nil *Collector records nothing.
type Collector struct{}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{}
}

// RecordRequest records metrics for an HTTP request
func (c *Collector) RecordRequest(method, path string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	RequestsTotal.WithLabelValues(method, path, http.StatusText(status)).Inc()
	RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordIdentification records the outcome of an identifier
func (c *Collector) RecordIdentification(plugin, outcome string) {
	if c == nil {
		return
	}
	IdentificationTotal.WithLabelValues(plugin, outcome).Inc()
}

// RecordAuthentication records a login attempt
func (c *Collector) RecordAuthentication(plugin string, success bool) {
	if c == nil {
		return
	}
	AuthenticationTotal.WithLabelValues(plugin, boolToString(success)).Inc()
}

// RecordChallenge records a challenge response
func (c *Collector) RecordChallenge(plugin string) {
	if c == nil {
		return
	}
	ChallengeTotal.WithLabelValues(plugin).Inc()
}

// RecordTicketIssued records a credential sent to a client
func (c *Collector) RecordTicketIssued(plugin string) {
	if c == nil {
		return
	}
	TicketIssuedTotal.WithLabelValues(plugin).Inc()
}

// RecordAuthorization records an authorization check
func (c *Collector) RecordAuthorization(permission string, success bool) {
	if c == nil {
		return
	}
	AuthorizationTotal.WithLabelValues(permission, boolToString(success)).Inc()
}

// RecordRuleMatch records a rule match
func (c *Collector) RecordRuleMatch(ruleName, action string) {
	if c == nil {
		return
	}
	RuleMatchTotal.WithLabelValues(ruleName, action).Inc()
}

// RecordUpstreamRequest records a request to an upstream service
func (c *Collector) RecordUpstreamRequest(method, upstream string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	UpstreamRequestTotal.WithLabelValues(method, upstream, http.StatusText(status)).Inc()
	UpstreamRequestDuration.WithLabelValues(method, upstream).Observe(duration.Seconds())
}

// Handler returns an HTTP handler for exposing metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// boolToString converts a boolean to a string representation
func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
