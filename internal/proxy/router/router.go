package router

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"ticketgate/internal/auth"
	"ticketgate/internal/authz"
	"ticketgate/internal/httputils"
	"ticketgate/internal/observability/logging"
	"ticketgate/internal/observability/metrics"

	"github.com/gorilla/mux"
)

// Rule defines a routing rule
type Rule struct {
	// Name is a unique identifier for the rule
	Name string

	// Action determines what action to take for matched requests
	// Can be "allow", "deny", or "auth"
	Action string

	// Paths is a list of URL paths this rule applies to
	Paths []string

	// MatchPrefix indicates whether to match the path prefix instead of exact match
	MatchPrefix bool

	// Methods is a list of HTTP methods this rule applies to (empty = all methods)
	Methods []string

	// Permission is the permission required for "auth" action
	// Ignored for other actions
	Permission string

	// Resource is the resource identifier for authorization checks
	// If empty, the default resource from configuration is used
	Resource string
}

// Router is a proxy router that implements routing rules and authorization
type Router struct {
	*mux.Router
	target       http.Handler
	authorizer   authz.Authorizer
	rules        []Rule
	logger       *logging.Logger
	metrics      *metrics.Collector
	upstreamURL  *url.URL
	reasonHeader string
}

// Config holds router configuration
type Config struct {
	// UpstreamURL is the URL of the upstream service
	UpstreamURL *url.URL

	// UpstreamTimeout is the timeout for upstream service requests
	UpstreamTimeout time.Duration

	// ReasonHeader carries the authorization failure reason on 401 responses; empty disables it
	ReasonHeader string

	// Rules is the list of routing rules
	Rules []Rule
}

// New creates a new router
func New(config Config, authorizer authz.Authorizer, logger *logging.Logger, metricsCollector *metrics.Collector) *Router {
	target := httputil.NewSingleHostReverseProxy(config.UpstreamURL)
	target.Transport = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: config.UpstreamTimeout,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return NewWithTarget(config, target, authorizer, logger, metricsCollector)
}

// NewWithTarget creates a router that forwards allowed requests to target
func NewWithTarget(config Config, target http.Handler, authorizer authz.Authorizer, logger *logging.Logger, metricsCollector *metrics.Collector) *Router {
	r := &Router{
		Router:       mux.NewRouter(),
		target:       target,
		authorizer:   authorizer,
		rules:        config.Rules,
		logger:       logger.WithModule("proxy.router"),
		metrics:      metricsCollector,
		upstreamURL:  config.UpstreamURL,
		reasonHeader: config.ReasonHeader,
	}

	r.setupRoutes()

	return r
}

// setupRoutes configures routes based on rules
func (r *Router) setupRoutes() {
	allowHandler := r.createAllowHandler()
	denyHandler := r.createDenyHandler()

	for _, rule := range r.rules {
		r.logger.Debug("Setting up route",
			"name", rule.Name,
			"action", rule.Action,
			"paths", rule.Paths,
			"methods", rule.Methods,
		)

		for _, path := range rule.Paths {
			var route *mux.Route
			if rule.MatchPrefix {
				route = r.PathPrefix(path)
			} else {
				route = r.Path(path)
			}

			if len(rule.Methods) > 0 {
				route = route.Methods(rule.Methods...)
			}

			route = route.Name(rule.Name)

			switch rule.Action {
			case "allow":
				route.Handler(allowHandler)
			case "deny":
				route.Handler(denyHandler)
			case "auth":
				route.Handler(r.createAuthHandlerForRule(rule))
			default:
				r.logger.Warn("Unknown action in rule, defaulting to deny",
					"rule", rule.Name, "action", rule.Action)
				route.Handler(denyHandler)
			}
		}
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		logging.FromContextOr(req.Context(), r.logger).Warn("Request received for undefined route", "path", req.URL.Path)
		http.Error(w, "404 page not found", http.StatusNotFound)
	})
}

// createAllowHandler creates a reusable handler for "allow" rules
func (r *Router) createAllowHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ruleName := mux.CurrentRoute(req).GetName()
		logger := logging.FromContextOr(req.Context(), r.logger)

		logger.Debug("Allow handler called",
			"rule", ruleName,
			"path", req.URL.Path,
			"method", req.Method,
		)

		r.metrics.RecordRuleMatch(ruleName, "allow")
		r.forward(w, req)
	})
}

// createDenyHandler creates a reusable handler for "deny" rules
func (r *Router) createDenyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ruleName := mux.CurrentRoute(req).GetName()
		logger := logging.FromContextOr(req.Context(), r.logger)

		logger.Debug("Deny handler called",
			"rule", ruleName,
			"path", req.URL.Path,
			"method", req.Method,
		)

		r.metrics.RecordRuleMatch(ruleName, "deny")

		http.Error(w, "Forbidden", http.StatusForbidden)
	})
}

// createAuthHandlerForRule creates a handler for a specific "auth" rule
func (r *Router) createAuthHandlerForRule(rule Rule) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		logger := logging.FromContextOr(ctx, r.logger)

		logger.Debug("Auth handler called",
			"rule", rule.Name,
			"permission", rule.Permission,
			"path", req.URL.Path,
			"method", req.Method,
		)

		r.metrics.RecordRuleMatch(rule.Name, "auth")

		identity := auth.IdentityFromContext(ctx)
		if identity == nil {
			logger.Info("Auth failed: no identity", "rule", rule.Name)
			r.metrics.RecordAuthorization(rule.Permission, false)
			r.unauthorized(w, authz.NoIdentity())
			return
		}

		resp := r.authorizer.Authorize(&authz.Request{
			Identity:   identity,
			Tokens:     auth.TokenSetFromContext(ctx),
			Permission: rule.Permission,
			Resource:   rule.Resource,
			Context:    ctx,
		})

		switch resp.Decision {
		case authz.Allow:
			logger.Debug("Authorization successful",
				"subject", identity.Subject,
				"permission", rule.Permission,
				"rule", rule.Name,
			)
			r.metrics.RecordAuthorization(rule.Permission, true)
			r.forward(w, req)

		case authz.Deny:
			logger.Info("Authorization failed: permission denied",
				"subject", identity.Subject,
				"permission", rule.Permission,
				"rule", rule.Name,
			)
			r.metrics.RecordAuthorization(rule.Permission, false)
			http.Error(w, "Forbidden", http.StatusForbidden)

		case authz.Unauthorized:
			logger.Info("Authorization failed: unauthorized", "rule", rule.Name)
			r.metrics.RecordAuthorization(rule.Permission, false)
			r.unauthorized(w, resp)

		default:
			logger.Error("Authorization failed: error",
				logging.Err(resp.Error),
				"rule", rule.Name,
			)
			r.metrics.RecordAuthorization(rule.Permission, false)
			// The authorization backend is down, not the caller's fault
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		}
	})
}

// unauthorized answers 401 and publishes the reason for the challenger
func (r *Router) unauthorized(w http.ResponseWriter, resp *authz.Response) {
	if r.reasonHeader != "" && resp.Reason != "" {
		w.Header().Set(r.reasonHeader, resp.Reason)
	}
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// forward proxies the request upstream and records its outcome
func (r *Router) forward(w http.ResponseWriter, req *http.Request) {
	startTime := time.Now()
	wrapper := httputils.NewResponseWriter(w)

	r.target.ServeHTTP(wrapper, req)

	upstream := ""
	if r.upstreamURL != nil {
		upstream = r.upstreamURL.String()
	}
	r.metrics.RecordUpstreamRequest(req.Method, upstream, wrapper.StatusCode, time.Since(startTime))
}
