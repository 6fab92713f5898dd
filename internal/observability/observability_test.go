package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"ticketgate/internal/observability/logging"
)

func TestMiddlewareAttachesTracing(t *testing.T) {
	p := &Provider{Logger: logging.NewNopLogger()}

	var seenTrace string
	var hasLogger bool
	h := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTrace = logging.GetTraceIDFromContext(r.Context())
		hasLogger = logging.LoggerFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}
	if seenTrace == "" || rec.Header().Get(TraceHeader) != seenTrace {
		t.Fatalf("trace ID %q not echoed, header %q", seenTrace, rec.Header().Get(TraceHeader))
	}
	if !hasLogger {
		t.Fatal("expected a request logger in context")
	}
}

func TestMiddlewareReusesTraceHeader(t *testing.T) {
	p := &Provider{Logger: logging.NewNopLogger()}
	h := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get(TraceHeader) != "abc-123" {
		t.Fatalf("expected trace header to be reused, got %q", rec.Header().Get(TraceHeader))
	}
}
