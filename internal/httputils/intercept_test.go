package httputils

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

func isUnauthorized(status int) bool {
	return status == http.StatusUnauthorized
}

func TestInterceptWriterHoldsBackMatchingStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	hookCalled := false
	iw := NewInterceptWriter(rec, isUnauthorized, func(int, http.Header) { hookCalled = true })

	iw.Header().Set("Set-Cookie", "a")
	iw.WriteHeader(http.StatusUnauthorized)
	if n, err := iw.Write([]byte("denied")); err != nil || n != 6 {
		t.Fatalf("unexpected write result %d, %v", n, err)
	}
	iw.Finish()

	if !iw.Intercepted() || iw.Status() != http.StatusUnauthorized {
		t.Fatalf("expected intercepted 401, got %v %d", iw.Intercepted(), iw.Status())
	}
	if hookCalled {
		t.Fatal("hook must not run for intercepted responses")
	}
	if rec.Body.Len() != 0 || rec.Header().Get("Set-Cookie") != "" {
		t.Fatal("intercepted response leaked to the client")
	}
	if iw.Header().Get("Set-Cookie") != "a" {
		t.Fatal("expected captured headers to remain available")
	}
}

func TestInterceptWriterPassesThroughWithHook(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Trace-ID", "abc")
	iw := NewInterceptWriter(rec, isUnauthorized, func(status int, header http.Header) {
		header.Add("Set-Cookie", "ticket")
	})

	iw.Header().Set("Content-Type", "text/plain")
	if _, err := iw.Write([]byte("ok")); err != nil {
		t.Fatalf("write: %v", err)
	}

	if iw.Intercepted() {
		t.Fatal("unexpected interception")
	}
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
	for name, want := range map[string]string{"Set-Cookie": "ticket", "Content-Type": "text/plain", "X-Trace-ID": "abc"} {
		if got := rec.Header().Get(name); got != want {
			t.Fatalf("header %s: expected %q, got %q", name, want, got)
		}
	}
}

func TestInterceptWriterFinishWritesImplicitOK(t *testing.T) {
	rec := httptest.NewRecorder()
	called := 0
	iw := NewInterceptWriter(rec, isUnauthorized, func(int, http.Header) { called++ })
	iw.Finish()
	iw.Finish()

	if called != 1 || iw.Status() != http.StatusOK || rec.Code != http.StatusOK {
		t.Fatalf("unexpected state: hook %d, status %d", called, iw.Status())
	}
}

type hijackRecorder struct {
	*httptest.ResponseRecorder
	hijacked bool
}

func (h *hijackRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	return nil, nil, nil
}

func TestInterceptWriterHijackPassesThrough(t *testing.T) {
	inner := &hijackRecorder{ResponseRecorder: httptest.NewRecorder()}
	iw := NewInterceptWriter(inner, isUnauthorized, func(_ int, h http.Header) { h.Add("Set-Cookie", "ticket") })

	rc := http.NewResponseController(NewResponseWriter(iw))
	if _, _, err := rc.Hijack(); err != nil {
		t.Fatalf("unexpected hijack error: %v", err)
	}
	if !inner.hijacked {
		t.Fatal("expected the underlying writer to be hijacked")
	}
	if iw.Status() != http.StatusSwitchingProtocols || iw.Header().Get("Set-Cookie") != "ticket" {
		t.Fatalf("unexpected state after hijack: %d %v", iw.Status(), iw.Header())
	}

	iw.Finish()
	if inner.Code != http.StatusOK || len(inner.Header()) != 0 {
		t.Fatal("nothing may be written through a hijacked writer")
	}
	if iw.Unwrap() != http.ResponseWriter(inner) {
		t.Fatal("unexpected unwrap")
	}
}

func TestInterceptWriterHijackRefused(t *testing.T) {
	inner := &hijackRecorder{ResponseRecorder: httptest.NewRecorder()}
	iw := NewInterceptWriter(inner, isUnauthorized, nil)
	iw.WriteHeader(http.StatusUnauthorized)
	if _, _, err := iw.Hijack(); err == nil || inner.hijacked {
		t.Fatal("an intercepted response must not be hijacked")
	}

	iw = NewInterceptWriter(httptest.NewRecorder(), isUnauthorized, nil)
	if _, _, err := iw.Hijack(); err == nil {
		t.Fatal("expected an error from a writer that cannot hijack")
	}
}

func TestResponseWriterCapturesStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := NewResponseWriter(rec)
	rw.WriteHeader(http.StatusTeapot)
	rw.WriteHeader(http.StatusOK)
	rw.Write([]byte("tea"))

	if rw.StatusCode != http.StatusTeapot || rw.BytesWritten != 3 || rec.Code != http.StatusTeapot {
		t.Fatalf("unexpected capture %d %d", rw.StatusCode, rw.BytesWritten)
	}
	if rw.Unwrap() != rec {
		t.Fatal("unexpected unwrap")
	}
}
