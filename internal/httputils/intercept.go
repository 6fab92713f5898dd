package httputils

import (
	"bufio"
	"errors"
	"net"
	"net/http"
)

// InterceptWriter buffers response headers until the status is known. A
// status matched by the intercept predicate is held back, along with its
// headers and body, so the caller can replace the response. Any other status
// is passed through after the beforeHeader hook has had a chance to add headers.
type InterceptWriter struct {
	w            http.ResponseWriter
	header       http.Header
	intercept    func(status int) bool
	beforeHeader func(status int, header http.Header)
	status       int
	wroteHeader  bool
	intercepted  bool
}

// NewInterceptWriter wraps w. beforeHeader may be nil.
func NewInterceptWriter(w http.ResponseWriter, intercept func(status int) bool, beforeHeader func(status int, header http.Header)) *InterceptWriter {
	return &InterceptWriter{
		w:            w,
		header:       make(http.Header),
		intercept:    intercept,
		beforeHeader: beforeHeader,
	}
}

// Header returns the pending response headers
func (iw *InterceptWriter) Header() http.Header {
	return iw.header
}

// WriteHeader intercepts or forwards the status
func (iw *InterceptWriter) WriteHeader(code int) {
	if iw.wroteHeader {
		return
	}
	if code >= 100 && code < 200 && code != http.StatusSwitchingProtocols {
		iw.w.WriteHeader(code)
		return
	}

	iw.wroteHeader = true
	iw.status = code

	if iw.intercept(code) {
		iw.intercepted = true
		return
	}

	if iw.beforeHeader != nil {
		iw.beforeHeader(code, iw.header)
	}
	dst := iw.w.Header()
	for name, values := range iw.header {
		dst[name] = append(dst[name], values...)
	}
	iw.w.WriteHeader(code)
}

// Write discards the body of an intercepted response
func (iw *InterceptWriter) Write(b []byte) (int, error) {
	if !iw.wroteHeader {
		iw.WriteHeader(http.StatusOK)
	}
	if iw.intercepted {
		return len(b), nil
	}
	return iw.w.Write(b)
}

// Flush implements http.Flusher for responses that are not intercepted
func (iw *InterceptWriter) Flush() {
	if !iw.wroteHeader {
		iw.WriteHeader(http.StatusOK)
	}
	if iw.intercepted {
		return
	}
	if flusher, ok := iw.w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack hands the connection to the caller for protocol upgrades. The
// beforeHeader hook still sees the pending headers, which the caller writes
// along with its own status line.
func (iw *InterceptWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if iw.intercepted {
		return nil, nil, errors.New("response was intercepted")
	}
	hijacker, ok := iw.w.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying ResponseWriter does not implement http.Hijacker")
	}
	if !iw.wroteHeader {
		iw.wroteHeader = true
		iw.status = http.StatusSwitchingProtocols
		if iw.beforeHeader != nil {
			iw.beforeHeader(iw.status, iw.header)
		}
	}
	return hijacker.Hijack()
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController
func (iw *InterceptWriter) Unwrap() http.ResponseWriter {
	return iw.w
}

// Finish writes an implicit 200 when the handler returned without writing
func (iw *InterceptWriter) Finish() {
	if !iw.wroteHeader {
		iw.WriteHeader(http.StatusOK)
	}
}

// Intercepted reports whether the response was held back
func (iw *InterceptWriter) Intercepted() bool {
	return iw.intercepted
}

// Status returns the status written by the handler
func (iw *InterceptWriter) Status() int {
	return iw.status
}
