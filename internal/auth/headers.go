package auth

import (
	"net/http"
	"sort"
)

// Header is a single response header
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered list of response headers. Unlike http.Header it
// preserves the order in which headers were composed.
type Headers []Header

// Get returns the first value whose name matches exactly
func (h Headers) Get(name string) (string, bool) {
	for _, header := range h {
		if header.Name == name {
			return header.Value, true
		}
	}
	return "", false
}

// Apply adds the headers to dst in order
func (h Headers) Apply(dst http.Header) {
	for _, header := range h {
		dst.Add(header.Name, header.Value)
	}
}

// HeadersFromHTTP converts an http.Header. Names are emitted in sorted order
// and values keep their original order.
func HeadersFromHTTP(src http.Header) Headers {
	names := make([]string, 0, len(src))
	for name := range src {
		names = append(names, name)
	}
	sort.Strings(names)

	var out Headers
	for _, name := range names {
		for _, value := range src[name] {
			out = append(out, Header{Name: name, Value: value})
		}
	}
	return out
}
