package logging

import (
	"log/slog"
	"net/url"
)

// RedactedURL wraps a url.URL for logging without exposing sensitive information
type RedactedURL struct {
	url *url.URL
}

// LogValue implements slog.LogValuer to avoid revealing passwords
func (u RedactedURL) LogValue() slog.Value {
	if u.url == nil {
		return slog.StringValue("")
	}
	return slog.StringValue(u.url.Redacted())
}

// RedactURL returns a safely loggable URL value
func RedactURL(url *url.URL) RedactedURL {
	return RedactedURL{url: url}
}

// RedactedStringURL is a string containing a URL for safe logging
type RedactedStringURL string

// LogValue implements slog.LogValuer to avoid revealing passwords
func (s RedactedStringURL) LogValue() slog.Value {
	u, err := url.Parse(string(s))
	if err != nil {
		return slog.StringValue(string(s))
	}
	return slog.StringValue(u.Redacted())
}

// RedactStringURL returns a safely loggable URL string
func RedactStringURL(s string) slog.LogValuer {
	return RedactedStringURL(s)
}

// RedactedCredential is a signed credential value that must never be logged in full
type RedactedCredential string

// LogValue implements slog.LogValuer, keeping only a short prefix for correlation
func (s RedactedCredential) LogValue() slog.Value {
	const keep = 8
	if len(s) <= keep {
		return slog.StringValue("[redacted]")
	}
	return slog.StringValue(string(s[:keep]) + "...[redacted]")
}

// RedactCredential returns a safely loggable credential
func RedactCredential(s string) slog.LogValuer {
	return RedactedCredential(s)
}
