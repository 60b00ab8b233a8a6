package client

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/raphaelgruber/advocai-go/internal/metrics"
	"golang.org/x/oauth2"
)

// publicPaths never carry an Authorization header, whatever the stored token.
var publicPaths = []string{
	"/auth/signup/",
	"/auth/login/",
	"/auth/google/",
	"/auth/verify-otp/",
	"/auth/resend-otp/",
}

// IsPublic reports whether a request path is on the unauthenticated allow-list.
func IsPublic(path string) bool {
	for _, p := range publicPaths {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

// authTransport attaches the bearer token read at request time.
type authTransport struct {
	next   http.RoundTripper
	source oauth2.TokenSource
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Del("Authorization")

	if t.source != nil && !IsPublic(r.URL.Path) {
		// A missing token is not an error here; the backend answers 401.
		if tok, err := t.source.Token(); err == nil && tok != nil && tok.AccessToken != "" {
			tok.SetAuthHeader(r)
		}
	}
	return t.next.RoundTrip(r)
}

// maxPathLogLen is the maximum length for logged paths before truncation.
const maxPathLogLen = 200

// loggingTransport logs every request with timing and records it in the
// metrics collector. Slow requests are logged at WARN level.
type loggingTransport struct {
	next    http.RoundTripper
	logger  *slog.Logger
	metrics *metrics.Collector
	slow    time.Duration
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := t.next.RoundTrip(req)

	duration := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	attrs := []any{
		"method", req.Method,
		"path", truncate(req.URL.Path, maxPathLogLen),
		"status", status,
		"duration_ms", duration.Milliseconds(),
	}

	failed := err != nil || status >= 400
	switch {
	case err != nil:
		attrs = append(attrs, "error", err.Error())
		t.logger.Error("request failed", attrs...)
	case status >= 500:
		t.logger.Error("request failed", attrs...)
	case status >= 400:
		t.logger.Warn("request rejected", attrs...)
	case duration > t.slow:
		t.logger.Warn("slow request", attrs...)
	default:
		t.logger.Debug("request completed", attrs...)
	}

	if t.metrics != nil {
		t.metrics.RecordRequest(endpointKey(req), status, duration, failed)
	}

	return resp, err
}

// endpointKey groups requests by route, collapsing identifiers so that
// per-document calls share one metrics bucket.
func endpointKey(req *http.Request) string {
	segments := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	for i, s := range segments {
		if looksLikeID(s) {
			segments[i] = ":id"
		}
	}
	return req.Method + " " + strings.Join(segments, "/") + "/"
}

func looksLikeID(s string) bool {
	if s == "" {
		return false
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		} else if !(r >= 'a' && r <= 'f') && !(r >= 'A' && r <= 'F') && r != '-' {
			return false
		}
	}
	return digits > 0
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
