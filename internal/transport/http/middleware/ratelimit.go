package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"

	"agencyops/internal/transport/http/api"
)

// LoginRateLimit throttles credential endpoints per client IP and per
// submitted email, so one address cannot be brute forced from many IPs.
func LoginRateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	onLimit := func(w http.ResponseWriter, r *http.Request) {
		slog.Warn("rate limit exceeded", "path", r.URL.Path, "method", r.Method, "limit", limit)
		api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	}
	byIP := httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		httprate.WithLimitHandler(onLimit),
	)
	byEmail := httprate.Limit(limit, window,
		httprate.WithKeyFuncs(emailKey("email"), httprate.KeyByEndpoint),
		httprate.WithLimitHandler(onLimit),
	)
	return func(next http.Handler) http.Handler {
		return byIP(byEmail(next))
	}
}

func emailKey(field string) httprate.KeyFunc {
	return func(r *http.Request) (string, error) {
		email := extractJSONField(r, field)
		if email == "" {
			return httprate.KeyByIP(r)
		}
		return "email:" + strings.ToLower(email), nil
	}
}

func extractJSONField(r *http.Request, field string) string {
	if r == nil || r.Body == nil {
		return ""
	}
	if !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	payload := map[string]any{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	value, _ := payload[field].(string)
	return strings.TrimSpace(value)
}
