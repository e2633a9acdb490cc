package branding

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// DefaultProbeTimeout bounds one logo URL check.
const DefaultProbeTimeout = 5 * time.Second

// URLProber reports whether a remote URL answers.
type URLProber interface {
	Accessible(ctx context.Context, rawURL string) bool
}

// HTTPProber checks URLs with a HEAD request.
type HTTPProber struct {
	client *http.Client
	logger *zap.Logger
}

// NewHTTPProber creates a prober whose requests give up after timeout.
func NewHTTPProber(timeout time.Duration, logger *zap.Logger) *HTTPProber {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPProber{client: &http.Client{Timeout: timeout}, logger: logger}
}

// Accessible is true when rawURL is http(s) and answers HEAD with 2xx or 3xx.
func (p *HTTPProber) Accessible(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("logo url check failed", zap.String("url", rawURL), zap.Error(err))
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 400
}
