package colladmin

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	token       string
	tokenSource func(ctx context.Context) (string, error)
	timeout     time.Duration
	transport   http.RoundTripper

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithToken sends a static bearer token on every request.
func WithToken(token string) Option {
	return optionFunc(func(c *clientConfig) {
		c.token = token
	})
}

// WithTokenSource resolves the bearer token per request, e.g. from a
// session layer that refreshes it.
func WithTokenSource(fn func(ctx context.Context) (string, error)) Option {
	return optionFunc(func(c *clientConfig) {
		c.tokenSource = fn
	})
}

// WithTimeout sets the single per-request timeout. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithHTTPTransport replaces the HTTP transport.
func WithHTTPTransport(rt http.RoundTripper) Option {
	return optionFunc(func(c *clientConfig) {
		c.transport = rt
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
