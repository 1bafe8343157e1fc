// Package items is the data access facade: a generic repository over the
// /items REST contract that folds every outcome into an Envelope.
package items

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/colladmin/internal/domain"
)

// DefaultTimeout is the single fixed per-request timeout.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is read into the message.
const maxErrorBody = 4 << 10

// TokenSource returns the bearer token for a request. An empty token sends
// no Authorization header.
type TokenSource func(ctx context.Context) (string, error)

// Option configures the Client.
type Option interface {
	apply(*Client)
}

type optionFunc func(*Client)

func (f optionFunc) apply(c *Client) { f(c) }

// WithTimeout overrides the fixed request timeout.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	})
}

// WithToken sends a static bearer token.
func WithToken(token string) Option {
	return optionFunc(func(c *Client) {
		c.tokens = func(context.Context) (string, error) { return token, nil }
	})
}

// WithTokenSource resolves the bearer token per request.
func WithTokenSource(ts TokenSource) Option {
	return optionFunc(func(c *Client) { c.tokens = ts })
}

// WithLogger enables structured logging of round trips.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *Client) {
		if l != nil {
			c.logger = l
		}
	})
}

// WithTransport replaces the HTTP transport, keeping the fixed timeout.
func WithTransport(rt http.RoundTripper) Option {
	return optionFunc(func(c *Client) { c.http.Transport = rt })
}

// Client performs single round trips against the backend.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenSource
	logger  *zap.Logger
}

// NewClient creates a Client for the backend rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o.apply(c)
	}
	return c, nil
}

// request describes one round trip.
type request struct {
	method string
	path   []string // escaped individually
	query  url.Values
	body   any
}

// dataEnvelope is the success body shape: {"data": ...}.
type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// errorBody covers {"error":{"code","message"}}, {"error":"..."} and {"message":"..."}.
type errorBody struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

// do executes the request and decodes the data member into out (nil skips decoding).
func (c *Client) do(ctx context.Context, req request, out any) *domain.TransportError {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return &domain.TransportError{Category: domain.CategoryClient, Message: err.Error()}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return domain.NewNetworkError(unwrapURLError(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.NewTransportError(resp.StatusCode, readErrorMessage(resp))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	var env dataEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &domain.TransportError{
			Category: domain.CategoryServer,
			Status:   resp.StatusCode,
			Message:  fmt.Sprintf("decode response: %v", err),
		}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &domain.TransportError{
			Category: domain.CategoryServer,
			Status:   resp.StatusCode,
			Message:  fmt.Sprintf("decode data: %v", err),
		}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req request) (*http.Request, error) {
	u := *c.baseURL
	segs := make([]string, len(req.path))
	for i, p := range req.path {
		segs[i] = url.PathEscape(p)
	}
	u.Path = c.baseURL.Path + "/" + strings.Join(req.path, "/")
	u.RawPath = c.baseURL.EscapedPath() + "/" + strings.Join(segs, "/")
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		buf, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve token: %w", err)
		}
		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return httpReq, nil
}

// readErrorMessage extracts the server message from an error response.
func readErrorMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	text := strings.TrimSpace(string(raw))

	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		var nested struct {
			Message string `json:"message"`
		}
		var flat string
		switch {
		case json.Unmarshal(eb.Error, &nested) == nil && nested.Message != "":
			return nested.Message
		case json.Unmarshal(eb.Error, &flat) == nil && flat != "":
			return flat
		case eb.Message != "":
			return eb.Message
		}
	}
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}

// unwrapURLError drops the "Get \"...\":" prefix net/http adds.
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
