// Package api is the REST collaborator boundary: one method per backend
// endpoint, JSON in and out, failures classified as *Error.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"spinlog/internal/logging"
)

const defaultTimeout = 15 * time.Second

// TokenSource yields the current session token, or "" when signed out.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string { return f() }

// Client talks to the journaling backend.
type Client struct {
	rest   *resty.Client
	log    *logging.Logger
	tokens TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for per-request diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.log = logging.OrNop(l).With("api") }
}

// WithTokenSource attaches bearer tokens to every request.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.rest.SetTimeout(d) }
}

// WithHTTPClient routes requests through hc (httptest servers, custom transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		base := c.rest.BaseURL
		timeout := c.rest.GetClient().Timeout
		c.rest = newRest(resty.NewWithClient(hc), base)
		if hc.Timeout == 0 {
			c.rest.SetTimeout(timeout)
		}
	}
}

// New constructs a Client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		rest: newRest(resty.New(), baseURL).SetTimeout(defaultTimeout),
		log:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newRest(r *resty.Client, baseURL string) *resty.Client {
	return r.
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
}

type call struct {
	op         string // metrics label and error prefix, e.g. "review.save"
	method     string
	path       string // resty path template, e.g. "/review/{userId}"
	pathParams map[string]string
	query      map[string]string
	body       any
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do issues one request and returns the raw 2xx body.
func (c *Client) do(ctx context.Context, cl call) ([]byte, error) {
	requestID := uuid.NewString()
	ctx = logging.ContextWithRequestID(ctx, requestID)

	req := c.rest.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", requestID)
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.SetAuthToken(token)
		}
	}
	if len(cl.pathParams) > 0 {
		req.SetPathParams(cl.pathParams)
	}
	if len(cl.query) > 0 {
		req.SetQueryParams(cl.query)
	}
	if cl.body != nil {
		req.SetBody(cl.body)
	}

	start := time.Now()
	resp, err := req.Execute(cl.method, cl.path)
	elapsed := time.Since(start)
	requestDuration.WithLabelValues(cl.op).Observe(elapsed.Seconds())

	if err != nil {
		requestsTotal.WithLabelValues(cl.op, outcomeTransport).Inc()
		c.log.APICall(ctx, cl.method, cl.path, 0, elapsed, err)
		return nil, transportError(cl.op, err)
	}

	status := resp.StatusCode()
	c.log.APICall(ctx, cl.method, cl.path, status, elapsed, nil)

	if status < 200 || status > 299 {
		requestsTotal.WithLabelValues(cl.op, outcomeRejected).Inc()
		return nil, rejectedError(cl.op, status, serverMessage(resp.Body()))
	}

	requestsTotal.WithLabelValues(cl.op, outcomeOK).Inc()
	return resp.Body(), nil
}

// decodeList unmarshals a JSON array; null or empty bodies decode to an empty slice.
func decodeList[T any](ctx context.Context, c *Client, cl call) ([]T, error) {
	body, err := c.do(ctx, cl)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if isFalsy(body) {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, transportError(cl.op, fmt.Errorf("decode response: %w", err))
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// decodeOne accepts either an object or a single-element array (the backend
// returns inserted rows as arrays on some routes).
func decodeOne[T any](ctx context.Context, c *Client, cl call) (*T, error) {
	body, err := c.do(ctx, cl)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(body)
	if isFalsy(trimmed) {
		return nil, &Error{Kind: KindRejected, Op: cl.op, Err: ErrEmptyResponse}
	}
	if trimmed[0] == '[' {
		var rows []T
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, transportError(cl.op, fmt.Errorf("decode response: %w", err))
		}
		if len(rows) == 0 {
			return nil, &Error{Kind: KindRejected, Op: cl.op, Err: ErrEmptyResponse}
		}
		return &rows[0], nil
	}
	var row T
	if err := json.Unmarshal(trimmed, &row); err != nil {
		return nil, transportError(cl.op, fmt.Errorf("decode response: %w", err))
	}
	return &row, nil
}

func isFalsy(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	switch string(trimmed) {
	case "", "null", "false", `""`:
		return true
	default:
		return false
	}
}

func serverMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if eb.Error != "" {
		return eb.Error
	}
	return eb.Message
}
