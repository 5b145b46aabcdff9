// Package apiclient is the thin request wrapper around the remote REST API.
package apiclient

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
	"sync"
	"time"

	"snapfeed/internal/models"
	"snapfeed/internal/observability"

	"github.com/google/uuid"
)

const maxBodyBytes = 10 << 20

// TokenSource supplies the bearer token for each request. An empty token sends no Authorization header.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string { return f() }

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Tokens     TokenSource
	Logger     *observability.Logger
}

// Client issues JSON and multipart requests against the API base URL.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     *observability.APILogger

	mu             sync.RWMutex
	onUnauthorized func()
}

// Request describes one API call.
type Request struct {
	Method string
	// Route is the path template, e.g. /posts/:id/comments. It also labels metrics and spans.
	Route string
	// Params replace the :segments of Route in order.
	Params []string
	Query  url.Values
	// Body is JSON-encoded when non-nil.
	Body any
	// Form is sent as multipart/form-data and takes precedence over Body.
	Form *Form
}

// New returns a Client. A zero Timeout means 30 seconds.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	tokens := opts.Tokens
	if tokens == nil {
		tokens = TokenFunc(func() string { return "" })
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    hc,
		tokens:  tokens,
		log:     observability.NewAPILogger(opts.Logger),
	}
}

// BaseURL returns the configured API base.
func (c *Client) BaseURL() string { return c.baseURL }

// SetOnUnauthorized registers fn to run whenever the API answers 401.
func (c *Client) SetOnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// Get issues a GET for route.
func (c *Client) Get(ctx context.Context, route string, query url.Values, params ...string) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Route: route, Params: params, Query: query})
}

// Post issues a JSON POST for route. body may be nil.
func (c *Client) Post(ctx context.Context, route string, body any, params ...string) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Route: route, Params: params, Body: body})
}

// Patch issues a JSON PATCH for route.
func (c *Client) Patch(ctx context.Context, route string, body any, params ...string) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, Route: route, Params: params, Body: body})
}

// Delete issues a DELETE for route.
func (c *Client) Delete(ctx context.Context, route string, params ...string) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Route: route, Params: params})
}

// Upload sends form as multipart with the given method.
func (c *Client) Upload(ctx context.Context, method, route string, form *Form, params ...string) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: method, Route: route, Params: params, Form: form})
}

// Do sends req and returns the raw JSON body of a 2xx response. Empty bodies return nil.
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	path, err := BuildPath(req.Route, req.Params...)
	if err != nil {
		return nil, err
	}
	target := c.baseURL + path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	ctx, _ = observability.EnsureCorrelationID(ctx)
	requestID := uuid.NewString()
	span, ctx := observability.TraceAPICall(ctx, req.Method, req.Route, requestID)
	defer span.End()

	body, contentType, err := encodeBody(req)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", req.Method, req.Route, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if token := c.tokens.Token(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	httpReq.Header.Set("X-Request-ID", requestID)
	observability.InjectHeaders(ctx, httpReq.Header)

	c.log.LogRequest(ctx, req.Method, target)
	start := time.Now()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		observability.ObserveRequest(req.Method, req.Route, 0, start)
		c.log.LogError(ctx, req.Method, target, span.TraceID(), err)
		span.SetError(err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, models.NewNetworkError(err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	observability.ObserveRequest(req.Method, req.Route, resp.StatusCode, start)
	c.log.LogResponse(ctx, req.Method, target, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		appErr := models.NewHTTPError(resp.StatusCode, errorMessage(raw))
		span.RecordStatus(resp.StatusCode, appErr.Message)
		if resp.StatusCode == http.StatusUnauthorized {
			c.fireUnauthorized()
		}
		return nil, appErr
	}
	if readErr != nil {
		return nil, models.NewNetworkError(readErr)
	}

	span.RecordStatus(resp.StatusCode, "")

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, models.NewDecodeError(fmt.Errorf("%s %s returned non-JSON body", req.Method, req.Route))
	}
	return json.RawMessage(raw), nil
}

func (c *Client) fireUnauthorized() {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func encodeBody(req Request) (io.Reader, string, error) {
	if req.Form != nil {
		return req.Form.encode()
	}
	if req.Body == nil {
		return nil, "", nil
	}
	b, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", fmt.Errorf("encoding %s %s body: %w", req.Method, req.Route, err)
	}
	return bytes.NewReader(b), "application/json", nil
}

// BuildPath substitutes params into the :segments of route, escaping each one.
func BuildPath(route string, params ...string) (string, error) {
	if !strings.HasPrefix(route, "/") {
		return "", models.NewValidationError("route must start with /: " + route)
	}
	segments := strings.Split(route, "/")
	next := 0
	for i, seg := range segments {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		if next >= len(params) {
			return "", models.NewValidationError("missing value for " + seg + " in " + route)
		}
		if strings.TrimSpace(params[next]) == "" {
			return "", models.NewValidationError("empty value for " + seg + " in " + route)
		}
		segments[i] = url.PathEscape(params[next])
		next++
	}
	if next != len(params) {
		return "", models.NewValidationError("too many parameters for " + route)
	}
	return strings.Join(segments, "/"), nil
}

// errorMessage pulls message, then error, from an error body.
func errorMessage(raw []byte) string {
	var body struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	for _, field := range []json.RawMessage{body.Message, body.Error} {
		var s string
		if len(field) > 0 && json.Unmarshal(field, &s) == nil && strings.TrimSpace(s) != "" {
			return s
		}
		var nested struct {
			Message string `json:"message"`
		}
		if len(field) > 0 && json.Unmarshal(field, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
	}
	return ""
}

// IsUnauthorized reports whether err came from a 401.
func IsUnauthorized(err error) bool {
	return models.HasCode(err, models.CodeUnauthorized)
}

// IsNotFound reports whether err came from a 404.
func IsNotFound(err error) bool {
	return models.HasCode(err, models.CodeNotFound)
}

// IsCanceled reports whether err is a context cancellation or deadline.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
