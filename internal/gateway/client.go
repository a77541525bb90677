package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go.withmatt.com/crmmail/internal/cache"
	"go.withmatt.com/crmmail/internal/log"
)

const (
	DefaultTimeout = 30 * time.Second
	DefaultRetries = 3

	maxBackoff = 30 * time.Second
)

// Client talks to the mail gateway. It adds the API key and client version
// headers to every call and turns every response into either a Response or
// one of the package's error types.
type Client struct {
	baseURL       string
	apiKey        string
	clientVersion string
	httpClient    *http.Client
	cache         *cache.RequestCache
	timeout       time.Duration
	retries       int
	backoff       time.Duration
	logger        logrus.FieldLogger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCache enables response caching for calls that ask for it.
func WithCache(rc *cache.RequestCache) Option {
	return func(c *Client) { c.cache = rc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetries sets how many extra attempts idempotent calls get.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithBackoff sets the first retry delay; later ones double it.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

func WithClientVersion(v string) Option {
	return func(c *Client) { c.clientVersion = v }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.logger = l }
}

func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		clientVersion: "crmmail/dev",
		httpClient:    &http.Client{},
		timeout:       DefaultTimeout,
		retries:       DefaultRetries,
		backoff:       time.Second,
		logger:        log.Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CallOptions tune a single call.
type CallOptions struct {
	// Timeout overrides the client timeout when positive.
	Timeout time.Duration
	// Retries overrides the client retry count when positive; negative
	// disables retries. Only idempotent calls are ever retried.
	Retries int
	// UseCache serves fresh cached responses and caches successful ones.
	UseCache bool
	// Idempotent marks reads that are safe to repeat.
	Idempotent bool
}

// Response is a normalized successful reply. Fields holds every top-level
// member of the JSON body.
type Response struct {
	Success bool
	Fields  map[string]json.RawMessage
	Cached  bool
}

// Has reports whether the server sent field.
func (r *Response) Has(field string) bool {
	_, ok := r.Fields[field]
	return ok
}

// Decode unmarshals one top-level field into v.
func (r *Response) Decode(field string, v any) error {
	raw, ok := r.Fields[field]
	if !ok {
		return fmt.Errorf("gateway response missing %q", field)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding %q: %w", field, err)
	}
	return nil
}

// identified is implemented by payloads carrying credentials. The cache is
// keyed on the identity instead of the raw payload.
type identified interface {
	cacheIdentity() any
}

func cacheIdentity(payload any) any {
	if p, ok := payload.(identified); ok {
		return p.cacheIdentity()
	}
	return payload
}

// Call posts payload to endpoint.
func (c *Client) Call(
	ctx context.Context,
	endpoint string,
	payload any,
	opts CallOptions,
) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request for %s: %w", endpoint, err)
	}

	var cacheKey string
	if opts.UseCache && c.cache != nil {
		cacheKey, err = cache.Key(endpoint, cacheIdentity(payload))
		if err != nil {
			return nil, err
		}
		if entry, ok := c.cache.Get(cacheKey); ok {
			resp, err := parseResponse(endpoint, http.StatusOK, entry.Data)
			if err == nil {
				resp.Cached = true
				return resp, nil
			}
			c.cache.Delete(cacheKey)
		}
	}

	timeout := c.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	attempts := 1
	if opts.Idempotent {
		switch {
		case opts.Retries > 0:
			attempts += opts.Retries
		case opts.Retries == 0:
			attempts += c.retries
		}
	}

	var lastErr error
	for attempt := range attempts {
		if attempt > 0 {
			wait := backoffFor(c.backoff, attempt-1)
			c.logger.WithFields(logrus.Fields{
				"endpoint": endpoint,
				"attempt":  attempt + 1,
				"wait":     wait,
			}).Debug("retrying gateway call")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		raw, resp, err := c.do(ctx, endpoint, body, timeout)
		if err == nil {
			if cacheKey != "" {
				c.cache.Set(cacheKey, raw)
			}
			return resp, nil
		}
		lastErr = err
		if !retryable(ctx, err) {
			return nil, err
		}
	}

	return nil, lastErr
}

// Invalidate drops cached responses for endpoint.
func (c *Client) Invalidate(endpoint string) {
	if c.cache == nil {
		return
	}
	if n := c.cache.DeletePrefix(endpoint); n > 0 {
		c.logger.WithFields(logrus.Fields{"endpoint": endpoint, "entries": n}).
			Debug("invalidated cached responses")
	}
}

func (c *Client) do(
	ctx context.Context,
	endpoint string,
	body []byte,
	timeout time.Duration,
) ([]byte, *Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(
		callCtx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("X-Client-Version", c.clientVersion)
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, c.transportError(ctx, callCtx, endpoint, timeout, err)
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, nil, c.transportError(ctx, callCtx, endpoint, timeout, err)
	}

	c.logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"status":   resp.StatusCode,
		"elapsed":  time.Since(start),
	}).Debug("gateway call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, &Error{
			Status:   resp.StatusCode,
			Endpoint: endpoint,
			Message:  errorMessage(raw),
		}
	}

	parsed, err := parseResponse(endpoint, resp.StatusCode, raw)
	if err != nil {
		return nil, nil, err
	}
	return raw, parsed, nil
}

func (c *Client) transportError(
	parent, callCtx context.Context,
	endpoint string,
	timeout time.Duration,
	err error,
) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Endpoint: endpoint, After: timeout}
	}
	return fmt.Errorf("calling gateway %s: %w", endpoint, err)
}

func parseResponse(endpoint string, status int, raw []byte) (*Response, error) {
	fields := make(map[string]json.RawMessage)
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("decoding response from %s: %w", endpoint, err)
		}
	}

	success := true
	if rawSuccess, ok := fields["success"]; ok {
		if err := json.Unmarshal(rawSuccess, &success); err != nil {
			return nil, fmt.Errorf("decoding success flag from %s: %w", endpoint, err)
		}
	}
	if !success {
		return nil, &Error{Status: status, Endpoint: endpoint, Message: errorMessage(raw)}
	}
	return &Response{Success: true, Fields: fields}, nil
}

func errorMessage(raw []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || IsTimeout(err) {
		return false
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Temporary()
	}
	return true
}

// backoffFor doubles base per attempt: base, 2*base, 4*base, ...
func backoffFor(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	d := base << uint(attempt)
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}
	return d
}
