// Package upstream provides the single-shot HTTP GET primitive shared by the
// third-party lookup adapters. It classifies every outcome into either a
// Response or a *FetchError and never retries.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultTimeout bounds a single upstream call, including the body read.
	DefaultTimeout = 15 * time.Second
	// DefaultMaxBodyBytes caps how much of a response body is buffered.
	DefaultMaxBodyBytes int64 = 5 << 20

	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	acceptHeader   = "application/json, text/plain, */*"
	acceptLanguage = "en-US,en;q=0.9"
)

// ErrNotJSON is returned by Response.Decode when the upstream sent plain text.
var ErrNotJSON = errors.New("upstream: body is not JSON")

// Kind classifies a failed fetch.
type Kind string

const (
	KindTransport  Kind = "transport"
	KindTimeout    Kind = "timeout"
	KindHTTPStatus Kind = "http_status"
)

// FetchError describes why an upstream call produced no usable body.
type FetchError struct {
	Kind       Kind
	URL        string
	StatusCode int    // set for KindHTTPStatus
	Body       string // set for KindHTTPStatus
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindTimeout:
		return "upstream: request timeout"
	case KindHTTPStatus:
		return fmt.Sprintf("upstream: HTTP %d: %s", e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("upstream: transport: %v", e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Response is a successful (2xx) upstream body. Exactly one of JSON or Raw is
// meaningful: Raw is only populated when the body failed to parse as JSON.
type Response struct {
	StatusCode int
	JSON       json.RawMessage
	Raw        string
}

// IsRaw reports whether the body was carried as plain text.
func (r Response) IsRaw() bool { return r.JSON == nil }

// Decode unmarshals the JSON body into v.
func (r Response) Decode(v any) error {
	if r.IsRaw() {
		return ErrNotJSON
	}
	if err := json.Unmarshal(r.JSON, v); err != nil {
		return fmt.Errorf("upstream: decode body: %w", err)
	}
	return nil
}

// Client issues GET requests with a per-call timeout.
type Client struct {
	httpClient   *http.Client
	timeout      time.Duration
	maxBodyBytes int64
	logger       logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// NewClient constructs a Client. A nil httpClient uses http.DefaultClient.
func NewClient(httpClient *http.Client, logger logrus.FieldLogger, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	c := &Client{
		httpClient:   httpClient,
		timeout:      DefaultTimeout,
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Timeout returns the per-call timeout in effect.
func (c *Client) Timeout() time.Duration { return c.timeout }

// FetchJSON performs one GET against url. Any error it returns is a *FetchError.
func (c *Client) FetchJSON(ctx context.Context, url string) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	log := c.logger.WithField("url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, &FetchError{Kind: KindTransport, URL: url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL built by adapters from configured base URLs
	if err != nil {
		return Response{}, c.classify(ctx, url, err, log)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return Response{}, c.classify(ctx, url, err, log)
	}
	if int64(len(body)) > c.maxBodyBytes {
		err := fmt.Errorf("body exceeds %d bytes", c.maxBodyBytes)
		log.WithError(err).Warn("upstream response too large")
		return Response{}, &FetchError{Kind: KindTransport, URL: url, Err: err}
	}

	log.WithFields(logrus.Fields{
		"status": resp.StatusCode,
		"bytes":  len(body),
	}).Debug("upstream response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, &FetchError{
			Kind:       KindHTTPStatus,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	if !json.Valid(body) {
		log.Debug("upstream body is not JSON, returning raw text")
		return Response{StatusCode: resp.StatusCode, Raw: string(body)}, nil
	}
	return Response{StatusCode: resp.StatusCode, JSON: json.RawMessage(body)}, nil
}

func (c *Client) classify(ctx context.Context, url string, err error, log logrus.FieldLogger) *FetchError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		log.Warn("upstream request timeout")
		return &FetchError{Kind: KindTimeout, URL: url, Err: context.DeadlineExceeded}
	}
	log.WithError(err).Warn("upstream request error")
	return &FetchError{Kind: KindTransport, URL: url, Err: err}
}
