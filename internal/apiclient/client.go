package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"stay-web/internal/session"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

// Client talks to the marketplace REST API.
// The bearer token comes from the session carried by each call's context.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A cookie jar is
// added to a copy of it when it has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		c.httpClient = &cp
	}
}

// WithTimeout sets the per-request timeout. It applies regardless of
// where it appears relative to WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates a client for the API at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", baseURL, err)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		c.httpClient.Timeout = c.timeout
	}

	// credentials: include
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.httpClient.Jar = jar
	}

	return c, nil
}

// call describes one outbound request
type call struct {
	op       string
	method   string
	path     string
	query    url.Values
	body     any
	fallback string
	// withStatus appends the HTTP status to the fallback message
	withStatus bool
	// public calls report 401 as an HTTPError and leave the token alone
	public bool
}

// errorBody is the backend's error envelope
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Request issues a JSON request to endpoint and decodes the response into out.
// out may be nil when the response body is not needed.
func (c *Client) Request(ctx context.Context, method, endpoint string, body, out any) error {
	return c.do(ctx, call{
		op:         strings.ToLower(method) + " " + endpoint,
		method:     method,
		path:       endpoint,
		body:       body,
		fallback:   "Request failed",
		withStatus: true,
	}, out)
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	var reader io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", cl.op, err)
		}
		reader = bytes.NewReader(data)
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", cl.op, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	sess := session.FromContext(ctx)
	if sess != nil {
		if token := sess.Token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observe(cl.method, 0, started)
		log.Debug().
			Err(err).
			Str("request_id", requestID).
			Str("method", cl.method).
			Str("path", cl.path).
			Msg("API request failed")
		return &NetworkError{Op: cl.op, Err: err}
	}
	defer resp.Body.Close()

	observe(cl.method, resp.StatusCode, started)
	log.Debug().
		Str("request_id", requestID).
		Str("method", cl.method).
		Str("path", cl.path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("API request")

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &NetworkError{Op: cl.op, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized && !cl.public {
		if sess != nil {
			if err := sess.Clear(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to clear session after 401")
			}
		}
		return fmt.Errorf("%s: %w", cl.op, ErrUnauthorized)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{Status: resp.StatusCode, Message: errorMessage(data, cl, resp.StatusCode)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ParseError{Op: cl.op, Err: err}
	}
	return nil
}

// errorMessage prefers the server's message and falls back to the call's own
func errorMessage(data []byte, cl call, status int) string {
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}

	if cl.withStatus {
		return fmt.Sprintf("%s (Status: %d)", cl.fallback, status)
	}
	return cl.fallback
}

// requireID rejects decoded records that carry no identity
func requireID(op, kind string, id int64) error {
	if id <= 0 {
		return &ParseError{Op: op, Err: fmt.Errorf("%s payload has no id", kind)}
	}
	return nil
}
