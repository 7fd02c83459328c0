package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/agentstation/pimsync/pkg/constants"
	"github.com/agentstation/pimsync/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// Client provides HTTP client functionality with authentication.
type Client struct {
	http    *http.Client
	auth    Authenticator
	secret  string
	service string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithSecret sets the credential handed to the authenticator.
func WithSecret(secret string) Option {
	return func(c *Client) {
		c.secret = secret
	}
}

// New creates a new transport client for service with the specified authenticator.
func New(service string, auth Authenticator, opts ...Option) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	c := &Client{
		http:    &http.Client{Timeout: DefaultHTTPTimeout},
		auth:    auth,
		service: service,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Service returns the name used in errors raised by this client.
func (c *Client) Service() string {
	return c.service
}

// DoWithContext performs an HTTP request with authentication applied.
// Transport failures come back as *errors.APIError with status 0 so
// callers can classify them with errors.IsTransient.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if c.secret != "" {
		c.auth.Apply(req, c.secret)
	}

	req.Header.Set("Accept", "application/json")
	if req.Method == http.MethodPost || req.Method == http.MethodPut || req.Method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		apiErr := errors.WrapAPI(c.service, 0, err).(*errors.APIError)
		apiErr.Endpoint = req.URL.String()
		return nil, apiErr
	}
	return resp, nil
}

// PostJSON marshals body and POSTs it to url.
func (c *Client) PostJSON(ctx context.Context, url string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.WrapParse("json", "request body", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.WrapResource("create", "request", "POST "+url, err)
	}
	return c.DoWithContext(ctx, req)
}
