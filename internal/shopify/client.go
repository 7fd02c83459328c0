// Package shopify is a minimal Admin GraphQL client covering the product,
// file, metafield and metaobject operations an import run needs.
package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/agentstation/pimsync/internal/transport"
	"github.com/agentstation/pimsync/internal/wait"
	"github.com/agentstation/pimsync/pkg/constants"
	"github.com/agentstation/pimsync/pkg/errors"
	"github.com/agentstation/pimsync/pkg/logging"
)

// DefaultAPIVersion is the Admin API version used when none is configured.
const DefaultAPIVersion = "2024-10"

// maxThrottleRetries bounds how often a THROTTLED request is replayed.
const maxThrottleRetries = 3

// Config identifies the store.
type Config struct {
	Store       string // "my-shop" or "my-shop.myshopify.com"
	AccessToken string
	APIVersion  string
	// Endpoint overrides the URL derived from Store, for tests.
	Endpoint string
}

// Client executes GraphQL operations against one store.
type Client struct {
	http         *transport.Client
	endpoint     string
	sleep        wait.Func
	minAvailable float64
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the HTTP transport.
func WithTransport(t *transport.Client) Option {
	return func(c *Client) {
		if t != nil {
			c.http = t
		}
	}
}

// WithSleep replaces the throttle wait function.
func WithSleep(f wait.Func) Option {
	return func(c *Client) {
		if f != nil {
			c.sleep = f
		}
	}
}

// WithMinAvailable sets the cost-point floor under which the client waits
// for the bucket to refill.
func WithMinAvailable(points float64) Option {
	return func(c *Client) {
		c.minAvailable = points
	}
}

// New creates a client.
func New(cfg Config, opts ...Option) (*Client, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		store := strings.TrimSpace(cfg.Store)
		if store == "" {
			return nil, &errors.ConfigError{Component: "shopify", Message: "store is required"}
		}
		store = strings.TrimPrefix(strings.TrimPrefix(store, "https://"), "http://")
		store = strings.TrimSuffix(store, "/")
		if !strings.Contains(store, ".") {
			store += ".myshopify.com"
		}
		version := cfg.APIVersion
		if version == "" {
			version = DefaultAPIVersion
		}
		endpoint = fmt.Sprintf("https://%s/admin/api/%s/graphql.json", store, version)
	}
	if cfg.AccessToken == "" {
		return nil, &errors.ConfigError{Component: "shopify", Message: "access token is required"}
	}

	c := &Client{
		http:         transport.New("shopify", transport.ShopifyAuth(), transport.WithSecret(cfg.AccessToken)),
		endpoint:     endpoint,
		sleep:        wait.Sleep,
		minAvailable: constants.ThrottleMinAvailable,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the GraphQL URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type response struct {
	Data       json.RawMessage `json:"data"`
	Errors     []gqlError      `json:"errors,omitempty"`
	Extensions *extensions     `json:"extensions,omitempty"`
}

type gqlError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e gqlError) code() string {
	if s, ok := e.Extensions["code"].(string); ok {
		return s
	}
	return ""
}

type extensions struct {
	Cost *struct {
		RequestedQueryCost float64        `json:"requestedQueryCost"`
		ThrottleStatus     ThrottleStatus `json:"throttleStatus"`
	} `json:"cost,omitempty"`
}

// ThrottleStatus is the leaky-bucket state reported with every response.
type ThrottleStatus struct {
	MaximumAvailable   float64 `json:"maximumAvailable"`
	CurrentlyAvailable float64 `json:"currentlyAvailable"`
	RestoreRate        float64 `json:"restoreRate"`
}

// refillDelay is how long the bucket needs to get back to floor points.
func (t ThrottleStatus) refillDelay(floor float64) time.Duration {
	if t.RestoreRate <= 0 || t.CurrentlyAvailable >= floor {
		return 0
	}
	seconds := math.Ceil((floor - t.CurrentlyAvailable) / t.RestoreRate)
	return time.Duration(seconds) * time.Second
}

// Do executes one GraphQL operation and decodes its data into out.
// Top-level GraphQL errors become *errors.APIError; THROTTLED responses
// are replayed after the bucket refills.
func (c *Client) Do(ctx context.Context, query string, vars map[string]any, out any) error {
	op := operationName(query)
	for attempt := 0; ; attempt++ {
		resp, err := c.http.PostJSON(ctx, c.endpoint, request{Query: query, Variables: vars})
		if err != nil {
			return err
		}
		var body response
		if err := transport.DecodeResponse(resp, "shopify", &body); err != nil {
			return err
		}

		throttled := false
		if len(body.Errors) > 0 {
			msgs := make([]string, 0, len(body.Errors))
			for _, e := range body.Errors {
				if e.code() == "THROTTLED" {
					throttled = true
				}
				msgs = append(msgs, e.Message)
			}
			if !throttled || attempt >= maxThrottleRetries {
				status := 0
				if throttled {
					status = 429
				}
				return &errors.APIError{Service: "shopify", StatusCode: status, Endpoint: op, Message: strings.Join(msgs, "; ")}
			}
		}

		if err := c.respectThrottle(ctx, op, body.Extensions, throttled); err != nil {
			return err
		}
		if throttled {
			continue
		}

		if out == nil || len(body.Data) == 0 {
			return nil
		}
		if err := json.Unmarshal(body.Data, out); err != nil {
			return errors.WrapParse("json", op+" response", err)
		}
		return nil
	}
}

func (c *Client) respectThrottle(ctx context.Context, op string, ext *extensions, throttled bool) error {
	if ext == nil || ext.Cost == nil {
		if throttled {
			return c.sleep(ctx, time.Second)
		}
		return nil
	}
	ts := ext.Cost.ThrottleStatus
	floor := c.minAvailable
	if throttled && ext.Cost.RequestedQueryCost > floor {
		floor = ext.Cost.RequestedQueryCost
	}
	delay := ts.refillDelay(floor)
	if delay == 0 && throttled {
		delay = time.Second
	}
	if delay == 0 {
		return nil
	}
	logging.FromContext(ctx).Debug().
		Str("operation", op).
		Float64("available", ts.CurrentlyAvailable).
		Float64("restore_rate", ts.RestoreRate).
		Dur("delay", delay).
		Msg("waiting for Shopify rate limit bucket")
	return c.sleep(ctx, delay)
}

// operationName extracts "productCreate" from "mutation productCreate(...)".
func operationName(query string) string {
	fields := strings.Fields(query)
	if len(fields) < 2 || (fields[0] != "query" && fields[0] != "mutation") {
		return "graphql"
	}
	name := fields[1]
	if i := strings.IndexAny(name, "({"); i >= 0 {
		name = name[:i]
	}
	return name
}
