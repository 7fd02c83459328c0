// Package pimrpc fetches style and variant data from the PIM's JSON-RPC
// endpoint. The PIM is split into logical partitions (databases); a style
// lives in exactly one of them, so every fetch probes partitions in order
// until one yields records.
package pimrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/agentstation/pimsync/internal/transport"
	"github.com/agentstation/pimsync/internal/wait"
	"github.com/agentstation/pimsync/pkg/constants"
	"github.com/agentstation/pimsync/pkg/errors"
	"github.com/agentstation/pimsync/pkg/logging"
	"github.com/agentstation/pimsync/pkg/pim"
)

// Config locates and authenticates against the PIM.
type Config struct {
	URL        string
	Partitions []string
	User       string
	Password   string
	Language   string
}

// Client is the PIM source connector.
type Client struct {
	cfg         Config
	http        *transport.Client
	sleep       wait.Func
	maxAttempts int
	retryBase   time.Duration
	nextID      atomic.Int64
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

// WithSleep replaces the function used to wait between probe rounds.
func WithSleep(f wait.Func) Option {
	return func(c *Client) {
		if f != nil {
			c.sleep = f
		}
	}
}

// WithRetry sets how many probe rounds run and the base delay between
// them. Round n waits n*base before the next one.
func WithRetry(attempts int, base time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.maxAttempts = attempts
		}
		c.retryBase = base
	}
}

// New creates a connector.
func New(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, &errors.ConfigError{Component: "pim", Message: "url is required"}
	}
	if len(cfg.Partitions) == 0 {
		return nil, &errors.ConfigError{Component: "pim", Message: "at least one partition is required"}
	}
	c := &Client{
		cfg:         cfg,
		http:        transport.New("pim", &transport.NoAuth{}),
		sleep:       wait.Sleep,
		maxAttempts: constants.SourceMaxAttempts,
		retryBase:   constants.SourceRetryBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Partitions returns the partitions in probe order.
func (c *Client) Partitions() []string {
	return append([]string(nil), c.cfg.Partitions...)
}

// FetchStyle returns the groups for one style code. Flat responses are
// grouped here so callers always see style-shaped data.
func (c *Client) FetchStyle(ctx context.Context, styleID string) ([]pim.ProductGroup, error) {
	styleID = strings.TrimSpace(styleID)
	if styleID == "" {
		return nil, errors.NewValidationError("style_id", styleID, "style code is required")
	}
	payload, err := c.probe(ctx, styleID)
	if err != nil {
		return nil, err
	}
	groups := payload.StyleGroups()
	if len(groups) == 0 {
		return nil, &errors.SourceUnavailableError{StyleID: styleID, Partitions: c.cfg.Partitions, Attempts: 1,
			Err: fmt.Errorf("no record carries a style code")}
	}
	return groups, nil
}

// FetchAll returns every variant record of the first partition that has any.
func (c *Client) FetchAll(ctx context.Context) ([]pim.SourceVariantRecord, error) {
	payload, err := c.probe(ctx, "")
	if err != nil {
		return nil, err
	}
	return payload.Records, nil
}

// probe walks the partitions in order, retrying the whole walk when a
// partition failed for a transient reason.
func (c *Client) probe(ctx context.Context, styleID string) (*pim.Payload, error) {
	logger := logging.FromContext(ctx)
	var lastErr error
	attempt := 0
	for attempt < c.maxAttempts {
		attempt++
		transient := false
		for _, partition := range c.cfg.Partitions {
			payload, err := c.call(ctx, partition, styleID)
			if err == nil {
				logger.Debug().
					Str("partition", partition).
					Int("records", len(payload.Records)).
					Bool("flat", payload.Flat).
					Msg("PIM partition yielded data")
				return payload, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if errors.IsTransient(err) {
				transient = true
			}
			logger.Debug().Err(err).Str("partition", partition).Int("attempt", attempt).Msg("PIM partition rejected")
		}
		if !transient || attempt >= c.maxAttempts {
			break
		}
		delay := time.Duration(attempt) * c.retryBase
		logger.Warn().Err(lastErr).Int("attempt", attempt).Dur("delay", delay).Msg("PIM unreachable, retrying partitions")
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, &errors.SourceUnavailableError{
		StyleID:    styleID,
		Partitions: c.cfg.Partitions,
		Attempts:   attempt,
		Err:        lastErr,
	}
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int64     `json:"id"`
}

type rpcParams struct {
	DBName       string `json:"db_name"`
	User         string `json:"user"`
	Password     string `json:"password"`
	StyleCode    string `json:"StyleCode,omitempty"`
	LanguageCode string `json:"LanguageCode,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// call queries one partition. Any error means the partition is rejected.
func (c *Client) call(ctx context.Context, partition, styleID string) (*pim.Payload, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		ID:      c.nextID.Add(1),
		Params: rpcParams{
			DBName:       partition,
			User:         c.cfg.User,
			Password:     c.cfg.Password,
			StyleCode:    styleID,
			LanguageCode: c.cfg.Language,
		},
	}

	resp, err := c.http.PostJSON(ctx, c.cfg.URL, req)
	if err != nil {
		return nil, err
	}
	body, err := transport.ReadBody(resp, "pim")
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.NewAPIError("pim", resp.StatusCode, "empty response")
	}

	var envelope rpcResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errors.WrapParse("json", "pim envelope", err)
	}
	if envelope.Error != nil {
		return nil, &errors.APIError{Service: "pim", Endpoint: partition,
			Message: fmt.Sprintf("rpc error %d: %s", envelope.Error.Code, envelope.Error.Message)}
	}

	payload, err := unwrapResult(envelope.Result)
	if err != nil {
		return nil, err
	}
	return pim.Decode(payload)
}

// unwrapResult returns the JSON document carried by result, which the PIM
// encodes as a JSON string holding JSON.
func unwrapResult(result json.RawMessage) ([]byte, error) {
	trimmed := bytes.TrimSpace(result)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, errors.NewParseError("json", "pim result", "result is empty", nil)
	}
	if trimmed[0] != '"' {
		return trimmed, nil
	}
	var inner string
	if err := json.Unmarshal(trimmed, &inner); err != nil {
		return nil, errors.WrapParse("json", "pim result", err)
	}
	if strings.TrimSpace(inner) == "" {
		return nil, errors.NewParseError("json", "pim result", "result is empty", nil)
	}
	return []byte(inner), nil
}
