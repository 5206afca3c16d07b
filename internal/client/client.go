// Package client is the caller side of the gateway: it posts prompt payloads,
// decodes streamed or complete responses and surfaces failures as *model.Error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/amishk599/screener/internal/normalize"
	"github.com/amishk599/screener/internal/prompt"
	"github.com/amishk599/screener/internal/stream"
)

const (
	routeGenerate = "/api/proxy"
	routeStream   = "/api/proxy/stream"
)

// Caller sends one prompt request through the gateway and returns the model's text.
type Caller interface {
	Call(ctx context.Context, req prompt.Request) (string, error)
}

// Client talks HTTP to a gateway.
type Client struct {
	baseURL    string
	http       *http.Client
	decoder    *stream.Decoder
	onFragment func(string)
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithFragmentHandler registers fn to receive streamed text as it arrives.
func WithFragmentHandler(fn func(string)) Option {
	return func(c *Client) {
		c.onFragment = fn
	}
}

// New creates a Client for the gateway at gatewayURL. httpClient should not
// set a Timeout; cancel through the context instead.
func New(gatewayURL string, httpClient *http.Client, decoder *stream.Decoder, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(gatewayURL, "/"),
		http:    httpClient,
		decoder: decoder,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call posts req to the generate or stream route, chosen by req.Stream.
func (c *Client) Call(ctx context.Context, req prompt.Request) (string, error) {
	body, err := json.Marshal(req.Payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	route := routeGenerate
	if req.Stream {
		route = routeStream
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("calling gateway", "route", route, "payload_bytes", len(body))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", normalize.Transport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e := normalize.ErrorFromResponse(resp)
		c.logger.Debug("gateway returned error", "status", resp.StatusCode, "message", e.Message)
		return "", e
	}

	if req.Stream {
		text, err := c.decoder.DecodeFunc(ctx, resp.Body, c.onFragment)
		if err != nil {
			return text, normalize.Transport(err)
		}
		return text, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", normalize.Transport(fmt.Errorf("read gateway response: %w", err))
	}
	return normalize.TextFromGenerate(raw)
}
