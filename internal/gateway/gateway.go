// Package gateway is the server-side boundary between callers and the
// upstream model API. It holds the credential; callers never see it.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/amishk599/screener/internal/model"
)

const (
	// RouteGenerate relays one complete generate response.
	RouteGenerate = "/api/proxy"
	// RouteStream relays a streamed generate response as it arrives.
	RouteStream = "/api/proxy/stream"

	defaultMaxBodyBytes = 10 << 20
	redacted            = "[REDACTED]"
)

// Config is everything the gateway needs from process configuration. It is
// built once at startup; request handling reads nothing else.
type Config struct {
	APIKey       string
	BaseURL      string // e.g. https://generativelanguage.googleapis.com/v1beta
	Model        string // e.g. gemini-2.5-flash
	MaxBodyBytes int64
	CORSOrigin   string // empty disables CORS headers
}

// Limiter paces calls per client.
type Limiter interface {
	Wait(ctx context.Context, client string) error
}

// Gateway forwards caller payloads to the upstream API with the server-held
// credential attached.
type Gateway struct {
	cfg     Config
	client  *http.Client
	limiter Limiter
	logger  *slog.Logger
}

// New creates a Gateway. limiter may be nil. httpClient must not set a
// Timeout: streamed responses can legitimately run for minutes.
func New(cfg Config, httpClient *http.Client, limiter Limiter, logger *slog.Logger) *Gateway {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Gateway{
		cfg:     cfg,
		client:  httpClient,
		limiter: limiter,
		logger:  logger,
	}
}

// Routes returns the gateway's HTTP handler with logging, panic recovery
// and CORS applied.
func (g *Gateway) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(RouteGenerate, g.proxy(false))
	mux.Handle(RouteStream, g.proxy(true))
	mux.HandleFunc("GET /healthz", g.handleHealth)

	return g.withLogging(g.withRecover(g.withCORS(mux)))
}

// ProxyHandler exposes a single proxy route for hosts that do their own
// routing, such as a Cloud Functions entry point.
func (g *Gateway) ProxyHandler(stream bool) http.Handler {
	return g.withRecover(g.withCORS(g.proxy(stream)))
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	g.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "model": g.cfg.Model})
}

func (g *Gateway) proxy(stream bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			g.writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
			return
		}

		body, status, msg := g.readBody(w, r)
		if status != 0 {
			g.writeError(w, status, msg, "")
			return
		}

		if g.cfg.APIKey == "" {
			// Logged here only; the caller learns nothing about the credential.
			g.logger.Error("upstream credential is not configured", "kind", model.KindGatewayConfig.String())
			g.writeJSON(w, http.StatusInternalServerError, errorPayload{Error: errorDetail{
				Message: "Internal Server Error",
				Code:    model.CodeGatewayConfig,
			}})
			return
		}

		if g.limiter != nil {
			if err := g.limiter.Wait(r.Context(), clientAddr(r)); err != nil {
				g.logger.Debug("caller left while rate limited", "remote", r.RemoteAddr, "error", err)
				return
			}
		}

		resp, err := g.forward(r.Context(), body, stream)
		if err != nil {
			if r.Context().Err() != nil {
				g.logger.Debug("caller left before upstream answered", "remote", r.RemoteAddr)
				return
			}
			g.logger.Error("upstream request failed", "error", g.redact(err.Error()))
			g.writeError(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
			return
		}
		defer resp.Body.Close()

		if stream && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			g.relayStream(w, r, resp)
			return
		}
		g.relayWhole(w, resp)
	}
}

// readBody returns the request body, or a non-zero status and message when
// it is missing, too large, or not JSON.
func (g *Gateway) readBody(w http.ResponseWriter, r *http.Request) ([]byte, int, string) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, g.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, "Request body too large"
		}
		return nil, http.StatusBadRequest, "Request body could not be read"
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, http.StatusBadRequest, "Request body is required"
	}
	if !json.Valid(trimmed) {
		return nil, http.StatusBadRequest, "Request body must be valid JSON"
	}
	return body, 0, ""
}

// upstreamURL picks the generate variant from the route, never the payload.
func (g *Gateway) upstreamURL(stream bool) string {
	method := "generateContent"
	if stream {
		method = "streamGenerateContent"
	}
	return fmt.Sprintf("%s/models/%s:%s", g.cfg.BaseURL, g.cfg.Model, method)
}

func (g *Gateway) forward(ctx context.Context, body []byte, stream bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.upstreamURL(stream), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Header rather than query string keeps the key out of URLs in error text.
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	return resp, nil
}

// relayWhole copies a complete upstream response with its exact status.
func (g *Gateway) relayWhole(w http.ResponseWriter, resp *http.Response) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		g.logger.Error("read upstream response", "error", g.redact(err.Error()), "status", resp.StatusCode)
		g.writeError(w, http.StatusInternalServerError, "Internal Server Error", err.Error())
		return
	}
	if g.cfg.APIKey != "" {
		body = bytes.ReplaceAll(body, []byte(g.cfg.APIKey), []byte(redacted))
	}

	copyHeader(w.Header(), resp.Header, "Retry-After")
	w.Header().Set("Content-Type", contentType(resp))
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(body); err != nil {
		g.logger.Debug("write response", "error", err)
	}
	if resp.StatusCode >= 400 {
		g.logger.Warn("upstream rejected request", "status", resp.StatusCode, "bytes", len(body))
	}
}

// relayStream copies upstream bytes to the caller as they arrive, flushing
// after every read, with the credential redacted. It returns when upstream
// ends or the caller leaves.
func (g *Gateway) relayStream(w http.ResponseWriter, r *http.Request, resp *http.Response) {
	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", contentType(resp))
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(resp.StatusCode)
	if err := rc.Flush(); err != nil {
		g.logger.Warn("response writer cannot flush; stream will be buffered", "error", err)
	}

	red := &keyRedactor{key: []byte(g.cfg.APIKey)}
	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if out := red.next(buf[:n]); len(out) > 0 {
			if _, err := w.Write(out); err != nil {
				g.logger.Debug("caller left during stream", "remote", r.RemoteAddr, "error", err)
				return
			}
			_ = rc.Flush()
		}
		if errors.Is(readErr, io.EOF) {
			if tail := red.flush(); len(tail) > 0 {
				_, _ = w.Write(tail)
				_ = rc.Flush()
			}
			return
		}
		if readErr != nil {
			// Headers are already sent, so the caller sees a truncated body.
			if r.Context().Err() == nil {
				g.logger.Warn("upstream stream interrupted", "error", g.redact(readErr.Error()))
			}
			return
		}
	}
}

func (g *Gateway) redact(s string) string {
	return redactKey(s, g.cfg.APIKey)
}

// keyRedactor replaces key in a byte stream. A trailing partial match is
// held back until the next chunk shows whether it completes the key.
type keyRedactor struct {
	key     []byte
	pending []byte
}

// next returns the bytes of p that are safe to send now.
func (k *keyRedactor) next(p []byte) []byte {
	if len(k.key) == 0 {
		return p
	}
	buf := bytes.ReplaceAll(append(k.pending, p...), k.key, []byte(redacted))
	hold := partialSuffix(buf, k.key)
	k.pending = append([]byte(nil), buf[len(buf)-hold:]...)
	return buf[:len(buf)-hold]
}

// flush returns whatever is still held back at end of stream.
func (k *keyRedactor) flush() []byte {
	out := k.pending
	k.pending = nil
	return out
}

// partialSuffix is the length of the longest suffix of b that is a proper
// prefix of key.
func partialSuffix(b, key []byte) int {
	for n := min(len(b), len(key)-1); n > 0; n-- {
		if bytes.HasSuffix(b, key[:n]) {
			return n
		}
	}
	return 0
}

type errorPayload struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// writeError writes the {"error":{"message","details"}} envelope. Both
// fields are redacted.
func (g *Gateway) writeError(w http.ResponseWriter, status int, message, details string) {
	g.writeJSON(w, status, errorPayload{Error: errorDetail{
		Message: g.redact(message),
		Details: g.redact(details),
	}})
}

func (g *Gateway) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Debug("encode response", "error", err)
	}
}

func contentType(resp *http.Response) string {
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/json"
}

func copyHeader(dst, src http.Header, key string) {
	if v := src.Get(key); v != "" {
		dst.Set(key, v)
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
