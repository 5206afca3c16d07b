// Command proxyfn deploys the proxy gateway as two HTTP cloud functions,
// Proxy and ProxyStream. Configuration comes from the environment only.
package main

import (
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/amishk599/screener/internal/config"
	"github.com/amishk599/screener/internal/gateway"
	"github.com/amishk599/screener/internal/ratelimit"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

var (
	initOnce sync.Once
	gw       *gateway.Gateway
	initErr  error
)

func init() {
	functions.HTTP("Proxy", handle(false))
	functions.HTTP("ProxyStream", handle(true))
}

// main is empty: the functions framework owns the process.
func main() {}

func setup() {
	cfg, err := config.FromEnv()
	if err != nil {
		initErr = err
		return
	}
	if cfg.Upstream.APIKey == "" {
		logger.Warn("no API key configured; calls will fail until API_KEY is set")
	}

	var limiter gateway.Limiter
	if cfg.RateLimit.MinDelay > 0 {
		limiter = ratelimit.NewClientLimiter(cfg.RateLimit.MinDelay)
	}

	gw = gateway.New(gateway.Config{
		APIKey:       cfg.Upstream.APIKey,
		BaseURL:      cfg.Upstream.BaseURL,
		Model:        cfg.Upstream.Model,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		CORSOrigin:   cfg.Server.CORSOrigin,
	}, &http.Client{}, limiter, logger)
	logger.Info("gateway initialized", "model", cfg.Upstream.Model, "api_key", config.MaskKey(cfg.Upstream.APIKey))
}

func handle(stream bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initOnce.Do(setup)
		if initErr != nil {
			logger.Error("gateway init failed", "error", initErr)
			http.Error(w, "gateway is misconfigured", http.StatusInternalServerError)
			return
		}
		gw.ProxyHandler(stream).ServeHTTP(w, r)
	}
}
