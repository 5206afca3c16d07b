package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/screener/internal/config"
	"github.com/amishk599/screener/internal/gateway"
	"github.com/amishk599/screener/internal/ratelimit"
)

var serveVerify bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the proxy gateway",
	Long: "Runs the proxy gateway that holds the upstream API key and relays model calls.\n" +
		"Blocks until SIGINT/SIGTERM.",
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveVerify, "verify", false, "check the API key against the upstream model before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)

	logger.Info("config loaded",
		"addr", cfg.Server.Addr,
		"upstream", cfg.Upstream.BaseURL,
		"model", cfg.Upstream.Model,
		"api_key", config.MaskKey(cfg.Upstream.APIKey),
		"min_delay", cfg.RateLimit.MinDelay.String(),
	)
	if cfg.Upstream.APIKey == "" {
		logger.Warn("no API key configured; proxy calls will fail until API_KEY is set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gwCfg := gatewayConfig(cfg)

	if serveVerify {
		probeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		info, err := gateway.Probe(probeCtx, gwCfg, &http.Client{})
		cancel()
		if err != nil {
			logger.Error("API key check failed", "error", err)
			os.Exit(1)
		}
		logger.Info("API key verified",
			"model", info.Name,
			"display_name", info.DisplayName,
			"input_token_limit", info.InputTokenLimit,
			"output_token_limit", info.OutputTokenLimit,
		)
	}

	var limiter gateway.Limiter
	if cfg.RateLimit.MinDelay > 0 {
		limiter = ratelimit.NewClientLimiter(cfg.RateLimit.MinDelay)
	}

	// No client timeout: streamed responses can run for minutes. Each
	// forwarded call is bound to its caller's request context.
	g := gateway.New(gwCfg, &http.Client{}, limiter, logger)

	srv := gateway.NewServer(cfg.Server.Addr, g.Routes(), cfg.Server.ReadHeaderTimeout, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
