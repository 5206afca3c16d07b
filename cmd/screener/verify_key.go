package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/screener/internal/config"
	"github.com/amishk599/screener/internal/gateway"
)

var verifyServerSide bool

var verifyKeyCmd = &cobra.Command{
	Use:   "verify-key",
	Short: "Check that the API key works",
	Long: "Makes a minimal model call through the gateway. With --server, checks the key\n" +
		"from this machine's config directly against the upstream model instead.",
	RunE: runVerifyKey,
}

func init() {
	verifyKeyCmd.Flags().BoolVar(&verifyServerSide, "server", false, "check the locally configured key against the upstream directly")
	rootCmd.AddCommand(verifyKeyCmd)
}

func runVerifyKey(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	out := cmd.OutOrStdout()
	if verifyServerSide {
		fmt.Fprintf(out, "Checking key %s against %s\n", config.MaskKey(cfg.Upstream.APIKey), cfg.Upstream.Model)
		info, err := gateway.Probe(ctx, gatewayConfig(cfg), &http.Client{})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Key works. %s (input %d / output %d tokens)\n",
			info.DisplayName, info.InputTokenLimit, info.OutputTokenLimit)
		return nil
	}

	fmt.Fprintf(out, "Checking gateway at %s\n", cfg.Client.GatewayURL)
	if err := newService(cfg, logger, nil).VerifyKey(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "✓ Gateway key works.")
	return nil
}
