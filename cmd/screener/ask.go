package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var askJD jdFlags

var askCmd = &cobra.Command{
	Use:   "ask <resume> <question>...",
	Short: "Ask a question about one resume",
	Long: "Streams an answer to a free-form question about a single resume.\n" +
		"A job description, if given, is included as context.",
	Args: cobra.MinimumNArgs(2),
	RunE: runAsk,
}

func init() {
	askJD.register(askCmd)
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)

	jd, err := askJD.resolve(cfg.Presets)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	docs, err := readResumes(ctx, args[:1], cmd.InOrStdin(), logger)
	if err != nil {
		return err
	}
	question := strings.Join(args[1:], " ")

	out := cmd.OutOrStdout()
	svc := newService(cfg, logger, func(s string) { fmt.Fprint(out, s) })
	_, err = svc.AskAboutResume(ctx, docs[0], question, jd)
	fmt.Fprintln(out)
	return err
}
