package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/amishk599/screener/internal/model"
)

var buildResumeOut string

var buildResumeCmd = &cobra.Command{
	Use:   "build-resume <details.yaml>",
	Short: "Generate a plain-text resume from structured details",
	Long: "Reads name, contact details, work history, education and skills from a YAML\n" +
		"file and streams a generated plain-text resume.",
	Args: cobra.ExactArgs(1),
	RunE: runBuildResume,
}

func init() {
	buildResumeCmd.Flags().StringVarP(&buildResumeOut, "out", "o", "", "also write the resume to this file")
	rootCmd.AddCommand(buildResumeCmd)
}

func runBuildResume(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)

	data, err := readBuilderData(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	svc := newService(cfg, logger, func(s string) { fmt.Fprint(out, s) })
	text, err := svc.BuildResume(ctx, data)
	fmt.Fprintln(out)
	if err != nil {
		return err
	}

	if buildResumeOut != "" {
		if err := os.WriteFile(buildResumeOut, []byte(text+"\n"), 0644); err != nil {
			return fmt.Errorf("write resume: %w", err)
		}
		logger.Info("resume written", "path", buildResumeOut)
	}
	return nil
}

func readBuilderData(path string) (model.ResumeBuilderData, error) {
	var data model.ResumeBuilderData

	raw, err := os.ReadFile(path)
	if err != nil {
		return data, fmt.Errorf("read resume details: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&data); err != nil && !errors.Is(err, io.EOF) {
		return data, fmt.Errorf("parse resume details: %w", err)
	}
	return data, nil
}
