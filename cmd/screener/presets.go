package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List preset job descriptions",
	RunE:  runPresets,
}

var presetsShowCmd = &cobra.Command{
	Use:   "show <number|title>",
	Short: "Print one preset job description",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresetsShow,
}

func init() {
	presetsCmd.AddCommand(presetsShowCmd)
	rootCmd.AddCommand(presetsCmd)
}

func runPresets(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-4s %s\n", "#", "Title")
	fmt.Fprintln(out, strings.Repeat("─", 40))
	for i, p := range cfg.Presets {
		fmt.Fprintf(out, "%-4d %s\n", i+1, p.Title)
	}
	fmt.Fprintf(out, "\nTotal: %d presets\n", len(cfg.Presets))
	return nil
}

func runPresetsShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	p, err := findPreset(cfg.Presets, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n%s\n", p.Title, strings.TrimSpace(p.Description))
	return nil
}
