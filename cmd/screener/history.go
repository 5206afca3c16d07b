package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/screener/internal/tui"
)

var (
	historyLimit int
	historyPlain bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past screening runs",
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Reopen a past screening run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one past screening run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all past screening runs",
	RunE:  runHistoryClear,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "show at most this many runs (default: all)")
	historyShowCmd.Flags().BoolVar(&historyPlain, "plain", false, "print result cards instead of opening the browser")
	historyCmd.AddCommand(historyShowCmd, historyDeleteCmd, historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	entries, err := st.Entries(context.Background(), historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No saved runs.")
		return nil
	}

	fmt.Fprintf(out, "%-36s  %-16s  %-10s  %s\n", "ID", "Date", "Candidates", "Title")
	fmt.Fprintln(out, strings.Repeat("─", 96))
	for _, e := range entries {
		fmt.Fprintf(out, "%-36s  %-16s  %-10d  %s\n",
			e.ID, e.Timestamp.Local().Format("2006-01-02 15:04"), len(e.Results), e.Title)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	entry, err := st.Entry(context.Background(), args[0])
	st.Close()
	if err != nil {
		return err
	}

	if historyPlain {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n\n", entry.Title, entry.Timestamp.Local().Format("2006-01-02 15:04"))
		fmt.Fprint(cmd.OutOrStdout(), tui.RenderCandidates(entry.Results, plainWidth))
		return nil
	}
	return browseResults(cfg, silentLogger(), entry.Title, entry.JobDescription, entry.Results)
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := st.DeleteEntry(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := st.ClearHistory(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
	return nil
}
