package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/screener/internal/config"
	"github.com/amishk599/screener/internal/extract"
	"github.com/amishk599/screener/internal/model"
	"github.com/amishk599/screener/internal/tui"
)

// plainWidth is the card width for non-interactive output.
const plainWidth = 100

var (
	scoreJD     jdFlags
	scorePlain  bool
	scoreJSON   bool
	scoreNoSave bool
)

var scoreCmd = &cobra.Command{
	Use:   "score <resume>...",
	Short: "Score resumes against a job description",
	Long: "Extracts text from each resume (.pdf, .docx, .txt, .md), scores every candidate\n" +
		"against the job description and shows them best match first.\n" +
		"Pass - to read one pasted resume from stdin.",
	Args: cobra.MinimumNArgs(1),
	RunE: runScore,
}

func init() {
	scoreJD.register(scoreCmd)
	scoreCmd.Flags().BoolVar(&scorePlain, "plain", false, "print result cards instead of opening the browser")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "print results as JSON")
	scoreCmd.Flags().BoolVar(&scoreNoSave, "no-save", false, "do not add this run to history")
	scoreCmd.MarkFlagsMutuallyExclusive("plain", "json")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)

	interactive := !scorePlain && !scoreJSON
	if interactive {
		logger = silentLogger()
	}

	jd, err := scoreJD.resolve(cfg.Presets)
	if err != nil {
		return err
	}
	if strings.TrimSpace(jd) == "" {
		return errors.New("a job description is required: use --jd, --jd-file, --preset or --pick")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resumes, err := readResumes(ctx, args, cmd.InOrStdin(), logger)
	if err != nil {
		return err
	}

	req := model.AnalysisRequest{JobDescription: jd, Resumes: resumes}
	svc := newService(cfg, logger, nil)

	var results []model.ScoredResume
	if interactive {
		label := fmt.Sprintf("Scoring %d resume(s)", len(resumes))
		results, err = tui.RunLoader(ctx, label, func(ctx context.Context) ([]model.ScoredResume, error) {
			return svc.ScoreResumes(ctx, req)
		})
	} else {
		results, err = svc.ScoreResumes(ctx, req)
	}
	if err != nil {
		return err
	}

	if !scoreNoSave {
		saveHistory(ctx, cfg, model.NewHistoryEntry(jd, resumes, results, time.Now()), logger)
	}

	switch {
	case scoreJSON:
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case scorePlain:
		fmt.Fprint(cmd.OutOrStdout(), tui.RenderCandidates(results, plainWidth))
		return nil
	}
	return browseResults(cfg, logger, "Screening results", jd, results)
}

// readResumes extracts the resume files in args, in order. A "-" argument
// reads one pasted resume from stdin.
func readResumes(ctx context.Context, args []string, stdin io.Reader, logger *slog.Logger) ([]model.ResumeDocument, error) {
	var paths []string
	pasted := false
	for _, a := range args {
		if a == "-" {
			if pasted {
				return nil, errors.New("stdin can only be read once")
			}
			pasted = true
			continue
		}
		paths = append(paths, a)
	}

	docs, err := extract.New(logger).Many(ctx, paths)
	if err != nil {
		return nil, err
	}

	if pasted {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read pasted resume: %w", err)
		}
		if text := strings.TrimSpace(string(data)); text != "" {
			docs = append(docs, model.NewPastedResume(1, text))
		}
	}

	if len(docs) == 0 {
		return nil, errors.New("no resume text found")
	}
	return docs, nil
}

func saveHistory(ctx context.Context, cfg *config.Config, entry model.HistoryEntry, logger *slog.Logger) {
	st, err := openStore(cfg)
	if err != nil {
		logger.Warn("failed to open store, run not saved", "error", err)
		return
	}
	defer st.Close()

	if err := st.AddEntry(ctx, entry); err != nil {
		logger.Warn("failed to save history entry", "error", err)
		return
	}
	logger.Debug("history entry saved", "id", entry.ID, "title", entry.Title)
}

// browseResults opens the results browser with per-candidate questions
// answered through the gateway.
func browseResults(cfg *config.Config, logger *slog.Logger, title, jd string, results []model.ScoredResume) error {
	ask := func(ctx context.Context, resume model.ResumeDocument, question string, onFragment func(string)) (string, error) {
		return newService(cfg, logger, onFragment).AskAboutResume(ctx, resume, question, jd)
	}
	if err := tui.RunResultsTUI(title, results, ask); err != nil {
		return fmt.Errorf("results browser: %w", err)
	}
	return nil
}
