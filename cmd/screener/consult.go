package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/amishk599/screener/internal/config"
	"github.com/amishk599/screener/internal/model"
	"github.com/amishk599/screener/internal/tui"
)

var (
	consultJD      jdFlags
	consultSession string
	consultEntry   string
	consultMessage string
	consultReset   bool
)

var consultCmd = &cobra.Command{
	Use:   "consult [resume]...",
	Short: "Chat with the hiring consultant",
	Long: "Opens a chat with an AI hiring consultant that knows the job description and\n" +
		"which resumes are in play. Only resume file names are shared, not their text.\n" +
		"Conversations are saved per session and resumed with --session.",
	RunE: runConsult,
}

func init() {
	consultJD.register(consultCmd)
	consultCmd.Flags().StringVar(&consultSession, "session", "", "session id to resume (default: a new session)")
	consultCmd.Flags().StringVar(&consultEntry, "entry", "", "take the job description and resumes from a history entry")
	consultCmd.Flags().StringVarP(&consultMessage, "message", "m", "", "send one message, print the reply and exit")
	consultCmd.Flags().BoolVar(&consultReset, "reset", false, "clear the session transcript before starting")
	rootCmd.AddCommand(consultCmd)
}

func runConsult(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoadConfig(logger)

	oneShot := consultMessage != ""
	if !oneShot {
		logger = silentLogger()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	jd, resumes, err := consultContext(ctx, cfg, st, args)
	if err != nil {
		return err
	}

	session := consultSession
	if session == "" {
		session = uuid.NewString()
	}
	if consultReset {
		if err := st.ClearTranscript(ctx, session); err != nil {
			return fmt.Errorf("clear transcript: %w", err)
		}
	}

	transcript, err := st.Messages(ctx, session)
	if err != nil {
		return fmt.Errorf("load transcript: %w", err)
	}
	logger.Debug("consultant session", "session", session, "messages", len(transcript))

	persist := func(msg model.ConsultantMessage) {
		if err := st.Append(ctx, session, msg); err != nil {
			logger.Warn("failed to save message", "session", session, "error", err)
		}
	}

	if oneShot {
		return consultOnce(ctx, cmd, cfg, logger, jd, resumes, transcript, persist)
	}

	consult := func(ctx context.Context, transcript []model.ConsultantMessage, onFragment func(string)) (string, error) {
		return newService(cfg, logger, onFragment).AskConsultant(ctx, jd, resumes, transcript)
	}
	if _, err := tui.RunConsultant(transcript, consult, persist); err != nil {
		return fmt.Errorf("consultant: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Session %s saved. Resume with --session %s\n", session, session)
	return nil
}

func consultOnce(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, jd string,
	resumes []model.ResumeDocument, transcript []model.ConsultantMessage, persist func(model.ConsultantMessage)) error {
	user := model.ConsultantMessage{Role: model.RoleUser, Content: strings.TrimSpace(consultMessage)}
	if err := user.Validate(); err != nil {
		return errors.New("message is empty")
	}
	transcript = append(transcript, user)

	out := cmd.OutOrStdout()
	svc := newService(cfg, logger, func(s string) { fmt.Fprint(out, s) })
	reply, err := svc.AskConsultant(ctx, jd, resumes, transcript)
	fmt.Fprintln(out)
	if err != nil {
		return err
	}

	persist(user)
	persist(model.ConsultantMessage{Role: model.RoleAssistant, Content: reply})
	return nil
}

// consultContext returns the job description and resumes the consultant is
// told about. Only file names are sent, so resume files are not read.
func consultContext(ctx context.Context, cfg *config.Config, st appStore, args []string) (string, []model.ResumeDocument, error) {
	if consultEntry != "" {
		entry, err := st.Entry(ctx, consultEntry)
		if err != nil {
			return "", nil, fmt.Errorf("load history entry: %w", err)
		}
		return entry.JobDescription, entry.Resumes, nil
	}

	jd, err := consultJD.resolve(cfg.Presets)
	if err != nil {
		return "", nil, err
	}
	resumes := make([]model.ResumeDocument, 0, len(args))
	for _, a := range args {
		resumes = append(resumes, model.ResumeDocument{FileName: filepath.Base(a)})
	}
	return jd, resumes, nil
}
