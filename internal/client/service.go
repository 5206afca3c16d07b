package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amishk599/screener/internal/model"
	"github.com/amishk599/screener/internal/normalize"
	"github.com/amishk599/screener/internal/prompt"
)

// Service runs the screener operations on top of a Caller.
type Service struct {
	caller Caller
	logger *slog.Logger
}

// NewService creates a Service. caller is usually a *Client, optionally
// wrapped in a retry decorator.
func NewService(caller Caller, logger *slog.Logger) *Service {
	return &Service{caller: caller, logger: logger}
}

// ScoreResumes scores every resume against the job description and returns
// the results joined to their resumes, best match first.
func (s *Service) ScoreResumes(ctx context.Context, req model.AnalysisRequest) ([]model.ScoredResume, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := prompt.ScoreResumes(req.JobDescription, req.Resumes)
	if err != nil {
		return nil, err
	}

	text, err := s.caller.Call(ctx, p)
	if err != nil {
		return nil, err
	}

	results, err := normalize.ParseCandidates(text)
	if err != nil {
		s.logger.Debug("unparseable analysis", "text", text)
		return nil, err
	}

	scored := normalize.JoinResults(results, req.Resumes, s.logger)
	model.SortByScore(scored)

	s.logger.Info("screening complete", "resumes", len(req.Resumes), "results", len(scored))
	return scored, nil
}

// AskAboutResume answers a free-form question about one resume.
func (s *Service) AskAboutResume(ctx context.Context, resume model.ResumeDocument, question, jobDescription string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", errors.New("question is required")
	}
	if strings.TrimSpace(resume.Text) == "" {
		return "", fmt.Errorf("resume %s has no text", resume.FileName)
	}

	p, err := prompt.AskAboutResume(resume.Text, question, jobDescription)
	if err != nil {
		return "", err
	}
	return s.caller.Call(ctx, p)
}

// AskConsultant returns the consultant's next reply. The transcript must end
// with a user message; appending the reply is up to the caller.
func (s *Service) AskConsultant(ctx context.Context, jobDescription string, resumes []model.ResumeDocument, transcript []model.ConsultantMessage) (string, error) {
	if len(transcript) == 0 {
		return "", errors.New("consultant transcript is empty")
	}
	for i, msg := range transcript {
		if err := msg.Validate(); err != nil {
			return "", fmt.Errorf("transcript message %d: %w", i, err)
		}
	}
	if last := transcript[len(transcript)-1]; last.Role != model.RoleUser {
		return "", errors.New("consultant transcript must end with a user message")
	}

	names := make([]string, 0, len(resumes))
	for _, r := range resumes {
		names = append(names, r.FileName)
	}

	p, err := prompt.AskConsultant(jobDescription, names, transcript)
	if err != nil {
		return "", err
	}
	return s.caller.Call(ctx, p)
}

// BuildResume generates a plain-text resume from the form data.
func (s *Service) BuildResume(ctx context.Context, data model.ResumeBuilderData) (string, error) {
	if err := data.Validate(); err != nil {
		return "", err
	}

	p, err := prompt.BuildResume(data)
	if err != nil {
		return "", err
	}
	return s.caller.Call(ctx, p)
}

// VerifyKey makes the smallest generate call the gateway accepts. A nil
// error means the gateway's credential works.
func (s *Service) VerifyKey(ctx context.Context) error {
	reply, err := s.caller.Call(ctx, prompt.VerifyKey())
	if err != nil {
		return err
	}
	s.logger.Debug("verify key reply", "text", strings.TrimSpace(reply))
	return nil
}
