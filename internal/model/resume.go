package model

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrIncompleteRequest is returned when a scoring request lacks a job
// description or resumes.
var ErrIncompleteRequest = errors.New("Please provide a job description and at least one resume.")

var validate = validator.New()

// ResumeDocument is one candidate resume as plain text. ID is unique within a
// session and joins analysis results back to their source.
type ResumeDocument struct {
	ID       string `json:"id" validate:"required"`
	FileName string `json:"fileName"`
	Text     string `json:"text" validate:"required"`
}

// NewResumeDocument assigns a fresh session-unique ID.
func NewResumeDocument(fileName, text string) ResumeDocument {
	return ResumeDocument{
		ID:       "resume_" + uuid.NewString(),
		FileName: fileName,
		Text:     text,
	}
}

// NewPastedResume builds a document for text that did not come from a file.
func NewPastedResume(n int, text string) ResumeDocument {
	return NewResumeDocument(fmt.Sprintf("Pasted Resume %d", n), text)
}

// AnalysisRequest is the input of one scoring call.
type AnalysisRequest struct {
	JobDescription string           `validate:"required"`
	Resumes        []ResumeDocument `validate:"required,min=1,dive"`
}

// Validate checks that the request can be scored.
func (r AnalysisRequest) Validate() error {
	if strings.TrimSpace(r.JobDescription) == "" || len(r.Resumes) == 0 {
		return ErrIncompleteRequest
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid analysis request: %w", err)
	}
	seen := make(map[string]bool, len(r.Resumes))
	for _, doc := range r.Resumes {
		if seen[doc.ID] {
			return fmt.Errorf("invalid analysis request: duplicate resume id %q", doc.ID)
		}
		seen[doc.ID] = true
	}
	return nil
}

// CandidateResult is the model's assessment of one resume.
type CandidateResult struct {
	ID                         string   `json:"id"`
	Name                       string   `json:"name"`
	MatchScore                 int      `json:"matchScore"`
	Justification              string   `json:"justification"`
	ExtractedSkills            []string `json:"extractedSkills"`
	ExtractedExperienceSummary string   `json:"extractedExperienceSummary"`
}

// ScoredResume is a CandidateResult joined with the document it describes.
type ScoredResume struct {
	Result CandidateResult `json:"result"`
	Resume ResumeDocument  `json:"resume"`
}

// SortByScore orders results by match score, highest first. Ties keep their
// original order.
func SortByScore(results []ScoredResume) {
	slices.SortStableFunc(results, func(a, b ScoredResume) int {
		return cmp.Compare(b.Result.MatchScore, a.Result.MatchScore)
	})
}

// Role identifies the author of a consultant message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConsultantMessage is one turn of a consultant transcript.
type ConsultantMessage struct {
	Role    Role   `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// Validate checks role and content.
func (m ConsultantMessage) Validate() error {
	return validate.Struct(m)
}

// WorkExperience is one job in the resume builder form.
type WorkExperience struct {
	Company          string `json:"company" yaml:"company"`
	JobTitle         string `json:"jobTitle" yaml:"job_title"`
	StartDate        string `json:"startDate" yaml:"start_date"`
	EndDate          string `json:"endDate" yaml:"end_date"`
	Responsibilities string `json:"responsibilities" yaml:"responsibilities"`
}

// Education is one school entry in the resume builder form.
type Education struct {
	School    string `json:"school" yaml:"school"`
	Degree    string `json:"degree" yaml:"degree"`
	StartDate string `json:"startDate" yaml:"start_date"`
	EndDate   string `json:"endDate" yaml:"end_date"`
}

// ResumeBuilderData is the structured input for resume generation.
type ResumeBuilderData struct {
	FullName       string           `json:"fullName" yaml:"full_name" validate:"required"`
	Email          string           `json:"email" yaml:"email" validate:"omitempty,email"`
	PhoneNumber    string           `json:"phoneNumber" yaml:"phone_number"`
	Address        string           `json:"address" yaml:"address"`
	Summary        string           `json:"summary" yaml:"summary"`
	WorkExperience []WorkExperience `json:"workExperience" yaml:"work_experience"`
	Education      []Education      `json:"education" yaml:"education"`
	Skills         string           `json:"skills" yaml:"skills"`
}

// Validate checks the builder form.
func (d ResumeBuilderData) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid resume details: %w", err)
	}
	return nil
}

// Preset is a canned job description.
type Preset struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// HistoryEntry is one archived screening run.
type HistoryEntry struct {
	ID             string
	Title          string
	Timestamp      time.Time
	JobDescription string
	Resumes        []ResumeDocument
	Results        []ScoredResume
}

const historyTitleMax = 60

// NewHistoryEntry archives a successful screening. The title is the first
// non-blank line of the job description.
func NewHistoryEntry(jobDescription string, resumes []ResumeDocument, results []ScoredResume, now time.Time) HistoryEntry {
	return HistoryEntry{
		ID:             uuid.NewString(),
		Title:          historyTitle(jobDescription),
		Timestamp:      now,
		JobDescription: jobDescription,
		Resumes:        resumes,
		Results:        results,
	}
}

func historyTitle(jobDescription string) string {
	for line := range strings.Lines(jobDescription) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > historyTitleMax {
			return string(runes[:historyTitleMax-3]) + "..."
		}
		return line
	}
	return "Untitled analysis"
}
