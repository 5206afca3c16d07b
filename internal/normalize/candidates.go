package normalize

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/amishk599/screener/internal/model"
)

// candidateSchema mirrors the response schema sent with scoring requests and
// adds the score range the prompt asks for.
const candidateSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "id": {"type": "string"},
      "name": {"type": "string"},
      "matchScore": {"type": "integer", "minimum": 1, "maximum": 10},
      "justification": {"type": "string"},
      "extractedSkills": {"type": "array", "items": {"type": "string"}},
      "extractedExperienceSummary": {"type": "string"}
    },
    "required": ["id", "name", "matchScore", "justification", "extractedSkills", "extractedExperienceSummary"]
  }
}`

var candidateValidator = mustSchema(candidateSchema)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("compile candidate schema: %v", err))
	}
	return schema
}

// ParseCandidates decodes the model's structured output. Any deviation from
// the CandidateResult array shape is a ModelOutputFormat error.
func ParseCandidates(text string) ([]model.CandidateResult, error) {
	result, err := candidateValidator.Validate(gojsonschema.NewStringLoader(text))
	if err != nil {
		return nil, outputFormatError(fmt.Errorf("parse model output: %w", err))
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			details = append(details, re.String())
		}
		return nil, outputFormatError(fmt.Errorf("model output does not match schema: %s", strings.Join(details, "; ")))
	}

	var candidates []model.CandidateResult
	if err := json.Unmarshal([]byte(text), &candidates); err != nil {
		return nil, outputFormatError(fmt.Errorf("decode model output: %w", err))
	}
	return candidates, nil
}

func outputFormatError(err error) *model.Error {
	return &model.Error{
		Kind:    model.KindModelOutputFormat,
		Message: model.MsgModelOutputFormat,
		Err:     err,
	}
}

// JoinResults pairs each result with the resume whose ID it echoes. Results
// naming an unknown resume, or one already matched, are dropped and logged.
// Output keeps the model's order.
func JoinResults(results []model.CandidateResult, resumes []model.ResumeDocument, logger *slog.Logger) []model.ScoredResume {
	byID := make(map[string]model.ResumeDocument, len(resumes))
	for _, r := range resumes {
		byID[r.ID] = r
	}

	joined := make([]model.ScoredResume, 0, len(results))
	used := make(map[string]bool, len(results))
	for _, res := range results {
		doc, ok := byID[res.ID]
		if !ok {
			logger.Warn("dropping result for unknown resume", "id", res.ID, "name", res.Name)
			continue
		}
		if used[res.ID] {
			logger.Warn("dropping duplicate result", "id", res.ID, "name", res.Name)
			continue
		}
		used[res.ID] = true
		joined = append(joined, model.ScoredResume{Result: res, Resume: doc})
	}
	return joined
}
