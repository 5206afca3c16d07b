package normalize

import (
	"testing"

	"github.com/amishk599/screener/internal/model"
)

const twoCandidates = `[
  {"id":"r1","name":"Ada Lovelace","matchScore":9,"justification":"Strong fit.","extractedSkills":["Go","SQL"],"extractedExperienceSummary":"Ten years of backend work."},
  {"id":"r2","name":"Alan Turing","matchScore":6,"justification":"Partial fit.","extractedSkills":[],"extractedExperienceSummary":"Research."}
]`

func TestParseCandidates_RoundTrip(t *testing.T) {
	got, err := ParseCandidates(twoCandidates)
	if err != nil {
		t.Fatalf("ParseCandidates: %v", err)
	}
	if len(got) != 2 || got[0].ID != "r1" || got[1].ID != "r2" {
		t.Fatalf("got %+v", got)
	}
	if got[0].MatchScore != 9 || len(got[0].ExtractedSkills) != 2 || got[0].ExtractedSkills[1] != "SQL" {
		t.Errorf("first = %+v", got[0])
	}

	resumes := []model.ResumeDocument{
		{ID: "r1", FileName: "ada.pdf", Text: "..."},
		{ID: "r2", FileName: "alan.pdf", Text: "..."},
	}
	joined := JoinResults(got, resumes, discardLogger())
	if len(joined) != 2 {
		t.Fatalf("joined %d, want 2", len(joined))
	}
	if joined[0].Resume.FileName != "ada.pdf" || joined[1].Resume.FileName != "alan.pdf" {
		t.Errorf("joined = %+v", joined)
	}
}

func TestParseCandidates_EmptyArray(t *testing.T) {
	got, err := ParseCandidates(`[]`)
	if err != nil {
		t.Fatalf("ParseCandidates: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %+v", got)
	}
}

func TestParseCandidates_NotJSON(t *testing.T) {
	_, err := ParseCandidates("Here are the results: ...")
	if !model.IsKind(err, model.KindModelOutputFormat) {
		t.Fatalf("err = %v, want ModelOutputFormat", err)
	}
	if err.Error() != model.MsgModelOutputFormat {
		t.Errorf("message = %q", err.Error())
	}
}

func TestParseCandidates_SchemaViolations(t *testing.T) {
	cases := map[string]string{
		"object not array": `{"id":"r1"}`,
		"missing field":    `[{"id":"r1","name":"x","matchScore":5,"justification":"j","extractedSkills":[]}]`,
		"score too high":   `[{"id":"r1","name":"x","matchScore":11,"justification":"j","extractedSkills":[],"extractedExperienceSummary":"s"}]`,
		"score as string":  `[{"id":"r1","name":"x","matchScore":"5","justification":"j","extractedSkills":[],"extractedExperienceSummary":"s"}]`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseCandidates(text); !model.IsKind(err, model.KindModelOutputFormat) {
				t.Fatalf("err = %v, want ModelOutputFormat", err)
			}
		})
	}
}

func TestJoinResults_DropsUnmatchedAndDuplicates(t *testing.T) {
	resumes := []model.ResumeDocument{{ID: "r1", FileName: "a.txt"}}
	results := []model.CandidateResult{
		{ID: "r9", Name: "Ghost", MatchScore: 10},
		{ID: "r1", Name: "Ada", MatchScore: 7},
		{ID: "r1", Name: "Ada again", MatchScore: 2},
	}

	joined := JoinResults(results, resumes, discardLogger())
	if len(joined) != 1 {
		t.Fatalf("joined %d results, want 1: %+v", len(joined), joined)
	}
	if joined[0].Result.Name != "Ada" || joined[0].Resume.FileName != "a.txt" {
		t.Errorf("joined = %+v", joined[0])
	}
}
