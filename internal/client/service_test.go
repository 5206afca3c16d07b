package client

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/amishk599/screener/internal/model"
	"github.com/amishk599/screener/internal/prompt"
)

// mockCaller records requests and answers with reply/err.
type mockCaller struct {
	reply    string
	err      error
	requests []prompt.Request
}

func (m *mockCaller) Call(_ context.Context, req prompt.Request) (string, error) {
	m.requests = append(m.requests, req)
	return m.reply, m.err
}

func TestService_ScoreResumes_JoinsAndSorts(t *testing.T) {
	r1 := model.ResumeDocument{ID: "r1", FileName: "alice.pdf", Text: "Alice, Go"}
	r2 := model.ResumeDocument{ID: "r2", FileName: "bob.pdf", Text: "Bob, Java"}
	caller := &mockCaller{reply: `[
		{"id":"r2","name":"Bob","matchScore":4,"justification":"j","extractedSkills":["Java"],"extractedExperienceSummary":"s"},
		{"id":"r1","name":"Alice","matchScore":9,"justification":"j","extractedSkills":["Go"],"extractedExperienceSummary":"s"},
		{"id":"ghost","name":"Nobody","matchScore":10,"justification":"j","extractedSkills":[],"extractedExperienceSummary":"s"}
	]`}

	svc := NewService(caller, discardLogger())
	got, err := svc.ScoreResumes(context.Background(), model.AnalysisRequest{
		JobDescription: "Go engineer",
		Resumes:        []model.ResumeDocument{r1, r2},
	})
	if err != nil {
		t.Fatalf("ScoreResumes: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].Resume.ID != "r1" || got[0].Result.MatchScore != 9 {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Resume.FileName != "bob.pdf" {
		t.Errorf("second = %+v", got[1])
	}

	if len(caller.requests) != 1 || caller.requests[0].Stream {
		t.Errorf("requests = %+v, want one non-streaming call", caller.requests)
	}
}

func TestService_ScoreResumes_IncompleteRequest(t *testing.T) {
	caller := &mockCaller{}
	svc := NewService(caller, discardLogger())

	_, err := svc.ScoreResumes(context.Background(), model.AnalysisRequest{JobDescription: "  "})
	if !errors.Is(err, model.ErrIncompleteRequest) {
		t.Errorf("err = %v", err)
	}
	if len(caller.requests) != 0 {
		t.Error("called gateway for an incomplete request")
	}
}

func TestService_ScoreResumes_BadModelOutput(t *testing.T) {
	svc := NewService(&mockCaller{reply: "Sure! Here are the candidates:"}, discardLogger())

	_, err := svc.ScoreResumes(context.Background(), model.AnalysisRequest{
		JobDescription: "jd",
		Resumes:        []model.ResumeDocument{{ID: "r1", Text: "t"}},
	})
	if !model.IsKind(err, model.KindModelOutputFormat) {
		t.Fatalf("err = %v", err)
	}
	if err.Error() != model.MsgModelOutputFormat {
		t.Errorf("message = %q", err.Error())
	}
}

func TestService_ScoreResumes_PropagatesCallerError(t *testing.T) {
	want := &model.Error{Kind: model.KindTransport, Message: model.MsgTransport}
	svc := NewService(&mockCaller{err: want}, discardLogger())

	_, err := svc.ScoreResumes(context.Background(), model.AnalysisRequest{
		JobDescription: "jd",
		Resumes:        []model.ResumeDocument{{ID: "r1", Text: "t"}},
	})
	if !errors.Is(err, want) {
		t.Errorf("err = %v", err)
	}
}

func TestService_AskAboutResume(t *testing.T) {
	caller := &mockCaller{reply: "Yes, five years."}
	svc := NewService(caller, discardLogger())

	got, err := svc.AskAboutResume(context.Background(),
		model.ResumeDocument{ID: "r1", FileName: "a.txt", Text: "Go since 2019"}, "How long with Go?", "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Yes, five years." {
		t.Errorf("reply = %q", got)
	}
	if !caller.requests[0].Stream {
		t.Error("question should stream")
	}
	if !strings.Contains(caller.requests[0].Text(), "Go since 2019") {
		t.Error("prompt does not embed the resume")
	}

	if _, err := svc.AskAboutResume(context.Background(), model.ResumeDocument{Text: "x"}, " ", ""); err == nil {
		t.Error("expected error for blank question")
	}
}

func TestService_AskConsultant(t *testing.T) {
	caller := &mockCaller{reply: "Focus on concurrency."}
	svc := NewService(caller, discardLogger())

	transcript := []model.ConsultantMessage{
		{Role: model.RoleUser, Content: "What should I ask?"},
	}
	got, err := svc.AskConsultant(context.Background(), "",
		[]model.ResumeDocument{{ID: "r1", FileName: "alice.pdf", Text: "t"}}, transcript)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Focus on concurrency." {
		t.Errorf("reply = %q", got)
	}
	if !strings.Contains(caller.requests[0].Text(), "alice.pdf") {
		t.Error("prompt does not list resume file names")
	}
}

func TestService_AskConsultant_RejectsBadTranscript(t *testing.T) {
	svc := NewService(&mockCaller{}, discardLogger())
	ctx := context.Background()

	if _, err := svc.AskConsultant(ctx, "", nil, nil); err == nil {
		t.Error("expected error for empty transcript")
	}

	endsWithAssistant := []model.ConsultantMessage{
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleAssistant, Content: "hello"},
	}
	if _, err := svc.AskConsultant(ctx, "", nil, endsWithAssistant); err == nil {
		t.Error("expected error when transcript ends with assistant")
	}

	badRole := []model.ConsultantMessage{{Role: "system", Content: "x"}}
	if _, err := svc.AskConsultant(ctx, "", nil, badRole); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestService_BuildResume(t *testing.T) {
	caller := &mockCaller{reply: "ADA LOVELACE\n..."}
	svc := NewService(caller, discardLogger())

	if _, err := svc.BuildResume(context.Background(), model.ResumeBuilderData{}); err == nil {
		t.Error("expected error without full name")
	}
	if len(caller.requests) != 0 {
		t.Error("called gateway for invalid form")
	}

	got, err := svc.BuildResume(context.Background(), model.ResumeBuilderData{FullName: "Ada Lovelace"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "ADA LOVELACE") {
		t.Errorf("reply = %q", got)
	}
}

func TestService_VerifyKey(t *testing.T) {
	svc := NewService(&mockCaller{reply: "OK"}, discardLogger())
	if err := svc.VerifyKey(context.Background()); err != nil {
		t.Errorf("VerifyKey: %v", err)
	}

	rejected := &model.Error{Kind: model.KindUpstreamRejection, Message: model.MsgInvalidAPIKey}
	svc = NewService(&mockCaller{err: rejected}, discardLogger())
	if err := svc.VerifyKey(context.Background()); err == nil || err.Error() != model.MsgInvalidAPIKey {
		t.Errorf("VerifyKey = %v", err)
	}
}
