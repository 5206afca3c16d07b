// Package prompt builds the request payloads sent through the gateway. Every
// builder is pure: the same input always yields the same payload.
package prompt

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"google.golang.org/genai"

	"github.com/amishk599/screener/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// Payload is the generateContent request body. The gateway forwards it
// without looking inside.
type Payload struct {
	Contents         []*genai.Content  `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// GenerationConfig constrains the model's output format.
type GenerationConfig struct {
	ResponseMIMEType string        `json:"responseMimeType,omitempty"`
	ResponseSchema   *genai.Schema `json:"responseSchema,omitempty"`
}

// Request pairs a payload with the gateway route it must take.
type Request struct {
	Payload Payload
	Stream  bool
}

// Text returns the prompt text of the first part. Used for logging and tests.
func (r Request) Text() string {
	if len(r.Payload.Contents) == 0 || len(r.Payload.Contents[0].Parts) == 0 {
		return ""
	}
	return r.Payload.Contents[0].Parts[0].Text
}

func render(name string, data any) (string, error) {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return sb.String(), nil
}

func textPayload(text string) Payload {
	return Payload{Contents: []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}}
}

// ScoreResumes asks for a CandidateResult array covering every resume. It is
// never streamed: the array is only usable once complete.
func ScoreResumes(jobDescription string, resumes []model.ResumeDocument) (Request, error) {
	text, err := render("score_resumes.tmpl", struct {
		JobDescription string
		Resumes        []model.ResumeDocument
	}{jobDescription, resumes})
	if err != nil {
		return Request{}, err
	}

	payload := textPayload(text)
	payload.GenerationConfig = &GenerationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   CandidateSchema(),
	}
	return Request{Payload: payload, Stream: false}, nil
}

// AskAboutResume asks a free-form question about one resume.
func AskAboutResume(resumeText, question, jobDescription string) (Request, error) {
	text, err := render("ask_resume.tmpl", struct {
		ResumeText     string
		Question       string
		JobDescription string
	}{resumeText, question, jobDescription})
	if err != nil {
		return Request{}, err
	}
	return Request{Payload: textPayload(text), Stream: true}, nil
}

// AskConsultant continues a consultant conversation. The transcript should
// end with the user's latest message.
func AskConsultant(jobDescription string, fileNames []string, transcript []model.ConsultantMessage) (Request, error) {
	if strings.TrimSpace(jobDescription) == "" {
		jobDescription = "Not provided yet."
	}
	names := strings.Join(fileNames, ", ")
	if names == "" {
		names = "None"
	}

	text, err := render("consultant.tmpl", struct {
		JobDescription string
		FileNames      string
		Transcript     []model.ConsultantMessage
	}{jobDescription, names, transcript})
	if err != nil {
		return Request{}, err
	}
	return Request{Payload: textPayload(text), Stream: true}, nil
}

// BuildResume asks for a plain-text resume generated from form data.
func BuildResume(data model.ResumeBuilderData) (Request, error) {
	text, err := render("build_resume.tmpl", data)
	if err != nil {
		return Request{}, err
	}
	return Request{Payload: textPayload(text), Stream: true}, nil
}

const verifyKeyPrompt = "Reply with the single word OK."

// VerifyKey is the smallest useful generate call. A successful round trip
// proves the gateway holds a working credential.
func VerifyKey() Request {
	return Request{Payload: textPayload(verifyKeyPrompt), Stream: false}
}
