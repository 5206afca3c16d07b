package prompt

import "google.golang.org/genai"

// CandidateSchema is the response schema attached to scoring requests: an
// array of CandidateResult objects with every field required.
func CandidateSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"id": {
					Type:        genai.TypeString,
					Description: "The resume ID from the input",
				},
				"name": {
					Type:        genai.TypeString,
					Description: "The candidate's full name",
				},
				"matchScore": {
					Type:        genai.TypeInteger,
					Description: "A score from 1 to 10 indicating the match with the job description.",
					Minimum:     genai.Ptr(1.0),
					Maximum:     genai.Ptr(10.0),
				},
				"justification": {
					Type:        genai.TypeString,
					Description: "A concise (2-3 sentences) justification for the match score.",
				},
				"extractedSkills": {
					Type:        genai.TypeArray,
					Items:       &genai.Schema{Type: genai.TypeString},
					Description: "A list of key skills extracted from the resume that are relevant to the job description.",
				},
				"extractedExperienceSummary": {
					Type:        genai.TypeString,
					Description: "A brief (2-3 sentences) summary of the candidate's relevant work experience.",
				},
			},
			Required: []string{"id", "name", "matchScore", "justification", "extractedSkills", "extractedExperienceSummary"},
			PropertyOrdering: []string{"id", "name", "matchScore", "justification", "extractedSkills", "extractedExperienceSummary"},
		},
	}
}
