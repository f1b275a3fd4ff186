package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/subject_filter.md
var subjectFilterPromptRaw string

//go:embed prompts/classify_email.md
var classifyEmailPromptRaw string

// SubjectFilterTemplate is the parsed stage-1 prompt (subject-only relevance screen).
// Parsed once at package init; reused on every Classify call.
var SubjectFilterTemplate = template.Must(template.New("subject_filter").Parse(subjectFilterPromptRaw))

// ClassifyEmailTemplate is the parsed stage-2 prompt (full-content classification).
var ClassifyEmailTemplate = template.Must(template.New("classify_email").Parse(classifyEmailPromptRaw))
