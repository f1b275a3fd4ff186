package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jacobwcallahan/gmail-job-scraper/internal/model"
)

// subjectFilterSchema is the JSON Schema for the stage-1 subject screen,
// enforced server-side via OpenAI structured outputs.
var subjectFilterSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"relevant": map[string]any{"type": "boolean"},
	},
	"required": []string{"relevant"},
}

// classificationSchema is the JSON Schema for the stage-2 full classification.
// The schema matches rawClassification exactly so the response can be parsed directly.
var classificationSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"is_job_application": map[string]any{"type": "boolean"},
		"company":            map[string]any{"type": "string"},
		"position":           map[string]any{"type": "string"},
		"status": map[string]any{
			"type": "string",
			"enum": []string{"applied", "interviewing", "rejected", "accepted", "None"},
		},
	},
	"required": []string{"is_job_application", "company", "position", "status"},
}

const classifierSystemPrompt = "You are a precise JSON-only classifier with no commentary."

// notJobApplication is the safe default returned when the oracle's output
// cannot be parsed: the message is dropped, the scan never crashes.
var notJobApplication = model.Classification{IsJobApplication: false}

// EmailClassifier implements model.Classifier with a two-stage protocol:
// a cheap subject-only relevance screen, then a full-content classification
// only for messages the screen lets through.
type EmailClassifier struct {
	provider LLMProvider
	logger   *slog.Logger
}

// NewEmailClassifier creates a classifier backed by the given provider.
func NewEmailClassifier(provider LLMProvider, logger *slog.Logger) *EmailClassifier {
	return &EmailClassifier{
		provider: provider,
		logger:   logger,
	}
}

// Classify runs the two-stage protocol on msg. A stage-1 rejection
// short-circuits without a second provider call. Malformed provider output at
// either stage degrades to IsJobApplication=false; only transport failures
// surface as errors.
func (c *EmailClassifier) Classify(ctx context.Context, msg model.RawMessage) (model.Classification, error) {
	relevant, err := c.screenSubject(ctx, msg.Subject)
	if err != nil {
		return notJobApplication, err
	}
	if !relevant {
		return notJobApplication, nil
	}

	return c.classifyContent(ctx, msg)
}

func (c *EmailClassifier) screenSubject(ctx context.Context, subject string) (bool, error) {
	var promptBuf bytes.Buffer
	if err := SubjectFilterTemplate.Execute(&promptBuf, struct{ Subject string }{Subject: subject}); err != nil {
		return false, fmt.Errorf("render subject prompt: %w", err)
	}

	raw, err := c.provider.Complete(ctx, CompletionRequest{
		System:     classifierSystemPrompt,
		Prompt:     promptBuf.String(),
		SchemaName: "subject_relevance",
		Schema:     subjectFilterSchema,
	})
	if err != nil {
		return false, fmt.Errorf("subject screen: %w", err)
	}

	var result struct {
		Relevant bool `json:"relevant"`
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		c.logger.Warn("unparseable subject screen response, dropping message", "error", err)
		return false, nil
	}

	return result.Relevant, nil
}

func (c *EmailClassifier) classifyContent(ctx context.Context, msg model.RawMessage) (model.Classification, error) {
	var promptBuf bytes.Buffer
	err := ClassifyEmailTemplate.Execute(&promptBuf, struct {
		Subject, Sender, Body string
	}{
		Subject: msg.Subject,
		Sender:  msg.Sender,
		Body:    msg.Body,
	})
	if err != nil {
		return notJobApplication, fmt.Errorf("render classify prompt: %w", err)
	}

	raw, err := c.provider.Complete(ctx, CompletionRequest{
		System:     classifierSystemPrompt,
		Prompt:     promptBuf.String(),
		SchemaName: "job_application",
		Schema:     classificationSchema,
	})
	if err != nil {
		return notJobApplication, fmt.Errorf("classify content: %w", err)
	}

	cls, err := parseClassification(raw)
	if err != nil {
		c.logger.Warn("unparseable classification response, dropping message", "error", err)
		return notJobApplication, nil
	}

	return cls, nil
}

// rawClassification is the JSON shape returned by the LLM (matches classificationSchema).
type rawClassification struct {
	IsJobApplication bool   `json:"is_job_application"`
	Company          string `json:"company"`
	Position         string `json:"position"`
	Status           string `json:"status"`
}

// parseClassification deserializes the LLM response into a Classification.
// The literal "None" marks a field the model could not extract.
func parseClassification(raw string) (model.Classification, error) {
	var rc rawClassification
	if err := json.Unmarshal([]byte(raw), &rc); err != nil {
		return notJobApplication, fmt.Errorf("unmarshal classification JSON: %w", err)
	}

	return model.Classification{
		IsJobApplication: rc.IsJobApplication,
		Company:          normalizeField(rc.Company),
		Position:         normalizeField(rc.Position),
		Status:           model.ParseStatus(rc.Status),
	}, nil
}

func normalizeField(value string) string {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "none") {
		return ""
	}
	return value
}
