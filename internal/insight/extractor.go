// Package insight implements the insight-extraction collaborator: a
// generative call that distills stage output into discrete insights, with a
// local heuristic fallback so extraction never fails the journey.
package insight

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wayfinder/internal/journey"
	"wayfinder/internal/perception"
)

const extractionPrompt = `Distill the text below into its key insights.
Respond with a single strict JSON object and nothing else:
{"insights":[{"text":"...","category":"...","importance":0.0}]}
Importance is in [0,1]. Return at most 8 insights; an empty list is fine.

TEXT:
`

type envelope struct {
	Insights []struct {
		Text       string  `json:"text"`
		Category   string  `json:"category"`
		Importance float64 `json:"importance"`
	} `json:"insights"`
}

// Extractor is the default InsightExtractor implementation.
type Extractor struct {
	client perception.Client
	log    *zap.Logger
}

// NewExtractor creates an insight extractor backed by a generative client.
func NewExtractor(client perception.Client, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{client: client, log: log}
}

// ExtractInsights asks the model for a JSON insight list. Malformed output or
// a failed call degrades to local bullet-line extraction; the error return is
// always nil in practice and exists to satisfy the collaborator contract.
func (e *Extractor) ExtractInsights(ctx context.Context, text string, stageType journey.StageType, stageNumber int) ([]journey.RichInsight, error) {
	result, err := e.client.Execute(ctx, perception.Request{Prompt: extractionPrompt + text})
	if err != nil {
		e.log.Warn("insight extraction call failed, using heuristic fallback",
			zap.Int("stage", stageNumber), zap.Error(err))
		return e.fallback(text, stageNumber), nil
	}

	var env envelope
	if err := json.Unmarshal([]byte(stripFence(result.Content)), &env); err != nil {
		e.log.Warn("insight extraction returned malformed JSON, using heuristic fallback",
			zap.Int("stage", stageNumber), zap.Error(err))
		return e.fallback(text, stageNumber), nil
	}

	out := make([]journey.RichInsight, 0, len(env.Insights))
	for _, in := range env.Insights {
		if strings.TrimSpace(in.Text) == "" {
			continue
		}
		out = append(out, journey.RichInsight{
			ID:          uuid.NewString(),
			Text:        strings.TrimSpace(in.Text),
			Category:    in.Category,
			StageNumber: stageNumber,
			Importance:  clamp01(in.Importance),
		})
	}
	return out, nil
}

// fallback treats substantial bullet lines as insights.
func (e *Extractor) fallback(text string, stageNumber int) []journey.RichInsight {
	var out []journey.RichInsight
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "- ") && !strings.HasPrefix(trimmed, "* ") {
			continue
		}
		body := strings.TrimSpace(trimmed[2:])
		if len(body) < 30 || len(body) > 400 {
			continue
		}
		out = append(out, journey.RichInsight{
			ID:          uuid.NewString(),
			Text:        body,
			StageNumber: stageNumber,
		})
		if len(out) == 8 {
			break
		}
	}
	return out
}

func stripFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
		trimmed = trimmed[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(trimmed), "```"))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
