// Package scoring implements the quality-scoring collaborator. It asks the
// model to grade a completed stage against fixed criteria and parses the
// structured verdict; the report is advisory and never blocks progression.
package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"wayfinder/internal/journey"
	"wayfinder/internal/perception"
)

const rubricPrompt = `You are grading the output of an exploration stage.

Stage type: %s
Stage output:
---
%s
---

Score the output on depth, specificity, and usefulness for the stages that
follow. Respond with a single strict JSON object and nothing else:
{"overall_score":0.0,"should_revise":false,"strengths":[],"weaknesses":[],"improvements":[]}
overall_score is in [0,10]. Set should_revise true only when the output is too
thin or off-topic to build on.`

// Scorer grades completed stages through a generative client.
type Scorer struct {
	client perception.Client
	log    *zap.Logger
}

// NewScorer creates a stage quality scorer.
func NewScorer(client perception.Client, log *zap.Logger) *Scorer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scorer{client: client, log: log}
}

// EvaluateStageQuality grades one stage. A failed call or malformed verdict is
// returned as an error; callers treat scoring as advisory.
func (s *Scorer) EvaluateStageQuality(ctx context.Context, stage journey.Stage) (*journey.QualityReport, error) {
	result, err := s.client.Execute(ctx, perception.Request{
		Prompt: fmt.Sprintf(rubricPrompt, stage.Type, stage.Result),
	})
	if err != nil {
		return nil, fmt.Errorf("quality evaluation call: %w", err)
	}

	var report journey.QualityReport
	if err := json.Unmarshal([]byte(stripFence(result.Content)), &report); err != nil {
		return nil, fmt.Errorf("quality verdict parse: %w", err)
	}
	if report.OverallScore < 0 {
		report.OverallScore = 0
	}
	if report.OverallScore > 10 {
		report.OverallScore = 10
	}
	s.log.Debug("stage quality evaluated",
		zap.Int("stage", stage.Number),
		zap.String("type", string(stage.Type)),
		zap.Float64("score", report.OverallScore),
		zap.Bool("should_revise", report.ShouldRevise))
	return &report, nil
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
