package journey

import (
	"context"
	"errors"
)

// Sentinel errors returned by the orchestrator's public contract.
var (
	ErrNotStarted     = errors.New("journey: start was never called")
	ErrAlreadyStarted = errors.New("journey: start was already called")
	ErrComplete       = errors.New("journey: already in a terminal state")
)

// QualityReport is the quality-scoring collaborator's output contract.
type QualityReport struct {
	OverallScore float64  `json:"overall_score"`
	ShouldRevise bool     `json:"should_revise"`
	Strengths    []string `json:"strengths,omitempty"`
	Weaknesses   []string `json:"weaknesses,omitempty"`
	Improvements []string `json:"improvements,omitempty"`
}

// QualityScorer evaluates one completed stage. Its internal heuristics are
// opaque; only this contract is consumed.
type QualityScorer interface {
	EvaluateStageQuality(ctx context.Context, stage Stage) (*QualityReport, error)
}

// InsightExtractor turns raw stage output into insights. Every stage type
// feeds it.
type InsightExtractor interface {
	ExtractInsights(ctx context.Context, text string, stageType StageType, stageNumber int) ([]RichInsight, error)
}

// Store is the journey persistence collaborator. All calls are best-effort
// from the orchestrator's point of view: failures are logged, never fatal to
// in-memory progress.
type Store interface {
	CreateStage(ctx context.Context, journeyID string, stage Stage) error
	GetJourney(ctx context.Context, id string) (*JourneyRecord, error)
	UpdateJourney(ctx context.Context, rec JourneyRecord) error
}

// PromptBuilder assembles the stage prompt from the running context.
type PromptBuilder interface {
	BuildPrompt(ectx *ExplorationContext, stageType StageType, stageNumber int) string
}
