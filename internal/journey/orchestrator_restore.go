package journey

import (
	"context"
	"time"

	"go.uber.org/zap"

	"wayfinder/internal/artifacts"
)

// Restore rebuilds the orchestrator's state from a persisted journey so a
// paused or interrupted journey can continue in a fresh process. Questions,
// answers, and chased topics are rebuilt by re-running the local extraction
// over the persisted stage results; extraction is deterministic, so this
// reproduces the original tracker state. Artifact re-extraction uses the local
// fenced-block fallback only; no generative calls happen during restore.
func (o *Orchestrator) Restore(rec JourneyRecord, stages []Stage) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.started {
		return ErrAlreadyStarted
	}
	o.started = true

	o.ectx = &ExplorationContext{
		JourneyID:         rec.ID,
		Input:             rec.Input,
		Status:            rec.Status,
		CurrentStageIndex: len(stages),
		CompletedStages:   append([]Stage(nil), stages...),
		ChasedTopics:      make(map[string]bool),
		CreatedAt:         rec.CreatedAt,
		UpdatedAt:         time.Now(),
	}

	localPipeline := artifacts.NewPipeline(nil, o.log.Named("artifacts"))
	for _, stage := range stages {
		if stage.Status != StageComplete {
			continue
		}
		switch stage.Type {
		case StageQuestion:
			o.tracker.ExtractAndTrack(stage.Result, stage.Number, string(stage.Type))
		case StageSearch:
			o.tracker.MatchAnswers(stage.Result, stage.Number)
		case StageBuild:
			for _, a := range localPipeline.ExtractArtifacts(context.Background(), stage.Result, stage.Number, string(stage.Type)) {
				o.ectx.Artifacts = append(o.ectx.Artifacts, *a)
			}
		case StageChase:
			if topic := extractChasedTopic(stage.Result); topic != "" {
				o.ectx.ChasedTopics[topic] = true
			}
		}
	}

	o.log.Info("journey restored",
		zap.String("journey_id", rec.ID),
		zap.Int("stages", len(stages)),
		zap.Int("questions", o.tracker.Count()),
		zap.Int("artifacts", len(o.ectx.Artifacts)))
	return nil
}

// Resume reactivates a restored (or externally paused) journey and executes
// its next stage.
func (o *Orchestrator) Resume(ctx context.Context) (Stage, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.started {
		return Stage{}, ErrNotStarted
	}
	if o.ectx.Status == JourneyCompleted {
		return Stage{}, ErrComplete
	}

	o.ectx.Status = JourneyActive
	o.ectx.UpdatedAt = time.Now()
	o.persistJourney(ctx)
	o.log.Info("journey resumed", zap.String("journey_id", o.ectx.JourneyID))

	return o.executeStage(ctx, o.nextStageType()), nil
}
