package journey

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wayfinder/internal/perception"
)

// executeStage runs one stage end to end: build prompt, invoke the generative
// service, route output to the extraction components, score, persist, advance
// bookkeeping, and decide the next action. It never fails the journey; a
// failed generative call produces a terminal error stage. Callers hold o.mu.
func (o *Orchestrator) executeStage(ctx context.Context, stageType StageType) Stage {
	stage := Stage{
		ID:        uuid.NewString(),
		Number:    len(o.ectx.CompletedStages) + 1,
		Type:      stageType,
		Status:    StageRunning,
		CreatedAt: time.Now(),
	}
	o.emit(JourneyEvent{Type: EventStageStarted, StageNumber: stage.Number, StageType: stageType})
	o.log.Info("stage started",
		zap.String("journey_id", o.ectx.JourneyID),
		zap.Int("stage", stage.Number),
		zap.String("type", string(stageType)))

	o.ectx.Questions = o.tracker.All()
	stage.Prompt = o.prompts.BuildPrompt(o.ectx, stageType, stage.Number)

	result, err := o.llm.Execute(ctx, perception.Request{
		Prompt:    stage.Prompt,
		Streaming: o.cfg.Streaming,
		OnChunk: func(text string) {
			o.emit(JourneyEvent{Type: EventContent, StageNumber: stage.Number, StageType: stageType, Text: text})
		},
		OnThinking: func(text string) {
			o.emit(JourneyEvent{Type: EventThinking, StageNumber: stage.Number, StageType: stageType, Text: text})
		},
	})

	if err != nil {
		stage.Status = StageError
		stage.Result = "stage execution failed: " + err.Error()
		o.log.Warn("stage errored",
			zap.Int("stage", stage.Number),
			zap.String("type", string(stageType)),
			zap.Error(err))
	} else {
		stage.Status = StageComplete
		stage.Result = result.Content
		stage.Thinking = result.Thinking
		o.routeOutput(ctx, &stage)
		o.scoreStage(ctx, stage)
	}
	stage.CompletedAt = time.Now()

	if o.store != nil {
		if err := o.store.CreateStage(ctx, o.ectx.JourneyID, stage); err != nil {
			o.log.Warn("stage persist failed", zap.Int("stage", stage.Number), zap.Error(err))
		}
	}

	o.ectx.CompletedStages = append(o.ectx.CompletedStages, stage)
	o.ectx.CurrentStageIndex++
	o.ectx.UpdatedAt = time.Now()
	o.persistJourney(ctx)

	o.emit(JourneyEvent{Type: EventStageCompleted, StageNumber: stage.Number, StageType: stageType, Data: stage.Status})
	o.afterStage(ctx, stage)
	return stage
}

// routeOutput feeds a completed stage's text to the type-specific extraction
// components. Every stage feeds insight extraction; question, search, build,
// and chase stages additionally feed their dedicated entry points.
func (o *Orchestrator) routeOutput(ctx context.Context, stage *Stage) {
	if o.insights != nil {
		ins, err := o.insights.ExtractInsights(ctx, stage.Result, stage.Type, stage.Number)
		if err != nil {
			o.log.Warn("insight extraction failed", zap.Int("stage", stage.Number), zap.Error(err))
		}
		for _, in := range ins {
			o.ectx.Insights = append(o.ectx.Insights, in)
			o.emit(JourneyEvent{Type: EventInsight, StageNumber: stage.Number, Text: in.Text})
		}
	}

	switch stage.Type {
	case StageQuestion:
		tracked := o.tracker.ExtractAndTrack(stage.Result, stage.Number, string(stage.Type))
		for _, q := range tracked {
			o.emit(JourneyEvent{Type: EventQuestionTracked, StageNumber: stage.Number, Text: q.Text, Data: q.Priority})
		}
	case StageSearch:
		report := o.tracker.MatchAnswers(stage.Result, stage.Number)
		o.log.Info("answers matched",
			zap.Int("stage", stage.Number),
			zap.Int("extracted", report.Extracted),
			zap.Int("matched", report.Matched),
			zap.Int("unmatched", len(report.Unmatched)))
	case StageBuild:
		extracted := o.pipeline.ExtractArtifacts(ctx, stage.Result, stage.Number, string(stage.Type))
		for _, a := range extracted {
			o.ectx.Artifacts = append(o.ectx.Artifacts, *a)
			o.emit(JourneyEvent{Type: EventArtifactExtracted, StageNumber: stage.Number, Text: a.Title, Data: a.Type})
		}
	case StageChase:
		if topic := extractChasedTopic(stage.Result); topic != "" {
			o.ectx.ChasedTopics[topic] = true
			o.log.Debug("topic chased", zap.String("topic", topic))
		}
	}
}

// scoreStage invokes the quality-scoring collaborator. Summary stages are
// skipped. The shouldRevise flag is advisory: it is logged, never acted on.
func (o *Orchestrator) scoreStage(ctx context.Context, stage Stage) {
	if o.scorer == nil || stage.Type == StageSummary {
		return
	}
	report, err := o.scorer.EvaluateStageQuality(ctx, stage)
	if err != nil {
		o.log.Warn("quality scoring failed", zap.Int("stage", stage.Number), zap.Error(err))
		return
	}
	o.log.Info("stage quality",
		zap.Int("stage", stage.Number),
		zap.Float64("score", report.OverallScore),
		zap.Bool("should_revise", report.ShouldRevise))
	if report.ShouldRevise && o.cfg.RevisionEnabled {
		o.log.Warn("revision recommended (advisory only, not re-executing)",
			zap.Int("stage", stage.Number),
			zap.Strings("improvements", report.Improvements))
	}
}

// afterStage applies the continue/pause/stop decision table, re-reading the
// externally visible journey status so an external request made during the
// stage (or the inter-stage delay) takes priority over continuing.
func (o *Orchestrator) afterStage(ctx context.Context, stage Stage) {
	status := o.externalStatus(ctx)
	completed := len(o.ectx.CompletedStages)
	isSummary := stage.Type == StageSummary

	switch {
	case status == JourneyPaused:
		o.ectx.Status = JourneyPaused
		o.emit(JourneyEvent{Type: EventJourneyPaused})
		o.log.Info("journey paused externally", zap.String("journey_id", o.ectx.JourneyID))

	case status == JourneyStopped && !isSummary:
		o.log.Info("journey stopped externally, scheduling final summary",
			zap.String("journey_id", o.ectx.JourneyID))
		o.schedule(StageSummary)

	case isSummary, completed >= o.cfg.MaxStages:
		o.markCompleted(ctx)

	case completed == o.cfg.MaxStages-1:
		o.schedule(StageSummary)

	default:
		o.schedule(o.nextStageType())
	}
}

// externalStatus reads the journey-status collaborator; with no store (or a
// failing one) the journey is assumed active.
func (o *Orchestrator) externalStatus(ctx context.Context) JourneyStatus {
	if o.store == nil {
		return JourneyActive
	}
	rec, err := o.store.GetJourney(ctx, o.ectx.JourneyID)
	if err != nil {
		o.log.Warn("journey status read failed, continuing", zap.Error(err))
		return JourneyActive
	}
	if rec == nil {
		return JourneyActive
	}
	return rec.Status
}

// schedule arms the auto-advance timer for the given stage type. In manual
// mode (AutoAdvance off) the decision is left to the caller's next Next().
func (o *Orchestrator) schedule(stageType StageType) {
	if !o.cfg.AutoAdvance || o.halted {
		return
	}
	o.timer = time.AfterFunc(o.cfg.StageDelay, func() {
		o.runScheduled(stageType)
	})
}

// runScheduled executes a timer-scheduled stage. The external status is
// re-read just before committing, giving pause/stop requests made during the
// delay window priority over the scheduled continuation.
func (o *Orchestrator) runScheduled(stageType StageType) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.halted || o.ectx == nil || o.ectx.Status != JourneyActive {
		return
	}

	ctx := context.Background()
	switch o.externalStatus(ctx) {
	case JourneyPaused:
		o.ectx.Status = JourneyPaused
		o.emit(JourneyEvent{Type: EventJourneyPaused})
		o.log.Info("journey paused before scheduled stage", zap.String("journey_id", o.ectx.JourneyID))
		return
	case JourneyStopped:
		if stageType != StageSummary {
			stageType = StageSummary
		}
	}

	o.executeStage(ctx, stageType)
}

var chasedTopicPattern = regexp.MustCompile(`(?mi)^\s*(?:\*\*)?topic\s*[:.]\s*(?:\*\*)?\s*(.+)$`)

// extractChasedTopic pulls the "Topic:" line a chase stage is instructed to
// lead with.
func extractChasedTopic(result string) string {
	m := chasedTopicPattern.FindStringSubmatch(result)
	if m == nil {
		return ""
	}
	topic := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[1]), "**"))
	if len(topic) > 120 {
		topic = topic[:120]
	}
	return topic
}
