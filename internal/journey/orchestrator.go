package journey

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wayfinder/internal/artifacts"
	"wayfinder/internal/perception"
	"wayfinder/internal/questions"
	"wayfinder/internal/similarity"
)

// Config holds orchestrator tuning knobs.
type Config struct {
	// MaxStages is the total number of stages the journey may run, summary
	// included. Default 8.
	MaxStages int

	// StageDelay is the pause between a completed stage and the start of the
	// next auto-advanced one. The delay is the window in which an external
	// pause/stop request can take effect. Default 2s.
	StageDelay time.Duration

	// AutoAdvance schedules the next stage automatically after StageDelay.
	// When false the caller drives the journey via Next.
	AutoAdvance bool

	// Streaming enables incremental content/thinking events during a stage.
	Streaming bool

	// RevisionEnabled gates the advisory log line when the quality scorer
	// recommends revision. Revision itself is never executed automatically.
	RevisionEnabled bool

	// DedupThreshold and MatchThreshold override the question tracker's
	// similarity cutoffs for deduplication and answer matching. Zero keeps
	// the tracker defaults (0.85 and 0.8).
	DedupThreshold float64
	MatchThreshold float64
}

func (c Config) withDefaults() Config {
	if c.MaxStages <= 0 {
		c.MaxStages = len(StageCycle)
	}
	if c.StageDelay <= 0 {
		c.StageDelay = 2 * time.Second
	}
	return c
}

// Deps wires the orchestrator's collaborators. LLM is required; everything
// else has a usable default or is optional.
type Deps struct {
	LLM      perception.Client
	Scorer   QualityScorer    // optional: skipped entirely when nil
	Insights InsightExtractor // optional: skipped entirely when nil
	Store    Store            // optional: persistence and pause/stop polling
	Prompts  PromptBuilder    // defaults to DefaultPromptBuilder
	Matcher  similarity.Matcher
	Logger   *zap.Logger
}

// Orchestrator drives one journey. Each journey owns its own orchestrator,
// tracker, and pipeline instance; nothing here is shared across journeys.
type Orchestrator struct {
	mu sync.Mutex

	cfg      Config
	log      *zap.Logger
	llm      perception.Client
	scorer   QualityScorer
	insights InsightExtractor
	store    Store
	prompts  PromptBuilder

	tracker  *questions.Tracker
	pipeline *artifacts.Pipeline

	ectx    *ExplorationContext
	started bool

	events   chan JourneyEvent
	done     chan struct{}
	doneOnce sync.Once
	timer    *time.Timer
	halted   bool
}

// New creates an orchestrator for a single journey.
func New(deps Deps, cfg Config) *Orchestrator {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	matcher := deps.Matcher
	if matcher == nil {
		matcher = similarity.NewJaccard()
	}
	prompts := deps.Prompts
	if prompts == nil {
		prompts = &DefaultPromptBuilder{}
	}

	var trackerOpts []questions.Option
	if cfg.DedupThreshold > 0 {
		trackerOpts = append(trackerOpts, questions.WithDedupThreshold(cfg.DedupThreshold))
	}
	if cfg.MatchThreshold > 0 {
		trackerOpts = append(trackerOpts, questions.WithMatchThreshold(cfg.MatchThreshold))
	}

	return &Orchestrator{
		cfg:      cfg.withDefaults(),
		log:      log,
		llm:      deps.LLM,
		scorer:   deps.Scorer,
		insights: deps.Insights,
		store:    deps.Store,
		prompts:  prompts,
		tracker:  questions.NewTracker(matcher, log.Named("questions"), trackerOpts...),
		pipeline: artifacts.NewPipeline(artifacts.NewLLMExtractor(deps.LLM), log.Named("artifacts")),
		events:   make(chan JourneyEvent, 256),
		done:     make(chan struct{}),
	}
}

// Start begins the journey at the first stage type in the cycle. The returned
// Stage is terminal (complete or error); a failed generative call is recorded
// into the stage, not returned as an error.
func (o *Orchestrator) Start(ctx context.Context, input string) (Stage, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.started {
		return Stage{}, ErrAlreadyStarted
	}
	o.started = true

	now := time.Now()
	o.ectx = &ExplorationContext{
		JourneyID:    uuid.NewString(),
		Input:        input,
		Status:       JourneyActive,
		ChasedTopics: make(map[string]bool),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	o.persistJourney(ctx)

	o.log.Info("journey started",
		zap.String("journey_id", o.ectx.JourneyID),
		zap.Int("max_stages", o.cfg.MaxStages))

	return o.executeStage(ctx, o.nextStageType()), nil
}

// Next executes the next stage in the cycle. It fails with ErrNotStarted if
// Start was never called and ErrComplete once the journey reached a terminal
// state. Any auto-advance timer still pending is cancelled in favor of the
// manual call.
func (o *Orchestrator) Next(ctx context.Context) (Stage, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.started {
		return Stage{}, ErrNotStarted
	}
	if o.ectx.Status == JourneyCompleted {
		return Stage{}, ErrComplete
	}
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	return o.executeStage(ctx, o.nextStageType()), nil
}

// Context returns a deep-copy snapshot of the exploration context, including
// the tracked question set.
func (o *Orchestrator) Context() ExplorationContext {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ectx == nil {
		return ExplorationContext{}
	}

	snap := *o.ectx
	snap.CompletedStages = append([]Stage(nil), o.ectx.CompletedStages...)
	snap.Insights = append([]RichInsight(nil), o.ectx.Insights...)
	snap.Artifacts = append([]artifacts.RichArtifact(nil), o.ectx.Artifacts...)
	for i := range snap.Artifacts {
		a := &snap.Artifacts[i]
		a.Validation.Errors = append([]string(nil), a.Validation.Errors...)
		a.Validation.Warnings = append([]string(nil), a.Validation.Warnings...)
		a.Metadata.Tags = append([]string(nil), a.Metadata.Tags...)
	}
	snap.Questions = o.tracker.All()
	snap.ChasedTopics = make(map[string]bool, len(o.ectx.ChasedTopics))
	for topic := range o.ectx.ChasedTopics {
		snap.ChasedTopics[topic] = true
	}
	return snap
}

// Metrics returns the tracker's aggregate question counts.
func (o *Orchestrator) Metrics() questions.Metrics {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.tracker.GetMetrics()
}

// PriorityQuestions returns the open questions in priority order.
func (o *Orchestrator) PriorityQuestions(limit int) []questions.TrackedQuestion {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.tracker.PriorityQuestions(limit)
}

// Events returns the observer channel. Delivery is best-effort: events are
// dropped, not blocked on, when the consumer falls behind.
func (o *Orchestrator) Events() <-chan JourneyEvent {
	return o.events
}

// Done is closed when the journey reaches a terminal state.
func (o *Orchestrator) Done() <-chan struct{} {
	return o.done
}

// Stop cancels any pending auto-advance without touching the external journey
// status. The in-flight stage, if any, still runs to completion.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.halted = true
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
}

// nextStageType returns the designated summary type for the final planned
// stage, else the cyclic type at the next index. The cycle wraps over the
// seven non-summary types so journeys longer than one cycle never hit summary
// mid-journey. Callers hold o.mu.
func (o *Orchestrator) nextStageType() StageType {
	completed := len(o.ectx.CompletedStages)
	if completed >= o.cfg.MaxStages-1 {
		return StageSummary
	}
	return StageCycle[completed%(len(StageCycle)-1)]
}

// emit delivers an event without blocking. A full observer channel drops the
// event.
func (o *Orchestrator) emit(ev JourneyEvent) {
	ev.Timestamp = time.Now()
	select {
	case o.events <- ev:
	default:
		o.log.Debug("event dropped: observer channel full", zap.String("type", string(ev.Type)))
	}
}

// persistJourney is best-effort: a store failure is logged and swallowed.
func (o *Orchestrator) persistJourney(ctx context.Context) {
	if o.store == nil {
		return
	}
	rec := JourneyRecord{
		ID:                o.ectx.JourneyID,
		Input:             o.ectx.Input,
		Status:            o.ectx.Status,
		CurrentStageIndex: o.ectx.CurrentStageIndex,
		CreatedAt:         o.ectx.CreatedAt,
		UpdatedAt:         time.Now(),
	}
	if err := o.store.UpdateJourney(ctx, rec); err != nil {
		o.log.Warn("journey persist failed", zap.Error(err))
	}
}

func (o *Orchestrator) markCompleted(ctx context.Context) {
	o.ectx.Status = JourneyCompleted
	o.ectx.UpdatedAt = time.Now()
	o.persistJourney(ctx)
	o.emit(JourneyEvent{Type: EventJourneyCompleted})
	o.log.Info("journey completed",
		zap.String("journey_id", o.ectx.JourneyID),
		zap.Int("stages", len(o.ectx.CompletedStages)))
	o.doneOnce.Do(func() { close(o.done) })
}
