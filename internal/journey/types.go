// Package journey implements the stage orchestrator: it drives one
// exploration journey from a starting input to a terminal state, one stage at
// a time, feeding stage output to the question tracker and artifact pipeline
// and deciding after every stage whether to continue, pause, stop with a
// summary, or complete.
package journey

import (
	"time"

	"wayfinder/internal/artifacts"
	"wayfinder/internal/questions"
)

// StageType is one of the eight fixed stage kinds. The cycle order is
// declared in StageCycle; Summary doubles as the distinguished terminal kind
// the orchestrator switches to for the final planned stage.
type StageType string

const (
	StageExplore    StageType = "explore"    // broad exploration of the input
	StageQuestion   StageType = "question"   // raise open questions
	StageSearch     StageType = "search"     // answer open questions
	StageChase      StageType = "chase"      // chase one untouched tangent
	StageAnalyze    StageType = "analyze"    // analyze accumulated material
	StageSynthesize StageType = "synthesize" // synthesize findings
	StageBuild      StageType = "build"      // build concrete artifacts
	StageSummary    StageType = "summary"    // terminal summary
)

// StageCycle is the fixed 8-element stage cycle.
var StageCycle = [8]StageType{
	StageExplore,
	StageQuestion,
	StageSearch,
	StageChase,
	StageAnalyze,
	StageSynthesize,
	StageBuild,
	StageSummary,
}

// StageStatus tracks one stage's execution. Complete and error are terminal;
// a stage is never mutated after reaching either.
type StageStatus string

const (
	StagePending  StageStatus = "pending"
	StageRunning  StageStatus = "running"
	StageComplete StageStatus = "complete"
	StageError    StageStatus = "error"
)

// Stage is one discrete execution round of the exploration cycle.
type Stage struct {
	ID          string      `json:"id"`
	Number      int         `json:"number"` // 1-based position in the journey
	Type        StageType   `json:"type"`
	Status      StageStatus `json:"status"`
	Prompt      string      `json:"prompt"`
	Result      string      `json:"result"`
	Thinking    string      `json:"thinking,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt time.Time   `json:"completed_at,omitempty"`
}

// RichInsight is one extracted insight, opaque to the orchestrator beyond its
// shape.
type RichInsight struct {
	ID          string  `json:"id"`
	Text        string  `json:"text"`
	Category    string  `json:"category,omitempty"`
	StageNumber int     `json:"stage_number"`
	Importance  float64 `json:"importance,omitempty"`
}

// JourneyStatus is the externally visible lifecycle state of a journey.
type JourneyStatus string

const (
	JourneyActive    JourneyStatus = "active"
	JourneyPaused    JourneyStatus = "paused"
	JourneyStopped   JourneyStatus = "stopped"
	JourneyCompleted JourneyStatus = "completed"
)

// JourneyRecord is the persisted view of a journey, read back between stages
// to pick up externally requested pause/stop.
type JourneyRecord struct {
	ID                string        `json:"id"`
	Input             string        `json:"input"`
	Status            JourneyStatus `json:"status"`
	CurrentStageIndex int           `json:"current_stage_index"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// ExplorationContext is the accumulated state of one journey. The orchestrator
// owns the mutable instance; Context() hands out deep-copy snapshots.
type ExplorationContext struct {
	JourneyID         string                      `json:"journey_id"`
	Input             string                      `json:"input"`
	Status            JourneyStatus               `json:"status"`
	CurrentStageIndex int                         `json:"current_stage_index"`
	CompletedStages   []Stage                     `json:"completed_stages"`
	Insights          []RichInsight               `json:"insights"`
	Questions         []questions.TrackedQuestion `json:"questions"`
	Artifacts         []artifacts.RichArtifact    `json:"artifacts"`
	ChasedTopics      map[string]bool             `json:"chased_topics"`
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`
}

// EventType classifies journey events delivered to observers.
type EventType string

const (
	EventStageStarted      EventType = "stage_started"
	EventContent           EventType = "content"  // streaming content chunk
	EventThinking          EventType = "thinking" // streaming thinking chunk
	EventStageCompleted    EventType = "stage_completed"
	EventQuestionTracked   EventType = "question_tracked"
	EventArtifactExtracted EventType = "artifact_extracted"
	EventInsight           EventType = "insight"
	EventJourneyPaused     EventType = "journey_paused"
	EventJourneyCompleted  EventType = "journey_completed"
)

// JourneyEvent is one observer notification. Delivery is best-effort and
// order-preserving within a stage.
type JourneyEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	StageNumber int       `json:"stage_number,omitempty"`
	StageType   StageType `json:"stage_type,omitempty"`
	Text        string    `json:"text,omitempty"`
	Data        any       `json:"data,omitempty"`
}
