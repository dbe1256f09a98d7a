// Package questions implements the question lifecycle tracker: extraction of
// candidate questions from stage output, deduplication against tracked state,
// priority inference, and matching of later answers back to tracked questions.
//
// A Tracker is owned by exactly one journey and is accessed sequentially by
// that journey's orchestrator. It is not safe for concurrent use.
package questions

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wayfinder/internal/similarity"
)

// Priority buckets, highest first.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// priorityOrder gives the stable sort order for PriorityQuestions.
var priorityOrder = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

// Status of a tracked question. Transitions only move forward:
// unanswered -> partial -> answered, or any non-terminal status -> obsolete.
// A question never regresses from answered.
type Status string

const (
	StatusUnanswered Status = "unanswered"
	StatusPartial    Status = "partial"
	StatusAnswered   Status = "answered"
	StatusObsolete   Status = "obsolete"
)

// Confidence levels attached to answers, mapped to numeric weights by Metrics.
type Confidence string

const (
	ConfidenceVerified    Confidence = "verified"
	ConfidenceHigh        Confidence = "high"
	ConfidenceMedium      Confidence = "medium"
	ConfidenceLow         Confidence = "low"
	ConfidenceSpeculative Confidence = "speculative"
)

// confidenceWeights maps confidence labels to the numeric weights used when
// averaging over answered questions.
var confidenceWeights = map[Confidence]float64{
	ConfidenceVerified:    1.0,
	ConfidenceHigh:        0.8,
	ConfidenceMedium:      0.5,
	ConfidenceLow:         0.3,
	ConfidenceSpeculative: 0.1,
}

// TrackedQuestion is a deduplicated, lifecycle-tracked question record.
type TrackedQuestion struct {
	ID                string     `json:"id"`
	Text              string     `json:"text"`
	AskedInStage      int        `json:"asked_in_stage"`
	StageType         string     `json:"stage_type"`
	Priority          Priority   `json:"priority"`
	Status            Status     `json:"status"`
	Answer            string     `json:"answer,omitempty"`
	Confidence        Confidence `json:"confidence,omitempty"`
	AnsweredInStage   int        `json:"answered_in_stage,omitempty"`
	Evidence          []string   `json:"evidence,omitempty"`
	RelatedInsightIDs []string   `json:"related_insight_ids,omitempty"`
	NeedsResearch     bool       `json:"needs_research"`
	ResearchAttempts  int        `json:"research_attempts"`
	TrackedAt         time.Time  `json:"tracked_at"`
}

// Tracker maintains the canonical set of questions raised during one journey.
type Tracker struct {
	matcher similarity.Matcher
	log     *zap.Logger

	dedupThreshold float64
	matchThreshold float64

	ordered    []*TrackedQuestion // original tracking order
	byID       map[string]*TrackedQuestion
	byStage    map[int][]string
	byPriority map[Priority][]string
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithDedupThreshold overrides the similarity threshold above which a new
// question is considered a duplicate of an existing one.
func WithDedupThreshold(v float64) Option {
	return func(t *Tracker) { t.dedupThreshold = v }
}

// WithMatchThreshold overrides the similarity threshold for fuzzy answer
// matching.
func WithMatchThreshold(v float64) Option {
	return func(t *Tracker) { t.matchThreshold = v }
}

// NewTracker creates an empty tracker. Each journey owns its own instance.
func NewTracker(matcher similarity.Matcher, log *zap.Logger, opts ...Option) *Tracker {
	if matcher == nil {
		matcher = similarity.NewJaccard()
	}
	if log == nil {
		log = zap.NewNop()
	}
	t := &Tracker{
		matcher:        matcher,
		log:            log,
		dedupThreshold: 0.85,
		matchThreshold: 0.8,
		byID:           make(map[string]*TrackedQuestion),
		byStage:        make(map[int][]string),
		byPriority:     make(map[Priority][]string),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track records a question, deduplicating against all existing records.
// If an existing question exceeds the dedup threshold, that record is returned
// unchanged and nothing new is created. Priority is inferred from the text
// when not supplied.
func (t *Tracker) Track(text string, stageNumber int, stageType string, priority Priority) *TrackedQuestion {
	if existing := t.findDuplicate(text); existing != nil {
		t.log.Debug("question deduplicated",
			zap.String("id", existing.ID),
			zap.String("text", text))
		return existing
	}

	if priority == "" {
		priority = InferPriority(text)
	}

	q := &TrackedQuestion{
		ID:            uuid.NewString(),
		Text:          text,
		AskedInStage:  stageNumber,
		StageType:     stageType,
		Priority:      priority,
		Status:        StatusUnanswered,
		NeedsResearch: needsResearch(text),
		TrackedAt:     time.Now(),
	}

	t.ordered = append(t.ordered, q)
	t.byID[q.ID] = q
	t.byStage[stageNumber] = append(t.byStage[stageNumber], q.ID)
	t.byPriority[priority] = append(t.byPriority[priority], q.ID)

	t.log.Debug("question tracked",
		zap.String("id", q.ID),
		zap.Int("stage", stageNumber),
		zap.String("priority", string(priority)),
		zap.Bool("needs_research", q.NeedsResearch))
	return q
}

// findDuplicate returns the first tracked question whose similarity to text
// exceeds the dedup threshold, or nil.
func (t *Tracker) findDuplicate(text string) *TrackedQuestion {
	for _, q := range t.ordered {
		if t.matcher.Similarity(q.Text, text) > t.dedupThreshold {
			return q
		}
	}
	return nil
}

// MarkAnswered sets the question to answered and stamps answer metadata.
// Unknown ids are ignored. The transition is unconditional: answering an
// already-answered question overwrites its answer.
func (t *Tracker) MarkAnswered(id, answer string, confidence Confidence, stageNumber int, evidence []string) {
	q, ok := t.byID[id]
	if !ok {
		t.log.Warn("mark answered: unknown question id", zap.String("id", id))
		return
	}
	q.Status = StatusAnswered
	q.Answer = answer
	q.Confidence = confidence
	q.AnsweredInStage = stageNumber
	if len(evidence) > 0 {
		q.Evidence = append(q.Evidence, evidence...)
	}
	t.log.Debug("question answered",
		zap.String("id", id),
		zap.String("confidence", string(confidence)),
		zap.Int("stage", stageNumber))
}

// MarkPartial records a partial answer and bumps the research-attempt counter.
// Answered questions are left untouched so status never regresses.
func (t *Tracker) MarkPartial(id, partialAnswer string, confidence Confidence, stageNumber int) {
	q, ok := t.byID[id]
	if !ok {
		t.log.Warn("mark partial: unknown question id", zap.String("id", id))
		return
	}
	if q.Status == StatusAnswered {
		t.log.Debug("mark partial ignored: question already answered", zap.String("id", id))
		return
	}
	q.Status = StatusPartial
	q.Answer = partialAnswer
	q.Confidence = confidence
	if stageNumber > 0 {
		q.AnsweredInStage = stageNumber
	}
	q.ResearchAttempts++
}

// MarkObsolete retires a question. Obsolete is terminal; the record stays
// retrievable but drops out of unanswered views. Answered questions are left
// untouched so status never regresses.
func (t *Tracker) MarkObsolete(id string) {
	q, ok := t.byID[id]
	if !ok {
		t.log.Warn("mark obsolete: unknown question id", zap.String("id", id))
		return
	}
	if q.Status == StatusAnswered {
		t.log.Debug("mark obsolete ignored: question already answered", zap.String("id", id))
		return
	}
	q.Status = StatusObsolete
}

// clone returns a value copy that shares no backing arrays with the record.
func (q *TrackedQuestion) clone() TrackedQuestion {
	out := *q
	out.Evidence = append([]string(nil), q.Evidence...)
	out.RelatedInsightIDs = append([]string(nil), q.RelatedInsightIDs...)
	return out
}

// Get returns the tracked question with the given id.
func (t *Tracker) Get(id string) (*TrackedQuestion, bool) {
	q, ok := t.byID[id]
	return q, ok
}

// Count returns the number of tracked questions.
func (t *Tracker) Count() int {
	return len(t.ordered)
}

// All returns value copies of every tracked question in tracking order.
func (t *Tracker) All() []TrackedQuestion {
	out := make([]TrackedQuestion, 0, len(t.ordered))
	for _, q := range t.ordered {
		out = append(out, q.clone())
	}
	return out
}

// ByStage returns the questions raised in the given stage, in tracking order.
func (t *Tracker) ByStage(stageNumber int) []TrackedQuestion {
	ids := t.byStage[stageNumber]
	out := make([]TrackedQuestion, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.byID[id].clone())
	}
	return out
}

// PriorityQuestions returns unanswered-or-partial questions ordered
// critical -> high -> medium -> low, stable within a bucket by tracking order,
// truncated to limit. A limit <= 0 means no truncation.
func (t *Tracker) PriorityQuestions(limit int) []TrackedQuestion {
	var out []TrackedQuestion
	for _, p := range priorityOrder {
		for _, id := range t.byPriority[p] {
			q := t.byID[id]
			if q.Status != StatusUnanswered && q.Status != StatusPartial {
				continue
			}
			out = append(out, q.clone())
			if limit > 0 && len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// Metrics holds aggregate counts over the tracked set.
type Metrics struct {
	Total                  int     `json:"total"`
	Unanswered             int     `json:"unanswered"`
	Partial                int     `json:"partial"`
	Answered               int     `json:"answered"`
	Obsolete               int     `json:"obsolete"`
	HighPriorityUnanswered int     `json:"high_priority_unanswered"`
	AvgConfidence          float64 `json:"avg_confidence"`
}

// GetMetrics computes aggregate counts. Average confidence maps confidence
// levels to numeric weights and averages over answered questions only.
func (t *Tracker) GetMetrics() Metrics {
	m := Metrics{Total: len(t.ordered)}
	confSum := 0.0
	for _, q := range t.ordered {
		switch q.Status {
		case StatusUnanswered:
			m.Unanswered++
		case StatusPartial:
			m.Partial++
		case StatusAnswered:
			m.Answered++
			confSum += confidenceWeights[q.Confidence]
		case StatusObsolete:
			m.Obsolete++
		}
		if (q.Priority == PriorityCritical || q.Priority == PriorityHigh) &&
			(q.Status == StatusUnanswered || q.Status == StatusPartial) {
			m.HighPriorityUnanswered++
		}
	}
	if m.Answered > 0 {
		m.AvgConfidence = confSum / float64(m.Answered)
	}
	return m
}
