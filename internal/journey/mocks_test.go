package journey

import (
	"context"
	"fmt"
	"sync"

	"wayfinder/internal/perception"
)

// perceptionRequest keeps test hook signatures short.
type perceptionRequest = perception.Request

// scriptedLLM implements perception.Client for unit tests. The respond hook
// receives every request; when nil, calls return "ok".
type scriptedLLM struct {
	mu      sync.Mutex
	calls   []perception.Request
	respond func(req perception.Request) (string, error)
}

func (s *scriptedLLM) Execute(ctx context.Context, req perception.Request) (*perception.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()

	if s.respond == nil {
		return &perception.Result{Content: "ok"}, nil
	}
	content, err := s.respond(req)
	if err != nil {
		return nil, err
	}
	return &perception.Result{Content: content}, nil
}

func (s *scriptedLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// stageOf recovers the stage type from a DefaultPromptBuilder prompt, so a
// scripted response can vary by stage kind.
func stageOf(req perception.Request) StageType {
	var num int
	var typ string
	_, err := fmt.Sscanf(req.Prompt, "You are running stage %d (%s", &num, &typ)
	if err != nil {
		return ""
	}
	for _, st := range StageCycle {
		if typ == string(st)+")" {
			return st
		}
	}
	return ""
}

// memStore implements Store in memory with a controllable external status.
type memStore struct {
	mu       sync.Mutex
	status   JourneyStatus
	journeys map[string]JourneyRecord
	stages   map[string][]Stage
	failAll  bool
}

func newMemStore() *memStore {
	return &memStore{
		status:   JourneyActive,
		journeys: make(map[string]JourneyRecord),
		stages:   make(map[string][]Stage),
	}
}

func (m *memStore) setStatus(s JourneyStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = s
}

func (m *memStore) CreateStage(ctx context.Context, journeyID string, stage Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return fmt.Errorf("store unavailable")
	}
	m.stages[journeyID] = append(m.stages[journeyID], stage)
	return nil
}

func (m *memStore) GetJourney(ctx context.Context, id string) (*JourneyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return nil, fmt.Errorf("store unavailable")
	}
	rec, ok := m.journeys[id]
	if !ok {
		return nil, nil
	}
	// The externally requested status wins over whatever the orchestrator
	// last persisted, mimicking a user pressing pause/stop.
	if m.status != JourneyActive {
		rec.Status = m.status
	}
	return &rec, nil
}

func (m *memStore) UpdateJourney(ctx context.Context, rec JourneyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return fmt.Errorf("store unavailable")
	}
	m.journeys[rec.ID] = rec
	return nil
}

func (m *memStore) stageCount(journeyID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stages[journeyID])
}

// stubScorer returns a fixed report.
type stubScorer struct {
	mu     sync.Mutex
	report QualityReport
	calls  int
}

func (s *stubScorer) EvaluateStageQuality(ctx context.Context, stage Stage) (*QualityReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	r := s.report
	return &r, nil
}

func (s *stubScorer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubInsights yields one insight per stage.
type stubInsights struct{}

func (stubInsights) ExtractInsights(ctx context.Context, text string, stageType StageType, stageNumber int) ([]RichInsight, error) {
	return []RichInsight{{
		ID:          fmt.Sprintf("ins-%d", stageNumber),
		Text:        fmt.Sprintf("insight from stage %d", stageNumber),
		StageNumber: stageNumber,
	}}, nil
}
