package questions

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wayfinder/internal/similarity"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	return NewTracker(similarity.NewJaccard(), nil)
}

func TestTrackDedupIdempotence(t *testing.T) {
	tr := newTestTracker(t)

	first := tr.Track("Why does the import pipeline stall under load?", 1, "question", "")
	second := tr.Track("Why does the import pipeline stall under load?", 2, "question", "")

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, tr.Count())
	// Dedup returns the original record untouched.
	assert.Equal(t, 1, second.AskedInStage)
}

func TestTrackDedupCasePunctuationVariant(t *testing.T) {
	tr := newTestTracker(t)

	a := tr.Track("Why does X happen?", 1, "question", "")
	b := tr.Track("why does x happen", 3, "search", "")

	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, 1, tr.Count())
}

func TestTrackDistinctQuestions(t *testing.T) {
	tr := newTestTracker(t)

	tr.Track("Why does the cache miss rate spike at noon?", 1, "question", "")
	tr.Track("What evidence supports the batching hypothesis?", 1, "question", "")

	assert.Equal(t, 2, tr.Count())
}

func TestInferPriority(t *testing.T) {
	tests := []struct {
		text string
		want Priority
	}{
		{"Why does the scheduler starve low-weight tasks?", PriorityCritical},
		{"What assumption underlies the batching model?", PriorityCritical},
		{"What is the root cause of the timeout?", PriorityCritical},
		{"How would the system behave under partition?", PriorityHigh},
		{"What if the upstream feed stops entirely?", PriorityHigh},
		{"What evidence backs this claim?", PriorityHigh},
		{"What is a bloom filter?", PriorityLow},
		{"Please define the term backpressure", PriorityLow},
		{"Could the metric be misleading here?", PriorityMedium},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, InferPriority(tt.text))
		})
	}
}

func TestNeedsResearchFlag(t *testing.T) {
	tr := newTestTracker(t)

	q := tr.Track("Is there a study measuring this effect in production?", 1, "question", "")
	assert.True(t, q.NeedsResearch)

	q = tr.Track("Should the module own its retry policy?", 1, "question", "")
	assert.False(t, q.NeedsResearch)
}

func TestMarkAnsweredNonexistentIsNoop(t *testing.T) {
	tr := newTestTracker(t)
	tr.Track("Why does compaction lag behind writes?", 1, "question", "")

	assert.NotPanics(t, func() {
		tr.MarkAnswered("no-such-id", "answer", ConfidenceHigh, 2, nil)
	})
	assert.Equal(t, 1, tr.Count())
}

func TestStatusMonotonicity(t *testing.T) {
	tr := newTestTracker(t)
	q := tr.Track("Why does the write amplification grow?", 1, "question", "")

	tr.MarkAnswered(q.ID, "because of level overlap", ConfidenceHigh, 2, nil)
	require.Equal(t, StatusAnswered, q.Status)

	// A later partial result must not regress an answered question.
	tr.MarkPartial(q.ID, "maybe something else", ConfidenceLow, 3)
	assert.Equal(t, StatusAnswered, q.Status)
	assert.Equal(t, "because of level overlap", q.Answer)

	// Neither may obsolescence: answered is terminal.
	tr.MarkObsolete(q.ID)
	assert.Equal(t, StatusAnswered, q.Status)
}

func TestMarkPartialIncrementsResearchAttempts(t *testing.T) {
	tr := newTestTracker(t)
	q := tr.Track("How large is the effect in real deployments?", 1, "question", "")

	tr.MarkPartial(q.ID, "one datapoint found", ConfidenceLow, 2)
	tr.MarkPartial(q.ID, "two datapoints found", ConfidenceMedium, 3)

	assert.Equal(t, StatusPartial, q.Status)
	assert.Equal(t, 2, q.ResearchAttempts)
	assert.Equal(t, "two datapoints found", q.Answer)
}

func TestMarkObsoleteExcludedFromPriorityView(t *testing.T) {
	tr := newTestTracker(t)
	q := tr.Track("Why was the legacy path kept?", 1, "question", "")
	tr.MarkObsolete(q.ID)

	assert.Equal(t, StatusObsolete, q.Status)
	assert.Empty(t, tr.PriorityQuestions(10))

	// Still retrievable.
	got, ok := tr.Get(q.ID)
	require.True(t, ok)
	assert.Equal(t, StatusObsolete, got.Status)
}

func TestPriorityQuestionsOrderingAndLimit(t *testing.T) {
	tr := newTestTracker(t)

	tr.Track("Could the benchmark be flawed in some respect?", 1, "question", PriorityMedium)
	crit1 := tr.Track("Why does the primary path deadlock?", 1, "question", PriorityCritical)
	high1 := tr.Track("How does load shedding interact with retries?", 2, "question", PriorityHigh)
	crit2 := tr.Track("Why is the invariant violated on restart?", 2, "question", PriorityCritical)
	answered := tr.Track("How many replicas does the quorum need?", 2, "question", PriorityHigh)
	tr.MarkAnswered(answered.ID, "three", ConfidenceVerified, 3, nil)

	got := tr.PriorityQuestions(3)
	require.Len(t, got, 3)
	assert.Equal(t, crit1.ID, got[0].ID)
	assert.Equal(t, crit2.ID, got[1].ID)
	assert.Equal(t, high1.ID, got[2].ID)
}

func TestGetMetrics(t *testing.T) {
	tr := newTestTracker(t)

	a := tr.Track("Why does the leader flap during rollout?", 1, "question", PriorityCritical)
	b := tr.Track("How is the quota enforced across tenants?", 1, "question", PriorityHigh)
	c := tr.Track("Could retention be configured per stream?", 2, "question", PriorityMedium)
	d := tr.Track("Is the fallback path ever exercised in prod?", 2, "question", PriorityHigh)

	tr.MarkAnswered(a.ID, "rollout restarts the lease holder", ConfidenceVerified, 3, nil)
	tr.MarkAnswered(b.ID, "token bucket per tenant", ConfidenceMedium, 3, nil)
	tr.MarkPartial(c.ID, "partially, via topic config", ConfidenceLow, 4)
	_ = d

	want := Metrics{
		Total:                  4,
		Unanswered:             1,
		Partial:                1,
		Answered:               2,
		HighPriorityUnanswered: 1,
		// (1.0 + 0.5) / 2 over answered questions only.
		AvgConfidence: 0.75,
	}
	if diff := cmp.Diff(want, tr.GetMetrics()); diff != "" {
		t.Errorf("metrics mismatch (-want +got):\n%s", diff)
	}
}

func TestTrackManyDistinctGrows(t *testing.T) {
	tr := newTestTracker(t)
	for i := 0; i < 20; i++ {
		tr.Track(fmt.Sprintf("How does subsystem %c interact with the scheduler core?", 'a'+i), 1, "question", "")
	}
	assert.Equal(t, 20, tr.Count())
}
