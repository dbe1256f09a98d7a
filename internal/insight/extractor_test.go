package insight

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wayfinder/internal/journey"
	"wayfinder/internal/perception"
)

type stubClient struct {
	content string
	err     error
}

func (s *stubClient) Execute(ctx context.Context, req perception.Request) (*perception.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &perception.Result{Content: s.content}, nil
}

func TestExtractInsightsStructured(t *testing.T) {
	client := &stubClient{content: `{"insights":[
		{"text":"Connection pooling dominates tail latency","category":"performance","importance":0.9},
		{"text":"","category":"noise","importance":0.5},
		{"text":"Retries amplify load under saturation","importance":1.7}
	]}`}
	ex := NewExtractor(client, zap.NewNop())

	got, err := ex.ExtractInsights(context.Background(), "stage output", journey.StageAnalyze, 5)
	require.NoError(t, err)
	require.Len(t, got, 2, "blank-text entries are dropped")
	assert.Equal(t, "performance", got[0].Category)
	assert.Equal(t, 5, got[0].StageNumber)
	assert.NotEmpty(t, got[0].ID)
	assert.Equal(t, 1.0, got[1].Importance, "importance is clamped to [0,1]")
}

func TestExtractInsightsFencedJSON(t *testing.T) {
	client := &stubClient{content: "```json\n{\"insights\":[{\"text\":\"Indexes go unused after the schema migration\",\"importance\":0.4}]}\n```"}
	ex := NewExtractor(client, zap.NewNop())

	got, err := ex.ExtractInsights(context.Background(), "stage output", journey.StageExplore, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Indexes go unused after the schema migration", got[0].Text)
}

func TestExtractInsightsFallbackOnCallFailure(t *testing.T) {
	client := &stubClient{err: errors.New("upstream unavailable")}
	ex := NewExtractor(client, zap.NewNop())

	text := "Intro line.\n- The cache invalidation path never fires for renamed keys\n- ok\n* Batch writes starve the single reader under sustained ingest\n"
	got, err := ex.ExtractInsights(context.Background(), text, journey.StageSynthesize, 6)
	require.NoError(t, err, "extraction degrades, never fails")
	require.Len(t, got, 2, "short bullets are skipped")
	assert.Equal(t, "The cache invalidation path never fires for renamed keys", got[0].Text)
	assert.Equal(t, 6, got[1].StageNumber)
}

func TestExtractInsightsFallbackOnMalformedJSON(t *testing.T) {
	client := &stubClient{content: "here are some thoughts, unstructured"}
	ex := NewExtractor(client, zap.NewNop())

	got, err := ex.ExtractInsights(context.Background(), "- A surprisingly load-bearing configuration default nobody documented\n", journey.StageChase, 4)
	require.NoError(t, err)
	require.Len(t, got, 1)
}
