package artifacts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubExtractor returns a canned response or error.
type stubExtractor struct {
	response string
	err      error
}

func (s *stubExtractor) ExtractStructured(ctx context.Context, content string) (string, error) {
	return s.response, s.err
}

const fencedContent = "Here is the implementation:\n\n```go\nfunc add(a, b int) int {\n\treturn a + b\n}\n```\n\nAnd a shell helper:\n\n```bash\nmake build\n```\n"

func TestExtractArtifactsStructured(t *testing.T) {
	ex := &stubExtractor{response: `{"artifacts":[{"type":"code","title":"Adder","content":"func add(a, b int) int { return a + b }","language":"go","completeness":"complete"}]}`}
	p := NewPipeline(ex, nil)

	got := p.ExtractArtifacts(context.Background(), fencedContent, 4, "build")
	require.Len(t, got, 1)

	a := got[0]
	assert.Equal(t, TypeCode, a.Type)
	assert.Equal(t, "Adder", a.Title)
	assert.Equal(t, 4, a.StageNumber)
	assert.True(t, a.Validation.Validated)
	assert.True(t, a.Validation.SyntaxValid)
	assert.Equal(t, CompletenessComplete, a.Validation.Completeness)
	assert.Equal(t, 10.0, a.Validation.QualityScore)
	assert.NotEmpty(t, a.ID)
}

func TestExtractArtifactsMalformedJSONFallsBack(t *testing.T) {
	ex := &stubExtractor{response: "Sure! Here are the artifacts I found: ..."}
	p := NewPipeline(ex, nil)

	var got []*RichArtifact
	assert.NotPanics(t, func() {
		got = p.ExtractArtifacts(context.Background(), fencedContent, 4, "build")
	})
	require.Len(t, got, 2)

	for _, a := range got {
		assert.Equal(t, TypeCode, a.Type)
		assert.Equal(t, CompletenessPartial, a.Validation.Completeness)
		assert.False(t, a.Validation.Validated)
	}
	assert.Equal(t, "go", got[0].Metadata.Language)
	assert.Equal(t, "bash", got[1].Metadata.Language)
	assert.Contains(t, got[0].Content, "func add")
}

func TestExtractArtifactsExtractorErrorFallsBack(t *testing.T) {
	ex := &stubExtractor{err: errors.New("model unavailable")}
	p := NewPipeline(ex, nil)

	got := p.ExtractArtifacts(context.Background(), fencedContent, 2, "build")
	assert.Len(t, got, 2)
}

func TestExtractArtifactsNoBlocksDegradesToZero(t *testing.T) {
	ex := &stubExtractor{response: "not json"}
	p := NewPipeline(ex, nil)

	got := p.ExtractArtifacts(context.Background(), "plain prose with no fenced blocks", 2, "build")
	assert.Empty(t, got)
}

func TestExtractArtifactsFencedJSONResponse(t *testing.T) {
	// Models often wrap the JSON in a markdown fence; the pipeline unwraps it.
	ex := &stubExtractor{response: "```json\n{\"artifacts\":[{\"type\":\"report\",\"title\":\"Findings\",\"content\":\"# Findings\\n- one\\n- two\\n\",\"completeness\":\"full\"}]}\n```"}
	p := NewPipeline(ex, nil)

	got := p.ExtractArtifacts(context.Background(), "irrelevant", 5, "synthesize")
	require.Len(t, got, 1)
	assert.Equal(t, TypeReport, got[0].Type)
	assert.Equal(t, CompletenessComplete, got[0].Validation.Completeness)
}

func TestUnbalancedBracesProduceSyntaxError(t *testing.T) {
	ex := &stubExtractor{response: `{"artifacts":[{"type":"code","title":"Broken","content":"{ unbalanced","language":"go","completeness":"complete"}]}`}
	p := NewPipeline(ex, nil)

	got := p.ExtractArtifacts(context.Background(), "x", 1, "build")
	require.Len(t, got, 1)

	v := got[0].Validation
	assert.False(t, v.SyntaxValid)
	require.NotEmpty(t, v.Errors)
	assert.Contains(t, v.Errors[0], "unbalanced braces")
}

func TestQualityScoreClampedToZero(t *testing.T) {
	// Three delimiter errors plus skeleton completeness pushes the raw score
	// below zero; it must clamp.
	content := "{ ( [ TODO ... ... ... ..."
	ex := &stubExtractor{response: `{"artifacts":[{"type":"code","title":"Mess","content":"` + content + `","language":"go","completeness":"skeleton"}]}`}
	p := NewPipeline(ex, nil)

	got := p.ExtractArtifacts(context.Background(), "x", 1, "build")
	require.Len(t, got, 1)
	assert.GreaterOrEqual(t, got[0].Validation.QualityScore, 0.0)
	assert.LessOrEqual(t, got[0].Validation.QualityScore, 10.0)
	assert.Equal(t, 0.0, got[0].Validation.QualityScore)
}

func TestScoreQualityFormula(t *testing.T) {
	tests := []struct {
		name         string
		errors       int
		warnings     int
		completeness Completeness
		want         float64
	}{
		{"clean complete", 0, 0, CompletenessComplete, 10},
		{"one warning", 0, 1, CompletenessComplete, 9.5},
		{"one error partial", 1, 0, CompletenessPartial, 6},
		{"skeleton", 0, 0, CompletenessSkeleton, 6},
		{"floor", 5, 4, CompletenessSkeleton, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scoreQuality(tt.errors, tt.warnings, tt.completeness))
		})
	}
}

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"code", TypeCode},
		{"CODE", TypeCode},
		{"python script", TypeCode},
		{"documentation", TypeMarkdown},
		{"decision matrix", TypeTable},
		{"flow chart", TypeDiagram},
		{"mental model", TypeFramework},
		{"tutorial", TypeGuide},
		{"executive summary", TypeReport},
		{"slide deck", TypePresentation},
		{"mystery blob", TypeOther},
		{"", TypeOther},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeType(tt.in))
		})
	}
}

func TestNormalizeCompleteness(t *testing.T) {
	assert.Equal(t, CompletenessComplete, normalizeCompleteness("complete"))
	assert.Equal(t, CompletenessComplete, normalizeCompleteness("Full draft"))
	assert.Equal(t, CompletenessPartial, normalizeCompleteness("incomplete"))
	assert.Equal(t, CompletenessSkeleton, normalizeCompleteness("outline only"))
	assert.Equal(t, CompletenessSkeleton, normalizeCompleteness("stub"))
	assert.Equal(t, CompletenessPartial, normalizeCompleteness("whatever"))
	assert.Equal(t, CompletenessPartial, normalizeCompleteness(""))
}

func TestDocumentValidationWarnsNeverErrors(t *testing.T) {
	ex := &stubExtractor{response: `{"artifacts":[{"type":"table","title":"Tiny","content":"no delimiters here","completeness":"complete"}]}`}
	p := NewPipeline(ex, nil)

	got := p.ExtractArtifacts(context.Background(), "x", 1, "build")
	require.Len(t, got, 1)

	v := got[0].Validation
	assert.True(t, v.SyntaxValid)
	assert.Empty(t, v.Errors)
	// Short content + missing delimiters: two warnings.
	assert.Len(t, v.Warnings, 2)
	assert.Equal(t, 9.0, v.QualityScore)
}

func TestMetadataEnrichmentDeterministic(t *testing.T) {
	ex := &stubExtractor{response: `{"artifacts":[{"type":"code","title":"Bench","content":"func BenchmarkAdd(b *testing.B) { add(1, 2) } // performance test data","language":"go","completeness":"complete"}]}`}
	p := NewPipeline(ex, nil)

	a := p.ExtractArtifacts(context.Background(), "x", 1, "build")[0]
	b := p.ExtractArtifacts(context.Background(), "x", 1, "build")[0]

	assert.Equal(t, a.Metadata, b.Metadata)
	assert.Equal(t, "go", a.Metadata.Format)
	assert.Equal(t, "engineers", a.Metadata.Audience)
	assert.Contains(t, a.Metadata.Tags, "go")
	assert.Contains(t, a.Metadata.Tags, "performance")
	assert.Contains(t, a.Metadata.Tags, "testing")
}

func TestScanFencedBlocks(t *testing.T) {
	blocks := scanFencedBlocks(fencedContent)
	require.Len(t, blocks, 2)
	assert.Equal(t, "go", blocks[0].Language)
	assert.Equal(t, "bash", blocks[1].Language)
	assert.Equal(t, "make build", blocks[1].Body)

	assert.Empty(t, scanFencedBlocks("no fences"))
	assert.Empty(t, scanFencedBlocks("```\n\n```"))
}
