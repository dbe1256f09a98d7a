package artifacts

import (
	"context"
	"fmt"

	"wayfinder/internal/perception"
)

const extractionPromptHeader = `Enumerate every distinct artifact in the text below (code, documents, tables, diagrams, guides, frameworks, reports, presentations).
Respond with a single strict JSON object and nothing else:
{"artifacts":[{"type":"...","title":"...","content":"...","language":"...","completeness":"complete|partial|skeleton","notes":"..."}]}
If the text contains no artifacts, respond with {"artifacts":[]}.

TEXT:
`

// LLMExtractor implements StructuredExtractor with a generative call that asks
// for a strict JSON enumeration of artifacts.
type LLMExtractor struct {
	client perception.Client
}

// NewLLMExtractor wraps a generative client as a structured extractor.
func NewLLMExtractor(client perception.Client) *LLMExtractor {
	return &LLMExtractor{client: client}
}

// ExtractStructured returns the raw model response; the pipeline owns parsing
// and the fallback on malformed output.
func (e *LLMExtractor) ExtractStructured(ctx context.Context, content string) (string, error) {
	result, err := e.client.Execute(ctx, perception.Request{
		Prompt: extractionPromptHeader + content,
	})
	if err != nil {
		return "", fmt.Errorf("structured extraction: %w", err)
	}
	return result.Content, nil
}
