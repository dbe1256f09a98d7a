// Package perception provides the generative text service boundary. The core
// depends only on the Client interface; concrete providers live here.
package perception

import "context"

// Request describes one generative call. When Streaming is set, OnChunk and
// OnThinking receive incremental text in arrival order before Execute returns
// the assembled result.
type Request struct {
	Prompt       string
	SystemPrompt string
	Streaming    bool
	OnChunk      func(text string)
	OnThinking   func(text string)
}

// Usage reports token accounting for one call, when the provider supplies it.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Result is the assembled output of one generative call.
type Result struct {
	Content  string
	Thinking string
	Usage    *Usage
}

// Client is the interface the orchestrator and extraction pipelines consume.
// Implementations may fail; callers decide whether a failure is fatal.
type Client interface {
	Execute(ctx context.Context, req Request) (*Result, error)
}
