package perception

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiClient implements Client using Google's Gemini API via the genai SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
	log    *zap.Logger

	includeThoughts bool
}

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey          string
	Model           string
	IncludeThoughts bool
}

// NewGeminiClient creates a Gemini-backed generative client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, log *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if log == nil {
		log = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{
		client:          client,
		model:           cfg.Model,
		log:             log,
		includeThoughts: cfg.IncludeThoughts,
	}, nil
}

// Execute runs one generative call. With Streaming set it consumes the
// streaming API, forwarding text and thinking chunks to the callbacks as they
// arrive; otherwise it performs a single blocking call.
func (c *GeminiClient) Execute(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	cfg := c.generateConfig(req.SystemPrompt)
	contents := genai.Text(req.Prompt)

	var result *Result
	var err error
	if req.Streaming {
		result, err = c.executeStreaming(ctx, contents, cfg, req)
	} else {
		result, err = c.executeBlocking(ctx, contents, cfg)
	}
	if err != nil {
		c.log.Warn("gemini call failed",
			zap.String("model", c.model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	c.log.Debug("gemini call completed",
		zap.String("model", c.model),
		zap.Bool("streaming", req.Streaming),
		zap.Int("content_len", len(result.Content)),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

func (c *GeminiClient) generateConfig(systemPrompt string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	if c.includeThoughts {
		cfg.ThinkingConfig = &genai.ThinkingConfig{IncludeThoughts: true}
	}
	return cfg
}

func (c *GeminiClient) executeBlocking(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*Result, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	var content, thinking strings.Builder
	collectParts(resp, &content, &thinking, nil, nil)

	return &Result{
		Content:  content.String(),
		Thinking: thinking.String(),
		Usage:    usageFrom(resp),
	}, nil
}

func (c *GeminiClient) executeStreaming(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig, req Request) (*Result, error) {
	var content, thinking strings.Builder
	var lastUsage *Usage

	for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, contents, cfg) {
		if err != nil {
			return nil, fmt.Errorf("generate content stream: %w", err)
		}
		collectParts(resp, &content, &thinking, req.OnChunk, req.OnThinking)
		if u := usageFrom(resp); u != nil {
			lastUsage = u
		}
	}

	return &Result{
		Content:  content.String(),
		Thinking: thinking.String(),
		Usage:    lastUsage,
	}, nil
}

// collectParts appends a response's parts to the builders, routing thought
// parts separately, and forwards each part to the matching callback.
func collectParts(resp *genai.GenerateContentResponse, content, thinking *strings.Builder, onChunk, onThinking func(string)) {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.Text == "" {
				continue
			}
			if part.Thought {
				thinking.WriteString(part.Text)
				if onThinking != nil {
					onThinking(part.Text)
				}
			} else {
				content.WriteString(part.Text)
				if onChunk != nil {
					onChunk(part.Text)
				}
			}
		}
	}
}

func usageFrom(resp *genai.GenerateContentResponse) *Usage {
	um := resp.UsageMetadata
	if um == nil {
		return nil
	}
	return &Usage{
		PromptTokens:     int(um.PromptTokenCount),
		CompletionTokens: int(um.CandidatesTokenCount),
		TotalTokens:      int(um.TotalTokenCount),
	}
}
