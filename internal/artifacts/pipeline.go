// Package artifacts turns free-form stage output into typed, validated
// artifact records. Extraction prefers a structured generative call that
// returns strict JSON; on any parse failure it degrades to local fenced-block
// scanning and never propagates an error.
package artifacts

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Type classifies an artifact.
type Type string

const (
	TypeCode         Type = "code"
	TypeMarkdown     Type = "markdown"
	TypeTable        Type = "table"
	TypeDiagram      Type = "diagram"
	TypeGuide        Type = "guide"
	TypeFramework    Type = "framework"
	TypeReport       Type = "report"
	TypePresentation Type = "presentation"
	TypeOther        Type = "other"
)

// knownTypes is the closed set used for exact type normalization.
var knownTypes = map[Type]bool{
	TypeCode: true, TypeMarkdown: true, TypeTable: true, TypeDiagram: true,
	TypeGuide: true, TypeFramework: true, TypeReport: true,
	TypePresentation: true, TypeOther: true,
}

// Completeness describes how finished an artifact looks.
type Completeness string

const (
	CompletenessComplete Completeness = "complete"
	CompletenessPartial  Completeness = "partial"
	CompletenessSkeleton Completeness = "skeleton"
)

// Validation holds the syntax/structure check results for one artifact.
type Validation struct {
	Completeness Completeness `json:"completeness"`
	SyntaxValid  bool         `json:"syntax_valid"`
	Validated    bool         `json:"validated"`
	Errors       []string     `json:"errors,omitempty"`
	Warnings     []string     `json:"warnings,omitempty"`
	QualityScore float64      `json:"quality_score"`
}

// Metadata carries deterministic keyword-derived enrichment.
type Metadata struct {
	Language  string   `json:"language,omitempty"`
	Format    string   `json:"format,omitempty"`
	SizeBytes int      `json:"size_bytes"`
	Audience  string   `json:"audience,omitempty"`
	Usage     string   `json:"usage,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// RichArtifact is a validated, typed output record extracted from a stage's
// generated text. Immutable once created; corrections require a new artifact.
type RichArtifact struct {
	ID          string     `json:"id"`
	Type        Type       `json:"type"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	StageNumber int        `json:"stage_number"`
	CreatedAt   time.Time  `json:"created_at"`
	Metadata    Metadata   `json:"metadata"`
	Validation  Validation `json:"validation"`
}

// StructuredExtractor is the generative collaborator that enumerates artifacts
// in a stage's output as strict JSON.
type StructuredExtractor interface {
	ExtractStructured(ctx context.Context, content string) (string, error)
}

// candidate mirrors the JSON contract of the structured-extraction call.
type candidate struct {
	Type         string `json:"type"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	Language     string `json:"language"`
	Completeness string `json:"completeness"`
	Notes        string `json:"notes"`
}

type extractionEnvelope struct {
	Artifacts []candidate `json:"artifacts"`
}

// Pipeline extracts, classifies, validates, and enriches artifacts. One
// pipeline instance per journey; not safe for concurrent use.
type Pipeline struct {
	extractor StructuredExtractor
	log       *zap.Logger
}

// NewPipeline creates a pipeline. A nil extractor means local pattern-based
// extraction only.
func NewPipeline(extractor StructuredExtractor, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{extractor: extractor, log: log}
}

// ExtractArtifacts turns one stage's output into zero or more validated
// artifacts. It never returns an error: structured extraction failures fall
// back to fenced-block scanning, which degrades to zero artifacts when nothing
// is found.
func (p *Pipeline) ExtractArtifacts(ctx context.Context, content string, stageNumber int, stageType string) []*RichArtifact {
	candidates, structured := p.structuredCandidates(ctx, content)
	if !structured {
		return p.fallbackExtract(content, stageNumber)
	}

	out := make([]*RichArtifact, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		out = append(out, p.enrichArtifact(c, stageNumber))
	}
	p.log.Debug("artifacts extracted",
		zap.Int("stage", stageNumber),
		zap.String("stage_type", stageType),
		zap.Int("count", len(out)))
	return out
}

// structuredCandidates runs the structured-extraction call and parses its JSON
// response. The bool result reports whether structured extraction succeeded.
func (p *Pipeline) structuredCandidates(ctx context.Context, content string) ([]candidate, bool) {
	if p.extractor == nil {
		return nil, false
	}

	raw, err := p.extractor.ExtractStructured(ctx, content)
	if err != nil {
		p.log.Warn("structured extraction call failed, using fallback", zap.Error(err))
		return nil, false
	}

	var env extractionEnvelope
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &env); err != nil {
		p.log.Warn("structured extraction returned malformed JSON, using fallback", zap.Error(err))
		return nil, false
	}
	return env.Artifacts, true
}

// fallbackExtract scans content for fenced code blocks, producing one partial,
// unvalidated code artifact per block. Must never panic.
func (p *Pipeline) fallbackExtract(content string, stageNumber int) []*RichArtifact {
	var out []*RichArtifact
	for _, block := range scanFencedBlocks(content) {
		a := &RichArtifact{
			ID:          uuid.NewString(),
			Type:        TypeCode,
			Title:       fallbackTitle(block.Language),
			Content:     block.Body,
			StageNumber: stageNumber,
			CreatedAt:   time.Now(),
			Metadata: Metadata{
				Language:  block.Language,
				Format:    "text",
				SizeBytes: len(block.Body),
			},
			Validation: Validation{
				Completeness: CompletenessPartial,
				SyntaxValid:  false,
				Validated:    false,
				QualityScore: scoreQuality(0, 0, CompletenessPartial),
			},
		}
		out = append(out, a)
	}
	if len(out) > 0 {
		p.log.Debug("fallback extraction produced artifacts",
			zap.Int("stage", stageNumber),
			zap.Int("count", len(out)))
	}
	return out
}

func fallbackTitle(language string) string {
	if language != "" {
		return "Extracted " + language + " block"
	}
	return "Extracted code block"
}

// fencedBlock is one triple-backtick delimited region.
type fencedBlock struct {
	Language string
	Body     string
}

// scanFencedBlocks splits content on triple-backtick fences. Odd segments are
// block interiors; the first interior line is treated as a language tag when
// it is a single bare word.
func scanFencedBlocks(content string) []fencedBlock {
	parts := strings.Split(content, "```")
	var blocks []fencedBlock
	for i := 1; i < len(parts); i += 2 {
		interior := parts[i]
		lang := ""
		if nl := strings.IndexByte(interior, '\n'); nl >= 0 {
			head := strings.TrimSpace(interior[:nl])
			if head != "" && !strings.ContainsAny(head, " \t") {
				lang = strings.ToLower(head)
				interior = interior[nl+1:]
			}
		}
		body := strings.TrimRight(interior, "\n")
		if strings.TrimSpace(body) == "" {
			continue
		}
		blocks = append(blocks, fencedBlock{Language: lang, Body: body})
	}
	return blocks
}

// stripCodeFence unwraps a JSON payload the model wrapped in a markdown fence.
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
		trimmed = trimmed[nl+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// enrichArtifact normalizes a candidate's type and completeness, runs
// type-specific validation, scores quality, and fills deterministic metadata.
func (p *Pipeline) enrichArtifact(c candidate, stageNumber int) *RichArtifact {
	typ := normalizeType(c.Type)
	completeness := normalizeCompleteness(c.Completeness)
	language := strings.ToLower(strings.TrimSpace(c.Language))

	errors, warnings := validate(typ, language, c.Content)

	title := strings.TrimSpace(c.Title)
	if title == "" {
		title = "Untitled " + string(typ) + " artifact"
	}

	return &RichArtifact{
		ID:          uuid.NewString(),
		Type:        typ,
		Title:       title,
		Content:     c.Content,
		StageNumber: stageNumber,
		CreatedAt:   time.Now(),
		Metadata: Metadata{
			Language:  language,
			Format:    detectFormat(typ, language, c.Content),
			SizeBytes: len(c.Content),
			Audience:  inferTargetAudience(typ, c.Content),
			Usage:     generateUsageInstructions(typ, language),
			Tags:      extractTags(typ, language, c.Content),
		},
		Validation: Validation{
			Completeness: completeness,
			SyntaxValid:  len(errors) == 0,
			Validated:    true,
			Errors:       errors,
			Warnings:     warnings,
			QualityScore: scoreQuality(len(errors), len(warnings), completeness),
		},
	}
}

// normalizeType maps a free-form type label onto the enumerated set: exact
// match first, then substring heuristics, else other.
func normalizeType(raw string) Type {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if knownTypes[Type(lower)] {
		return Type(lower)
	}
	switch {
	case strings.Contains(lower, "script"), strings.Contains(lower, "snippet"),
		strings.Contains(lower, "program"):
		return TypeCode
	case strings.Contains(lower, "doc"), strings.Contains(lower, "note"):
		return TypeMarkdown
	case strings.Contains(lower, "matrix"), strings.Contains(lower, "spreadsheet"),
		strings.Contains(lower, "csv"):
		return TypeTable
	case strings.Contains(lower, "chart"), strings.Contains(lower, "graph"),
		strings.Contains(lower, "flow"):
		return TypeDiagram
	case strings.Contains(lower, "model"), strings.Contains(lower, "method"),
		strings.Contains(lower, "rubric"):
		return TypeFramework
	case strings.Contains(lower, "tutorial"), strings.Contains(lower, "howto"),
		strings.Contains(lower, "manual"):
		return TypeGuide
	case strings.Contains(lower, "summary"), strings.Contains(lower, "analysis"):
		return TypeReport
	case strings.Contains(lower, "slide"), strings.Contains(lower, "deck"):
		return TypePresentation
	default:
		return TypeOther
	}
}

// normalizeCompleteness maps a free-form label onto the enumerated set,
// defaulting to partial.
func normalizeCompleteness(raw string) Completeness {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(lower, "complete"), strings.Contains(lower, "full"):
		// "incomplete" contains "complete"; check it first.
		if strings.Contains(lower, "incomplete") {
			return CompletenessPartial
		}
		return CompletenessComplete
	case strings.Contains(lower, "skeleton"), strings.Contains(lower, "stub"),
		strings.Contains(lower, "outline"):
		return CompletenessSkeleton
	default:
		return CompletenessPartial
	}
}

// scoreQuality applies the fixed penalty formula and clamps to [0,10]:
// start at 10, minus 2 per error, 0.5 per warning, 2 for partial, 4 for
// skeleton completeness.
func scoreQuality(errorCount, warningCount int, completeness Completeness) float64 {
	score := 10.0
	score -= 2.0 * float64(errorCount)
	score -= 0.5 * float64(warningCount)
	switch completeness {
	case CompletenessPartial:
		score -= 2.0
	case CompletenessSkeleton:
		score -= 4.0
	}
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}
