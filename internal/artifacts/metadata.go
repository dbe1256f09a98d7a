package artifacts

import (
	"sort"
	"strings"
)

// Metadata enrichment is deliberately boring: every function here is a pure
// function of its inputs so repeated extraction over the same stage output is
// idempotent.

// detectFormat derives a storage/presentation format label.
func detectFormat(typ Type, language, content string) string {
	switch typ {
	case TypeCode:
		if language != "" {
			return language
		}
		return "text"
	case TypeTable:
		if strings.Contains(content, "|") {
			return "markdown-table"
		}
		return "csv"
	case TypeDiagram:
		if strings.Contains(strings.ToLower(content), "mermaid") || hasDiagramMarkers(content) {
			return "mermaid"
		}
		return "text"
	case TypeMarkdown, TypeGuide, TypeReport, TypeFramework, TypePresentation:
		return "markdown"
	default:
		return "text"
	}
}

// inferTargetAudience guesses who the artifact is for from its type and
// vocabulary.
func inferTargetAudience(typ Type, content string) string {
	lower := strings.ToLower(content)
	switch typ {
	case TypeCode, TypeDiagram:
		return "engineers"
	case TypePresentation:
		return "stakeholders"
	case TypeReport:
		if strings.Contains(lower, "executive") || strings.Contains(lower, "stakeholder") {
			return "stakeholders"
		}
		return "general"
	case TypeGuide:
		if strings.Contains(lower, "install") || strings.Contains(lower, "deploy") ||
			strings.Contains(lower, "configure") {
			return "operators"
		}
		return "general"
	default:
		return "general"
	}
}

// generateUsageInstructions produces a one-line hint on how to use the
// artifact.
func generateUsageInstructions(typ Type, language string) string {
	switch typ {
	case TypeCode:
		if language != "" {
			return "Review and integrate this " + language + " snippet into the codebase."
		}
		return "Review and integrate this code snippet into the codebase."
	case TypeTable:
		return "Import into a spreadsheet or render as a markdown table."
	case TypeDiagram:
		return "Render with a mermaid-compatible viewer."
	case TypeGuide:
		return "Follow the steps in order; verify each before continuing."
	case TypeFramework:
		return "Apply as an evaluation or decision-making framework."
	case TypeReport:
		return "Circulate as a findings summary."
	case TypePresentation:
		return "Convert sections into slides."
	default:
		return "Review and file with the journey output."
	}
}

// tagKeywords maps content keywords to tags.
var tagKeywords = map[string]string{
	"performance": "performance",
	"latency":     "performance",
	"security":    "security",
	"auth":        "security",
	"test":        "testing",
	"benchmark":   "testing",
	"architect":   "architecture",
	"design":      "architecture",
	"data":        "data",
	"schema":      "data",
	"deploy":      "operations",
	"monitor":     "operations",
}

// extractTags derives a sorted, deduplicated tag set from type, language, and
// content keywords.
func extractTags(typ Type, language, content string) []string {
	set := map[string]bool{string(typ): true}
	if language != "" {
		set[language] = true
	}
	lower := strings.ToLower(content)
	for kw, tag := range tagKeywords {
		if strings.Contains(lower, kw) {
			set[tag] = true
		}
	}
	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
