package artifacts

import (
	"fmt"
	"strings"
)

// validate runs type-specific checks. Code artifacts can produce hard errors
// (delimiter imbalance); everything else only warns, since the non-code checks
// are heuristic rather than authoritative.
func validate(typ Type, language, content string) (errors, warnings []string) {
	if typ == TypeCode {
		errors, warnings = validateCode(language, content)
	} else {
		warnings = validateDocument(typ, content)
	}
	warnings = append(warnings, genericWarnings(content)...)
	return errors, warnings
}

// validateCode checks delimiter balance (errors) and language structure
// (warnings only).
func validateCode(language, content string) (errors, warnings []string) {
	if open, close := countOutsideStrings(content, '{', '}'); open != close {
		errors = append(errors, fmt.Sprintf("unbalanced braces: %d opening vs %d closing", open, close))
	}
	if open, close := countOutsideStrings(content, '(', ')'); open != close {
		errors = append(errors, fmt.Sprintf("unbalanced parentheses: %d opening vs %d closing", open, close))
	}
	if open, close := countOutsideStrings(content, '[', ']'); open != close {
		errors = append(errors, fmt.Sprintf("unbalanced brackets: %d opening vs %d closing", open, close))
	}

	if w := structureWarning(language, content); w != "" {
		warnings = append(warnings, w)
	}
	return errors, warnings
}

// structureWarning checks for the language's definition syntax. Absence is a
// warning, not an error: a valid fragment need not define anything.
func structureWarning(language, content string) string {
	switch language {
	case "go", "golang":
		if !strings.Contains(content, "func ") && !strings.Contains(content, "type ") {
			return "go code without func or type definitions"
		}
	case "python", "py":
		if !strings.Contains(content, "def ") && !strings.Contains(content, "class ") {
			return "python code without def or class definitions"
		}
	case "javascript", "js", "typescript", "ts":
		if !strings.Contains(content, "function") && !strings.Contains(content, "=>") &&
			!strings.Contains(content, "const ") && !strings.Contains(content, "class ") {
			return "javascript code without function, arrow, const, or class definitions"
		}
	case "sql":
		upper := strings.ToUpper(content)
		if !strings.Contains(upper, "SELECT") && !strings.Contains(upper, "CREATE") &&
			!strings.Contains(upper, "INSERT") && !strings.Contains(upper, "UPDATE") {
			return "sql without a recognizable statement"
		}
	}
	return ""
}

// countOutsideStrings counts open/close delimiter occurrences, skipping string
// and character literals so brace counts are not skewed by tokens like "}".
func countOutsideStrings(content string, open, close byte) (openCount, closeCount int) {
	var quote byte
	escaped := false
	for i := 0; i < len(content); i++ {
		ch := content[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == quote:
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'', '`':
			quote = ch
		case open:
			openCount++
		case close:
			closeCount++
		}
	}
	return openCount, closeCount
}

// validateDocument runs the non-code structural heuristics. All results are
// warnings.
func validateDocument(typ Type, content string) []string {
	var warnings []string

	if len(content) < 100 {
		warnings = append(warnings, fmt.Sprintf("%s artifact is very short (%d chars)", typ, len(content)))
	}

	switch typ {
	case TypeTable:
		if !strings.Contains(content, "|") && !strings.Contains(content, ",") {
			warnings = append(warnings, "table artifact has no pipe or comma delimiters")
		}
	case TypeDiagram:
		if !hasDiagramMarkers(content) {
			warnings = append(warnings, "diagram artifact has no recognizable diagram syntax")
		}
	case TypeMarkdown, TypeGuide, TypeReport:
		if !hasMarkdownMarkers(content) {
			warnings = append(warnings, fmt.Sprintf("%s artifact has no headings or list markers", typ))
		}
	}
	return warnings
}

var diagramKeywords = []string{"graph ", "graph\n", "flowchart", "sequencediagram", "classdiagram", "-->", "==>", "```"}

func hasDiagramMarkers(content string) bool {
	lower := strings.ToLower(content)
	for _, kw := range diagramKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func hasMarkdownMarkers(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") ||
			strings.HasPrefix(trimmed, "- ") ||
			strings.HasPrefix(trimmed, "* ") ||
			bulletPrefixNumbered(trimmed) {
			return true
		}
	}
	return false
}

func bulletPrefixNumbered(line string) bool {
	if len(line) < 3 {
		return false
	}
	return line[0] >= '0' && line[0] <= '9' && (line[1] == '.' || line[1] == ')')
}

// genericWarnings flags incompleteness markers regardless of type or language.
func genericWarnings(content string) []string {
	var warnings []string
	if strings.Contains(content, "TODO") || strings.Contains(content, "FIXME") {
		warnings = append(warnings, "content contains TODO/FIXME markers")
	}
	if strings.Count(content, "...") > 2 {
		warnings = append(warnings, "content contains excessive ellipsis, likely truncated")
	}
	return warnings
}
