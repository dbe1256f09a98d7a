package journey

import (
	"fmt"
	"strings"
)

// Summary renders a human-readable markdown dump of the journey so far:
// stage history, question metrics, and extracted artifacts.
func (o *Orchestrator) Summary() string {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ectx == nil {
		return "No journey started.\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Journey %s\n\n", o.ectx.JourneyID)
	fmt.Fprintf(&sb, "**Status:** %s  \n", o.ectx.Status)
	fmt.Fprintf(&sb, "**Stages completed:** %d of %d\n\n", len(o.ectx.CompletedStages), o.cfg.MaxStages)

	if len(o.ectx.CompletedStages) > 0 {
		sb.WriteString("## Stages\n\n")
		sb.WriteString("| # | Type | Status | Output |\n")
		sb.WriteString("|---|------|--------|--------|\n")
		for _, st := range o.ectx.CompletedStages {
			fmt.Fprintf(&sb, "| %d | %s | %s | %s |\n",
				st.Number, st.Type, st.Status, firstLine(st.Result, 80))
		}
		sb.WriteString("\n")
	}

	m := o.tracker.GetMetrics()
	sb.WriteString("## Questions\n\n")
	fmt.Fprintf(&sb, "- Tracked: %d (answered %d, partial %d, unanswered %d)\n",
		m.Total, m.Answered, m.Partial, m.Unanswered)
	if m.HighPriorityUnanswered > 0 {
		fmt.Fprintf(&sb, "- High-priority still open: %d\n", m.HighPriorityUnanswered)
	}
	if m.Answered > 0 {
		fmt.Fprintf(&sb, "- Average answer confidence: %.2f\n", m.AvgConfidence)
	}
	for _, q := range o.tracker.PriorityQuestions(5) {
		fmt.Fprintf(&sb, "- [%s] %s\n", q.Priority, q.Text)
	}
	sb.WriteString("\n")

	if len(o.ectx.Insights) > 0 {
		fmt.Fprintf(&sb, "## Insights (%d)\n\n", len(o.ectx.Insights))
		for _, in := range o.ectx.Insights {
			fmt.Fprintf(&sb, "- %s\n", firstLine(in.Text, 120))
		}
		sb.WriteString("\n")
	}

	if len(o.ectx.Artifacts) > 0 {
		fmt.Fprintf(&sb, "## Artifacts (%d)\n\n", len(o.ectx.Artifacts))
		sb.WriteString("| Title | Type | Completeness | Quality |\n")
		sb.WriteString("|-------|------|--------------|--------|\n")
		for _, a := range o.ectx.Artifacts {
			fmt.Fprintf(&sb, "| %s | %s | %s | %.1f |\n",
				a.Title, a.Type, a.Validation.Completeness, a.Validation.QualityScore)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func firstLine(text string, max int) string {
	line := text
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	line = strings.TrimSpace(line)
	if len(line) > max {
		line = line[:max] + "…"
	}
	return strings.ReplaceAll(line, "|", "\\|")
}
