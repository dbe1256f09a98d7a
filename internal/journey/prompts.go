package journey

import (
	"fmt"
	"sort"
	"strings"

	"wayfinder/internal/questions"
)

// stageInstructions carries the per-kind task description appended to the
// shared context block. Exact wording is not contractual; the chase
// instruction's "Topic:" line is, because routeOutput parses it back out for
// anti-repetition.
var stageInstructions = map[StageType]string{
	StageExplore: "Explore the subject broadly. Map the terrain: major components, tensions, unknowns, and promising directions.",
	StageQuestion: "Raise the most important open questions about the subject. " +
		"List each question on its own line, one per line, phrased as a direct question.",
	StageSearch: "Answer the open questions listed above from what is already established in this exploration. " +
		"For each question you can address, emit a block in exactly this form:\n" +
		"Q: <the question>\nAnswer: <your answer>\nConfidence: <verified|high|medium|low|speculative>",
	StageChase: "Pick ONE specific tangent not yet chased (the excluded topics are listed above) and pursue it in depth. " +
		"Begin your response with a line of the form:\nTopic: <short topic name>",
	StageAnalyze:    "Analyze the accumulated material critically. Where do the findings conflict? What patterns hold up?",
	StageSynthesize: "Synthesize the exploration so far into a coherent position. Reconcile conflicts explicitly.",
	StageBuild: "Build concrete artifacts from the exploration: code, tables, diagrams, guides, or frameworks. " +
		"Put code in fenced blocks with a language tag.",
	StageSummary: "Write the final summary of this exploration: what was learned, what was built, what remains open.",
}

// DefaultPromptBuilder assembles stage prompts from the running context:
// the original input, recent insights, open priority questions, and (for chase
// stages) the already-chased topic exclusion list.
type DefaultPromptBuilder struct {
	// MaxInsights caps how many recent insights are inlined. Zero means the
	// default of 12.
	MaxInsights int
}

// BuildPrompt implements PromptBuilder.
func (b *DefaultPromptBuilder) BuildPrompt(ectx *ExplorationContext, stageType StageType, stageNumber int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are running stage %d (%s) of a multi-stage exploration.\n\n", stageNumber, stageType)
	fmt.Fprintf(&sb, "SUBJECT:\n%s\n", ectx.Input)

	if insights := b.recentInsights(ectx); len(insights) > 0 {
		sb.WriteString("\nINSIGHTS SO FAR:\n")
		for _, ins := range insights {
			fmt.Fprintf(&sb, "- %s\n", ins.Text)
		}
	}

	if stageType == StageSearch || stageType == StageSummary {
		if open := openQuestions(ectx); len(open) > 0 {
			sb.WriteString("\nOPEN QUESTIONS:\n")
			for _, q := range open {
				fmt.Fprintf(&sb, "- [%s] %s\n", q.Priority, q.Text)
			}
		}
	}

	if stageType == StageChase && len(ectx.ChasedTopics) > 0 {
		sb.WriteString("\nALREADY CHASED (do not repeat):\n")
		for _, topic := range sortedTopics(ectx.ChasedTopics) {
			fmt.Fprintf(&sb, "- %s\n", topic)
		}
	}

	if stageType == StageSummary {
		fmt.Fprintf(&sb, "\nSTAGES COMPLETED: %d\n", len(ectx.CompletedStages))
	}

	sb.WriteString("\nTASK:\n")
	sb.WriteString(stageInstructions[stageType])
	sb.WriteString("\n")
	return sb.String()
}

func (b *DefaultPromptBuilder) recentInsights(ectx *ExplorationContext) []RichInsight {
	max := b.MaxInsights
	if max <= 0 {
		max = 12
	}
	if len(ectx.Insights) <= max {
		return ectx.Insights
	}
	return ectx.Insights[len(ectx.Insights)-max:]
}

func openQuestions(ectx *ExplorationContext) []questionView {
	var out []questionView
	for _, q := range ectx.Questions {
		if q.Status == questions.StatusUnanswered || q.Status == questions.StatusPartial {
			out = append(out, questionView{Priority: string(q.Priority), Text: q.Text})
		}
	}
	return out
}

type questionView struct {
	Priority string
	Text     string
}

func sortedTopics(topics map[string]bool) []string {
	out := make([]string, 0, len(topics))
	for t := range topics {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
