package questions

import "strings"

// Keyword heuristics for priority inference. Checked in order; first bucket
// with a hit wins.
var (
	criticalKeywords = []string{"why", "root cause", "assumption", "fundamental", "critical"}
	highKeywords     = []string{"how", "what if", "evidence", "impact", "risk"}
	lowKeywords      = []string{"what is", "define", "definition", "meaning of"}

	researchKeywords = []string{"evidence", "data", "study", "statistics", "source", "example", "case"}
)

// InferPriority derives a priority bucket from the question text.
func InferPriority(text string) Priority {
	lower := strings.ToLower(text)
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			return PriorityCritical
		}
	}
	for _, kw := range highKeywords {
		if strings.Contains(lower, kw) {
			return PriorityHigh
		}
	}
	for _, kw := range lowKeywords {
		if strings.Contains(lower, kw) {
			return PriorityLow
		}
	}
	return PriorityMedium
}

// needsResearch reports whether the question asks for material that has to be
// looked up externally rather than reasoned out.
func needsResearch(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range researchKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
