package questions

import (
	"regexp"
	"strings"
)

// Line prefixes stripped before a candidate question is considered:
// bullets, numbering, bold markers, and explicit "Q:" labels.
var (
	bulletPrefix = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)
	qLabelPrefix = regexp.MustCompile(`(?i)^\s*(?:\*\*)?q(?:uestion)?\s*\d*\s*[:.]\s*`)
	boldMarkers  = strings.NewReplacer("**", "", "__", "")
)

const minQuestionLen = 12

// ExtractAndTrack scans free-form stage output for question lines and tracks
// each one. Deduplication happens inside Track, so re-running over the same
// output is idempotent. Returns the tracked records in encounter order, with
// duplicates collapsed onto their canonical record.
func (t *Tracker) ExtractAndTrack(content string, stageNumber int, stageType string) []*TrackedQuestion {
	var tracked []*TrackedQuestion
	seen := make(map[string]bool)

	for _, line := range strings.Split(content, "\n") {
		text, ok := candidateQuestion(line)
		if !ok {
			continue
		}
		q := t.Track(text, stageNumber, stageType, "")
		if !seen[q.ID] {
			seen[q.ID] = true
			tracked = append(tracked, q)
		}
	}
	return tracked
}

// candidateQuestion strips list/label decoration from a line and reports
// whether what remains looks like a question.
func candidateQuestion(line string) (string, bool) {
	text := bulletPrefix.ReplaceAllString(line, "")
	labeled := qLabelPrefix.MatchString(text)
	text = qLabelPrefix.ReplaceAllString(text, "")
	text = strings.TrimSpace(boldMarkers.Replace(text))

	if len(text) < minQuestionLen {
		return "", false
	}
	if !labeled && !strings.HasSuffix(text, "?") {
		return "", false
	}
	return text, true
}
