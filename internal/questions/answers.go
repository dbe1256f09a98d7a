package questions

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// answerPair is one extracted (question, answer) block from a search stage.
type answerPair struct {
	Question string
	Answer   string
}

// MatchReport summarizes one answer-matching pass over a search stage's output.
type MatchReport struct {
	Extracted int      `json:"extracted"`
	Matched   int      `json:"matched"`
	Unmatched []string `json:"unmatched,omitempty"`
}

var (
	answerLabel     = regexp.MustCompile(`(?i)^\s*(?:\*\*)?a(?:nswer)?\s*[:.]\s*`)
	confidenceLabel = regexp.MustCompile(`(?i)^\s*(?:\*\*)?confidence\s*[:.]\s*(?:\*\*)?\s*(\w+)`)
	headingLine     = regexp.MustCompile(`^\s*#{1,6}\s`)
)

// MatchAnswers extracts labeled Q/Answer blocks from a search stage's raw text
// and matches each back to a tracked question: exact normalized-text match
// first, then best similarity above the match threshold. Matched questions are
// marked answered with the confidence label aligned by pair index. Unmatched
// pairs are reported and logged, never silently dropped.
//
// Confidence alignment is positional: the Nth confidence label in the text is
// attributed to the Nth extracted pair. Irregularly interleaved text can
// misattribute confidence; a count mismatch is logged as a warning.
func (t *Tracker) MatchAnswers(content string, stageNumber int) MatchReport {
	pairs := extractAnswerPairs(content)
	confidences := extractConfidences(content)

	if len(confidences) != len(pairs) && len(pairs) > 0 {
		t.log.Warn("confidence labels do not align with extracted answers",
			zap.Int("pairs", len(pairs)),
			zap.Int("confidences", len(confidences)))
	}

	report := MatchReport{Extracted: len(pairs)}
	for i, pair := range pairs {
		conf := ConfidenceMedium
		if i < len(confidences) {
			conf = confidences[i]
		}

		q := t.matchQuestion(pair.Question)
		if q == nil {
			report.Unmatched = append(report.Unmatched, pair.Question)
			t.log.Warn("answer discarded: no matching tracked question",
				zap.String("question", pair.Question),
				zap.Int("stage", stageNumber))
			continue
		}

		t.MarkAnswered(q.ID, pair.Answer, conf, stageNumber, nil)
		report.Matched++
	}
	return report
}

// matchQuestion finds the tracked question corresponding to extracted text:
// exact normalized match first, else the best-scoring question at or above the
// match threshold.
func (t *Tracker) matchQuestion(text string) *TrackedQuestion {
	normalized := t.matcher.Normalize(text)
	for _, q := range t.ordered {
		if t.matcher.Normalize(q.Text) == normalized {
			return q
		}
	}

	var best *TrackedQuestion
	bestScore := 0.0
	for _, q := range t.ordered {
		if s := t.matcher.Similarity(q.Text, text); s >= t.matchThreshold && s > bestScore {
			best = q
			bestScore = s
		}
	}
	return best
}

// extractAnswerPairs walks the text line by line collecting labeled "Q:"
// blocks followed by labeled "Answer:" blocks. An answer runs until the next
// labeled section, a heading, or a blank line.
func extractAnswerPairs(content string) []answerPair {
	var pairs []answerPair
	var question string
	var answer []string
	inAnswer := false

	flush := func() {
		if question != "" && len(answer) > 0 {
			pairs = append(pairs, answerPair{
				Question: question,
				Answer:   strings.TrimSpace(strings.Join(answer, "\n")),
			})
		}
		question = ""
		answer = nil
		inAnswer = false
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case qLabelPrefix.MatchString(line):
			flush()
			question = strings.TrimSpace(boldMarkers.Replace(qLabelPrefix.ReplaceAllString(line, "")))
		case answerLabel.MatchString(line):
			inAnswer = question != ""
			if first := strings.TrimSpace(answerLabel.ReplaceAllString(line, "")); inAnswer && first != "" {
				answer = append(answer, first)
			}
		case confidenceLabel.MatchString(line), headingLine.MatchString(line):
			flush()
		case trimmed == "":
			if inAnswer {
				flush()
			}
		default:
			if inAnswer {
				answer = append(answer, trimmed)
			}
		}
	}
	flush()
	return pairs
}

// extractConfidences collects every confidence label in document order.
func extractConfidences(content string) []Confidence {
	var out []Confidence
	for _, line := range strings.Split(content, "\n") {
		m := confidenceLabel.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		switch strings.ToLower(m[1]) {
		case "verified":
			out = append(out, ConfidenceVerified)
		case "high":
			out = append(out, ConfidenceHigh)
		case "medium":
			out = append(out, ConfidenceMedium)
		case "low":
			out = append(out, ConfidenceLow)
		case "speculative":
			out = append(out, ConfidenceSpeculative)
		default:
			out = append(out, ConfidenceMedium)
		}
	}
	return out
}
