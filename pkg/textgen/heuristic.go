package textgen

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Offline heuristics used by the tool services when no generation backend is
// configured. Deterministic on purpose so the services stay testable without
// network access.

const (
	summarySentences  = 3
	keyPointSentences = 5
	minSentenceLength = 12
)

var sentenceBoundary = regexp.MustCompile(`[.!?]+\s+`)

// actionPattern marks sentences that commit someone to doing something.
var actionPattern = regexp.MustCompile(`(?i)\b(will|must|should|needs? to|has to|due|deadline|by (monday|tuesday|wednesday|thursday|friday|saturday|sunday))\b`)

// Summarize returns the leading sentences of the transcript as a compact
// paragraph.
func Summarize(transcript string) string {
	sentences := splitSentences(transcript)
	if len(sentences) == 0 {
		return ""
	}
	if len(sentences) > summarySentences {
		sentences = sentences[:summarySentences]
	}
	return strings.Join(sentences, " ")
}

// KeyPoints returns up to five salient sentences as bullet lines.
func KeyPoints(transcript string) string {
	sentences := splitSentences(transcript)
	var bullets []string
	for _, s := range sentences {
		if len(s) < minSentenceLength {
			continue
		}
		bullets = append(bullets, "• "+s)
		if len(bullets) == keyPointSentences {
			break
		}
	}
	return strings.Join(bullets, "\n")
}

// ActionItems returns the sentences that read like commitments, encoded as
// the {"actionable_tasks": [...]} JSON shape the task extractor advertises.
func ActionItems(transcript string) string {
	var tasks []string
	for _, s := range splitSentences(transcript) {
		if actionPattern.MatchString(s) {
			tasks = append(tasks, s)
		}
	}
	if tasks == nil {
		tasks = []string{}
	}
	out, err := json.Marshal(map[string][]string{"actionable_tasks": tasks})
	if err != nil {
		return `{"actionable_tasks": []}`
	}
	return string(out)
}

// splitSentences breaks text on sentence punctuation, keeping a trailing
// period on each sentence and dropping blank fragments.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	parts := sentenceBoundary.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.ContainsAny(part[len(part)-1:], ".!?") {
			part += "."
		}
		sentences = append(sentences, part)
	}
	return sentences
}
