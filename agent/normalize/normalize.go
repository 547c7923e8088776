package normalize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	contractx "github.com/tanwarat/scribemesh/agent/contract"
)

const errorTitle = "❌ Processing Error"

// rule describes how one tool's raw text maps onto an envelope. The mapping
// is table-driven so the full tool-to-envelope behavior is auditable in one
// place.
type rule struct {
	envelopeType contractx.EnvelopeType
	title        string
	list         bool
	emptyText    string
	// tasksJSON accepts the task extractor's {"actionable_tasks": [...]}
	// output before falling back to the line-split grammar.
	tasksJSON bool
}

var rules = map[string]rule{
	contractx.ToolSummarize: {
		envelopeType: contractx.EnvelopeSummary,
		title:        "📋 Meeting Summary",
		emptyText:    "No summary generated",
	},
	contractx.ToolHighlights: {
		envelopeType: contractx.EnvelopeHighlights,
		title:        "🎯 Key Points & Insights",
		list:         true,
		emptyText:    "No key points identified",
	},
	contractx.ToolTasks: {
		envelopeType: contractx.EnvelopeTasks,
		title:        "📝 Action Items & Tasks",
		list:         true,
		emptyText:    "No tasks identified",
		tasksJSON:    true,
	},
}

// Normalizer converts raw tool output into the UI-agnostic envelope.
type Normalizer struct{}

var _ contractx.Normalizer = (*Normalizer)(nil)

func New() *Normalizer {
	return &Normalizer{}
}

func (n *Normalizer) Normalize(toolName string, result contractx.InvocationResult, transcriptLength int) contractx.AnalysisEnvelope {
	if result.Failed() {
		return contractx.AnalysisEnvelope{
			Type:  contractx.EnvelopeError,
			Title: errorTitle,
			Content: contractx.EnvelopeContent{
				Text: fmt.Sprintf("%s: %s", result.Failure.Kind, result.Failure.Message),
			},
			Metadata: contractx.EnvelopeMetadata{TranscriptLength: transcriptLength},
		}
	}

	r, ok := rules[toolName]
	if !ok {
		return contractx.AnalysisEnvelope{
			Type:    contractx.EnvelopeFallback,
			Title:   "🔧 " + titleCase(toolName),
			Content: contractx.EnvelopeContent{Text: result.Text()},
			Metadata: contractx.EnvelopeMetadata{
				TranscriptLength: transcriptLength,
				ToolUsed:         toolName,
			},
		}
	}

	raw := strings.TrimSpace(result.Text())
	metadata := contractx.EnvelopeMetadata{
		TranscriptLength: transcriptLength,
		ToolUsed:         toolName,
	}

	if !r.list {
		if raw == "" {
			raw = r.emptyText
		}
		return contractx.AnalysisEnvelope{
			Type:     r.envelopeType,
			Title:    r.title,
			Content:  contractx.EnvelopeContent{Text: raw},
			Metadata: metadata,
		}
	}

	var items []string
	if r.tasksJSON {
		items = actionableTasks(raw)
	}
	if items == nil {
		items = SplitItems(raw)
	}

	count := len(items)
	metadata.ItemCount = &count
	if count == 0 {
		return contractx.AnalysisEnvelope{
			Type:     r.envelopeType,
			Title:    r.title,
			Content:  contractx.EnvelopeContent{Text: r.emptyText},
			Metadata: metadata,
		}
	}
	return contractx.AnalysisEnvelope{
		Type:     r.envelopeType,
		Title:    r.title,
		Content:  contractx.EnvelopeContent{Items: items},
		Metadata: metadata,
	}
}

// Matches leading bullet markers (-, *, •) and list numbering
// (1., 1), (1)) with optional trailing whitespace.
var listMarkerPattern = regexp.MustCompile(`^(?:[-*•]+|\(?\d+[.)])\s*`)

// SplitItems applies the list-splitting grammar: split on newlines, strip
// leading bullet or numbering markers and surrounding whitespace from each
// line, drop empty entries, preserve order. The grammar is idempotent:
// splitting an already-split, newline-joined list yields the same items.
func SplitItems(raw string) []string {
	var items []string
	for _, line := range strings.Split(raw, "\n") {
		line = stripMarkers(line)
		if line == "" {
			continue
		}
		items = append(items, line)
	}
	return items
}

// stripMarkers removes leading markers until none remain, so stacked markers
// like "1. 2. item" cannot leave a residual marker that a later pass would
// strip differently.
func stripMarkers(line string) string {
	line = strings.TrimSpace(line)
	for {
		next := strings.TrimSpace(listMarkerPattern.ReplaceAllString(line, ""))
		if next == line {
			return line
		}
		line = next
	}
}

// actionableTasks parses the task extractor's JSON output shape. Returns nil
// when raw is not that shape, in which case the split grammar applies. The
// parsed items are passed through the marker-stripping step so a later
// re-normalization of the joined list yields the identical sequence.
func actionableTasks(raw string) []string {
	var parsed struct {
		ActionableTasks []string `json:"actionable_tasks"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil
	}
	if parsed.ActionableTasks == nil {
		return nil
	}
	items := make([]string, 0, len(parsed.ActionableTasks))
	for _, task := range parsed.ActionableTasks {
		task = stripMarkers(task)
		if task == "" {
			continue
		}
		items = append(items, task)
	}
	return items
}

// titleCase renders a tool name like "extract_links" as "Extract Links" for
// the fallback envelope title.
func titleCase(toolName string) string {
	words := strings.FieldsFunc(toolName, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	if len(words) == 0 {
		return toolName
	}
	return strings.Join(words, " ")
}
