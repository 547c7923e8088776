package toolservice

import (
	"fmt"

	contractx "github.com/tanwarat/scribemesh/agent/contract"
	"github.com/tanwarat/scribemesh/pkg/textgen"
)

// Capability is one invocable tool of a service: the advertised descriptor,
// the prompt sent to a generation backend, and a deterministic offline
// fallback used when no backend is configured.
type Capability struct {
	Descriptor contractx.ToolDescriptor
	Prompt     func(transcript string) string
	Offline    func(transcript string) string
}

func transcriptSchema() contractx.ToolInputSchema {
	return contractx.ToolInputSchema{
		Type: "object",
		Properties: map[string]contractx.ParameterSpec{
			"transcript": {
				Type:        "string",
				Description: "Raw meeting transcript text",
				MinLength:   minTranscriptLength,
				MaxLength:   maxTranscriptLength,
			},
		},
		Required: []string{"transcript"},
	}
}

// Summarizer returns the capabilities of the summarizer agent.
func Summarizer() []Capability {
	return []Capability{
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        contractx.ToolSummarize,
				Description: "Produces a concise summary of a meeting transcript.",
				InputSchema: transcriptSchema(),
			},
			Prompt: func(transcript string) string {
				return "You are an expert meeting analyst. Summarize the following meeting transcript " +
					"in a concise paragraph covering the purpose, the main discussion points, and the " +
					"decisions made.\n\nTranscript:\n" + transcript
			},
			Offline: textgen.Summarize,
		},
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        contractx.ToolHighlights,
				Description: "Extracts the key points and insights from a meeting transcript.",
				InputSchema: transcriptSchema(),
			},
			Prompt: func(transcript string) string {
				return "You are an expert meeting analyst. Extract the most important key points and " +
					"insights from the following meeting transcript. Return one bullet per line, " +
					"prefixed with \"- \".\n\nTranscript:\n" + transcript
			},
			Offline: textgen.KeyPoints,
		},
	}
}

// TaskExtractor returns the capabilities of the task extractor agent.
func TaskExtractor() []Capability {
	return []Capability{
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        contractx.ToolTasks,
				Description: "Extracts actionable tasks and commitments from a meeting transcript.",
				InputSchema: transcriptSchema(),
			},
			Prompt: func(transcript string) string {
				return "You are an expert meeting analyst. Extract every actionable task, commitment, " +
					"and deadline from the following meeting transcript. Respond with a JSON object of " +
					"the shape {\"actionable_tasks\": [\"...\"]} and nothing else.\n\nTranscript:\n" + transcript
			},
			Offline: textgen.ActionItems,
		},
	}
}

// ForAgent maps an agent name to its capability set.
func ForAgent(agent string) ([]Capability, error) {
	switch agent {
	case "summarizer":
		return Summarizer(), nil
	case "task-extractor":
		return TaskExtractor(), nil
	default:
		return nil, fmt.Errorf("unknown agent %q", agent)
	}
}
