package intent

import (
	"strings"

	contractx "github.com/tanwarat/scribemesh/agent/contract"
)

// Rule maps a keyword set to a tool name. A rule matches when any of its
// keywords occurs in the lowercased instruction.
type Rule struct {
	Keywords []string
	Tool     string
}

// Classifier performs deterministic, case-insensitive keyword routing.
// Rules are evaluated in order and the first match wins; evaluation order is
// part of the contract. An instruction matching no rule yields the fallback
// tool, never an error.
type Classifier struct {
	rules    []Rule
	fallback string
}

var _ contractx.Classifier = (*Classifier)(nil)

func New(rules []Rule, fallback string) *Classifier {
	return &Classifier{rules: rules, fallback: fallback}
}

// Default returns the standard routing table for the transcript tools.
func Default() *Classifier {
	return New([]Rule{
		{Keywords: []string{"task", "todo", "action item"}, Tool: contractx.ToolTasks},
		{Keywords: []string{"key point", "highlight", "bullet"}, Tool: contractx.ToolHighlights},
	}, contractx.ToolSummarize)
}

func (c *Classifier) Classify(instruction string) string {
	lowered := strings.ToLower(instruction)
	for _, rule := range c.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lowered, keyword) {
				return rule.Tool
			}
		}
	}
	return c.fallback
}
