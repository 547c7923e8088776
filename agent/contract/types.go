package contract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Canonical tool names served by the default tool services.
const (
	ToolSummarize  = "summarize_transcript"
	ToolHighlights = "highlight_key_points"
	ToolTasks      = "extract_tasks"
)

// ParameterSpec describes one property of a tool's input schema.
type ParameterSpec struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	MinLength   int    `json:"minLength,omitempty"`
	MaxLength   int    `json:"maxLength,omitempty"`
}

// ToolInputSchema mirrors the inputSchema object of the discovery document.
type ToolInputSchema struct {
	Type       string                   `json:"type"`
	Properties map[string]ParameterSpec `json:"properties,omitempty"`
	Required   []string                 `json:"required,omitempty"`
}

// ToolDescriptor is one invocable capability as advertised by a tool service.
// Endpoint is the base URL of the owning service; it is assigned by the
// registry during discovery and is not part of the discovery document itself.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema ToolInputSchema `json:"inputSchema"`
	Endpoint    string          `json:"endpoint,omitempty"`
}

// DiscoveryDocument is the body of GET /.well-known/mcp.json.
type DiscoveryDocument struct {
	Tools        []ToolDescriptor `json:"tools"`
	Resources    []any            `json:"resources"`
	Capabilities map[string]any   `json:"capabilities"`
}

// InvocationRequest is the body of POST /invoke.
type InvocationRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ContentBlock is one element of a tool's content array.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// FailureKind classifies invocation failures.
type FailureKind string

const (
	FailureInvalidArguments  FailureKind = "invalid_arguments"
	FailureUnreachable       FailureKind = "unreachable"
	FailureToolError         FailureKind = "tool_error"
	FailureNotFound          FailureKind = "not_found"
	FailureMalformedResponse FailureKind = "malformed_response"
)

// InvocationFailure carries the classified reason an invocation produced no
// content.
type InvocationFailure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// InvocationResult is the discriminated outcome of a single tool invocation:
// either Content is populated or Failure is non-nil, never both.
type InvocationResult struct {
	Content []ContentBlock     `json:"content,omitempty"`
	Failure *InvocationFailure `json:"failure,omitempty"`
}

func Succeed(blocks ...ContentBlock) InvocationResult {
	return InvocationResult{Content: blocks}
}

func Fail(kind FailureKind, format string, args ...any) InvocationResult {
	return InvocationResult{
		Failure: &InvocationFailure{
			Kind:    kind,
			Message: fmt.Sprintf(format, args...),
		},
	}
}

func (r InvocationResult) Failed() bool {
	return r.Failure != nil
}

// Text joins the text of all text-typed content blocks.
func (r InvocationResult) Text() string {
	parts := make([]string, 0, len(r.Content))
	for _, block := range r.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// EnvelopeType discriminates the shape of an AnalysisEnvelope.
type EnvelopeType string

const (
	EnvelopeSummary    EnvelopeType = "summary"
	EnvelopeHighlights EnvelopeType = "highlights"
	EnvelopeTasks      EnvelopeType = "tasks"
	EnvelopeError      EnvelopeType = "error"
	EnvelopeFallback   EnvelopeType = "fallback"
)

// EnvelopeContent is either a single paragraph (Text) or an ordered item list
// (Items). It marshals as a JSON string or a JSON array accordingly.
type EnvelopeContent struct {
	Text  string
	Items []string
}

func (c EnvelopeContent) IsList() bool {
	return c.Items != nil
}

func (c EnvelopeContent) MarshalJSON() ([]byte, error) {
	if c.Items != nil {
		return json.Marshal(c.Items)
	}
	return json.Marshal(c.Text)
}

func (c *EnvelopeContent) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err == nil {
		c.Items = items
		c.Text = ""
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("envelope content must be a string or a string array: %w", err)
	}
	c.Text = text
	c.Items = nil
	return nil
}

type EnvelopeMetadata struct {
	TranscriptLength int    `json:"transcript_length"`
	ToolUsed         string `json:"tool_used,omitempty"`
	ItemCount        *int   `json:"item_count,omitempty"`
}

// AnalysisEnvelope is the single structured result returned to callers,
// covering success and failure uniformly. Built fresh per request and never
// mutated after construction.
type AnalysisEnvelope struct {
	Type     EnvelopeType     `json:"type"`
	Title    string           `json:"title"`
	Content  EnvelopeContent  `json:"content"`
	Metadata EnvelopeMetadata `json:"metadata"`
}
