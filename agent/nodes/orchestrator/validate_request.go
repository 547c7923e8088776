package orchestratornode

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanwarat/scribemesh/agent/contract"
)

const (
	MinTranscriptLength  = 10
	MaxTranscriptLength  = 10000
	MaxInstructionLength = 500
)

type GraphInput struct {
	Transcript  string
	Instruction string
}

type GraphOutput struct {
	Envelope contractx.AnalysisEnvelope
}

// GraphState is threaded through the analyze graph. Each node fills in its
// own fields and passes the state along.
type GraphState struct {
	Transcript  string
	Instruction string
	Now         time.Time

	ToolName   string
	Descriptor contractx.ToolDescriptor
	Result     contractx.InvocationResult
	Envelope   contractx.AnalysisEnvelope
}

// ValidateRequest checks the request bounds before any network traffic. All
// violations wrap ErrValidation, which the serving layer maps to a 400.
func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	transcript := strings.TrimSpace(in.Transcript)
	if transcript == "" {
		return nil, fmt.Errorf("%w: transcript is empty", contractx.ErrValidation)
	}
	if len(transcript) < MinTranscriptLength {
		return nil, fmt.Errorf("%w: transcript shorter than %d characters", contractx.ErrValidation, MinTranscriptLength)
	}
	if len(transcript) > MaxTranscriptLength {
		return nil, fmt.Errorf("%w: transcript longer than %d characters", contractx.ErrValidation, MaxTranscriptLength)
	}

	instruction := strings.TrimSpace(in.Instruction)
	if instruction == "" {
		return nil, fmt.Errorf("%w: instruction is empty", contractx.ErrValidation)
	}
	if len(instruction) > MaxInstructionLength {
		return nil, fmt.Errorf("%w: instruction longer than %d characters", contractx.ErrValidation, MaxInstructionLength)
	}

	now := time.Now()
	if nowFn != nil {
		now = nowFn()
	}

	return &GraphState{
		Transcript:  transcript,
		Instruction: instruction,
		Now:         now,
	}, nil
}
