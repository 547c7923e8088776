package orchestratornode

import (
	"fmt"

	contractx "github.com/tanwarat/scribemesh/agent/contract"
)

// NormalizeResponse converts the invocation result into the envelope. Failure
// results become error envelopes here, so normalization never errors on
// content.
func NormalizeResponse(in *GraphState, normalizer contractx.Normalizer) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Envelope = normalizer.Normalize(in.ToolName, in.Result, len(in.Transcript))
	return in, nil
}
