package orchestratornode

import (
	"fmt"

	contractx "github.com/tanwarat/scribemesh/agent/contract"
)

// ClassifyIntent maps the free-text instruction to a tool name. The
// classifier is deterministic and total, so this node cannot fail on content.
func ClassifyIntent(in *GraphState, classifier contractx.Classifier) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.ToolName = classifier.Classify(in.Instruction)
	return in, nil
}
