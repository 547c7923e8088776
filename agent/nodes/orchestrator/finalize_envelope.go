package orchestratornode

import (
	"fmt"

	contractx "github.com/tanwarat/scribemesh/agent/contract"
)

func FinalizeEnvelope(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	return GraphOutput{Envelope: in.Envelope}, nil
}
