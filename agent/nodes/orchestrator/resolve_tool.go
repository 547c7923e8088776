package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanwarat/scribemesh/agent/contract"
)

// ResolveTool looks up the classified tool in the registry. A resolution
// failure is a request outcome, not a graph error: it becomes a not_found
// result that the normalizer renders as an error envelope.
func ResolveTool(ctx context.Context, in *GraphState, resolver contractx.Resolver) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	descriptor, err := resolver.Resolve(ctx, in.ToolName)
	if err != nil {
		in.Result = contractx.Fail(contractx.FailureNotFound, "tool %s is not available: %v", in.ToolName, err)
		return in, nil
	}

	in.Descriptor = descriptor
	return in, nil
}
