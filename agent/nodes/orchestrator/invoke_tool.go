package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanwarat/scribemesh/agent/contract"
)

// InvokeTool calls the resolved tool with the transcript. A not_found answer
// from the service means the registry entry is stale: the entry is
// invalidated and the invocation retried once against a fresh resolution.
// Skipped entirely when an earlier node already produced a failure result.
func InvokeTool(ctx context.Context, in *GraphState, resolver contractx.Resolver, invoker contractx.Invoker) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Result.Failed() {
		return in, nil
	}

	arguments := map[string]any{"transcript": in.Transcript}
	result := invoker.Invoke(ctx, in.Descriptor, arguments)

	if result.Failed() && result.Failure.Kind == contractx.FailureNotFound {
		log.Warn().Str("tool", in.ToolName).Str("endpoint", in.Descriptor.Endpoint).
			Msg("stale registry entry, re-resolving tool")
		resolver.Invalidate(in.ToolName)

		descriptor, err := resolver.Resolve(ctx, in.ToolName)
		if err == nil {
			in.Descriptor = descriptor
			result = invoker.Invoke(ctx, descriptor, arguments)
		}
	}

	in.Result = result
	return in, nil
}
