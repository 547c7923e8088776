package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/tanwarat/scribemesh/agent/nodes/orchestrator"
)

func (o *Orchestrator) compileAnalyzeGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, o.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("classify_intent",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ClassifyIntent(in, o.classifier)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node classify_intent: %w", err)
	}

	if err := graph.AddLambdaNode("resolve_tool",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ResolveTool(ctx, in, o.resolver)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node resolve_tool: %w", err)
	}

	if err := graph.AddLambdaNode("invoke_tool",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.InvokeTool(ctx, in, o.resolver, o.invoker)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node invoke_tool: %w", err)
	}

	if err := graph.AddLambdaNode("normalize_response",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.NormalizeResponse(in, o.normalizer)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node normalize_response: %w", err)
	}

	if err := graph.AddLambdaNode("record_history",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RecordHistory(ctx, in, o.history)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node record_history: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_envelope",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeEnvelope(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_envelope: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "classify_intent"},
		{"classify_intent", "resolve_tool"},
		{"resolve_tool", "invoke_tool"},
		{"invoke_tool", "normalize_response"},
		{"normalize_response", "record_history"},
		{"record_history", "finalize_envelope"},
		{"finalize_envelope", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.analyze"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
