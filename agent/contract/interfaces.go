package contract

import "context"

// Resolver maps tool names to descriptors from the discovery cache.
// Resolve returns an error wrapping ErrToolNotFound when the name cannot be
// resolved after at most one refresh. Invalidate drops a cached descriptor so
// the next resolution re-discovers it.
type Resolver interface {
	Resolve(ctx context.Context, name string) (ToolDescriptor, error)
	Invalidate(name string)
}

// Classifier maps a free-text instruction to a tool name. It never fails:
// an instruction matching no rule yields the default tool.
type Classifier interface {
	Classify(instruction string) string
}

// Invoker performs a single tool invocation. Failures are data, not errors.
type Invoker interface {
	Invoke(ctx context.Context, descriptor ToolDescriptor, arguments map[string]any) InvocationResult
}

// Normalizer converts a raw invocation result into the envelope returned to
// callers.
type Normalizer interface {
	Normalize(toolName string, result InvocationResult, transcriptLength int) AnalysisEnvelope
}
