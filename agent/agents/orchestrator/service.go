package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanwarat/scribemesh/agent/contract"
	historyx "github.com/tanwarat/scribemesh/agent/history"
	nodex "github.com/tanwarat/scribemesh/agent/nodes/orchestrator"
)

// Orchestrator runs the analyze pipeline: classify the instruction, resolve
// and invoke the tool, normalize the raw output into an envelope, record the
// outcome.
type Orchestrator struct {
	resolver   contractx.Resolver
	classifier contractx.Classifier
	invoker    contractx.Invoker
	normalizer contractx.Normalizer
	history    historyx.Store

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

func New(
	resolver contractx.Resolver,
	classifier contractx.Classifier,
	invoker contractx.Invoker,
	normalizer contractx.Normalizer,
	history historyx.Store,
) (*Orchestrator, error) {
	if resolver == nil {
		return nil, errors.New("tool resolver is required")
	}
	if classifier == nil {
		return nil, errors.New("intent classifier is required")
	}
	if invoker == nil {
		return nil, errors.New("tool invoker is required")
	}
	if normalizer == nil {
		return nil, errors.New("response normalizer is required")
	}
	if history == nil {
		history = historyx.Noop{}
	}

	o := &Orchestrator{
		resolver:   resolver,
		classifier: classifier,
		invoker:    invoker,
		normalizer: normalizer,
		history:    history,
		now:        time.Now,
	}

	graphRunner, err := o.compileAnalyzeGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// Analyze runs one transcript through the pipeline. Only request-shape
// problems surface as errors; tool failures come back inside the envelope.
func (o *Orchestrator) Analyze(ctx context.Context, transcript string, instruction string) (contractx.AnalysisEnvelope, error) {
	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		Transcript:  transcript,
		Instruction: instruction,
	})
	if err != nil {
		return contractx.AnalysisEnvelope{}, err
	}
	return out.Envelope, nil
}
