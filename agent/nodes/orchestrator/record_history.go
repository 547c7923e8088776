package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanwarat/scribemesh/agent/contract"
	historyx "github.com/tanwarat/scribemesh/agent/history"
)

// RecordHistory appends a metadata row for the finished analysis. Persistence
// failures are logged and swallowed so the caller still gets the envelope.
func RecordHistory(ctx context.Context, in *GraphState, store historyx.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	rec := historyx.Record{
		ToolUsed:         in.Envelope.Metadata.ToolUsed,
		EnvelopeType:     string(in.Envelope.Type),
		TranscriptLength: in.Envelope.Metadata.TranscriptLength,
		CreatedAt:        in.Now.UTC(),
	}
	if in.Envelope.Metadata.ItemCount != nil {
		rec.ItemCount = *in.Envelope.Metadata.ItemCount
	}
	if in.Result.Failed() {
		rec.FailureKind = string(in.Result.Failure.Kind)
	}

	if err := store.Append(ctx, rec); err != nil {
		log.Warn().Err(err).Str("envelope_type", rec.EnvelopeType).Msg("analysis history append failed")
	}
	return in, nil
}
