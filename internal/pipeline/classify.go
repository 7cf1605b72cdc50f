package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/toladimeji/crimewatch/internal/model"
	"github.com/toladimeji/crimewatch/pkg/classifier"
)

// classify is stage 2: the classifier assigns the alert type and the
// authoritative trust score, overwriting the initial full-trust value.
// A backend failure is converted to the deterministic fallback result;
// the reason is recorded on the state, never propagated.
func (p *Pipeline) classify(ctx context.Context, state model.AlertState) model.AlertState {
	pred, err := p.classifier.Classify(ctx, state.ReportText)
	if err != nil {
		zap.L().Warn("classify: backend failed, using fallback result",
			zap.String("backend", p.classifier.Name()),
			zap.Error(err),
		)
		pred = classifier.Fallback("classify_error")
	}

	state.AlertType = pred.Label
	state.TrustScore = pred.TrustScore
	state.Confidence = pred.Confidence
	state.Degraded = pred.Degraded

	zap.L().Debug("classify: report classified",
		zap.String("backend", p.classifier.Name()),
		zap.String("label", pred.Label),
		zap.Float64("confidence", pred.Confidence),
		zap.Float64("trust_score", pred.TrustScore),
	)
	return state
}
