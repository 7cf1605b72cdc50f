package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/toladimeji/crimewatch/internal/geo"
	"github.com/toladimeji/crimewatch/internal/model"
)

// verifyConsistency is stage 3: cross-check the held location against a
// second, independent text extraction. Fallback locations are skipped
// outright. The check only ever lowers trust (by the penalty factor when
// the two estimates disagree by more than the consistency radius) and
// never mutates the held location.
func (p *Pipeline) verifyConsistency(ctx context.Context, state model.AlertState) model.AlertState {
	if state.LocationSource == model.LocationSourceFallback {
		zap.L().Debug("verify: skipping for fallback coordinates")
		return state
	}

	second, ok := p.extractCoordinates(ctx, state.ReportText)
	if !ok {
		zap.L().Debug("verify: no second extraction, skipping")
		return state
	}

	distanceKM := geo.DistanceKM(state.Location, second)
	if distanceKM > p.policy.ConsistencyRadiusKM {
		state.TrustScore *= p.policy.InconsistencyPenalty
		zap.L().Warn("verify: inconsistent location, penalizing trust",
			zap.Float64("distance_km", distanceKM),
			zap.Float64("radius_km", p.policy.ConsistencyRadiusKM),
			zap.Float64("trust_score", state.TrustScore),
		)
		return state
	}

	zap.L().Debug("verify: location consistent", zap.Float64("distance_km", distanceKM))
	return state
}
