package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/toladimeji/crimewatch/internal/model"
)

// resolveLocation is stage 1. Caller-supplied GPS coordinates are kept
// unchanged and the geocoder is never invoked for them. Otherwise the
// report text is forward-geocoded; every absence mode (no token, network
// failure, no match) degrades identically to the fallback coordinates.
func (p *Pipeline) resolveLocation(ctx context.Context, state model.AlertState) model.AlertState {
	if state.LocationSource == model.LocationSourceCaller {
		zap.L().Debug("location: using caller coordinates",
			zap.Float64("latitude", state.Location.Latitude),
			zap.Float64("longitude", state.Location.Longitude),
		)
		return state
	}

	if coords, ok := p.extractCoordinates(ctx, state.ReportText); ok {
		state.Location = coords
		state.LocationSource = model.LocationSourceGeocoded
		zap.L().Debug("location: extracted from text",
			zap.Float64("latitude", coords.Latitude),
			zap.Float64("longitude", coords.Longitude),
		)
		return state
	}

	state.Location = p.policy.FallbackCoordinates
	state.LocationSource = model.LocationSourceFallback
	zap.L().Warn("location: no location found, using fallback coordinates")
	return state
}

// extractCoordinates resolves report text to coordinates through the
// geocoder. Misconfiguration, transport failure, and no-match all look
// the same to callers: absence.
func (p *Pipeline) extractCoordinates(ctx context.Context, text string) (model.Coordinates, bool) {
	if !p.geocoder.Available() {
		zap.L().Warn("location: geocoder not configured")
		return model.Coordinates{}, false
	}

	result, err := p.geocoder.Forward(ctx, text)
	if err != nil {
		zap.L().Warn("location: geocoding failed", zap.Error(err))
		return model.Coordinates{}, false
	}
	if !result.Matched {
		return model.Coordinates{}, false
	}

	return model.Coordinates{
		Latitude:  result.Latitude,
		Longitude: result.Longitude,
	}, true
}
