// Package pipeline implements the three-stage alert filtering workflow:
// location resolution, classification with trust scoring, and location
// consistency verification. Every stage degrades to a documented default
// instead of failing, so a run always yields a fully-populated state.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/toladimeji/crimewatch/internal/config"
	"github.com/toladimeji/crimewatch/internal/model"
	"github.com/toladimeji/crimewatch/pkg/classifier"
	"github.com/toladimeji/crimewatch/pkg/mapbox"
)

// Stage names, in execution order.
const (
	StageLocation = "location"
	StageClassify = "classify"
	StageVerify   = "verify"
)

// Policy holds the tunable trust scoring parameters.
type Policy struct {
	FallbackCoordinates  model.Coordinates
	ConsistencyRadiusKM  float64
	InconsistencyPenalty float64
}

// PolicyFromConfig builds a Policy from the loaded configuration.
func PolicyFromConfig(cfg config.PolicyConfig) Policy {
	return Policy{
		FallbackCoordinates: model.Coordinates{
			Latitude:  cfg.FallbackLatitude,
			Longitude: cfg.FallbackLongitude,
		},
		ConsistencyRadiusKM:  cfg.ConsistencyRadiusKM,
		InconsistencyPenalty: cfg.InconsistencyPenalty,
	}
}

// Pipeline runs the alert filtering stages over one state record.
// Invocations are independent; the pipeline itself holds no per-run
// state and is safe for concurrent use.
type Pipeline struct {
	geocoder   mapbox.Client
	classifier classifier.Client
	policy     Policy
}

// New creates a Pipeline with its collaborators.
func New(gc mapbox.Client, cl classifier.Client, policy Policy) *Pipeline {
	return &Pipeline{
		geocoder:   gc,
		classifier: cl,
		policy:     policy,
	}
}

// Run processes one report through the three stages. Caller coordinates,
// when non-nil, take precedence over text-derived geolocation. Run never
// fails: each stage absorbs its own errors and falls back.
func (p *Pipeline) Run(ctx context.Context, text string, caller *model.Coordinates) model.AlertState {
	log := zap.L().With(zap.String("report_preview", preview(text)))
	log.Info("pipeline: processing report")

	state := model.NewAlertState(text, caller)

	stages := []struct {
		name string
		fn   func(context.Context, model.AlertState) model.AlertState
	}{
		{StageLocation, p.resolveLocation},
		{StageClassify, p.classify},
		{StageVerify, p.verifyConsistency},
	}

	for _, stage := range stages {
		start := time.Now()
		state = stage.fn(ctx, state)
		log.Info("pipeline: stage complete",
			zap.String("stage", stage.name),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	}

	log.Info("pipeline: report processed",
		zap.String("alert_type", state.AlertType),
		zap.Float64("trust_score", state.TrustScore),
		zap.String("location_source", string(state.LocationSource)),
	)
	return state
}

// preview truncates report text for log lines, never splitting a rune.
func preview(text string) string {
	runes := []rune(text)
	if len(runes) > 100 {
		return string(runes[:100]) + "..."
	}
	return text
}
