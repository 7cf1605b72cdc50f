package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/toladimeji/crimewatch/internal/pipeline"
	"github.com/toladimeji/crimewatch/internal/store"
	"github.com/toladimeji/crimewatch/pkg/classifier"
	"github.com/toladimeji/crimewatch/pkg/mapbox"
)

// initStore opens the configured store backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initClassifier selects the classification backend once at startup.
// Missing credentials demote the configured backend to the keyword
// heuristic rather than failing startup.
func initClassifier() classifier.Client {
	switch cfg.Classifier.Backend {
	case "anthropic":
		if cfg.Anthropic.Key != "" {
			return classifier.NewClaudeClient(cfg.Anthropic.Key,
				classifier.WithClaudeModel(cfg.Anthropic.Model))
		}
		zap.L().Warn("anthropic key not configured, using keyword heuristic")
	case "huggingface", "":
		if cfg.Classifier.HFToken != "" {
			return classifier.NewHFClient(cfg.Classifier.HFToken,
				classifier.WithHFModel(cfg.Classifier.HFModel),
				classifier.WithHFBaseURL(cfg.Classifier.BaseURL))
		}
		zap.L().Warn("huggingface token not configured, using keyword heuristic")
	case "heuristic":
		// explicit opt-in
	default:
		zap.L().Warn("unknown classifier backend, using keyword heuristic",
			zap.String("backend", cfg.Classifier.Backend))
	}
	return classifier.NewHeuristic()
}

// initPipeline wires the geocoder and classifier into a Pipeline.
func initPipeline() *pipeline.Pipeline {
	gc := mapbox.NewClient(cfg.Mapbox.Token,
		mapbox.WithBaseURL(cfg.Mapbox.BaseURL),
		mapbox.WithRateLimit(cfg.Mapbox.RateLimit))
	if !gc.Available() {
		zap.L().Warn("mapbox token not configured, location resolution will use fallback coordinates")
	}

	cl := initClassifier()
	zap.L().Info("pipeline initialized",
		zap.String("classifier", cl.Name()),
		zap.Bool("classifier_available", cl.Available()),
		zap.Bool("geocoder_available", gc.Available()),
	)

	return pipeline.New(gc, cl, pipeline.PolicyFromConfig(cfg.Policy))
}
