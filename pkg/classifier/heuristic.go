package classifier

import (
	"context"
	"strings"
)

// HeuristicKeywords is the fixed set of incident terms the keyword
// fallback matches (case-insensitive substring). A report containing any
// of them is labeled "real".
var HeuristicKeywords = []string{"robbery", "theft", "assault", "crime"}

// Fixed scores for heuristic classifications.
const (
	heuristicConfidence = 0.7
	heuristicTrustScore = 0.6
)

// Heuristic is the no-model classifier variant: a pure keyword matcher
// selected at startup when neither inference backend is configured. It
// never fails.
type Heuristic struct{}

// NewHeuristic creates the keyword fallback classifier.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

func (h *Heuristic) Name() string { return "heuristic" }

// Available reports false: the heuristic is the degraded variant, not a
// real model.
func (h *Heuristic) Available() bool { return false }

func (h *Heuristic) Classify(_ context.Context, text string) (*Prediction, error) {
	lower := strings.ToLower(text)
	label := "unknown"
	for _, kw := range HeuristicKeywords {
		if strings.Contains(lower, kw) {
			label = "real"
			break
		}
	}
	return &Prediction{
		Label:      label,
		Confidence: heuristicConfidence,
		TrustScore: heuristicTrustScore,
		Degraded:   "model_unavailable",
	}, nil
}
