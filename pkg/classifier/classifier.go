// Package classifier maps crime report text to a predicted label and a
// derived trust score. Backends: HuggingFace inference, Claude, and a
// pure keyword heuristic used when no model is configured.
package classifier

import "context"

// Prediction is the classification result for a single report.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	TrustScore float64 `json:"trust_score"`

	// Degraded names the reason a fallback result was produced, empty
	// when a model answered normally.
	Degraded string `json:"degraded,omitempty"`
}

// Client defines the classification operations used by the pipeline.
type Client interface {
	// Classify predicts a label for the report text. Implementations may
	// return an error for per-call failures; callers are expected to
	// substitute a deterministic fallback rather than propagate it.
	Classify(ctx context.Context, text string) (*Prediction, error)

	// Name identifies the backend for logging.
	Name() string

	// Available reports whether a real model backs this client.
	Available() bool
}

// TrustScore derives the trust score from a label and the model's
// confidence in it. Confident "real" predictions earn high trust while
// confident "fake" predictions are pushed toward zero; the unreachable
// default guards against future label additions.
func TrustScore(label string, confidence float64) float64 {
	switch label {
	case "fake":
		return 0.2 * confidence
	case "real":
		return 0.8 * confidence
	default:
		return 0.5
	}
}

// Fallback is the deterministic result substituted when a backend fails
// on a call. The reason is recorded so tests and operators can see why
// the degradation happened.
func Fallback(reason string) *Prediction {
	return &Prediction{
		Label:      "unknown",
		Confidence: 0.5,
		TrustScore: 0.5,
		Degraded:   reason,
	}
}
