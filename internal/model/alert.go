// Package model defines the data types shared across the alert pipeline,
// stores, and server.
package model

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Classification labels produced by the classifier.
const (
	LabelReal    = "real"
	LabelFake    = "fake"
	LabelUnknown = "unknown"
)

// LocationSource records how an AlertState's location was obtained.
type LocationSource string

const (
	// LocationSourceNone means no location has been resolved yet.
	LocationSourceNone LocationSource = ""
	// LocationSourceCaller means the submitter supplied GPS coordinates.
	LocationSourceCaller LocationSource = "caller"
	// LocationSourceGeocoded means the location was extracted from the report text.
	LocationSourceGeocoded LocationSource = "geocoded"
	// LocationSourceFallback means geocoding failed and the default
	// coordinates were adopted. Consistency verification is skipped for
	// fallback locations since there is nothing meaningful to cross-check.
	LocationSourceFallback LocationSource = "fallback"
)

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// AlertState is the single mutable record threaded through the pipeline
// stages. Each invocation owns its own instance exclusively.
type AlertState struct {
	ReportText     string         `json:"report_text"`
	TrustScore     float64        `json:"trust_score"`
	Location       Coordinates    `json:"location"`
	LocationSource LocationSource `json:"location_source"`
	AlertType      string         `json:"alert_type"`
	Confidence     float64        `json:"confidence"`

	// Degraded records why classification fell back to a default result.
	// Empty when the classifier backend answered normally.
	Degraded string `json:"degraded,omitempty"`
}

// NewAlertState builds the initial pipeline state for a report. Trust
// starts at 1.0 (full trust) until classification assigns the
// authoritative score. Caller coordinates, when present, are adopted
// verbatim and tagged so later stages never overwrite them.
func NewAlertState(text string, caller *Coordinates) AlertState {
	s := AlertState{
		ReportText: text,
		TrustScore: 1.0,
	}
	if caller != nil {
		s.Location = *caller
		s.LocationSource = LocationSourceCaller
	}
	return s
}

// CrimeReport is the persisted form of a processed alert. Created only
// when the trust score clears the persistence threshold; never mutated
// after creation.
type CrimeReport struct {
	ID             string    `json:"id"`
	OriginalText   string    `json:"original_text"`
	PredictedLabel string    `json:"predicted_label"`
	Confidence     float64   `json:"confidence"`
	TrustScore     float64   `json:"trust_score"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Category       string    `json:"category"`
	Timestamp      time.Time `json:"timestamp"`
}

var categoryCaser = cases.Title(language.English)

// Categorize converts a raw alert type label into the display category
// stored with the report, so "real" becomes "Real".
func Categorize(alertType string) string {
	if alertType == "" {
		return "Unknown"
	}
	return categoryCaser.String(alertType)
}
