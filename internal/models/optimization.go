package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RecommendationType classifies an earning recommendation. The set is closed;
// anything else fails dataset validation.
type RecommendationType string

const (
	RecommendationTypeSurge  RecommendationType = "surge"
	RecommendationTypeDemand RecommendationType = "demand"
	RecommendationTypeBonus  RecommendationType = "bonus"
)

// IsValid reports whether the type is one of the closed enumeration values.
func (t RecommendationType) IsValid() bool {
	switch t {
	case RecommendationTypeSurge, RecommendationTypeDemand, RecommendationTypeBonus:
		return true
	}
	return false
}

// Location is a named geographic point inside a surge zone.
//
// JSON field names across this package mirror the optimization fixture's
// camelCase shape exactly; the mobile clients consume the same payload.
type Location struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Name string  `json:"name"`
}

// SurgeZone represents a geographic area with an active price multiplier for
// a limited duration. Zones are immutable once fetched and re-fetched
// wholesale, never patched in place.
type SurgeZone struct {
	ID         string          `json:"id"`
	Location   Location        `json:"location"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Platform   string          `json:"platform"`
	Timestamp  string          `json:"timestamp"`
	// Duration is the zone's active window in seconds.
	Duration int64 `json:"duration"`
}

// TimeWindow is the validity window of a recommendation.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Recommendation is a suggested earning action with an estimated payout, a
// confidence score in [0,1] and a validity window. Immutable snapshot.
type Recommendation struct {
	ID                string             `json:"id"`
	Type              RecommendationType `json:"type"`
	Platform          string             `json:"platform"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	EstimatedEarnings decimal.Decimal    `json:"estimatedEarnings"`
	Confidence        decimal.Decimal    `json:"confidence"`
	TimeWindow        TimeWindow         `json:"timeWindow"`
	Location          string             `json:"location,omitempty"`
}

// IsExpired reports whether the recommendation's validity window has passed.
// Expiry is derived on every read, never stored. A window end that does not
// parse is treated as still valid; the validator guarantees the field is a
// string but not a parseable timestamp.
func (r *Recommendation) IsExpired(now time.Time) bool {
	end, err := time.Parse(time.RFC3339, r.TimeWindow.End)
	if err != nil {
		return false
	}
	return now.After(end)
}

// PlatformDisplayName returns the platform name formatted for UI labels,
// e.g. "uber eats" -> "Uber Eats". The Caser is built per call; Casers are
// stateful transformers and must not be shared across goroutines.
func PlatformDisplayName(platform string) string {
	return cases.Title(language.English).String(strings.ToLower(platform))
}

// OptimizationDataset is the root fetched unit: surge zones plus earning
// recommendations. Element order is source order and carries no meaning.
type OptimizationDataset struct {
	SurgeZones      []SurgeZone      `json:"surgeZones"`
	Recommendations []Recommendation `json:"recommendations"`
	LastUpdated     string           `json:"lastUpdated"`
}
