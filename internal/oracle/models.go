package oracle

import (
	"context"
	"time"
)

// ChangeType classifies the land-cover change detected over a claimed area.
type ChangeType string

const (
	ChangeRestoration       ChangeType = "restoration"
	ChangeDeforestation     ChangeType = "deforestation"
	ChangeNone              ChangeType = "no_change"
	ChangeSeasonalVariation ChangeType = "seasonal_variation"
)

// ChangeDetection is the change-analysis portion of an assessment.
type ChangeDetection struct {
	Type                ChangeType `json:"type"`
	Confidence          float64    `json:"confidence"`
	AreaChangedHectares float64    `json:"area_changed_hectares"`
	Description         string     `json:"description"`
}

// Assessment is the impact evaluation produced for a claimed location and
// area. It is ephemeral: only the fields folded into the project record
// outlive the verification decision.
type Assessment struct {
	Latitude        float64         `json:"latitude"`
	Longitude       float64         `json:"longitude"`
	AreaHectares    float64         `json:"area_hectares"`
	VegetationIndex int             `json:"vegetation_index"` // 0-100
	Confidence      float64         `json:"confidence"`       // 0-1
	Change          ChangeDetection `json:"change_detection"`
	ReferenceSite   string          `json:"reference_site,omitempty"`
	CloudCover      float64         `json:"cloud_cover"`
	Source          string          `json:"source"`
	AssessedAt      time.Time       `json:"assessed_at"`
}

// DataPoint is one step of a simulated vegetation time series.
type DataPoint struct {
	Date            string  `json:"date"`
	VegetationIndex int     `json:"vegetation_index"`
	Confidence      float64 `json:"confidence"`
}

// Provider is the pluggable evidence source. A simulated provider computes
// the assessment locally; a production provider calls out to a
// remote-sensing service behind the same contract. Callers must not hold
// ledger or project locks across Assess: the call may block for the full
// configured latency of the underlying source.
type Provider interface {
	Assess(ctx context.Context, lat, lng, areaHectares float64) (*Assessment, error)
}
