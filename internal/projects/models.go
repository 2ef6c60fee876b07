package projects

import (
	"time"

	"github.com/google/uuid"

	"bluetrust/registry-backend/pkg/workflows"
)

// Project represents a restoration project registered by an issuer. A
// project is never deleted; it only transitions to a terminal status. Once
// VERIFIED it is immutable: re-verification is a new project, not a
// mutation.
type Project struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	IssuerID      uuid.UUID        `json:"issuer_id" db:"issuer_id"`
	Name          string           `json:"name" db:"name"`
	Description   string           `json:"description" db:"description"`
	LocationName  string           `json:"location_name" db:"location_name"`
	Latitude      float64          `json:"latitude" db:"latitude"`
	Longitude     float64          `json:"longitude" db:"longitude"`
	AreaHectares  float64          `json:"area_hectares" db:"area_hectares"`
	PlantedUnits  int64            `json:"planted_units" db:"planted_units"`
	Status        workflows.Status `json:"status" db:"status"`
	SurvivalIndex int              `json:"survival_index" db:"survival_index"` // 0-100, set at verification
	CreditsIssued int64            `json:"credits_issued" db:"credits_issued"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	VerifiedAt    *time.Time       `json:"verified_at,omitempty" db:"verified_at"`
}

// StatusHistory records one status transition of a project.
type StatusHistory struct {
	ID        uuid.UUID        `json:"id"`
	ProjectID uuid.UUID        `json:"project_id"`
	Status    workflows.Status `json:"status"`
	ChangedAt time.Time        `json:"changed_at"`
	ChangedBy uuid.UUID        `json:"changed_by"`
	Note      string           `json:"note,omitempty"`
}

// Filter narrows project listings.
type Filter struct {
	IssuerID *uuid.UUID
	Status   *workflows.Status
}
