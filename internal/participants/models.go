package participants

import (
	"time"

	"github.com/google/uuid"
)

// Role distinguishes the three kinds of registry participants.
type Role string

const (
	RoleNGO      Role = "ngo"
	RoleCompany  Role = "company"
	RoleVerifier Role = "verifier"
)

// NGO is a restoration organization. Its ledger issuer account shares the
// same id.
type NGO struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	RegistrationNo string    `json:"registration_no"`
	Region         string    `json:"region"`
	Rating         float64   `json:"rating"`
	CreatedAt      time.Time `json:"created_at"`
}

// Company is a purchasing organization. Its ledger holder account shares the
// same id.
type Company struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	CIN             string    `json:"cin"`
	CarbonFootprint int64     `json:"carbon_footprint"` // tCO2e, reporting only
	CreatedAt       time.Time `json:"created_at"`
}

// Verifier is an administrative user authorized to decide verifications.
type Verifier struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	CreatedAt  time.Time `json:"created_at"`
}
