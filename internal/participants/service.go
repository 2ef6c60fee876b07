package participants

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bluetrust/registry-backend/internal/domain"
	"bluetrust/registry-backend/internal/ledger"
)

// RegisterNGORequest carries an NGO registration.
type RegisterNGORequest struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	RegistrationNo string  `json:"registration_no"`
	Region         string  `json:"region"`
	Rating         float64 `json:"rating"`
	UnitPrice      int64   `json:"unit_price"`
}

// RegisterCompanyRequest carries a company registration.
type RegisterCompanyRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	CIN             string `json:"cin"`
	CarbonFootprint int64  `json:"carbon_footprint"`
}

// Service maintains the participant directory and keeps it aligned with the
// ledger: registering an NGO creates its issuer account, registering a
// company creates its holder account, under the same id.
type Service struct {
	ledger *ledger.Ledger
	logger *zap.Logger

	mu        sync.RWMutex
	ngos      map[uuid.UUID]*NGO
	companies map[uuid.UUID]*Company
	verifiers map[uuid.UUID]*Verifier
}

// NewService creates the participant directory.
func NewService(l *ledger.Ledger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		ledger:    l,
		logger:    logger,
		ngos:      make(map[uuid.UUID]*NGO),
		companies: make(map[uuid.UUID]*Company),
		verifiers: make(map[uuid.UUID]*Verifier),
	}
}

// RegisterNGO creates an NGO profile and its ledger issuer account.
func (s *Service) RegisterNGO(req RegisterNGORequest) (*NGO, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: ngo name is required", domain.ErrInvalidInput)
	}
	if req.Rating < 0 || req.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be within [0, 5]", domain.ErrInvalidInput)
	}

	ngo := &NGO{
		ID:             uuid.New(),
		Name:           req.Name,
		Email:          req.Email,
		RegistrationNo: req.RegistrationNo,
		Region:         req.Region,
		Rating:         req.Rating,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := s.ledger.RegisterIssuer(ngo.ID, ngo.Name, ngo.Rating, req.UnitPrice); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.ngos[ngo.ID] = ngo
	s.mu.Unlock()

	s.logger.Info("ngo registered", zap.String("id", ngo.ID.String()), zap.String("name", ngo.Name))
	return ngo, nil
}

// RegisterCompany creates a company profile and its ledger holder account.
func (s *Service) RegisterCompany(req RegisterCompanyRequest) (*Company, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: company name is required", domain.ErrInvalidInput)
	}

	company := &Company{
		ID:              uuid.New(),
		Name:            req.Name,
		Email:           req.Email,
		CIN:             req.CIN,
		CarbonFootprint: req.CarbonFootprint,
		CreatedAt:       time.Now().UTC(),
	}
	if _, err := s.ledger.RegisterHolder(company.ID, company.Name, company.CarbonFootprint); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.companies[company.ID] = company
	s.mu.Unlock()

	s.logger.Info("company registered", zap.String("id", company.ID.String()), zap.String("name", company.Name))
	return company, nil
}

// RegisterVerifier creates a verifier profile. Verifiers have no ledger
// account.
func (s *Service) RegisterVerifier(name, email, department string) (*Verifier, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: verifier name is required", domain.ErrInvalidInput)
	}
	v := &Verifier{
		ID:         uuid.New(),
		Name:       name,
		Email:      email,
		Department: department,
		CreatedAt:  time.Now().UTC(),
	}
	s.mu.Lock()
	s.verifiers[v.ID] = v
	s.mu.Unlock()
	return v, nil
}

// NGO returns an NGO profile by id.
func (s *Service) NGO(id uuid.UUID) (*NGO, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ngo, ok := s.ngos[id]
	if !ok {
		return nil, fmt.Errorf("%w: ngo %s", domain.ErrNotFound, id)
	}
	out := *ngo
	return &out, nil
}

// Company returns a company profile by id.
func (s *Service) Company(id uuid.UUID) (*Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	company, ok := s.companies[id]
	if !ok {
		return nil, fmt.Errorf("%w: company %s", domain.ErrNotFound, id)
	}
	out := *company
	return &out, nil
}

// NGOs lists all registered NGOs.
func (s *Service) NGOs() []NGO {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]NGO, 0, len(s.ngos))
	for _, n := range s.ngos {
		out = append(out, *n)
	}
	return out
}

// Companies lists all registered companies.
func (s *Service) Companies() []Company {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Company, 0, len(s.companies))
	for _, c := range s.companies {
		out = append(out, *c)
	}
	return out
}

// Verifiers lists all registered verifiers.
func (s *Service) Verifiers() []Verifier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Verifier, 0, len(s.verifiers))
	for _, v := range s.verifiers {
		out = append(out, *v)
	}
	return out
}

// SeedDemo loads the demo fixtures: one NGO, one company, one verifier.
func (s *Service) SeedDemo() error {
	if _, err := s.RegisterNGO(RegisterNGORequest{
		Name:           "Coastal Conservation Society",
		Email:          "ngo@demo.com",
		RegistrationNo: "NG-DEL-12345",
		Region:         "West Bengal",
		Rating:         4.8,
		UnitPrice:      2500,
	}); err != nil {
		return err
	}
	if _, err := s.RegisterCompany(RegisterCompanyRequest{
		Name:            "Green Tech Solutions",
		Email:           "company@demo.com",
		CIN:             "U12345AB2020PTC123456",
		CarbonFootprint: 500,
	}); err != nil {
		return err
	}
	if _, err := s.RegisterVerifier("Dr. Rajesh Kumar", "gov@demo.com", "Ministry of Environment"); err != nil {
		return err
	}
	return nil
}
