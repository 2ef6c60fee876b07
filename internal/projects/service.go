package projects

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bluetrust/registry-backend/internal/domain"
	"bluetrust/registry-backend/internal/ledger"
	"bluetrust/registry-backend/internal/oracle"
	"bluetrust/registry-backend/pkg/geospatial"
	"bluetrust/registry-backend/pkg/workflows"
)

// CreditBank is the slice of the ledger the state machine needs: issuing
// credits against a verified project and confirming the issuer exists.
type CreditBank interface {
	Mint(ctx context.Context, issuerID uuid.UUID, amount int64) (*ledger.Entry, error)
	Issuer(id uuid.UUID) (*ledger.IssuerAccount, error)
}

// Config tunes the verification workflow.
type Config struct {
	CreditsPerHectare   float64       // credits per hectare at 100% survival
	ConfidenceThreshold float64       // minimum assessment confidence to qualify
	OracleTimeout       time.Duration // budget for one oracle call
}

// DefaultConfig returns the design-default calibration.
func DefaultConfig() Config {
	return Config{
		CreditsPerHectare:   10,
		ConfidenceThreshold: 0.5,
		OracleTimeout:       30 * time.Second,
	}
}

// RegisterRequest carries the issuer's project registration.
type RegisterRequest struct {
	IssuerID     uuid.UUID `json:"issuer_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	LocationName string    `json:"location_name"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	AreaHectares float64   `json:"area_hectares"`
	PlantedUnits int64     `json:"planted_units"`
}

// DecideRequest carries a verification decision: either a qualifying
// assessment or an explicit administrative rejection.
type DecideRequest struct {
	Assessment *oracle.Assessment `json:"assessment,omitempty"`
	Reject     bool               `json:"reject"`
	Reason     string             `json:"reason,omitempty"`
	DecidedBy  uuid.UUID          `json:"decided_by"`
}

// Service owns project lifecycle transitions. Each project serializes its
// own transitions behind a per-project mutex; the oracle call runs outside
// every lock so a slow evidence source cannot stall unrelated work.
type Service struct {
	repo   Repository
	oracle oracle.Provider
	bank   CreditBank
	sm     *workflows.StateMachine
	cfg    Config
	logger *zap.Logger

	stateMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
	pending map[uuid.UUID]struct{}
}

// NewService creates the project lifecycle service.
func NewService(repo Repository, provider oracle.Provider, bank CreditBank, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CreditsPerHectare == 0 {
		cfg.CreditsPerHectare = DefaultConfig().CreditsPerHectare
	}
	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = DefaultConfig().ConfidenceThreshold
	}
	if cfg.OracleTimeout == 0 {
		cfg.OracleTimeout = DefaultConfig().OracleTimeout
	}
	return &Service{
		repo:    repo,
		oracle:  provider,
		bank:    bank,
		sm:      workflows.NewStateMachine(),
		cfg:     cfg,
		logger:  logger,
		locks:   make(map[uuid.UUID]*sync.Mutex),
		pending: make(map[uuid.UUID]struct{}),
	}
}

// Register creates a project in REGISTERED state.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Project, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: project name is required", domain.ErrInvalidInput)
	}
	if req.AreaHectares <= 0 {
		return nil, fmt.Errorf("%w: area must be positive, got %f", domain.ErrInvalidInput, req.AreaHectares)
	}
	if req.PlantedUnits < 0 {
		return nil, fmt.Errorf("%w: planted unit count cannot be negative", domain.ErrInvalidInput)
	}
	if !geospatial.ValidCoordinates(req.Latitude, req.Longitude) {
		return nil, fmt.Errorf("%w: coordinates out of range (%f, %f)", domain.ErrInvalidInput, req.Latitude, req.Longitude)
	}
	if _, err := s.bank.Issuer(req.IssuerID); err != nil {
		return nil, err
	}

	project := &Project{
		ID:           uuid.New(),
		IssuerID:     req.IssuerID,
		Name:         req.Name,
		Description:  req.Description,
		LocationName: req.LocationName,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		AreaHectares: req.AreaHectares,
		PlantedUnits: req.PlantedUnits,
		Status:       workflows.StatusRegistered,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}

	s.appendHistory(ctx, project.ID, workflows.StatusRegistered, req.IssuerID, "project registered")
	s.logger.Info("project registered",
		zap.String("project_id", project.ID.String()),
		zap.String("issuer_id", req.IssuerID.String()),
		zap.Float64("area_hectares", req.AreaHectares),
	)
	return project, nil
}

// RequestVerification moves a REGISTERED project into UNDER_REVIEW and
// invokes the verification oracle. An oracle timeout leaves the project
// UNDER_REVIEW so the operator can retry; a concurrent duplicate request for
// the same project is rejected while the first oracle call is in flight.
func (s *Service) RequestVerification(ctx context.Context, projectID uuid.UUID) (*oracle.Assessment, error) {
	lock := s.projectLock(projectID)
	lock.Lock()

	project, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		lock.Unlock()
		return nil, err
	}

	// UNDER_REVIEW is re-entered on operator retry after an oracle timeout.
	if project.Status != workflows.StatusUnderReview && !s.sm.CanTransition(project.Status, workflows.StatusUnderReview) {
		lock.Unlock()
		return nil, fmt.Errorf("%w: cannot request verification in state %s", domain.ErrInvalidTransition, project.Status)
	}

	s.stateMu.Lock()
	if _, inFlight := s.pending[projectID]; inFlight {
		s.stateMu.Unlock()
		lock.Unlock()
		return nil, fmt.Errorf("%w: project %s", domain.ErrAlreadyPending, projectID)
	}
	s.pending[projectID] = struct{}{}
	s.stateMu.Unlock()

	if project.Status == workflows.StatusRegistered {
		project.Status = workflows.StatusUnderReview
		if err := s.repo.Update(ctx, project); err != nil {
			s.clearPending(projectID)
			lock.Unlock()
			return nil, err
		}
		s.appendHistory(ctx, projectID, workflows.StatusUnderReview, project.IssuerID, "verification requested")
	}

	// The oracle call may block for the full configured timeout; it must
	// run outside the project lock so unrelated transitions proceed.
	lock.Unlock()
	defer s.clearPending(projectID)

	oracleCtx, cancel := context.WithTimeout(ctx, s.cfg.OracleTimeout)
	defer cancel()

	assessment, err := s.oracle.Assess(oracleCtx, project.Latitude, project.Longitude, project.AreaHectares)
	if err != nil {
		s.logger.Warn("oracle assessment failed, project remains under review",
			zap.String("project_id", projectID.String()),
			zap.Error(err),
		)
		if oracleCtx.Err() != nil {
			return nil, fmt.Errorf("%w: assessment timed out for project %s", domain.ErrOracleUnavailable, projectID)
		}
		return nil, err
	}

	s.logger.Info("oracle assessment received",
		zap.String("project_id", projectID.String()),
		zap.Int("vegetation_index", assessment.VegetationIndex),
		zap.Float64("confidence", assessment.Confidence),
		zap.String("change_type", string(assessment.Change.Type)),
	)
	return assessment, nil
}

// Decide applies the verification decision. A qualifying assessment
// transitions to VERIFIED and mints credits atomically; an explicit
// rejection transitions to REJECTED with no ledger effect. Both outcomes
// are terminal: a second decision on the same project fails with an
// invalid-transition error and never re-mints.
func (s *Service) Decide(ctx context.Context, projectID uuid.UUID, req DecideRequest) (*Project, error) {
	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	project, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	target := workflows.StatusVerified
	if req.Reject {
		target = workflows.StatusRejected
	}
	if !s.sm.CanTransition(project.Status, target) {
		return nil, fmt.Errorf("%w: cannot move %s project to %s",
			domain.ErrInvalidTransition, project.Status, target)
	}

	if req.Reject {
		project.Status = workflows.StatusRejected
		if err := s.repo.Update(ctx, project); err != nil {
			return nil, err
		}
		s.appendHistory(ctx, projectID, workflows.StatusRejected, req.DecidedBy, req.Reason)
		s.logger.Info("project rejected",
			zap.String("project_id", projectID.String()),
			zap.String("reason", req.Reason),
		)
		return project, nil
	}

	if req.Assessment == nil {
		return nil, fmt.Errorf("%w: verification decision requires an assessment", domain.ErrInvalidInput)
	}
	if req.Assessment.Confidence < s.cfg.ConfidenceThreshold {
		return nil, fmt.Errorf("%w: assessment confidence %.2f below threshold %.2f",
			domain.ErrInvalidInput, req.Assessment.Confidence, s.cfg.ConfidenceThreshold)
	}
	if req.Assessment.VegetationIndex < 0 || req.Assessment.VegetationIndex > 100 {
		return nil, fmt.Errorf("%w: vegetation index %d out of range", domain.ErrInvalidInput, req.Assessment.VegetationIndex)
	}

	credits := int64(math.Floor(project.AreaHectares * s.cfg.CreditsPerHectare * float64(req.Assessment.VegetationIndex) / 100))
	if credits <= 0 {
		return nil, fmt.Errorf("%w: assessment yields no issuable credits", domain.ErrInvalidInput)
	}

	if _, err := s.bank.Mint(ctx, project.IssuerID, credits); err != nil {
		return nil, fmt.Errorf("minting %d credits for project %s: %w", credits, projectID, err)
	}

	now := time.Now().UTC()
	project.Status = workflows.StatusVerified
	project.SurvivalIndex = req.Assessment.VegetationIndex
	project.CreditsIssued = credits
	project.VerifiedAt = &now
	if err := s.repo.Update(ctx, project); err != nil {
		// The mint already committed; a failed status write here is an
		// invariant breach, not a recoverable business error.
		return nil, fmt.Errorf("%w: project update failed after mint: %v", domain.ErrInvariantViolation, err)
	}
	s.appendHistory(ctx, projectID, workflows.StatusVerified, req.DecidedBy,
		fmt.Sprintf("verified with survival index %d, %d credits issued", project.SurvivalIndex, credits))

	s.logger.Info("project verified",
		zap.String("project_id", projectID.String()),
		zap.Int("survival_index", project.SurvivalIndex),
		zap.Int64("credits_issued", credits),
	)
	return project, nil
}

// Get returns a project by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns projects matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]*Project, error) {
	return s.repo.List(ctx, filter)
}

// History returns the recorded status transitions of a project.
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]StatusHistory, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, id)
}

// PendingVerifications lists projects stuck in UNDER_REVIEW with no oracle
// call in flight, i.e. candidates for an operator retry.
func (s *Service) PendingVerifications(ctx context.Context) ([]*Project, error) {
	status := workflows.StatusUnderReview
	underReview, err := s.repo.List(ctx, Filter{Status: &status})
	if err != nil {
		return nil, err
	}
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	out := make([]*Project, 0, len(underReview))
	for _, p := range underReview {
		if _, inFlight := s.pending[p.ID]; !inFlight {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) projectLock(id uuid.UUID) *sync.Mutex {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

func (s *Service) clearPending(id uuid.UUID) {
	s.stateMu.Lock()
	delete(s.pending, id)
	s.stateMu.Unlock()
}

func (s *Service) appendHistory(ctx context.Context, projectID uuid.UUID, status workflows.Status, by uuid.UUID, note string) {
	h := &StatusHistory{
		ID:        uuid.New(),
		ProjectID: projectID,
		Status:    status,
		ChangedAt: time.Now().UTC(),
		ChangedBy: by,
		Note:      note,
	}
	if err := s.repo.AppendHistory(ctx, h); err != nil {
		s.logger.Warn("failed to append status history",
			zap.String("project_id", projectID.String()),
			zap.Error(err),
		)
	}
}
