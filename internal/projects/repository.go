package projects

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"bluetrust/registry-backend/internal/domain"
	"bluetrust/registry-backend/pkg/workflows"
)

// Repository is the project persistence boundary. Reads return the latest
// committed state; writes are atomic per project.
type Repository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	Update(ctx context.Context, p *Project) error
	List(ctx context.Context, filter Filter) ([]*Project, error)
	AppendHistory(ctx context.Context, h *StatusHistory) error
	History(ctx context.Context, projectID uuid.UUID) ([]StatusHistory, error)
}

// MemoryRepository is the in-memory repository: a keyed map plus secondary
// indexes by issuer and by status, which sit on the hot path of concurrent
// verification and marketplace queries.
type MemoryRepository struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]*Project
	byIssuer map[uuid.UUID][]uuid.UUID
	byStatus map[workflows.Status]map[uuid.UUID]struct{}
	history  map[uuid.UUID][]StatusHistory
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:     make(map[uuid.UUID]*Project),
		byIssuer: make(map[uuid.UUID][]uuid.UUID),
		byStatus: make(map[workflows.Status]map[uuid.UUID]struct{}),
		history:  make(map[uuid.UUID][]StatusHistory),
	}
}

func (r *MemoryRepository) Create(_ context.Context, p *Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[p.ID]; exists {
		return fmt.Errorf("%w: project %s already exists", domain.ErrInvalidInput, p.ID)
	}
	stored := *p
	r.byID[p.ID] = &stored
	r.byIssuer[p.IssuerID] = append(r.byIssuer[p.IssuerID], p.ID)
	r.indexStatus(p.ID, "", p.Status)
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: project %s", domain.ErrNotFound, id)
	}
	p := *stored
	return &p, nil
}

func (r *MemoryRepository) Update(_ context.Context, p *Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[p.ID]
	if !ok {
		return fmt.Errorf("%w: project %s", domain.ErrNotFound, p.ID)
	}
	prev := stored.Status
	updated := *p
	r.byID[p.ID] = &updated
	if prev != p.Status {
		r.indexStatus(p.ID, prev, p.Status)
	}
	return nil
}

func (r *MemoryRepository) List(_ context.Context, filter Filter) ([]*Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []uuid.UUID
	switch {
	case filter.IssuerID != nil:
		ids = r.byIssuer[*filter.IssuerID]
	case filter.Status != nil:
		for id := range r.byStatus[*filter.Status] {
			ids = append(ids, id)
		}
	default:
		for id := range r.byID {
			ids = append(ids, id)
		}
	}

	out := make([]*Project, 0, len(ids))
	for _, id := range ids {
		stored := r.byID[id]
		if filter.Status != nil && stored.Status != *filter.Status {
			continue
		}
		if filter.IssuerID != nil && stored.IssuerID != *filter.IssuerID {
			continue
		}
		p := *stored
		out = append(out, &p)
	}
	return out, nil
}

func (r *MemoryRepository) AppendHistory(_ context.Context, h *StatusHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history[h.ProjectID] = append(r.history[h.ProjectID], *h)
	return nil
}

func (r *MemoryRepository) History(_ context.Context, projectID uuid.UUID) ([]StatusHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.history[projectID]
	out := make([]StatusHistory, len(entries))
	copy(out, entries)
	return out, nil
}

// indexStatus moves a project between status buckets. Caller holds mu.
func (r *MemoryRepository) indexStatus(id uuid.UUID, from, to workflows.Status) {
	if from != "" {
		if bucket, ok := r.byStatus[from]; ok {
			delete(bucket, id)
		}
	}
	bucket, ok := r.byStatus[to]
	if !ok {
		bucket = make(map[uuid.UUID]struct{})
		r.byStatus[to] = bucket
	}
	bucket[id] = struct{}{}
}
