package marketplace

import (
	"context"
	"fmt"
	"iter"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bluetrust/registry-backend/internal/domain"
	"bluetrust/registry-backend/internal/ledger"
)

// Listing is one marketplace row: an issuer with credits for sale.
type Listing struct {
	IssuerID  uuid.UUID `json:"issuer_id"`
	Name      string    `json:"name"`
	Rating    float64   `json:"rating"`
	Available int64     `json:"available"`
	UnitPrice int64     `json:"unit_price"`
}

// PurchaseReceipt reports a settled purchase.
type PurchaseReceipt struct {
	EntryID   uuid.UUID `json:"entry_id"`
	IssuerID  uuid.UUID `json:"issuer_id"`
	HolderID  uuid.UUID `json:"holder_id"`
	Quantity  int64     `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
	TotalCost int64     `json:"total_cost"`
}

// Config bounds the issuer-settable unit price. The demo deployment prices
// in rupees per credit.
type Config struct {
	MinUnitPrice int64
	MaxUnitPrice int64
}

// DefaultConfig returns the demo price band.
func DefaultConfig() Config {
	return Config{MinUnitPrice: 1000, MaxUnitPrice: 10000}
}

// Service turns buy requests into ledger transfers. Overselling protection
// lives in the ledger's per-issuer serialization: the service never checks
// quantity against a stale balance snapshot.
type Service struct {
	ledger *ledger.Ledger
	cfg    Config
	logger *zap.Logger
}

// NewService creates the marketplace service.
func NewService(l *ledger.Ledger, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MinUnitPrice == 0 && cfg.MaxUnitPrice == 0 {
		cfg = DefaultConfig()
	}
	return &Service{ledger: l, cfg: cfg, logger: logger}
}

// ListAvailable yields issuers with available balance > 0 ordered by rating
// descending, then unit price ascending, then issuer id for a reproducible
// listing. The sequence is lazy and restartable: each range re-snapshots the
// ledger.
func (s *Service) ListAvailable() iter.Seq[Listing] {
	return func(yield func(Listing) bool) {
		issuers := s.ledger.Issuers()
		listings := make([]Listing, 0, len(issuers))
		for _, acct := range issuers {
			if acct.Available <= 0 {
				continue
			}
			listings = append(listings, Listing{
				IssuerID:  acct.ID,
				Name:      acct.Name,
				Rating:    acct.Rating,
				Available: acct.Available,
				UnitPrice: acct.UnitPrice,
			})
		}
		sort.Slice(listings, func(i, j int) bool {
			if listings[i].Rating != listings[j].Rating {
				return listings[i].Rating > listings[j].Rating
			}
			if listings[i].UnitPrice != listings[j].UnitPrice {
				return listings[i].UnitPrice < listings[j].UnitPrice
			}
			return listings[i].IssuerID.String() < listings[j].IssuerID.String()
		})
		for _, l := range listings {
			if !yield(l) {
				return
			}
		}
	}
}

// Listings materializes ListAvailable for transport layers.
func (s *Service) Listings() []Listing {
	out := []Listing{}
	for l := range s.ListAvailable() {
		out = append(out, l)
	}
	return out
}

// Purchase settles a buy request as a single ledger transfer. Validation
// failures and insufficiency leave every account untouched; a concurrent
// purchase that would oversell fails in full, never partially fills.
func (s *Service) Purchase(ctx context.Context, holderID, issuerID uuid.UUID, quantity int64) (*PurchaseReceipt, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: purchase quantity must be at least 1, got %d", domain.ErrInvalidInput, quantity)
	}

	receipt, err := s.ledger.Transfer(ctx, issuerID, holderID, quantity)
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase settled",
		zap.String("issuer_id", issuerID.String()),
		zap.String("holder_id", holderID.String()),
		zap.Int64("quantity", quantity),
		zap.Int64("total_cost", receipt.TotalCost),
	)
	return &PurchaseReceipt{
		EntryID:   receipt.Entry.ID,
		IssuerID:  issuerID,
		HolderID:  holderID,
		Quantity:  quantity,
		UnitPrice: receipt.UnitPrice,
		TotalCost: receipt.TotalCost,
	}, nil
}

// SetUnitPrice updates an issuer's listed price within the configured band.
// An out-of-range request fails and leaves the prior price unchanged.
func (s *Service) SetUnitPrice(issuerID uuid.UUID, price int64) error {
	if price < s.cfg.MinUnitPrice || price > s.cfg.MaxUnitPrice {
		return fmt.Errorf("%w: unit price %d outside [%d, %d]",
			domain.ErrInvalidInput, price, s.cfg.MinUnitPrice, s.cfg.MaxUnitPrice)
	}
	return s.ledger.SetUnitPrice(issuerID, price)
}

// Retire permanently removes held credits from circulation on behalf of a
// holder.
func (s *Service) Retire(ctx context.Context, holderID uuid.UUID, amount int64, reason string) (*ledger.Entry, error) {
	return s.ledger.Retire(ctx, holderID, amount, reason)
}

// OffsetProgress reports a holder's retirement against its stated target.
type OffsetProgress struct {
	HolderID     uuid.UUID `json:"holder_id"`
	Held         int64     `json:"held"`
	Retired      int64     `json:"retired"`
	OffsetTarget int64     `json:"offset_target"`
	Percent      float64   `json:"percent"`
}

// Progress computes a holder's offset progress for reporting.
func (s *Service) Progress(holderID uuid.UUID) (*OffsetProgress, error) {
	holder, err := s.ledger.Holder(holderID)
	if err != nil {
		return nil, err
	}
	progress := &OffsetProgress{
		HolderID:     holder.ID,
		Held:         holder.Held,
		Retired:      holder.Retired,
		OffsetTarget: holder.OffsetTarget,
	}
	if holder.OffsetTarget > 0 {
		progress.Percent = float64(holder.Retired) / float64(holder.OffsetTarget) * 100
	}
	return progress, nil
}
