package ledger

import (
	"time"

	"github.com/google/uuid"
)

// IssuerAccount is the minting side of the ledger: the account a restoration
// organization accrues verified credits into and sells from.
type IssuerAccount struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Rating      float64   `json:"rating" db:"rating"`
	TotalMinted int64     `json:"total_minted" db:"total_minted"`
	TotalSold   int64     `json:"total_sold" db:"total_sold"`
	Available   int64     `json:"available" db:"available"`
	UnitPrice   int64     `json:"unit_price" db:"unit_price"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// HolderAccount is the purchasing side of the ledger. OffsetTarget is
// reporting-only and never constrains ledger operations.
type HolderAccount struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Held         int64     `json:"held" db:"held"`
	Retired      int64     `json:"retired" db:"retired"`
	OffsetTarget int64     `json:"offset_target" db:"offset_target"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// EntryKind is the type of a ledger event.
type EntryKind string

const (
	EntryMint     EntryKind = "MINT"
	EntryTransfer EntryKind = "TRANSFER"
	EntryRetire   EntryKind = "RETIRE"
)

// Entry is one immutable ledger event. Source is nil for mints, Destination
// is nil for retirements.
type Entry struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Kind        EntryKind  `json:"kind" db:"kind"`
	Amount      int64      `json:"amount" db:"amount"`
	Source      *uuid.UUID `json:"source,omitempty" db:"source"`
	Destination *uuid.UUID `json:"destination,omitempty" db:"destination"`
	Reason      string     `json:"reason,omitempty" db:"reason"`
	RecordedAt  time.Time  `json:"recorded_at" db:"recorded_at"`
}

// TransferReceipt reports a settled transfer together with the unit price in
// force when the issuer's lock was held.
type TransferReceipt struct {
	Entry     Entry `json:"entry"`
	UnitPrice int64 `json:"unit_price"`
	TotalCost int64 `json:"total_cost"`
}

// Totals is a consistent snapshot of the conservation quantities.
type Totals struct {
	Minted      int64 `json:"minted"`
	Retired     int64 `json:"retired"`
	Circulating int64 `json:"circulating"` // sum of issuer available + holder held
}

// Stats summarizes the registry for dashboards.
type Stats struct {
	Issuers      int   `json:"issuers"`
	Holders      int   `json:"holders"`
	Entries      int   `json:"entries"`
	TotalMinted  int64 `json:"total_minted"`
	TotalRetired int64 `json:"total_retired"`
	Circulating  int64 `json:"circulating"`
}
