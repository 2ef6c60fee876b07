package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bluetrust/registry-backend/internal/domain"
)

// Anchor mirrors committed ledger entries onto an external ledger. Anchoring
// is best-effort and local-first: a failed anchor is reported, never rolled
// back into the local ledger.
type Anchor interface {
	AnchorEntry(ctx context.Context, e Entry) error
}

const anchorTimeout = 10 * time.Second

// Ledger is the authoritative store of credit balances. Every mutation is
// atomic with respect to the conservation law: sum of mints minus sum of
// retirements equals the sum of all current balances at any observation
// point.
//
// Coordination is per account, not global: each account carries its own
// mutex, and operations touching two accounts acquire them in lexicographic
// id order so unrelated operations never block each other and lock cycles
// cannot form.
type Ledger struct {
	mu      sync.RWMutex // guards the account maps, never balances
	issuers map[uuid.UUID]*issuerState
	holders map[uuid.UUID]*holderState

	entriesMu    sync.Mutex
	entries      []Entry
	totalMinted  int64
	totalRetired int64

	anchor Anchor
	logger *zap.Logger
}

type issuerState struct {
	mu   sync.Mutex
	acct IssuerAccount
}

type holderState struct {
	mu   sync.Mutex
	acct HolderAccount
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithAnchor attaches an external anchoring collaborator.
func WithAnchor(a Anchor) Option {
	return func(l *Ledger) { l.anchor = a }
}

// New creates an empty ledger.
func New(logger *zap.Logger, opts ...Option) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Ledger{
		issuers: make(map[uuid.UUID]*issuerState),
		holders: make(map[uuid.UUID]*holderState),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RegisterIssuer creates an issuer account. A nil id generates one.
func (l *Ledger) RegisterIssuer(id uuid.UUID, name string, rating float64, unitPrice int64) (*IssuerAccount, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: issuer name is required", domain.ErrInvalidInput)
	}
	if unitPrice <= 0 {
		return nil, fmt.Errorf("%w: unit price must be positive", domain.ErrInvalidInput)
	}
	if id == uuid.Nil {
		id = uuid.New()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.issuers[id]; exists {
		return nil, fmt.Errorf("%w: issuer %s already registered", domain.ErrInvalidInput, id)
	}
	state := &issuerState{acct: IssuerAccount{
		ID:        id,
		Name:      name,
		Rating:    rating,
		UnitPrice: unitPrice,
		CreatedAt: time.Now().UTC(),
	}}
	l.issuers[id] = state
	acct := state.acct
	return &acct, nil
}

// RegisterHolder creates a holder account. A nil id generates one.
func (l *Ledger) RegisterHolder(id uuid.UUID, name string, offsetTarget int64) (*HolderAccount, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: holder name is required", domain.ErrInvalidInput)
	}
	if offsetTarget < 0 {
		return nil, fmt.Errorf("%w: offset target cannot be negative", domain.ErrInvalidInput)
	}
	if id == uuid.Nil {
		id = uuid.New()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.holders[id]; exists {
		return nil, fmt.Errorf("%w: holder %s already registered", domain.ErrInvalidInput, id)
	}
	state := &holderState{acct: HolderAccount{
		ID:           id,
		Name:         name,
		OffsetTarget: offsetTarget,
		CreatedAt:    time.Now().UTC(),
	}}
	l.holders[id] = state
	acct := state.acct
	return &acct, nil
}

// Mint credits verified impact into the issuer's balance, increasing both
// total-minted and available.
func (l *Ledger) Mint(ctx context.Context, issuerID uuid.UUID, amount int64) (*Entry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: mint amount must be a positive integer", domain.ErrInvalidInput)
	}
	state, err := l.issuerState(issuerID)
	if err != nil {
		return nil, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	state.acct.TotalMinted += amount
	state.acct.Available += amount
	if err := checkIssuerInvariant(&state.acct); err != nil {
		state.acct.TotalMinted -= amount
		state.acct.Available -= amount
		return nil, err
	}

	entry := l.record(Entry{
		Kind:        EntryMint,
		Amount:      amount,
		Destination: &state.acct.ID,
	})
	l.submitAnchor(entry)
	return &entry, nil
}

// Transfer moves credits from an issuer's available balance to a holder.
// This is the only path by which credits change ownership. The decrement and
// increment commit under both account locks, so no concurrent observer can
// see one without the other.
func (l *Ledger) Transfer(ctx context.Context, issuerID, holderID uuid.UUID, amount int64) (*TransferReceipt, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: transfer amount must be a positive integer", domain.ErrInvalidInput)
	}
	issuer, err := l.issuerState(issuerID)
	if err != nil {
		return nil, err
	}
	holder, err := l.holderState(holderID)
	if err != nil {
		return nil, err
	}

	// Deterministic acquisition order across both account spaces.
	if issuerID.String() < holderID.String() {
		issuer.mu.Lock()
		holder.mu.Lock()
	} else {
		holder.mu.Lock()
		issuer.mu.Lock()
	}
	defer issuer.mu.Unlock()
	defer holder.mu.Unlock()

	if issuer.acct.Available < amount {
		return nil, fmt.Errorf("%w: issuer %s has %d available, requested %d",
			domain.ErrInsufficientBalance, issuerID, issuer.acct.Available, amount)
	}

	issuer.acct.Available -= amount
	issuer.acct.TotalSold += amount
	holder.acct.Held += amount
	if err := checkIssuerInvariant(&issuer.acct); err != nil {
		issuer.acct.Available += amount
		issuer.acct.TotalSold -= amount
		holder.acct.Held -= amount
		return nil, err
	}

	entry := l.record(Entry{
		Kind:        EntryTransfer,
		Amount:      amount,
		Source:      &issuer.acct.ID,
		Destination: &holder.acct.ID,
	})
	l.submitAnchor(entry)
	return &TransferReceipt{
		Entry:     entry,
		UnitPrice: issuer.acct.UnitPrice,
		TotalCost: issuer.acct.UnitPrice * amount,
	}, nil
}

// Retire permanently removes held credits from circulation and advances the
// holder's cumulative retirement counter.
func (l *Ledger) Retire(ctx context.Context, holderID uuid.UUID, amount int64, reason string) (*Entry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: retire amount must be a positive integer", domain.ErrInvalidInput)
	}
	holder, err := l.holderState(holderID)
	if err != nil {
		return nil, err
	}

	holder.mu.Lock()
	defer holder.mu.Unlock()

	if holder.acct.Held < amount {
		return nil, fmt.Errorf("%w: holder %s has %d held, requested %d",
			domain.ErrInsufficientBalance, holderID, holder.acct.Held, amount)
	}

	holder.acct.Held -= amount
	holder.acct.Retired += amount

	entry := l.record(Entry{
		Kind:   EntryRetire,
		Amount: amount,
		Source: &holder.acct.ID,
		Reason: reason,
	})
	l.submitAnchor(entry)
	return &entry, nil
}

// SetUnitPrice updates the issuer's listed price. Range bounds are the
// marketplace's concern; the ledger only rejects non-positive prices.
func (l *Ledger) SetUnitPrice(issuerID uuid.UUID, price int64) error {
	if price <= 0 {
		return fmt.Errorf("%w: unit price must be positive", domain.ErrInvalidInput)
	}
	state, err := l.issuerState(issuerID)
	if err != nil {
		return err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	state.acct.UnitPrice = price
	return nil
}

// Issuer returns a snapshot of the issuer account.
func (l *Ledger) Issuer(id uuid.UUID) (*IssuerAccount, error) {
	state, err := l.issuerState(id)
	if err != nil {
		return nil, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	acct := state.acct
	return &acct, nil
}

// Holder returns a snapshot of the holder account.
func (l *Ledger) Holder(id uuid.UUID) (*HolderAccount, error) {
	state, err := l.holderState(id)
	if err != nil {
		return nil, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	acct := state.acct
	return &acct, nil
}

// Issuers returns snapshots of every issuer account.
func (l *Ledger) Issuers() []IssuerAccount {
	l.mu.RLock()
	states := make([]*issuerState, 0, len(l.issuers))
	for _, s := range l.issuers {
		states = append(states, s)
	}
	l.mu.RUnlock()

	out := make([]IssuerAccount, 0, len(states))
	for _, s := range states {
		s.mu.Lock()
		out = append(out, s.acct)
		s.mu.Unlock()
	}
	return out
}

// Holders returns snapshots of every holder account.
func (l *Ledger) Holders() []HolderAccount {
	l.mu.RLock()
	states := make([]*holderState, 0, len(l.holders))
	for _, s := range l.holders {
		states = append(states, s)
	}
	l.mu.RUnlock()

	out := make([]HolderAccount, 0, len(states))
	for _, s := range states {
		s.mu.Lock()
		out = append(out, s.acct)
		s.mu.Unlock()
	}
	return out
}

// Entries returns a copy of the audit log.
func (l *Ledger) Entries() []Entry {
	l.entriesMu.Lock()
	defer l.entriesMu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// AuditConservation takes a consistent snapshot across every account and
// verifies the conservation law. A mismatch is a programming error and is
// reported as an invariant violation.
func (l *Ledger) AuditConservation() (Totals, error) {
	locks, unlock := l.lockAll()
	defer unlock()

	var circulating int64
	for _, li := range locks.issuers {
		circulating += li.acct.Available
	}
	for _, lh := range locks.holders {
		circulating += lh.acct.Held
	}

	l.entriesMu.Lock()
	totals := Totals{
		Minted:      l.totalMinted,
		Retired:     l.totalRetired,
		Circulating: circulating,
	}
	l.entriesMu.Unlock()

	if totals.Minted-totals.Retired != totals.Circulating {
		return totals, fmt.Errorf("%w: minted %d - retired %d != circulating %d",
			domain.ErrInvariantViolation, totals.Minted, totals.Retired, totals.Circulating)
	}
	return totals, nil
}

// Stats summarizes the ledger for the registry dashboard.
func (l *Ledger) Stats() Stats {
	totals, _ := l.AuditConservation()
	l.mu.RLock()
	issuers, holders := len(l.issuers), len(l.holders)
	l.mu.RUnlock()
	l.entriesMu.Lock()
	entries := len(l.entries)
	l.entriesMu.Unlock()
	return Stats{
		Issuers:      issuers,
		Holders:      holders,
		Entries:      entries,
		TotalMinted:  totals.Minted,
		TotalRetired: totals.Retired,
		Circulating:  totals.Circulating,
	}
}

func (l *Ledger) issuerState(id uuid.UUID) (*issuerState, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	state, ok := l.issuers[id]
	if !ok {
		return nil, fmt.Errorf("%w: issuer %s", domain.ErrNotFound, id)
	}
	return state, nil
}

func (l *Ledger) holderState(id uuid.UUID) (*holderState, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	state, ok := l.holders[id]
	if !ok {
		return nil, fmt.Errorf("%w: holder %s", domain.ErrNotFound, id)
	}
	return state, nil
}

// record appends an audit entry and updates the aggregate counters. Callers
// hold the account locks of every balance the entry touches, so the entry
// commits within the same atomic step as the balance change.
func (l *Ledger) record(e Entry) Entry {
	e.ID = uuid.New()
	e.RecordedAt = time.Now().UTC()

	l.entriesMu.Lock()
	l.entries = append(l.entries, e)
	switch e.Kind {
	case EntryMint:
		l.totalMinted += e.Amount
	case EntryRetire:
		l.totalRetired += e.Amount
	}
	l.entriesMu.Unlock()
	return e
}

// submitAnchor mirrors an entry to the anchoring collaborator without
// blocking the ledger operation that produced it.
func (l *Ledger) submitAnchor(e Entry) {
	if l.anchor == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), anchorTimeout)
		defer cancel()
		if err := l.anchor.AnchorEntry(ctx, e); err != nil {
			l.logger.Error("ledger anchoring failed",
				zap.String("entry_id", e.ID.String()),
				zap.String("kind", string(e.Kind)),
				zap.Error(err),
			)
		}
	}()
}

type allLocks struct {
	issuers []*issuerState
	holders []*holderState
}

// lockAll acquires every account lock in lexicographic id order, the same
// global order transfers use, so a sweeping audit cannot deadlock against
// in-flight operations.
func (l *Ledger) lockAll() (allLocks, func()) {
	l.mu.RLock()
	type lockable struct {
		id string
		mu *sync.Mutex
	}
	var (
		locks  allLocks
		sorted []lockable
	)
	for id, s := range l.issuers {
		locks.issuers = append(locks.issuers, s)
		sorted = append(sorted, lockable{id.String(), &s.mu})
	}
	for id, s := range l.holders {
		locks.holders = append(locks.holders, s)
		sorted = append(sorted, lockable{id.String(), &s.mu})
	}
	l.mu.RUnlock()

	sort.Slice(sorted, func(i, j int) bool { return sorted[i].id < sorted[j].id })
	for _, lk := range sorted {
		lk.mu.Lock()
	}
	unlock := func() {
		for i := len(sorted) - 1; i >= 0; i-- {
			sorted[i].mu.Unlock()
		}
	}
	return locks, unlock
}

// checkIssuerInvariant is a pre-commit guard: available must never exceed
// total minted minus total sold, and nothing may go negative.
func checkIssuerInvariant(a *IssuerAccount) error {
	if a.Available < 0 || a.TotalSold < 0 || a.TotalMinted < 0 {
		return fmt.Errorf("%w: negative balance on issuer %s", domain.ErrInvariantViolation, a.ID)
	}
	if a.Available > a.TotalMinted-a.TotalSold {
		return fmt.Errorf("%w: issuer %s available %d exceeds minted %d - sold %d",
			domain.ErrInvariantViolation, a.ID, a.Available, a.TotalMinted, a.TotalSold)
	}
	return nil
}
