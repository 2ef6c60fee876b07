package ledger

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"bluetrust/registry-backend/internal/domain"
)

func newTestLedger(t *testing.T) (*Ledger, uuid.UUID, uuid.UUID) {
	t.Helper()
	l := New(nil)
	issuer, err := l.RegisterIssuer(uuid.Nil, "Coastal Conservation Society", 4.8, 2500)
	require.NoError(t, err)
	holder, err := l.RegisterHolder(uuid.Nil, "Green Tech Solutions", 500)
	require.NoError(t, err)
	return l, issuer.ID, holder.ID
}

func TestRegisterValidation(t *testing.T) {
	l := New(nil)

	_, err := l.RegisterIssuer(uuid.Nil, "", 4.0, 2500)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = l.RegisterIssuer(uuid.Nil, "NGO", 4.0, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	id := uuid.New()
	_, err = l.RegisterIssuer(id, "NGO", 4.0, 2500)
	require.NoError(t, err)
	_, err = l.RegisterIssuer(id, "NGO", 4.0, 2500)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = l.RegisterHolder(uuid.Nil, "Corp", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMint(t *testing.T) {
	l, issuerID, _ := newTestLedger(t)
	ctx := context.Background()

	entry, err := l.Mint(ctx, issuerID, 52)
	require.NoError(t, err)
	assert.Equal(t, EntryMint, entry.Kind)
	assert.Nil(t, entry.Source)
	require.NotNil(t, entry.Destination)
	assert.Equal(t, issuerID, *entry.Destination)

	issuer, err := l.Issuer(issuerID)
	require.NoError(t, err)
	assert.Equal(t, int64(52), issuer.TotalMinted)
	assert.Equal(t, int64(52), issuer.Available)

	_, err = l.Mint(ctx, issuerID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = l.Mint(ctx, issuerID, -5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = l.Mint(ctx, uuid.New(), 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransfer(t *testing.T) {
	l, issuerID, holderID := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Mint(ctx, issuerID, 45)
	require.NoError(t, err)

	receipt, err := l.Transfer(ctx, issuerID, holderID, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), receipt.UnitPrice)
	assert.Equal(t, int64(75000), receipt.TotalCost)

	issuer, _ := l.Issuer(issuerID)
	holder, _ := l.Holder(holderID)
	assert.Equal(t, int64(15), issuer.Available)
	assert.Equal(t, int64(30), issuer.TotalSold)
	assert.Equal(t, int64(30), holder.Held)

	// More than available fails with no partial effect.
	_, err = l.Transfer(ctx, issuerID, holderID, 16)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	issuer, _ = l.Issuer(issuerID)
	holder, _ = l.Holder(holderID)
	assert.Equal(t, int64(15), issuer.Available)
	assert.Equal(t, int64(30), holder.Held)
}

func TestConcurrentPurchasesNeverOversell(t *testing.T) {
	// Scenario: available=45, two concurrent transfers of 30. Exactly one
	// may succeed; final available must be 15.
	l, issuerID, holderID := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Mint(ctx, issuerID, 45)
	require.NoError(t, err)

	var succeeded, failed atomic.Int64
	var g errgroup.Group
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			_, err := l.Transfer(ctx, issuerID, holderID, 30)
			if err == nil {
				succeeded.Add(1)
				return nil
			}
			if !errors.Is(err, domain.ErrInsufficientBalance) {
				return err
			}
			failed.Add(1)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(1), succeeded.Load())
	assert.Equal(t, int64(1), failed.Load())

	issuer, _ := l.Issuer(issuerID)
	assert.Equal(t, int64(15), issuer.Available)

	_, err = l.AuditConservation()
	assert.NoError(t, err)
}

func TestRetire(t *testing.T) {
	l, issuerID, holderID := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Mint(ctx, issuerID, 45)
	require.NoError(t, err)
	_, err = l.Transfer(ctx, issuerID, holderID, 10)
	require.NoError(t, err)

	entry, err := l.Retire(ctx, holderID, 10, "offset")
	require.NoError(t, err)
	assert.Equal(t, EntryRetire, entry.Kind)
	assert.Equal(t, "offset", entry.Reason)
	assert.Nil(t, entry.Destination)

	holder, _ := l.Holder(holderID)
	assert.Equal(t, int64(0), holder.Held)
	assert.Equal(t, int64(10), holder.Retired)

	// Retired credits never re-enter circulation.
	_, err = l.Retire(ctx, holderID, 1, "offset")
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	holder, _ = l.Holder(holderID)
	assert.Equal(t, int64(0), holder.Held)
	assert.Equal(t, int64(10), holder.Retired)
}

func TestConservationUnderConcurrency(t *testing.T) {
	l := New(nil)
	ctx := context.Background()

	issuerIDs := make([]uuid.UUID, 4)
	holderIDs := make([]uuid.UUID, 4)
	for i := range issuerIDs {
		acct, err := l.RegisterIssuer(uuid.Nil, "NGO", 4.5, 2000)
		require.NoError(t, err)
		issuerIDs[i] = acct.ID
	}
	for i := range holderIDs {
		acct, err := l.RegisterHolder(uuid.Nil, "Corp", 100)
		require.NoError(t, err)
		holderIDs[i] = acct.ID
	}

	var g errgroup.Group
	for w := 0; w < 8; w++ {
		w := w
		g.Go(func() error {
			issuer := issuerIDs[w%len(issuerIDs)]
			holder := holderIDs[w%len(holderIDs)]
			for i := 0; i < 200; i++ {
				if _, err := l.Mint(ctx, issuer, 5); err != nil {
					return err
				}
				if _, err := l.Transfer(ctx, issuer, holder, 3); err != nil {
					return err
				}
				// Retirement may race ahead of this worker's transfers;
				// insufficiency is an expected outcome, not a failure.
				if _, err := l.Retire(ctx, holder, 2, "offset"); err != nil && !errors.Is(err, domain.ErrInsufficientBalance) {
					return err
				}
			}
			return nil
		})
	}

	// Audit concurrently with the mutating workers.
	g.Go(func() error {
		for i := 0; i < 50; i++ {
			if _, err := l.AuditConservation(); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, g.Wait())

	totals, err := l.AuditConservation()
	require.NoError(t, err)
	assert.Equal(t, totals.Circulating, totals.Minted-totals.Retired)
}

func TestEntriesAuditLog(t *testing.T) {
	l, issuerID, holderID := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Mint(ctx, issuerID, 20)
	require.NoError(t, err)
	_, err = l.Transfer(ctx, issuerID, holderID, 5)
	require.NoError(t, err)
	_, err = l.Retire(ctx, holderID, 2, "offset")
	require.NoError(t, err)

	entries := l.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, EntryMint, entries[0].Kind)
	assert.Equal(t, EntryTransfer, entries[1].Kind)
	assert.Equal(t, EntryRetire, entries[2].Kind)
}

func TestStats(t *testing.T) {
	l, issuerID, holderID := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Mint(ctx, issuerID, 52)
	require.NoError(t, err)
	_, err = l.Transfer(ctx, issuerID, holderID, 7)
	require.NoError(t, err)
	_, err = l.Retire(ctx, holderID, 7, "offset")
	require.NoError(t, err)

	stats := l.Stats()
	assert.Equal(t, 1, stats.Issuers)
	assert.Equal(t, 1, stats.Holders)
	assert.Equal(t, 3, stats.Entries)
	assert.Equal(t, int64(52), stats.TotalMinted)
	assert.Equal(t, int64(7), stats.TotalRetired)
	assert.Equal(t, int64(45), stats.Circulating)
}

type recordingAnchor struct {
	entries chan Entry
}

func (a *recordingAnchor) AnchorEntry(_ context.Context, e Entry) error {
	a.entries <- e
	return nil
}

func TestAnchorReceivesCommittedEntries(t *testing.T) {
	anchor := &recordingAnchor{entries: make(chan Entry, 1)}
	l := New(nil, WithAnchor(anchor))

	issuer, err := l.RegisterIssuer(uuid.Nil, "NGO", 4.5, 2000)
	require.NoError(t, err)
	_, err = l.Mint(context.Background(), issuer.ID, 10)
	require.NoError(t, err)

	anchored := <-anchor.entries
	assert.Equal(t, EntryMint, anchored.Kind)
	assert.Equal(t, int64(10), anchored.Amount)
}
