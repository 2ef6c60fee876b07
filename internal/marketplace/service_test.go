package marketplace

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
	"bluetrust/registry-backend/internal/ledger"
)

func newTestMarket(t *testing.T) (*Service, *ledger.Ledger) {
	t.Helper()
	l := ledger.New(nil)
	return NewService(l, DefaultConfig(), nil), l
}

func registerIssuer(t *testing.T, l *ledger.Ledger, name string, rating float64, price, minted int64) uuid.UUID {
	t.Helper()
	acct, err := l.RegisterIssuer(uuid.Nil, name, rating, price)
	require.NoError(t, err)
	if minted > 0 {
		_, err = l.Mint(context.Background(), acct.ID, minted)
		require.NoError(t, err)
	}
	return acct.ID
}

func TestListAvailableOrdering(t *testing.T) {
	svc, l := newTestMarket(t)

	midRating := registerIssuer(t, l, "Delta Restoration Trust", 4.2, 1800, 30)
	topCheap := registerIssuer(t, l, "Coastal Conservation Society", 4.8, 2000, 45)
	topPricey := registerIssuer(t, l, "Mangrove Guardians", 4.8, 3000, 12)
	registerIssuer(t, l, "Sold Out NGO", 5.0, 2500, 0) // no available balance

	listings := svc.Listings()
	require.Len(t, listings, 3)
	assert.Equal(t, topCheap, listings[0].IssuerID)
	assert.Equal(t, topPricey, listings[1].IssuerID)
	assert.Equal(t, midRating, listings[2].IssuerID)
}

func TestListAvailableIsRestartable(t *testing.T) {
	svc, l := newTestMarket(t)
	registerIssuer(t, l, "NGO A", 4.5, 2000, 10)
	registerIssuer(t, l, "NGO B", 4.0, 2500, 20)

	seq := svc.ListAvailable()

	// Early break, then a full second pass over the same sequence.
	count := 0
	for range seq {
		count++
		break
	}
	assert.Equal(t, 1, count)

	full := 0
	for range seq {
		full++
	}
	assert.Equal(t, 2, full)
}

func TestPurchase(t *testing.T) {
	svc, l := newTestMarket(t)
	ctx := context.Background()

	issuerID := registerIssuer(t, l, "Coastal Conservation Society", 4.8, 2500, 45)
	holder, err := l.RegisterHolder(uuid.Nil, "Green Tech Solutions", 500)
	require.NoError(t, err)

	receipt, err := svc.Purchase(ctx, holder.ID, issuerID, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), receipt.Quantity)
	assert.Equal(t, int64(2500), receipt.UnitPrice)
	assert.Equal(t, int64(25000), receipt.TotalCost)

	_, err = svc.Purchase(ctx, holder.ID, issuerID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.Purchase(ctx, holder.ID, issuerID, 100)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	_, err = svc.Purchase(ctx, holder.ID, uuid.New(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConcurrentPurchasesAgainstOneIssuer(t *testing.T) {
	svc, l := newTestMarket(t)
	ctx := context.Background()

	issuerID := registerIssuer(t, l, "NGO", 4.5, 2000, 45)
	holderA, err := l.RegisterHolder(uuid.Nil, "Corp A", 100)
	require.NoError(t, err)
	holderB, err := l.RegisterHolder(uuid.Nil, "Corp B", 100)
	require.NoError(t, err)

	var succeeded atomic.Int64
	var g errgroup.Group
	for _, holderID := range []uuid.UUID{holderA.ID, holderB.ID} {
		holderID := holderID
		g.Go(func() error {
			_, err := svc.Purchase(ctx, holderID, issuerID, 30)
			if err == nil {
				succeeded.Add(1)
				return nil
			}
			if errors.Is(err, domain.ErrInsufficientBalance) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(1), succeeded.Load())
	issuer, err := l.Issuer(issuerID)
	require.NoError(t, err)
	assert.Equal(t, int64(15), issuer.Available)
}

func TestSetUnitPriceBounds(t *testing.T) {
	svc, l := newTestMarket(t)
	issuerID := registerIssuer(t, l, "NGO", 4.5, 2500, 0)

	// Below the floor fails and the prior price is unchanged.
	err := svc.SetUnitPrice(issuerID, 500)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	issuer, err := l.Issuer(issuerID)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), issuer.UnitPrice)

	err = svc.SetUnitPrice(issuerID, 10001)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, svc.SetUnitPrice(issuerID, 3000))
	issuer, err = l.Issuer(issuerID)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), issuer.UnitPrice)
}

func TestRetireAndProgress(t *testing.T) {
	svc, l := newTestMarket(t)
	ctx := context.Background()

	issuerID := registerIssuer(t, l, "NGO", 4.5, 2000, 50)
	holder, err := l.RegisterHolder(uuid.Nil, "Corp", 100)
	require.NoError(t, err)

	_, err = svc.Purchase(ctx, holder.ID, issuerID, 10)
	require.NoError(t, err)

	entry, err := svc.Retire(ctx, holder.ID, 10, "annual offset")
	require.NoError(t, err)
	assert.Equal(t, ledger.EntryRetire, entry.Kind)

	progress, err := svc.Progress(holder.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), progress.Held)
	assert.Equal(t, int64(10), progress.Retired)
	assert.Equal(t, float64(10), progress.Percent)

	_, err = svc.Retire(ctx, holder.ID, 1, "offset")
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}
