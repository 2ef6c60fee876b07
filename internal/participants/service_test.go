package participants

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bluetrust/registry-backend/internal/domain"
	"bluetrust/registry-backend/internal/ledger"
)

func TestRegisterNGOCreatesIssuerAccount(t *testing.T) {
	l := ledger.New(nil)
	svc := NewService(l, nil)

	ngo, err := svc.RegisterNGO(RegisterNGORequest{
		Name:      "Coastal Conservation Society",
		Rating:    4.8,
		UnitPrice: 2500,
	})
	require.NoError(t, err)

	issuer, err := l.Issuer(ngo.ID)
	require.NoError(t, err)
	assert.Equal(t, ngo.Name, issuer.Name)
	assert.Equal(t, 4.8, issuer.Rating)
	assert.Equal(t, int64(2500), issuer.UnitPrice)
}

func TestRegisterCompanyCreatesHolderAccount(t *testing.T) {
	l := ledger.New(nil)
	svc := NewService(l, nil)

	company, err := svc.RegisterCompany(RegisterCompanyRequest{
		Name:            "Green Tech Solutions",
		CarbonFootprint: 500,
	})
	require.NoError(t, err)

	holder, err := l.Holder(company.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), holder.OffsetTarget)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(ledger.New(nil), nil)

	_, err := svc.RegisterNGO(RegisterNGORequest{Name: "", Rating: 4, UnitPrice: 2000})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.RegisterNGO(RegisterNGORequest{Name: "NGO", Rating: 5.5, UnitPrice: 2000})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.RegisterCompany(RegisterCompanyRequest{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.NGO(uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSeedDemo(t *testing.T) {
	l := ledger.New(nil)
	svc := NewService(l, nil)

	require.NoError(t, svc.SeedDemo())
	assert.Len(t, svc.NGOs(), 1)
	assert.Len(t, svc.Companies(), 1)
	assert.Len(t, l.Issuers(), 1)
	assert.Len(t, l.Holders(), 1)
}
