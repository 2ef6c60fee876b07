package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	participantID := uuid.New()
	account, err := svc.CreateAccount("ngo@demo.com", "Coastal Conservation Society", "demo123", RoleNGO, participantID)
	require.NoError(t, err)

	token, got, err := svc.Login("ngo@demo.com", "demo123")
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, account.ID.String(), claims.Subject)
	assert.Equal(t, RoleNGO, claims.Role)
	assert.Equal(t, participantID.String(), claims.ParticipantID)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	_, err := svc.CreateAccount("company@demo.com", "Green Tech Solutions", "demo123", RoleCompany, uuid.New())
	require.NoError(t, err)

	_, _, err = svc.Login("company@demo.com", "wrong")
	assert.Error(t, err)

	_, _, err = svc.Login("nobody@demo.com", "demo123")
	assert.Error(t, err)
}

func TestDuplicateEmailRejected(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	_, err := svc.CreateAccount("gov@demo.com", "Dr. Rajesh Kumar", "demo123", RoleVerifier, uuid.New())
	require.NoError(t, err)

	_, err = svc.CreateAccount("gov@demo.com", "Someone Else", "demo123", RoleVerifier, uuid.New())
	assert.Error(t, err)
}

func TestVerifyTokenRejectsTampering(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	_, err := svc.CreateAccount("ngo@demo.com", "Coastal Conservation Society", "demo123", RoleNGO, uuid.New())
	require.NoError(t, err)

	token, _, err := svc.Login("ngo@demo.com", "demo123")
	require.NoError(t, err)

	other := NewService("other-secret", time.Hour)
	_, err = other.VerifyToken(token)
	assert.Error(t, err)
}
