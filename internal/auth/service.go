package auth

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"bluetrust/registry-backend/internal/domain"
)

// Role describes what a registry account is allowed to do.
type Role string

const (
	RoleNGO      Role = "ngo"
	RoleVerifier Role = "verifier"
	RoleCompany  Role = "company"
)

// Account is a login identity. Participant accounts in the ledger are linked
// through ParticipantID.
type Account struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          Role      `json:"role"`
	ParticipantID uuid.UUID `json:"participant_id"`
	passwordHash  []byte
}

// Claims is the JWT payload issued on login.
type Claims struct {
	Email         string `json:"email"`
	Role          Role   `json:"role"`
	ParticipantID string `json:"participant_id"`
	jwt.RegisteredClaims
}

// Service validates credentials and issues signed tokens.
type Service struct {
	secret      []byte
	tokenExpiry time.Duration

	mu       sync.RWMutex
	byEmail  map[string]*Account
	accounts map[uuid.UUID]*Account
}

// NewService creates an auth service signing tokens with the given secret.
func NewService(secret string, tokenExpiry time.Duration) *Service {
	if tokenExpiry <= 0 {
		tokenExpiry = 24 * time.Hour
	}
	return &Service{
		secret:      []byte(secret),
		tokenExpiry: tokenExpiry,
		byEmail:     make(map[string]*Account),
		accounts:    make(map[uuid.UUID]*Account),
	}
}

// CreateAccount registers a login identity. The email must be unique.
func (s *Service) CreateAccount(email, name, password string, role Role, participantID uuid.UUID) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[email]; exists {
		return nil, fmt.Errorf("%w: account %s already exists", domain.ErrInvalidInput, email)
	}

	account := &Account{
		ID:            uuid.New(),
		Email:         email,
		Name:          name,
		Role:          role,
		ParticipantID: participantID,
		passwordHash:  hash,
	}
	s.byEmail[email] = account
	s.accounts[account.ID] = account
	return account, nil
}

// Login checks the credentials and returns a signed JWT on success.
func (s *Service) Login(email, password string) (string, *Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.RLock()
	account, ok := s.byEmail[email]
	s.mu.RUnlock()
	if !ok {
		return "", nil, fmt.Errorf("%w: invalid credentials", domain.ErrInvalidInput)
	}
	if err := bcrypt.CompareHashAndPassword(account.passwordHash, []byte(password)); err != nil {
		return "", nil, fmt.Errorf("%w: invalid credentials", domain.ErrInvalidInput)
	}

	now := time.Now()
	claims := Claims{
		Email:         account.Email,
		Role:          account.Role,
		ParticipantID: account.ParticipantID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, account, nil
}

// VerifyToken parses and validates a signed token.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", domain.ErrInvalidInput)
	}
	return claims, nil
}

// Account looks up a login identity by ID.
func (s *Service) Account(id uuid.UUID) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", domain.ErrNotFound, id)
	}
	copy := *account
	return &copy, nil
}
