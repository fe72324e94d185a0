package utils

import (
	"errors"
	"strconv"
	"time"

	"borlette/domain"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the principal id, role and ancestry in the session token.
type Claims struct {
	Username      string `json:"username"`
	Role          string `json:"role"`
	Supervisor1ID uint   `json:"supervisor1_id,omitempty"`
	Supervisor2ID uint   `json:"supervisor2_id,omitempty"`
	SubsystemID   uint   `json:"subsystem_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 session tokens. It is stateless:
// there is no revocation list.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, &domain.ConfigError{Key: "JWT_SECRET", Message: "token signing secret is empty"}
	}
	if ttl <= 0 {
		return nil, &domain.ConfigError{Key: "JWT_TTL_HOURS", Message: "token ttl must be positive"}
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// WithClock replaces the time source, for tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

func (s *TokenService) Issue(p domain.Principal) (string, time.Time, error) {
	if !p.Role.Valid() {
		return "", time.Time{}, errors.New("cannot issue token for unknown role")
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)
	claims := Claims{
		Username:      p.Username,
		Role:          p.Role.String(),
		Supervisor1ID: p.Supervisor1ID,
		Supervisor2ID: p.Supervisor2ID,
		SubsystemID:   p.SubsystemID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(p.ID), 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry and decodes the principal. Every
// failure is an *domain.AuthError.
func (s *TokenService) Verify(tokenString string) (domain.Principal, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Principal{}, &domain.AuthError{Message: "token expired"}
		}
		return domain.Principal{}, &domain.AuthError{Message: "invalid token"}
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Principal{}, &domain.AuthError{Message: "invalid token role"}
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return domain.Principal{}, &domain.AuthError{Message: "invalid token subject"}
	}

	return domain.Principal{
		ID:       uint(id),
		Role:     role,
		Username: claims.Username,
		IsActive: true,
		Ancestry: domain.Ancestry{
			Supervisor1ID: claims.Supervisor1ID,
			Supervisor2ID: claims.Supervisor2ID,
			SubsystemID:   claims.SubsystemID,
		},
	}, nil
}
