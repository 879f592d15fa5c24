// Package auth issues and validates the API's bearer tokens.
//
// Tokens are stateless HS256 JWTs so the service stays usable with the
// file-backed key store, where no session table exists. Admin access is
// gated by a bcrypt hash supplied through configuration.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrBadCredentials = errors.New("bad credentials")
)

// Claims is what a validated token asserts about its bearer.
type Claims struct {
	Player string
	Admin  bool
}

// Service signs and verifies tokens.
type Service struct {
	secret      []byte
	tokenExpiry time.Duration
	adminHash   []byte
}

// New creates an auth service. adminHash is a bcrypt hash of the admin
// password; empty disables admin login entirely.
func New(secret string, tokenExpiry time.Duration, adminHash string) *Service {
	return &Service{
		secret:      []byte(secret),
		tokenExpiry: tokenExpiry,
		adminHash:   []byte(adminHash),
	}
}

// IssueToken signs a token for a player.
func (s *Service) IssueToken(player string, admin bool) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":   player,
		"admin": admin,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenExpiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a bearer token.
func (s *Service) ValidateToken(raw string) (*Claims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	player, _ := claims["sub"].(string)
	if player == "" {
		return nil, ErrInvalidToken
	}
	admin, _ := claims["admin"].(bool)

	return &Claims{Player: player, Admin: admin}, nil
}

// LoginAdmin checks the admin password and issues an admin token for the
// given operator name.
func (s *Service) LoginAdmin(operator, password string) (string, error) {
	if len(s.adminHash) == 0 {
		return "", ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.adminHash, []byte(password)); err != nil {
		return "", ErrBadCredentials
	}
	return s.IssueToken(operator, true)
}

// HashPassword produces a bcrypt hash suitable for the admin credential
// configuration.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
