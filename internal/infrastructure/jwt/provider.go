package jwtinfra

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/visitsafe-api/internal/config"
	"github.com/visitsafe-api/internal/domain"
)

// Claims holds the JWT payload fields. Tokens are scoped to one residency;
// ResidentID is empty for residency admins.
type Claims struct {
	ResidentID  string `json:"resident_id,omitempty"`
	ResidencyID string `json:"residency_id"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// CanActFor reports whether the holder may manage residentID in residencyID.
func (c *Claims) CanActFor(residencyID, residentID string) bool {
	if c.ResidencyID != residencyID {
		return false
	}
	return c.Role == domain.RoleAdmin || (residentID != "" && c.ResidentID == residentID)
}

// Provider signs and verifies RS256 JWTs.
type Provider struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	expiry     time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	privBytes, err := os.ReadFile(cfg.JWTPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	pubBytes, err := os.ReadFile(cfg.JWTPublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	return &Provider{privateKey: privKey, publicKey: pubKey, expiry: cfg.JWTExpiry}, nil
}

// Sign issues a token for a resident (or an admin when residentID is empty).
func (p *Provider) Sign(residentID, residencyID, role string) (string, error) {
	claims := Claims{
		ResidentID:  residentID,
		ResidencyID: residencyID,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   residentID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(p.expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(p.privateKey)
}

func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.publicKey, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
