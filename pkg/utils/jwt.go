package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Session subject types carried in the "type" claim
const (
	SubjectHospital = "hospital"
	SubjectPatient  = "patient"
)

// Claims represents JWT custom claims.
// HospitalID is the tenant's public identifier; it is empty for patient sessions.
type Claims struct {
	HospitalID string `json:"hospitalId,omitempty"`
	ID         string `json:"id"`
	Type       string `json:"type"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies session tokens with a key injected at startup
type TokenManager struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	now           func() time.Time
}

// NewTokenManager creates a TokenManager for the given signing secret and expiries
func NewTokenManager(secret string, accessExpiry, refreshExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:        []byte(secret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		now:           time.Now,
	}
}

// GenerateAccessToken generates a signed access token for a hospital or patient
func (m *TokenManager) GenerateAccessToken(subjectType, internalID, hospitalID string) (string, error) {
	if subjectType != SubjectHospital && subjectType != SubjectPatient {
		return "", errors.New("unknown subject type")
	}

	now := m.now()
	claims := Claims{
		HospitalID: hospitalID,
		ID:         internalID,
		Type:       subjectType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   internalID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateAccessToken validates and parses a JWT access token
func (m *TokenManager) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Type == SubjectHospital && claims.HospitalID == "" {
		return nil, errors.New("hospital token without hospitalId")
	}

	return claims, nil
}

// GenerateRefreshToken generates a random opaque refresh token
func (m *TokenManager) GenerateRefreshToken() string {
	return uuid.New().String()
}

// RefreshTokenExpiry returns the refresh token lifetime
func (m *TokenManager) RefreshTokenExpiry() time.Duration {
	return m.refreshExpiry
}

// AccessTokenExpiry returns the access token lifetime
func (m *TokenManager) AccessTokenExpiry() time.Duration {
	return m.accessExpiry
}

// HashRefreshToken creates a SHA-256 hash of the refresh token for secure storage
func HashRefreshToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
