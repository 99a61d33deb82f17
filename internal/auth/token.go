package auth

import (
	"fmt"
	"time"

	"github.com/gatherly/gatherly/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// TokenManager signs and verifies the three bearer-token kinds this service
// uses. Tokens are stateless: everything a consumer needs is in the signed
// payload, and the payload shape is part of the external contract —
// access/refresh carry exactly {sub, roles, exp}, reset carries
// {sub, type, exp}.
type TokenManager struct {
	secret             []byte
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	resetTokenExpiry   time.Duration
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, accessExpiry, refreshExpiry, resetExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:             []byte(secret),
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
		resetTokenExpiry:   resetExpiry,
	}
}

// IssueAccessToken creates a short-lived access token for the subject.
// A nil roles slice still signs as `"roles": []`.
func (tm *TokenManager) IssueAccessToken(userID string, roles []string) (string, error) {
	if roles == nil {
		roles = []string{}
	}
	return tm.sign(&models.TokenClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tm.accessTokenExpiry)),
		},
	})
}

// IssueRefreshToken creates a long-lived refresh token for the subject.
// It carries the same payload shape as an access token; the two are
// distinguished only by lifetime.
func (tm *TokenManager) IssueRefreshToken(userID string, roles []string) (string, error) {
	if roles == nil {
		roles = []string{}
	}
	return tm.sign(&models.TokenClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tm.refreshTokenExpiry)),
		},
	})
}

// IssueResetToken creates a single-purpose password-reset token. The type
// claim is what lets the reset-confirm path refuse access/refresh tokens.
func (tm *TokenManager) IssueResetToken(userID string) (string, error) {
	return tm.sign(&models.TokenClaims{
		Type: models.TokenTypeReset,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tm.resetTokenExpiry)),
		},
	})
}

func (tm *TokenManager) sign(claims *models.TokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify parses and validates a token string. Every failure mode — malformed
// input, bad signature, expiry — collapses into ErrUnauthorized so callers
// cannot be used as an oracle to distinguish tampering from expiry.
func (tm *TokenManager) Verify(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, models.ErrUnauthorized
	}

	return claims, nil
}
