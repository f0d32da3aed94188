// Package authtest mints access tokens in the format the external auth service
// issues, for handler and router tests.
package authtest

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/hookrelay-backend/pkg/auth"
	"github.com/angelmondragon/hookrelay-backend/pkg/config"
)

// Payload captures the data carried by a minted token.
type Payload struct {
	AccountID uuid.UUID
	Email     string
	JTI       string
}

// AccessToken issues an HS256 token for payload, valid from now for ttl.
func AccessToken(cfg config.JWTConfig, now time.Time, ttl time.Duration, payload Payload) (string, error) {
	if cfg.Secret == "" || cfg.Issuer == "" {
		return "", fmt.Errorf("jwt secret and issuer are required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("jwt ttl must be positive")
	}
	if payload.AccountID == uuid.Nil {
		return "", fmt.Errorf("account id is required")
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}

	accountID := payload.AccountID
	claims := auth.AccessTokenClaims{
		AccountIDClaim: &accountID,
		Email:          payload.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}
