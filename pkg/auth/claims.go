package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenClaims is the token minted by the external auth service. The
// account id travels in account_id; older tokens carry it only as the subject.
type AccessTokenClaims struct {
	AccountIDClaim *uuid.UUID `json:"account_id,omitempty"`
	Email          string     `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// AccountID resolves the owning account, preferring account_id over sub.
func (c *AccessTokenClaims) AccountID() (uuid.UUID, bool) {
	if c == nil {
		return uuid.Nil, false
	}
	if c.AccountIDClaim != nil && *c.AccountIDClaim != uuid.Nil {
		return *c.AccountIDClaim, true
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
