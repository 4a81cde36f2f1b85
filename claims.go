package suppliers

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents validated session claims with permission lookups
type AuthClaims interface {
	Subject() string
	UserID() string
	Email() string
	HasClaim(name string) bool
	ClaimValue(name string) (string, bool)
	HasRole(role string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       string            `json:"uid,omitempty"`
	UserEmail string            `json:"email,omitempty"`
	ClaimSet  map[string]string `json:"claims,omitempty"`
	RoleSet   []string          `json:"roles,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the account ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Email returns the account email
func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// HasClaim reports whether the named claim was present at token issue time
func (c *JWTClaims) HasClaim(name string) bool {
	if c.ClaimSet == nil {
		return false
	}
	_, ok := c.ClaimSet[name]
	return ok
}

// ClaimValue returns the value of the named claim
func (c *JWTClaims) ClaimValue(name string) (string, bool) {
	if c.ClaimSet == nil {
		return "", false
	}
	v, ok := c.ClaimSet[name]
	return v, ok
}

// HasRole checks if the account carried the given role at token issue time
func (c *JWTClaims) HasRole(role string) bool {
	for _, r := range c.RoleSet {
		if r == role {
			return true
		}
	}
	return false
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
