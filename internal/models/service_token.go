package models

import "github.com/golang-jwt/jwt/v5"

// ServiceTokenClaims identifies the caller allowed to drive the GA scheduler
// endpoints. There is no per-user identity left in this API — callers are
// other services, authenticated by a shared secret rather than a login flow.
type ServiceTokenClaims struct {
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}
