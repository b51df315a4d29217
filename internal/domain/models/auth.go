package models

import "github.com/golang-jwt/jwt/v5"

// ActorClaims are the JWT claims carried by an authenticated editor token.
// Subject is the actor identity stamped onto drafts and audit records.
type ActorClaims struct {
	jwt.RegisteredClaims
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
}
