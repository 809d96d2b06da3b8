package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles accepted by route guards.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleStaff   UserRole = "STAFF"
	RoleTeacher UserRole = "TEACHER"
)

// JWTClaims is the access token payload issued by the external identity service.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Actor identifies who performs a mutation.
type Actor struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Role UserRole `json:"role,omitempty"`
}

// ActorFromClaims maps verified token claims to an actor. The display name
// prefers the full name and falls back to the username.
func ActorFromClaims(claims *JWTClaims) Actor {
	name := claims.FullName
	if name == "" {
		name = claims.Username
	}
	return Actor{ID: claims.UserID, Name: name, Role: claims.Role}
}
