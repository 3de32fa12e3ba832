package api

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/limbo/streek/internal/session"
	"github.com/limbo/streek/internal/tracker"
)

type JWTServiceI interface {
	GenerateToken(uid uuid.UUID) (string, error)
	ParseToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims identifies the user by user_id, or by sub when user_id is absent.
type JWTClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id,omitempty"`
}

func (c *JWTClaims) UID() (uuid.UUID, error) {
	if c.UserID != "" {
		return uuid.Parse(c.UserID)
	}
	return uuid.Parse(c.Subject)
}

type TrackerRegistryI interface {
	// Returns tracker of the session's user, loading it on first use
	Get(ctx context.Context, sess *session.Session) (*tracker.Tracker, error)
}
