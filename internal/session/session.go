// Package session carries the authenticated user explicitly instead of through global state.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNoSession = errors.New("no session in context")

type Session struct {
	UserID    uuid.UUID
	ExpiresAt time.Time
}

type contextKey struct{}

func New(uid uuid.UUID, expiresAt time.Time) *Session {
	return &Session{UserID: uid, ExpiresAt: expiresAt}
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (*Session, error) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	if !ok || s == nil || s.UserID == uuid.Nil {
		return nil, ErrNoSession
	}
	return s, nil
}
