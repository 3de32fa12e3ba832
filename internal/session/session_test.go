package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limbo/streek/internal/session"
)

func TestFromContext(t *testing.T) {
	uid := uuid.New()
	t.Run("stored session", func(t *testing.T) {
		ctx := session.WithSession(context.Background(), session.New(uid, time.Time{}))
		s, err := session.FromContext(ctx)
		require.NoError(t, err)
		assert.Equal(t, uid, s.UserID)
	})
	t.Run("empty context", func(t *testing.T) {
		_, err := session.FromContext(context.Background())
		assert.ErrorIs(t, err, session.ErrNoSession)
	})
	t.Run("nil user", func(t *testing.T) {
		ctx := session.WithSession(context.Background(), session.New(uuid.Nil, time.Time{}))
		_, err := session.FromContext(ctx)
		assert.ErrorIs(t, err, session.ErrNoSession)
	})
}

func TestExpired(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.False(t, session.New(uuid.New(), time.Time{}).Expired(now))
	assert.False(t, session.New(uuid.New(), now.Add(time.Minute)).Expired(now))
	assert.True(t, session.New(uuid.New(), now).Expired(now))
}
