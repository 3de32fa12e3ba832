package realtime_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/limbo/streek/internal/realtime"
	"github.com/limbo/streek/pkg/entity"
)

func TestHubRoutesByUser(t *testing.T) {
	hub := realtime.NewHub()
	other := uuid.New()
	mine, unsubscribe := hub.Subscribe(ownerID)
	defer unsubscribe()
	theirs, unsubscribeOther := hub.Subscribe(other)
	defer unsubscribeOther()

	hub.Publish(entity.ChangeEvent{Table: entity.TableHabit, UserID: ownerID})

	assert.Len(t, mine, 1)
	assert.Len(t, theirs, 0)
	ev := <-mine
	assert.Equal(t, ownerID, ev.UserID)
}

func TestHubDropsWhenFull(t *testing.T) {
	hub := realtime.NewHub()
	events, unsubscribe := hub.Subscribe(ownerID)
	defer unsubscribe()
	for range realtime.SubscriberBuffer + 10 {
		hub.Publish(entity.ChangeEvent{Table: entity.TableHabit, UserID: ownerID})
	}
	assert.Len(t, events, realtime.SubscriberBuffer)
}

func TestHubUnsubscribe(t *testing.T) {
	hub := realtime.NewHub()
	events, unsubscribe := hub.Subscribe(ownerID)
	unsubscribe()
	unsubscribe()
	_, ok := <-events
	assert.False(t, ok)

	next, unsubscribeNext := hub.Subscribe(ownerID)
	defer unsubscribeNext()
	hub.Publish(entity.ChangeEvent{Table: entity.TableHabit, UserID: ownerID})
	assert.Len(t, next, 1)
}
