package realtime

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/limbo/streek/pkg/entity"
)

// SubscriberBuffer is how many events a slow subscriber may lag behind before events are dropped.
const SubscriberBuffer = 64

type subscriber struct {
	ch   chan entity.ChangeEvent
	once sync.Once
}

// Hub fans change events out to the subscribers of the event's user.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[*subscriber]struct{}
	logger *slog.Logger
}

func NewHub() *Hub {
	return &Hub{
		subs:   make(map[uuid.UUID]map[*subscriber]struct{}),
		logger: slog.Default().With(slog.String("component", "realtime_hub")),
	}
}

// Subscribe returns the user's event stream and a func that closes it.
func (h *Hub) Subscribe(uid uuid.UUID) (<-chan entity.ChangeEvent, func()) {
	s := &subscriber{ch: make(chan entity.ChangeEvent, SubscriberBuffer)}
	h.mu.Lock()
	set, ok := h.subs[uid]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[uid] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()

	return s.ch, func() {
		s.once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[uid], s)
			if len(h.subs[uid]) == 0 {
				delete(h.subs, uid)
			}
			close(s.ch)
		})
	}
}

// Publish never blocks: a full subscriber misses the event.
func (h *Hub) Publish(ev entity.ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[ev.UserID] {
		select {
		case s.ch <- ev:
		default:
			h.logger.Warn("subscriber is full, change dropped",
				slog.String("uid", ev.UserID.String()),
				slog.String("table", ev.Table))
		}
	}
}
