package tracker

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/limbo/streek/internal/service"
	"github.com/limbo/streek/internal/session"
	"github.com/limbo/streek/pkg/calendar"
	"github.com/limbo/streek/pkg/entity"
)

var ErrRegistryClosed = errors.New("tracker registry closed")

// LoadTimeout bounds the first load of a user's tracker.
const LoadTimeout = 10 * time.Second

// Subscriber delivers the change events of one user.
type Subscriber interface {
	Subscribe(uid uuid.UUID) (<-chan entity.ChangeEvent, func())
}

type entry struct {
	tracker     *Tracker
	unsubscribe func()
}

// Registry owns the trackers of all signed-in users.
type Registry struct {
	habits   service.HabitsServiceI
	progress service.ProgressServiceI
	cal      *calendar.Calendar
	hub      Subscriber
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	loads  singleflight.Group

	mu       sync.Mutex
	closed   bool
	trackers map[uuid.UUID]*entry
}

func NewRegistry(habitsService service.HabitsServiceI, progressService service.ProgressServiceI, cal *calendar.Calendar, hub Subscriber) *Registry {
	if habitsService == nil || progressService == nil || hub == nil {
		log.Fatal("on tracker registry provided nil dependencies")
	}
	if cal == nil {
		cal = calendar.New(nil, nil)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		habits:   habitsService,
		progress: progressService,
		cal:      cal,
		hub:      hub,
		logger:   slog.Default().With(slog.String("component", "tracker_registry")),
		ctx:      ctx,
		cancel:   cancel,
		trackers: make(map[uuid.UUID]*entry),
	}
}

// Get returns the user's tracker, loading it on first use.
func (r *Registry) Get(ctx context.Context, sess *session.Session) (*Tracker, error) {
	if sess == nil || sess.UserID == uuid.Nil {
		return nil, session.ErrNoSession
	}
	if t := r.lookup(sess.UserID); t != nil {
		t.Refresh(sess)
		return t, nil
	}
	v, err, _ := r.loads.Do(sess.UserID.String(), func() (any, error) {
		if t := r.lookup(sess.UserID); t != nil {
			return t, nil
		}
		// shared by every waiter, so it must not end with the first caller's request
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), LoadTimeout)
		defer cancel()
		return r.start(loadCtx, sess)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Tracker), nil
}

func (r *Registry) start(ctx context.Context, sess *session.Session) (*Tracker, error) {
	if err := r.progress.EnsureProfile(ctx, sess.UserID); err != nil {
		return nil, err
	}
	t := New(sess, r.habits, r.progress, r.cal)
	// subscribing first keeps changes made during the load in the channel buffer
	events, unsubscribe := r.hub.Subscribe(sess.UserID)
	if err := t.Load(ctx); err != nil {
		unsubscribe()
		return nil, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		unsubscribe()
		return nil, ErrRegistryClosed
	}
	r.trackers[sess.UserID] = &entry{tracker: t, unsubscribe: unsubscribe}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		t.Run(r.ctx, events)
	}()
	r.logger.Info("tracker started", slog.String("uid", sess.UserID.String()))
	return t, nil
}

func (r *Registry) lookup(uid uuid.UUID) *Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.trackers[uid]; ok {
		return e.tracker
	}
	return nil
}

// Len is the number of live trackers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trackers)
}

// SweepAll drops trackers of expired sessions and runs the streak sweep on the rest.
// It returns how many streaks were reset.
func (r *Registry) SweepAll(ctx context.Context) (int, error) {
	now := r.cal.Now()
	r.mu.Lock()
	live := make([]*Tracker, 0, len(r.trackers))
	for uid, e := range r.trackers {
		if e.tracker.Session().Expired(now) {
			e.unsubscribe()
			delete(r.trackers, uid)
			continue
		}
		live = append(live, e.tracker)
	}
	r.mu.Unlock()

	total := 0
	var errs []error
	for _, t := range live {
		reset, err := t.SweepStreaks(ctx)
		total += len(reset)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// Close stops every tracker's reconciliation loop.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	for uid, e := range r.trackers {
		e.unsubscribe()
		delete(r.trackers, uid)
	}
	r.mu.Unlock()
	r.cancel()
	r.wg.Wait()
	return nil
}
