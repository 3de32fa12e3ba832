package tracker_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	errorvalues "github.com/limbo/streek/internal/error_values"
	"github.com/limbo/streek/internal/service"
	"github.com/limbo/streek/internal/streak"
	"github.com/limbo/streek/internal/tree"
	"github.com/limbo/streek/pkg/calendar"
	"github.com/limbo/streek/pkg/entity"
)

var (
	errUpdate = errors.New("update failed")
	errRecord = errors.New("insert failed")
	errDelete = errors.New("delete failed")
	errList   = errors.New("select failed")
)

// startOfTest is 2025-03-10 09:00 UTC
var startOfTest = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestCalendar() (*clockwork.FakeClock, *calendar.Calendar) {
	clock := clockwork.NewFakeClockAt(startOfTest)
	return clock, calendar.New(clock, time.UTC)
}

// habitsServiceMock keeps rows in memory, newest first
type habitsServiceMock struct {
	mu          sync.Mutex
	rows        []*entity.Habit
	completions []entity.HabitCompletion

	failUpdate      bool
	failRecord      bool
	failDelete      bool
	failList        bool
	failCompletions bool

	updates []service.UpdateHabitRequest
}

func (m *habitsServiceMock) addHabit(uid uuid.UUID, name string, streakValue int, created time.Time) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := &entity.Habit{ID: uuid.New(), UserID: uid, Name: name, Color: "#00B865", Streak: streakValue, CreatedAt: created}
	m.rows = append([]*entity.Habit{h}, m.rows...)
	return h.ID
}

func (m *habitsServiceMock) addCompletion(uid, habitID uuid.UUID, day calendar.Day) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completions = append(m.completions, entity.HabitCompletion{HabitID: habitID, UserID: uid, CompletionDate: day})
}

func (m *habitsServiceMock) streakOf(habitID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.rows {
		if h.ID == habitID {
			return h.Streak
		}
	}
	return -1
}

func (m *habitsServiceMock) completionCount(habitID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.completions {
		if c.HabitID == habitID {
			count++
		}
	}
	return count
}

func (m *habitsServiceMock) ListHabits(ctx context.Context, uid uuid.UUID) ([]*entity.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.failList {
		return nil, errList
	}
	result := make([]*entity.Habit, 0)
	for _, h := range m.rows {
		if h.UserID == uid {
			cp := *h
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *habitsServiceMock) CreateHabit(ctx context.Context, uid uuid.UUID, req service.CreateHabitRequest) (*entity.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := &entity.Habit{ID: uuid.New(), UserID: uid, Name: req.Name, Color: req.Color, CreatedAt: time.Now()}
	m.rows = append([]*entity.Habit{h}, m.rows...)
	cp := *h
	return &cp, nil
}

func (m *habitsServiceMock) GetHabit(ctx context.Context, uid, habitID uuid.UUID) (*entity.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.rows {
		if h.ID == habitID {
			cp := *h
			return &cp, nil
		}
	}
	return nil, errorvalues.ErrHabitNotFound
}

func (m *habitsServiceMock) UpdateHabit(ctx context.Context, uid, habitID uuid.UUID, req service.UpdateHabitRequest) (*entity.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, req)
	if m.failUpdate {
		return nil, errUpdate
	}
	for _, h := range m.rows {
		if h.ID == habitID && h.UserID == uid {
			if req.Name != nil {
				h.Name = *req.Name
			}
			if req.Color != nil {
				h.Color = *req.Color
			}
			if req.Streak != nil {
				h.Streak = *req.Streak
			}
			cp := *h
			return &cp, nil
		}
	}
	return nil, errorvalues.ErrHabitNotFound
}

func (m *habitsServiceMock) DeleteHabit(ctx context.Context, uid, habitID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete {
		return errDelete
	}
	i := slices.IndexFunc(m.rows, func(h *entity.Habit) bool { return h.ID == habitID && h.UserID == uid })
	if i < 0 {
		return errorvalues.ErrHabitNotFound
	}
	m.rows = slices.Delete(m.rows, i, i+1)
	return nil
}

func (m *habitsServiceMock) ListCompletions(ctx context.Context, uid uuid.UUID, since calendar.Day) (streak.Index, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCompletions {
		return nil, errList
	}
	window := make([]entity.HabitCompletion, 0)
	for _, c := range m.completions {
		if c.UserID == uid && !c.CompletionDate.Before(since) {
			window = append(window, c)
		}
	}
	return streak.NewIndex(window), nil
}

func (m *habitsServiceMock) RecordCompletion(ctx context.Context, habitID, uid uuid.UUID, day calendar.Day) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRecord {
		return errRecord
	}
	for _, c := range m.completions {
		if c.HabitID == habitID && c.CompletionDate == day {
			return nil
		}
	}
	m.completions = append(m.completions, entity.HabitCompletion{HabitID: habitID, UserID: uid, CompletionDate: day})
	return nil
}

func (m *habitsServiceMock) LastCompletionDate(ctx context.Context, habitID uuid.UUID) (*calendar.Day, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last calendar.Day
	for _, c := range m.completions {
		if c.HabitID == habitID && c.CompletionDate.After(last) {
			last = c.CompletionDate
		}
	}
	if last.IsZero() {
		return nil, nil
	}
	return &last, nil
}

func (m *habitsServiceMock) CountCompletions(ctx context.Context, uid uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.completions {
		if c.UserID == uid {
			count++
		}
	}
	return count, nil
}

type progressServiceMock struct {
	mu      sync.Mutex
	points  int
	ensured int
	failAdd bool
}

func (m *progressServiceMock) EnsureProfile(ctx context.Context, uid uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensured++
	return nil
}

func (m *progressServiceMock) GetProgress(ctx context.Context, uid uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.points, nil
}

func (m *progressServiceMock) AddPoints(ctx context.Context, uid uuid.UUID, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAdd {
		return 0, errors.New("progress failed")
	}
	m.points = tree.Clamp(m.points + delta)
	return m.points, nil
}

func (m *progressServiceMock) Snapshot(ctx context.Context, uid uuid.UUID) (tree.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return tree.SnapshotOf(m.points), nil
}

// hubMock hands out one channel per user
type hubMock struct {
	mu      sync.Mutex
	streams map[uuid.UUID]chan entity.ChangeEvent
	closed  map[uuid.UUID]bool
}

func newHubMock() *hubMock {
	return &hubMock{
		streams: make(map[uuid.UUID]chan entity.ChangeEvent),
		closed:  make(map[uuid.UUID]bool),
	}
}

func (h *hubMock) Subscribe(uid uuid.UUID) (<-chan entity.ChangeEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan entity.ChangeEvent, 8)
	h.streams[uid] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.closed[uid] = true
			close(ch)
		})
	}
}

func (h *hubMock) send(ev entity.ChangeEvent) {
	h.mu.Lock()
	ch := h.streams[ev.UserID]
	h.mu.Unlock()
	ch <- ev
}

func (h *hubMock) isClosed(uid uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed[uid]
}
