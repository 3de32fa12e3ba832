// Package tracker keeps one user's habits and recent completions in memory, applies
// completions optimistically and reconciles the state with pushed database changes.
package tracker

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	errorvalues "github.com/limbo/streek/internal/error_values"
	"github.com/limbo/streek/internal/service"
	"github.com/limbo/streek/internal/session"
	"github.com/limbo/streek/internal/streak"
	"github.com/limbo/streek/internal/tree"
	"github.com/limbo/streek/pkg/calendar"
	"github.com/limbo/streek/pkg/entity"
)

type Tracker struct {
	uid      uuid.UUID
	habits   service.HabitsServiceI
	progress service.ProgressServiceI
	cal      *calendar.Calendar
	logger   *slog.Logger

	mu          sync.Mutex
	sess        *session.Session
	list        []*entity.Habit // newest first
	completions streak.Index
	// last completion days older than the loaded window
	older map[uuid.UUID]calendar.Day
}

func New(sess *session.Session, habitsService service.HabitsServiceI, progressService service.ProgressServiceI, cal *calendar.Calendar) *Tracker {
	if sess == nil || habitsService == nil || progressService == nil {
		log.Fatal("on tracker provided nil session or services")
	}
	if cal == nil {
		cal = calendar.New(nil, nil)
	}
	return &Tracker{
		uid:         sess.UserID,
		habits:      habitsService,
		progress:    progressService,
		cal:         cal,
		logger:      slog.Default().With(slog.String("component", "tracker"), slog.String("uid", sess.UserID.String())),
		sess:        sess,
		list:        make([]*entity.Habit, 0),
		completions: make(streak.Index),
		older:       make(map[uuid.UUID]calendar.Day),
	}
}

func (t *Tracker) UserID() uuid.UUID {
	return t.uid
}

func (t *Tracker) Session() *session.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sess
}

// Refresh swaps the session for one that lives longer.
func (t *Tracker) Refresh(sess *session.Session) {
	if sess == nil || sess.UserID != t.uid {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sess.ExpiresAt.IsZero() || sess.ExpiresAt.After(t.sess.ExpiresAt) {
		t.sess = sess
	}
}

func (t *Tracker) Load(ctx context.Context) error {
	_, err := t.Sync(ctx)
	return err
}

// Sync replaces local state with the stored habits and the completions of the last
// streak.Window days, then resets broken streaks. It returns the ids of reset habits.
// Only a failure to list the habits is an error; failed resets are logged and the
// habits keep their stored streak until the next sweep.
func (t *Tracker) Sync(ctx context.Context) ([]uuid.UUID, error) {
	habits, err := t.habits.ListHabits(ctx, t.uid)
	if err != nil {
		t.logger.Error("loading habits failed", slog.String("error", err.Error()))
		return nil, err
	}
	today := t.cal.Today()
	idx, err := t.habits.ListCompletions(ctx, t.uid, t.cal.DaysAgo(streak.Window))
	if err != nil {
		// habits are still shown, without completion flags
		t.logger.Warn("loading completions failed", slog.String("error", err.Error()))
		t.mu.Lock()
		t.list = habits
		t.derive(today)
		t.mu.Unlock()
		return nil, nil
	}
	older := t.lookupOlder(ctx, habits, idx)

	reset, err := t.resetStreaks(ctx, streak.ToReset(habits, idx, today))
	if err != nil {
		t.logger.Warn("some broken streaks weren't reset", slog.String("error", err.Error()))
	}
	for _, h := range habits {
		if slices.Contains(reset, h.ID) {
			h.Streak = 0
		}
	}

	t.mu.Lock()
	t.list = habits
	t.completions = idx
	t.older = older
	t.derive(today)
	t.mu.Unlock()
	return reset, nil
}

// lookupOlder finds the last completion day of streaking habits that have none in idx.
func (t *Tracker) lookupOlder(ctx context.Context, habits []*entity.Habit, idx streak.Index) map[uuid.UUID]calendar.Day {
	older := make(map[uuid.UUID]calendar.Day)
	for _, h := range habits {
		if h.Streak == 0 {
			continue
		}
		if _, ok := idx.Last(h.ID); ok {
			continue
		}
		last, err := t.habits.LastCompletionDate(ctx, h.ID)
		if err != nil {
			t.logger.Warn("looking up last completion failed", slog.String("habit_id", h.ID.String()), slog.String("error", err.Error()))
			continue
		}
		if last != nil {
			older[h.ID] = *last
		}
	}
	return older
}

// ReloadCompletions refetches the completion window and rederives the habit flags.
func (t *Tracker) ReloadCompletions(ctx context.Context) error {
	idx, err := t.habits.ListCompletions(ctx, t.uid, t.cal.DaysAgo(streak.Window))
	if err != nil {
		t.logger.Warn("reloading completions failed", slog.String("error", err.Error()))
		return err
	}
	t.mu.Lock()
	t.completions = idx
	t.derive(t.cal.Today())
	t.mu.Unlock()
	return nil
}

// SweepStreaks resets every positive streak that wasn't kept alive by a completion today
// or yesterday. It also rolls the completed-today flags over to the current day.
func (t *Tracker) SweepStreaks(ctx context.Context) ([]uuid.UUID, error) {
	today := t.cal.Today()
	t.mu.Lock()
	t.completions.Prune(t.cal.DaysAgo(streak.Window))
	t.derive(today)
	ids := streak.ToReset(t.list, t.completions, today)
	t.mu.Unlock()

	reset, err := t.resetStreaks(ctx, ids)

	t.mu.Lock()
	for _, id := range reset {
		if i := t.indexOf(id); i >= 0 {
			t.list[i].Streak = 0
		}
	}
	t.mu.Unlock()
	if len(reset) > 0 {
		t.logger.Info("streaks reset", slog.Int("count", len(reset)))
	}
	return reset, err
}

// resetStreaks persists streak 0 and returns the ids that were stored. Habits deleted
// in the meantime are skipped.
func (t *Tracker) resetStreaks(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	reset := make([]uuid.UUID, 0, len(ids))
	var errs []error
	zero := 0
	for _, id := range ids {
		_, err := t.habits.UpdateHabit(ctx, t.uid, id, service.UpdateHabitRequest{Streak: &zero})
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			continue
		}
		if err != nil {
			t.logger.Error("resetting streak failed", slog.String("habit_id", id.String()), slog.String("error", err.Error()))
			errs = append(errs, err)
			continue
		}
		reset = append(reset, id)
	}
	return reset, errors.Join(errs...)
}

// Complete marks the habit done today. Local state changes right away and is rolled
// back when either remote write fails.
func (t *Tracker) Complete(ctx context.Context, habitID uuid.UUID) (entity.Habit, error) {
	today := t.cal.Today()

	t.mu.Lock()
	if t.indexOf(habitID) < 0 {
		// may have been created elsewhere before its insert event got here
		t.mu.Unlock()
		if err := t.fetch(ctx, habitID); err != nil {
			return entity.Habit{}, err
		}
		t.mu.Lock()
	}
	if t.completions.Has(habitID, today) {
		t.mu.Unlock()
		return entity.Habit{}, errorvalues.ErrAlreadyCompletedToday
	}
	i := t.indexOf(habitID)
	if i < 0 {
		t.mu.Unlock()
		return entity.Habit{}, errorvalues.ErrHabitNotFound
	}
	h := t.list[i]
	next := streak.Next(h.Streak, h.LastCompletedDate)
	sp := t.speculate(habitID, speculateUpdate, func() {
		h.Streak = next
		h.CompletedToday = true
		day := today
		h.LastCompletedDate = &day
		t.completions.Add(habitID, today)
	})
	t.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error {
		_, err := t.habits.UpdateHabit(ctx, t.uid, habitID, service.UpdateHabitRequest{Streak: &next})
		return err
	})
	g.Go(func() error {
		return t.habits.RecordCompletion(ctx, habitID, t.uid, today)
	})
	if err := g.Wait(); err != nil {
		t.rollback(sp)
		t.logger.Error("completing habit failed", slog.String("habit_id", habitID.String()), slog.String("error", err.Error()))
		return entity.Habit{}, errors.Join(errorvalues.ErrSyncFailed, err)
	}
	sp.commit()

	if _, err := t.progress.AddPoints(ctx, t.uid, tree.PointsPerCompletion); err != nil {
		t.logger.Warn("adding points failed", slog.String("habit_id", habitID.String()), slog.String("error", err.Error()))
	}

	habit, _ := t.Habit(habitID)
	return habit, nil
}

// Remove deletes the habit, putting it back locally if the delete fails.
func (t *Tracker) Remove(ctx context.Context, habitID uuid.UUID) error {
	t.mu.Lock()
	i := t.indexOf(habitID)
	if i < 0 {
		t.mu.Unlock()
		return errorvalues.ErrHabitNotFound
	}
	sp := t.speculate(habitID, speculateRemove, func() {
		t.list = slices.Delete(t.list, i, i+1)
		delete(t.completions, habitID)
	})
	t.mu.Unlock()

	err := t.habits.DeleteHabit(ctx, t.uid, habitID)
	if err != nil && !errors.Is(err, errorvalues.ErrHabitNotFound) {
		t.rollback(sp)
		return errors.Join(errorvalues.ErrSyncFailed, err)
	}
	sp.commit()
	t.mu.Lock()
	delete(t.older, habitID)
	t.mu.Unlock()
	return nil
}

// fetch loads one stored habit with its last completion into local state.
func (t *Tracker) fetch(ctx context.Context, habitID uuid.UUID) error {
	row, err := t.habits.GetHabit(ctx, t.uid, habitID)
	if err != nil {
		return err
	}
	last, err := t.habits.LastCompletionDate(ctx, habitID)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if last != nil {
		if last.Before(t.cal.DaysAgo(streak.Window)) {
			t.older[habitID] = *last
		} else {
			t.completions.Add(habitID, *last)
		}
	}
	t.upsert(row)
	return nil
}

func (t *Tracker) CreateHabit(ctx context.Context, req service.CreateHabitRequest) (entity.Habit, error) {
	h, err := t.habits.CreateHabit(ctx, t.uid, req)
	if err != nil {
		return entity.Habit{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.upsert(h), nil
}

func (t *Tracker) UpdateHabit(ctx context.Context, habitID uuid.UUID, req service.UpdateHabitRequest) (entity.Habit, error) {
	h, err := t.habits.UpdateHabit(ctx, t.uid, habitID, req)
	if err != nil {
		return entity.Habit{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.upsert(h), nil
}

// Habits returns copies of the habits, newest first.
func (t *Tracker) Habits() []entity.Habit {
	t.mu.Lock()
	defer t.mu.Unlock()
	result := make([]entity.Habit, 0, len(t.list))
	for _, h := range t.list {
		result = append(result, *h)
	}
	return result
}

func (t *Tracker) Habit(habitID uuid.UUID) (entity.Habit, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.indexOf(habitID)
	if i < 0 {
		return entity.Habit{}, false
	}
	return *t.list[i], true
}

// CompletionsByDate is the calendar view: days with at least one completion.
func (t *Tracker) CompletionsByDate() map[calendar.Day]bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completions.ByDate()
}

func (t *Tracker) HasCompletionsOnDate(day calendar.Day) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, days := range t.completions {
		if _, ok := days[day]; ok {
			return true
		}
	}
	return false
}

func (t *Tracker) Stats(ctx context.Context) (entity.HabitStats, error) {
	var stats entity.HabitStats
	t.mu.Lock()
	for _, h := range t.list {
		stats.LongestStreak = max(stats.LongestStreak, h.Streak)
		if h.Streak > 0 {
			stats.CurrentStreaks++
		}
	}
	t.mu.Unlock()
	done, err := t.habits.CountCompletions(ctx, t.uid)
	if err != nil {
		return stats, err
	}
	stats.HabitsDone = done
	return stats, nil
}

// derive recomputes the per-session fields of every habit. Caller holds mu.
func (t *Tracker) derive(today calendar.Day) {
	for _, h := range t.list {
		t.deriveOne(h, today)
	}
}

func (t *Tracker) deriveOne(h *entity.Habit, today calendar.Day) {
	h.CompletedToday = t.completions.Has(h.ID, today)
	h.LastCompletedDate = nil
	if last, ok := t.completions.Last(h.ID); ok {
		h.LastCompletedDate = &last
	} else if last, ok := t.older[h.ID]; ok {
		h.LastCompletedDate = &last
	}
}

func (t *Tracker) indexOf(habitID uuid.UUID) int {
	return slices.IndexFunc(t.list, func(h *entity.Habit) bool { return h.ID == habitID })
}

// upsert merges a stored row into the list, keeping derived fields of a known habit.
// Caller holds mu.
func (t *Tracker) upsert(row *entity.Habit) *entity.Habit {
	if i := t.indexOf(row.ID); i >= 0 {
		h := t.list[i]
		h.UserID = row.UserID
		h.Name = row.Name
		h.Color = row.Color
		h.Streak = row.Streak
		h.CreatedAt = row.CreatedAt
		return h
	}
	h := *row
	t.deriveOne(&h, t.cal.Today())
	pos := slices.IndexFunc(t.list, func(other *entity.Habit) bool { return other.CreatedAt.Before(h.CreatedAt) })
	if pos < 0 {
		pos = len(t.list)
	}
	t.list = slices.Insert(t.list, pos, &h)
	return &h
}
