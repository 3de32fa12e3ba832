package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/limbo/streek/pkg/entity"
)

var errMalformedEvent = errors.New("change event without row")

// Run applies pushed changes until ctx is done or events is closed.
func (t *Tracker) Run(ctx context.Context, events <-chan entity.ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := t.Apply(ctx, ev); err != nil {
				t.logger.Warn("applying change failed",
					slog.String("table", ev.Table),
					slog.String("type", string(ev.Kind)),
					slog.String("error", err.Error()))
			}
		}
	}
}

// Apply merges one change into local state. Reapplying a change that is already
// reflected locally leaves the state as it is.
func (t *Tracker) Apply(ctx context.Context, ev entity.ChangeEvent) error {
	if ev.UserID != t.uid {
		return nil
	}
	switch ev.Table {
	case entity.TableHabit:
		return t.applyHabit(ev)
	case entity.TableHabitCompletion:
		if ev.Kind != entity.ChangeInsert {
			// rows are never changed in place, so anything else means local state is stale
			return t.ReloadCompletions(ctx)
		}
		return t.applyCompletion(ev)
	default:
		return fmt.Errorf("unknown table %q", ev.Table)
	}
}

func (t *Tracker) applyHabit(ev entity.ChangeEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch ev.Kind {
	case entity.ChangeInsert, entity.ChangeUpdate:
		if ev.Habit == nil {
			return errMalformedEvent
		}
		t.upsert(ev.Habit)
	case entity.ChangeDelete:
		id := ev.HabitID
		if ev.Habit != nil {
			id = ev.Habit.ID
		}
		if i := t.indexOf(id); i >= 0 {
			t.list = slices.Delete(t.list, i, i+1)
		}
		delete(t.completions, id)
		delete(t.older, id)
	default:
		return fmt.Errorf("unknown change type %q", ev.Kind)
	}
	return nil
}

func (t *Tracker) applyCompletion(ev entity.ChangeEvent) error {
	if ev.Completion == nil {
		return errMalformedEvent
	}
	c := ev.Completion
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completions.Add(c.HabitID, c.CompletionDate)
	if i := t.indexOf(c.HabitID); i >= 0 {
		t.deriveOne(t.list[i], t.cal.Today())
	}
	return nil
}
