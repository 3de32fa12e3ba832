package tracker

import (
	"slices"

	"github.com/google/uuid"

	"github.com/limbo/streek/pkg/calendar"
	"github.com/limbo/streek/pkg/entity"
)

type speculationKind int

const (
	// changes fields of a habit that stays in the list
	speculateUpdate speculationKind = iota
	// takes the habit out of the list
	speculateRemove
)

type speculationState int

const (
	speculationApplied speculationState = iota
	speculationCommitted
	speculationRolledBack
)

// speculation is a local change to one habit that is applied before the remote
// write returns. It ends either committed or rolled back to the snapshot.
type speculation struct {
	kind    speculationKind
	habitID uuid.UUID
	habit   *entity.Habit // nil when the habit wasn't in the list
	pos     int
	days    map[calendar.Day]struct{}
	state   speculationState
}

// speculate snapshots the habit and its completions, then runs apply. Caller holds mu.
func (t *Tracker) speculate(habitID uuid.UUID, kind speculationKind, apply func()) *speculation {
	sp := &speculation{
		kind:    kind,
		habitID: habitID,
		pos:     t.indexOf(habitID),
		days:    t.completions.Snapshot(habitID),
	}
	if sp.pos >= 0 {
		h := *t.list[sp.pos]
		sp.habit = &h
	}
	apply()
	return sp
}

func (sp *speculation) commit() {
	if sp.state == speculationApplied {
		sp.state = speculationCommitted
	}
}

// rollback puts the habit and its completion days back as they were at snapshot time.
// A habit that an update speculation finds gone was deleted meanwhile and stays gone.
func (t *Tracker) rollback(sp *speculation) {
	if sp.state != speculationApplied {
		return
	}
	sp.state = speculationRolledBack

	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.indexOf(sp.habitID)
	if sp.kind == speculateUpdate && sp.habit != nil && i < 0 {
		delete(t.completions, sp.habitID)
		return
	}
	t.completions.Restore(sp.habitID, sp.days)
	switch {
	case sp.habit == nil && i >= 0:
		t.list = slices.Delete(t.list, i, i+1)
	case sp.habit != nil && i >= 0:
		*t.list[i] = *sp.habit
	case sp.habit != nil:
		h := *sp.habit
		pos := min(sp.pos, len(t.list))
		t.list = slices.Insert(t.list, pos, &h)
	}
}
