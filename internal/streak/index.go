package streak

import (
	"github.com/google/uuid"

	"github.com/limbo/streek/pkg/calendar"
	"github.com/limbo/streek/pkg/entity"
)

// Index answers "was habit X completed on day Y" from the recent completion window
// without going to the database. It is a cache, not a source of truth.
type Index map[uuid.UUID]map[calendar.Day]struct{}

func NewIndex(completions []entity.HabitCompletion) Index {
	idx := make(Index)
	for _, c := range completions {
		idx.Add(c.HabitID, c.CompletionDate)
	}
	return idx
}

func (idx Index) Add(habitID uuid.UUID, day calendar.Day) {
	days, ok := idx[habitID]
	if !ok {
		days = make(map[calendar.Day]struct{})
		idx[habitID] = days
	}
	days[day] = struct{}{}
}

func (idx Index) Remove(habitID uuid.UUID, day calendar.Day) {
	days, ok := idx[habitID]
	if !ok {
		return
	}
	delete(days, day)
	if len(days) == 0 {
		delete(idx, habitID)
	}
}

func (idx Index) Has(habitID uuid.UUID, day calendar.Day) bool {
	_, ok := idx[habitID][day]
	return ok
}

// Last returns the most recent completion day of the habit, if any.
func (idx Index) Last(habitID uuid.UUID) (calendar.Day, bool) {
	var last calendar.Day
	for day := range idx[habitID] {
		if day.After(last) {
			last = day
		}
	}
	return last, !last.IsZero()
}

// ByDate collapses the index into the set of days with at least one completion.
func (idx Index) ByDate() map[calendar.Day]bool {
	byDate := make(map[calendar.Day]bool)
	for _, days := range idx {
		for day := range days {
			byDate[day] = true
		}
	}
	return byDate
}

// Snapshot copies the completion set of one habit.
func (idx Index) Snapshot(habitID uuid.UUID) map[calendar.Day]struct{} {
	days, ok := idx[habitID]
	if !ok {
		return nil
	}
	cp := make(map[calendar.Day]struct{}, len(days))
	for day := range days {
		cp[day] = struct{}{}
	}
	return cp
}

// Restore puts back a set taken with Snapshot. A nil set drops the habit.
func (idx Index) Restore(habitID uuid.UUID, days map[calendar.Day]struct{}) {
	if len(days) == 0 {
		delete(idx, habitID)
		return
	}
	idx[habitID] = days
}

// Prune drops completions made before the given day.
func (idx Index) Prune(before calendar.Day) {
	for habitID, days := range idx {
		for day := range days {
			if day.Before(before) {
				delete(days, day)
			}
		}
		if len(days) == 0 {
			delete(idx, habitID)
		}
	}
}
