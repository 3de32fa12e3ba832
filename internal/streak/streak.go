// Package streak holds the calendar-day rules for keeping, growing and resetting habit streaks.
package streak

import (
	"github.com/google/uuid"

	"github.com/limbo/streek/pkg/calendar"
	"github.com/limbo/streek/pkg/entity"
)

// Window is how many days back completions are loaded into the Index.
const Window = 7

// ShouldReset reports whether the habit's streak is broken as of today.
// A completion today or yesterday keeps it alive.
func ShouldReset(idx Index, habitID uuid.UUID, today calendar.Day) bool {
	yesterday := today.AddDays(-1)
	if idx.Has(habitID, today) || idx.Has(habitID, yesterday) {
		return false
	}
	last, ok := idx.Last(habitID)
	if !ok || last.Before(yesterday) {
		return true
	}
	return false
}

// Next is the streak after completing a habit today. The stored streak is trusted as is;
// the reset sweep is what invalidates it after a missed day.
func Next(prior int, lastCompleted *calendar.Day) int {
	if prior <= 0 || lastCompleted == nil {
		return 1
	}
	return prior + 1
}

// ToReset lists habits with a positive streak that have to be reset.
func ToReset(habits []*entity.Habit, idx Index, today calendar.Day) []uuid.UUID {
	ids := make([]uuid.UUID, 0)
	for _, h := range habits {
		if h.Streak > 0 && ShouldReset(idx, h.ID, today) {
			ids = append(ids, h.ID)
		}
	}
	return ids
}
