package streak_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/limbo/streek/internal/streak"
	"github.com/limbo/streek/pkg/calendar"
	"github.com/limbo/streek/pkg/entity"
)

func TestIndex(t *testing.T) {
	h1, h2 := uuid.New(), uuid.New()
	idx := streak.NewIndex([]entity.HabitCompletion{
		{HabitID: h1, CompletionDate: "2025-03-08"},
		{HabitID: h1, CompletionDate: "2025-03-10"},
		{HabitID: h1, CompletionDate: "2025-03-10"},
		{HabitID: h2, CompletionDate: "2025-03-09"},
	})

	assert.True(t, idx.Has(h1, "2025-03-10"))
	assert.False(t, idx.Has(h2, "2025-03-10"))
	assert.Len(t, idx[h1], 2)
	assert.Equal(t, map[calendar.Day]bool{"2025-03-08": true, "2025-03-09": true, "2025-03-10": true}, idx.ByDate())

	last, ok := idx.Last(h1)
	assert.True(t, ok)
	assert.Equal(t, calendar.Day("2025-03-10"), last)

	_, ok = idx.Last(uuid.New())
	assert.False(t, ok)

	idx.Remove(h2, "2025-03-09")
	_, exists := idx[h2]
	assert.False(t, exists)
	idx.Remove(h2, "2025-03-09")
}

func TestIndexSnapshotRestore(t *testing.T) {
	h := uuid.New()
	idx := make(streak.Index)
	idx.Add(h, "2025-03-09")

	snap := idx.Snapshot(h)
	idx.Add(h, "2025-03-10")
	assert.True(t, idx.Has(h, "2025-03-10"))

	idx.Restore(h, snap)
	assert.False(t, idx.Has(h, "2025-03-10"))
	assert.True(t, idx.Has(h, "2025-03-09"))

	fresh := uuid.New()
	empty := idx.Snapshot(fresh)
	idx.Add(fresh, "2025-03-10")
	idx.Restore(fresh, empty)
	_, exists := idx[fresh]
	assert.False(t, exists)
}

func TestIndexPrune(t *testing.T) {
	h1, h2 := uuid.New(), uuid.New()
	idx := streak.NewIndex([]entity.HabitCompletion{
		{HabitID: h1, CompletionDate: "2025-03-01"},
		{HabitID: h1, CompletionDate: "2025-03-09"},
		{HabitID: h2, CompletionDate: "2025-03-02"},
	})
	idx.Prune("2025-03-03")
	assert.Equal(t, map[calendar.Day]bool{"2025-03-09": true}, idx.ByDate())
	assert.True(t, idx.Has(h1, "2025-03-09"))
	_, ok := idx[h2]
	assert.False(t, ok)
}
