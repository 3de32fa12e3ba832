package tracker_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limbo/streek/pkg/entity"
)

func TestApplyHabitEvents(t *testing.T) {
	habits := &habitsServiceMock{}
	id := habits.addHabit(userID, "Run", 2, startOfTest.Add(-time.Hour))
	habits.addCompletion(userID, id, today)
	tr := newTracker(t, habits, &progressServiceMock{})
	require.NoError(t, tr.Load(context.Background()))
	ctx := context.Background()

	inserted := &entity.Habit{ID: uuid.New(), UserID: userID, Name: "Journal", Color: "#0051FF", CreatedAt: startOfTest}
	t.Run("insert goes first", func(t *testing.T) {
		require.NoError(t, tr.Apply(ctx, entity.ChangeEvent{Table: entity.TableHabit, Kind: entity.ChangeInsert, UserID: userID, Habit: inserted}))
		list := tr.Habits()
		require.Len(t, list, 2)
		assert.Equal(t, inserted.ID, list[0].ID)
	})
	t.Run("repeated insert is a no-op", func(t *testing.T) {
		require.NoError(t, tr.Apply(ctx, entity.ChangeEvent{Table: entity.TableHabit, Kind: entity.ChangeInsert, UserID: userID, Habit: inserted}))
		assert.Len(t, tr.Habits(), 2)
	})
	t.Run("update keeps derived fields", func(t *testing.T) {
		row := &entity.Habit{ID: id, UserID: userID, Name: "Run", Color: "#FF0000", Streak: 3, CreatedAt: startOfTest.Add(-time.Hour)}
		require.NoError(t, tr.Apply(ctx, entity.ChangeEvent{Table: entity.TableHabit, Kind: entity.ChangeUpdate, UserID: userID, Habit: row}))
		h, ok := tr.Habit(id)
		require.True(t, ok)
		assert.Equal(t, "#FF0000", h.Color)
		assert.Equal(t, 3, h.Streak)
		assert.True(t, h.CompletedToday)
		require.NotNil(t, h.LastCompletedDate)
		assert.Equal(t, today, *h.LastCompletedDate)
	})
	t.Run("event of another user is ignored", func(t *testing.T) {
		other := &entity.Habit{ID: uuid.New(), UserID: uuid.New(), Name: "Other", CreatedAt: startOfTest}
		require.NoError(t, tr.Apply(ctx, entity.ChangeEvent{Table: entity.TableHabit, Kind: entity.ChangeInsert, UserID: other.UserID, Habit: other}))
		assert.Len(t, tr.Habits(), 2)
	})
	t.Run("delete", func(t *testing.T) {
		require.NoError(t, tr.Apply(ctx, entity.ChangeEvent{Table: entity.TableHabit, Kind: entity.ChangeDelete, UserID: userID, HabitID: id}))
		_, ok := tr.Habit(id)
		assert.False(t, ok)
		assert.False(t, tr.HasCompletionsOnDate(today))
		require.NoError(t, tr.Apply(ctx, entity.ChangeEvent{Table: entity.TableHabit, Kind: entity.ChangeDelete, UserID: userID, HabitID: id}))
		assert.Len(t, tr.Habits(), 1)
	})
	t.Run("malformed", func(t *testing.T) {
		assert.Error(t, tr.Apply(ctx, entity.ChangeEvent{Table: entity.TableHabit, Kind: entity.ChangeUpdate, UserID: userID}))
		assert.Error(t, tr.Apply(ctx, entity.ChangeEvent{Table: "profiles", Kind: entity.ChangeUpdate, UserID: userID}))
	})
}

func TestApplyCompletionEvents(t *testing.T) {
	habits := &habitsServiceMock{}
	id := habits.addHabit(userID, "Run", 1, startOfTest)
	habits.addCompletion(userID, id, yesterday)
	tr := newTracker(t, habits, &progressServiceMock{})
	require.NoError(t, tr.Load(context.Background()))
	ctx := context.Background()

	completion := &entity.HabitCompletion{HabitID: id, UserID: userID, CompletionDate: today}
	ev := entity.ChangeEvent{Table: entity.TableHabitCompletion, Kind: entity.ChangeInsert, UserID: userID, Completion: completion}
	t.Run("insert marks today", func(t *testing.T) {
		require.NoError(t, tr.Apply(ctx, ev))
		require.NoError(t, tr.Apply(ctx, ev))
		h, _ := tr.Habit(id)
		assert.True(t, h.CompletedToday)
		assert.Equal(t, today, *h.LastCompletedDate)
		assert.True(t, tr.HasCompletionsOnDate(today))
	})
	t.Run("echo of own completion keeps it done", func(t *testing.T) {
		_, err := tr.Complete(ctx, id)
		assert.Error(t, err)
		h, _ := tr.Habit(id)
		assert.Equal(t, 1, h.Streak)
	})
	t.Run("delete reloads window", func(t *testing.T) {
		habits.mu.Lock()
		habits.completions = nil
		habits.mu.Unlock()
		require.NoError(t, tr.Apply(ctx, entity.ChangeEvent{Table: entity.TableHabitCompletion, Kind: entity.ChangeDelete, UserID: userID, Completion: completion}))
		h, _ := tr.Habit(id)
		assert.False(t, h.CompletedToday)
		assert.Nil(t, h.LastCompletedDate)
		assert.Empty(t, tr.CompletionsByDate())
	})
	t.Run("reload failure is reported", func(t *testing.T) {
		habits.failCompletions = true
		assert.Error(t, tr.Apply(ctx, entity.ChangeEvent{Table: entity.TableHabitCompletion, Kind: entity.ChangeUpdate, UserID: userID}))
	})
}

func TestRunStopsWhenStreamCloses(t *testing.T) {
	habits := &habitsServiceMock{}
	tr := newTracker(t, habits, &progressServiceMock{})
	require.NoError(t, tr.Load(context.Background()))

	events := make(chan entity.ChangeEvent, 2)
	events <- entity.ChangeEvent{Table: entity.TableHabit, Kind: entity.ChangeInsert, UserID: userID,
		Habit: &entity.Habit{ID: uuid.New(), UserID: userID, Name: "Run", CreatedAt: startOfTest}}
	events <- entity.ChangeEvent{Table: "unknown", UserID: userID}
	close(events)

	done := make(chan struct{})
	go func() {
		tr.Run(context.Background(), events)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run didn't stop")
	}
	assert.Len(t, tr.Habits(), 1)
}

func TestRunStopsOnCancel(t *testing.T) {
	tr := newTracker(t, &habitsServiceMock{}, &progressServiceMock{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tr.Run(ctx, make(chan entity.ChangeEvent))
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run didn't stop")
	}
}
