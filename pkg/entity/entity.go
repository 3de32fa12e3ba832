package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/limbo/streek/pkg/calendar"
)

const (
	TableHabit           = "habit"
	TableHabitCompletion = "habit_completion"
)

type Habit struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Streak    int       `json:"streak"`
	CreatedAt time.Time `json:"created_at"`
	// Derived per session, never persisted
	CompletedToday    bool          `json:"completed_today"`
	LastCompletedDate *calendar.Day `json:"last_completed_date,omitempty"`
}

type HabitCompletion struct {
	HabitID        uuid.UUID    `json:"habit_id"`
	UserID         uuid.UUID    `json:"user_id"`
	CompletionDate calendar.Day `json:"completion_date"`
}

type HabitStats struct {
	LongestStreak  int `json:"longest_streak"`
	CurrentStreaks int `json:"current_streaks"`
	HabitsDone     int `json:"habits_done"`
}

type ChangeKind string

const (
	ChangeInsert ChangeKind = "INSERT"
	ChangeUpdate ChangeKind = "UPDATE"
	ChangeDelete ChangeKind = "DELETE"
)

// ChangeEvent is one row change pushed from the database for a single user.
// Habit is set for habit inserts and updates, HabitID for habit deletes,
// Completion for completion events.
type ChangeEvent struct {
	Table      string
	Kind       ChangeKind
	UserID     uuid.UUID
	Habit      *Habit
	HabitID    uuid.UUID
	Completion *HabitCompletion
}
