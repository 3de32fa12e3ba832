package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

import (
	"context"

	"github.com/google/uuid"

	"github.com/limbo/streek/internal/streak"
	"github.com/limbo/streek/internal/tree"
	"github.com/limbo/streek/pkg/calendar"
	"github.com/limbo/streek/pkg/entity"
)

type CreateHabitRequest struct {
	Name  string `validate:"required,notblank,max=100"`
	Color string `validate:"required,hexcolor"`
}

// UpdateHabitRequest changes only the non-nil fields.
type UpdateHabitRequest struct {
	Name   *string `validate:"omitempty,notblank,max=100"`
	Color  *string `validate:"omitempty,hexcolor"`
	Streak *int    `validate:"omitempty,min=0"`
}

type HabitsServiceI interface {
	// Lists user's habits, newest first
	ListHabits(ctx context.Context, uid uuid.UUID) ([]*entity.Habit, error)
	// Validates request and stores new habit owned by uid
	CreateHabit(ctx context.Context, uid uuid.UUID, req CreateHabitRequest) (*entity.Habit, error)
	GetHabit(ctx context.Context, uid, habitID uuid.UUID) (*entity.Habit, error)
	UpdateHabit(ctx context.Context, uid, habitID uuid.UUID, req UpdateHabitRequest) (*entity.Habit, error)
	DeleteHabit(ctx context.Context, uid, habitID uuid.UUID) error
	// Builds completions index of the user for days since the given one
	ListCompletions(ctx context.Context, uid uuid.UUID, since calendar.Day) (streak.Index, error)
	// Records completion of habit on day. Recording the same day twice succeeds
	RecordCompletion(ctx context.Context, habitID, uid uuid.UUID, day calendar.Day) error
	LastCompletionDate(ctx context.Context, habitID uuid.UUID) (*calendar.Day, error)
	// Counts all completions ever made by the user
	CountCompletions(ctx context.Context, uid uuid.UUID) (int, error)
}

type ProgressServiceI interface {
	EnsureProfile(ctx context.Context, uid uuid.UUID) error
	GetProgress(ctx context.Context, uid uuid.UUID) (int, error)
	// Adds delta to the user's points, keeping the total within [0, tree.MaxPoints]
	AddPoints(ctx context.Context, uid uuid.UUID, delta int) (int, error)
	Snapshot(ctx context.Context, uid uuid.UUID) (tree.Snapshot, error)
}
