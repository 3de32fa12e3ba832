package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/limbo/streek/pkg/calendar"
	"github.com/limbo/streek/pkg/entity"
)

type HabitsRepositoryI interface {
	// Creates new habit. Only UserID, Name and Color are taken from habit; the stored row is returned
	Create(ctx context.Context, habit *entity.Habit) (*entity.Habit, error)
	// Searches habit with given id
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Habit, error)
	// Lists habits owned by user with uid, newest first
	GetByUserID(ctx context.Context, uid uuid.UUID) ([]*entity.Habit, error)
	// Applies non-nil fields of patch to the habit if it's owned by uid
	Update(ctx context.Context, uid, id uuid.UUID, patch HabitPatch) (*entity.Habit, error)
	// Deletes habit with id owned by uid
	Delete(ctx context.Context, uid, id uuid.UUID) error
}

type CompletionsRepositoryI interface {
	// Stores completion. Existing (habit, date) pair is kept and reported as not inserted
	Create(ctx context.Context, completion entity.HabitCompletion) (bool, error)
	// Lists user's completions made on since or later, most recent first
	GetByUserSince(ctx context.Context, uid uuid.UUID, since calendar.Day) ([]entity.HabitCompletion, error)
	// Returns date of the last completion of habitID, nil if it was never completed
	GetLastDate(ctx context.Context, habitID uuid.UUID) (*calendar.Day, error)
	// Returns count of all user's completions
	CountByUserID(ctx context.Context, uid uuid.UUID) (int, error)
}

type ProfilesRepositoryI interface {
	// Creates empty profile for uid if there is none
	Ensure(ctx context.Context, uid uuid.UUID) error
	// Returns user's point total
	GetProgress(ctx context.Context, uid uuid.UUID) (int, error)
	// Atomically adds delta to the total, clamped to [0, maxPoints], creating the profile when needed
	AddProgress(ctx context.Context, uid uuid.UUID, delta, maxPoints int) (int, error)
}

// HabitPatch holds fields to change, nil means "leave as is".
type HabitPatch struct {
	Name   *string
	Color  *string
	Streak *int
}

type DBConfig interface {
	ConnString() string
}

type PgConnection interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGCfg struct {
	Address  string
	Username string
	Password string
	DB       string
}

func (pgcfg *PGCfg) ConnString() string {
	return fmt.Sprintf("postgresql://%s:%s@%s/%s", pgcfg.Username, pgcfg.Password, pgcfg.Address, pgcfg.DB)
}
