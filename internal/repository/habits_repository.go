package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	errorvalues "github.com/limbo/streek/internal/error_values"
	"github.com/limbo/streek/pkg/entity"
)

type HabitsRepository struct {
	conn PgConnection
}

func NewHabitsRepo(conn PgConnection) *HabitsRepository {
	return &HabitsRepository{
		conn: conn,
	}
}

func (hr *HabitsRepository) Create(ctx context.Context, habit *entity.Habit) (*entity.Habit, error) {
	created := entity.Habit{
		UserID: habit.UserID,
		Name:   habit.Name,
		Color:  habit.Color,
	}
	row := hr.conn.QueryRow(ctx, `INSERT INTO habit (user_id, name, color) VALUES ($1, $2, $3) RETURNING id, streak, created_at;`,
		habit.UserID,
		habit.Name,
		habit.Color,
	)
	if err := row.Scan(&created.ID, &created.Streak, &created.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case codeForeignKeyViolation:
				return nil, errorvalues.ErrUserNotFound
			case codeCheckViolation:
				return nil, errorvalues.ErrValidation
			}
		}
		return nil, errors.New("creating habit db error: " + err.Error())
	}
	return &created, nil
}

func (hr *HabitsRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Habit, error) {
	var habit entity.Habit
	habit.ID = id
	row := hr.conn.QueryRow(ctx, `SELECT user_id, name, color, streak, created_at FROM habit WHERE id = $1;`, id)
	if err := row.Scan(&habit.UserID, &habit.Name, &habit.Color, &habit.Streak, &habit.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrHabitNotFound
		}
		return nil, errors.New("getting habit by id error: " + err.Error())
	}
	return &habit, nil
}

func (hr *HabitsRepository) GetByUserID(ctx context.Context, uid uuid.UUID) ([]*entity.Habit, error) {
	habits := make([]*entity.Habit, 0)
	rows, err := hr.conn.Query(ctx, `SELECT id, user_id, name, color, streak, created_at
		FROM habit WHERE user_id = $1 ORDER BY created_at DESC;`, uid)
	if err != nil {
		return nil, errors.New("getting habits by uid error: " + err.Error())
	}
	defer rows.Close()
	for rows.Next() {
		h := entity.Habit{}
		err = rows.Scan(&h.ID, &h.UserID, &h.Name, &h.Color, &h.Streak, &h.CreatedAt)
		if err != nil {
			return nil, errors.New("unmarshalling habit error: " + err.Error())
		}
		habits = append(habits, &h)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.New("unexpected error after scanning: " + err.Error())
	}
	return habits, nil
}

func (hr *HabitsRepository) Update(ctx context.Context, uid, id uuid.UUID, patch HabitPatch) (*entity.Habit, error) {
	habit := entity.Habit{
		ID:     id,
		UserID: uid,
	}
	row := hr.conn.QueryRow(ctx, `UPDATE habit SET name = COALESCE($1, name), color = COALESCE($2, color), streak = COALESCE($3, streak)
		WHERE id = $4 AND user_id = $5 RETURNING name, color, streak, created_at;`,
		patch.Name, patch.Color, patch.Streak, id, uid,
	)
	if err := row.Scan(&habit.Name, &habit.Color, &habit.Streak, &habit.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrHabitNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == codeCheckViolation {
			return nil, errorvalues.ErrValidation
		}
		return nil, errors.New("error updating habit: " + err.Error())
	}
	return &habit, nil
}

func (hr *HabitsRepository) Delete(ctx context.Context, uid, id uuid.UUID) error {
	ct, err := hr.conn.Exec(ctx, `DELETE FROM habit WHERE id = $1 AND user_id = $2;`, id, uid)
	if err != nil {
		return errors.New("error deleting habit: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrHabitNotFound
	}
	return nil
}
