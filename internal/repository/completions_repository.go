package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	errorvalues "github.com/limbo/streek/internal/error_values"
	"github.com/limbo/streek/pkg/calendar"
	"github.com/limbo/streek/pkg/entity"
)

type CompletionsRepository struct {
	conn PgConnection
}

func NewCompletionsRepo(conn PgConnection) *CompletionsRepository {
	return &CompletionsRepository{
		conn: conn,
	}
}

func (cr *CompletionsRepository) Create(ctx context.Context, completion entity.HabitCompletion) (bool, error) {
	ct, err := cr.conn.Exec(
		ctx,
		`INSERT INTO habit_completion (habit_id, user_id, completion_date) VALUES ($1, $2, $3)
		ON CONFLICT (habit_id, completion_date) DO NOTHING;`,
		completion.HabitID,
		completion.UserID,
		completion.CompletionDate.Time(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// Concurrent insert won the race, the row is there
			case codeUniqueViolation:
				return false, nil
			case codeForeignKeyViolation:
				return false, errorvalues.ErrHabitNotFound
			}
		}
		return false, errors.New("creating completion error: " + err.Error())
	}
	return ct.RowsAffected() > 0, nil
}

func (cr *CompletionsRepository) GetByUserSince(ctx context.Context, uid uuid.UUID, since calendar.Day) ([]entity.HabitCompletion, error) {
	rows, err := cr.conn.Query(
		ctx,
		`SELECT habit_id, completion_date FROM habit_completion WHERE user_id = $1 AND completion_date >= $2
		ORDER BY completion_date DESC;`,
		uid,
		since.Time(),
	)
	if err != nil {
		return nil, errors.New("getting completions since date error: " + err.Error())
	}
	defer rows.Close()
	result := make([]entity.HabitCompletion, 0)
	for rows.Next() {
		var (
			habitID uuid.UUID
			date    time.Time
		)
		if err = rows.Scan(&habitID, &date); err != nil {
			return nil, errors.New("completion row parsing error: " + err.Error())
		}
		result = append(result, entity.HabitCompletion{
			HabitID:        habitID,
			UserID:         uid,
			CompletionDate: calendar.DayOf(date),
		})
	}
	if err = rows.Err(); err != nil {
		return nil, errors.New("unexpected completion rows error: " + err.Error())
	}
	return result, nil
}

func (cr *CompletionsRepository) GetLastDate(ctx context.Context, habitID uuid.UUID) (*calendar.Day, error) {
	row := cr.conn.QueryRow(
		ctx,
		`SELECT completion_date FROM habit_completion WHERE habit_id = $1 ORDER BY completion_date DESC LIMIT 1;`,
		habitID,
	)
	var date time.Time
	if err := row.Scan(&date); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.New("getting last completion date error: " + err.Error())
	}
	day := calendar.DayOf(date)
	return &day, nil
}

func (cr *CompletionsRepository) CountByUserID(ctx context.Context, uid uuid.UUID) (int, error) {
	row := cr.conn.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM habit_completion WHERE user_id = $1;`,
		uid,
	)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, errors.New("error counting completions: " + err.Error())
	}
	return count, nil
}
