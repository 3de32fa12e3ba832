package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	errorvalues "github.com/limbo/streek/internal/error_values"
)

type ProfilesRepository struct {
	conn PgConnection
}

func NewProfilesRepo(conn PgConnection) *ProfilesRepository {
	return &ProfilesRepository{
		conn: conn,
	}
}

func (pr *ProfilesRepository) Ensure(ctx context.Context, uid uuid.UUID) error {
	_, err := pr.conn.Exec(ctx, `INSERT INTO user_profiles (id) VALUES ($1) ON CONFLICT (id) DO NOTHING;`, uid)
	if err != nil {
		return errors.New("ensuring profile error: " + err.Error())
	}
	return nil
}

func (pr *ProfilesRepository) GetProgress(ctx context.Context, uid uuid.UUID) (int, error) {
	var progress int
	row := pr.conn.QueryRow(ctx, `SELECT progress FROM user_profiles WHERE id = $1;`, uid)
	if err := row.Scan(&progress); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errorvalues.ErrUserNotFound
		}
		return 0, errors.New("getting progress error: " + err.Error())
	}
	return progress, nil
}

// AddProgress adds delta to the stored total in one statement, keeping it within
// [0, maxPoints], and returns the new total. A missing profile starts from zero.
func (pr *ProfilesRepository) AddProgress(ctx context.Context, uid uuid.UUID, delta, maxPoints int) (int, error) {
	var total int
	row := pr.conn.QueryRow(ctx, `INSERT INTO user_profiles (id, progress) VALUES ($1, LEAST(GREATEST($2, 0), $3))
		ON CONFLICT (id) DO UPDATE SET progress = LEAST(GREATEST(user_profiles.progress + $2, 0), $3)
		RETURNING progress;`,
		uid,
		delta,
		maxPoints,
	)
	if err := row.Scan(&total); err != nil {
		return 0, errors.New("updating progress error: " + err.Error())
	}
	return total, nil
}
