package service

import (
	"context"
	"errors"
	"log"
	"log/slog"

	"github.com/google/uuid"

	errorvalues "github.com/limbo/streek/internal/error_values"
	"github.com/limbo/streek/internal/repository"
	"github.com/limbo/streek/internal/tree"
)

type ProgressService struct {
	repo   repository.ProfilesRepositoryI
	logger *slog.Logger
}

func NewProgressService(profilesRepo repository.ProfilesRepositoryI) *ProgressService {
	if profilesRepo == nil {
		log.Fatal("provided nil profilesRepo")
	}
	return &ProgressService{
		repo:   profilesRepo,
		logger: slog.Default().With(slog.String("component", "progress_service")),
	}
}

func (ps *ProgressService) EnsureProfile(ctx context.Context, uid uuid.UUID) error {
	if uid == uuid.Nil {
		return errorvalues.ErrUserIDRequired
	}
	if err := ps.repo.Ensure(ctx, uid); err != nil {
		ps.logger.Error("ensuring profile failed", slog.String("uid", uid.String()), slog.String("error", err.Error()))
		return errors.New("profiles repository error: " + err.Error())
	}
	return nil
}

// GetProgress returns the user's points; a user without a profile has none.
func (ps *ProgressService) GetProgress(ctx context.Context, uid uuid.UUID) (int, error) {
	if uid == uuid.Nil {
		return 0, errorvalues.ErrUserIDRequired
	}
	points, err := ps.repo.GetProgress(ctx, uid)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			return 0, nil
		}
		ps.logger.Error("getting progress failed", slog.String("uid", uid.String()), slog.String("error", err.Error()))
		return 0, errors.New("profiles repository error: " + err.Error())
	}
	return tree.Clamp(points), nil
}

// AddPoints adds delta to the user's points. The clamp happens in the same statement
// as the write, so concurrent completions don't lose points.
func (ps *ProgressService) AddPoints(ctx context.Context, uid uuid.UUID, delta int) (int, error) {
	if uid == uuid.Nil {
		return 0, errorvalues.ErrUserIDRequired
	}
	// bounded so huge deltas can't overflow the column
	delta = min(max(delta, -tree.MaxPoints), tree.MaxPoints)
	total, err := ps.repo.AddProgress(ctx, uid, delta, tree.MaxPoints)
	if err != nil {
		ps.logger.Error("updating progress failed", slog.String("uid", uid.String()), slog.String("error", err.Error()))
		return 0, errors.New("profiles repository error: " + err.Error())
	}
	return total, nil
}

func (ps *ProgressService) Snapshot(ctx context.Context, uid uuid.UUID) (tree.Snapshot, error) {
	points, err := ps.GetProgress(ctx, uid)
	if err != nil {
		return tree.Snapshot{}, err
	}
	return tree.SnapshotOf(points), nil
}
