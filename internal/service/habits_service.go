package service

import (
	"context"
	"errors"
	"log"
	"log/slog"

	"github.com/google/uuid"

	errorvalues "github.com/limbo/streek/internal/error_values"
	"github.com/limbo/streek/internal/repository"
	"github.com/limbo/streek/internal/streak"
	"github.com/limbo/streek/pkg/calendar"
	"github.com/limbo/streek/pkg/entity"
)

type HabitsService struct {
	habits      repository.HabitsRepositoryI
	completions repository.CompletionsRepositoryI
	logger      *slog.Logger
}

func NewHabitsService(habitsRepo repository.HabitsRepositoryI, completionsRepo repository.CompletionsRepositoryI) *HabitsService {
	if habitsRepo == nil || completionsRepo == nil {
		log.Fatal("on habits service provided nil repos")
	}
	return &HabitsService{
		habits:      habitsRepo,
		completions: completionsRepo,
		logger:      slog.Default().With(slog.String("component", "habits_service")),
	}
}

func (hs *HabitsService) ListHabits(ctx context.Context, uid uuid.UUID) ([]*entity.Habit, error) {
	if uid == uuid.Nil {
		return nil, errorvalues.ErrUserIDRequired
	}
	habits, err := hs.habits.GetByUserID(ctx, uid)
	if err != nil {
		hs.logger.Error("listing habits failed", slog.String("uid", uid.String()), slog.String("error", err.Error()))
		return nil, errors.New("habits repository error: " + err.Error())
	}
	return habits, nil
}

func (hs *HabitsService) CreateHabit(ctx context.Context, uid uuid.UUID, req CreateHabitRequest) (*entity.Habit, error) {
	if uid == uuid.Nil {
		return nil, errorvalues.ErrUserIDRequired
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	habit, err := hs.habits.Create(ctx, &entity.Habit{
		UserID: uid,
		Name:   req.Name,
		Color:  req.Color,
	})
	if err != nil {
		hs.logger.Error("creating habit failed", slog.String("uid", uid.String()), slog.String("error", err.Error()))
		switch {
		case errors.Is(err, errorvalues.ErrUserNotFound), errors.Is(err, errorvalues.ErrValidation):
			return nil, err
		}
		return nil, errors.New("habits repository error: " + err.Error())
	}
	return habit, nil
}

func (hs *HabitsService) GetHabit(ctx context.Context, uid, habitID uuid.UUID) (*entity.Habit, error) {
	if uid == uuid.Nil {
		return nil, errorvalues.ErrUserIDRequired
	}
	if habitID == uuid.Nil {
		return nil, errorvalues.ErrHabitIDRequired
	}
	habit, err := hs.habits.GetByID(ctx, habitID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			return nil, err
		}
		hs.logger.Error("getting habit failed", slog.String("habit_id", habitID.String()), slog.String("error", err.Error()))
		return nil, errors.New("habits repository error: " + err.Error())
	}
	if habit.UserID != uid {
		return nil, errorvalues.ErrWrongOwner
	}
	return habit, nil
}

func (hs *HabitsService) UpdateHabit(ctx context.Context, uid, habitID uuid.UUID, req UpdateHabitRequest) (*entity.Habit, error) {
	if uid == uuid.Nil {
		return nil, errorvalues.ErrUserIDRequired
	}
	if habitID == uuid.Nil {
		return nil, errorvalues.ErrHabitIDRequired
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	habit, err := hs.habits.Update(ctx, uid, habitID, repository.HabitPatch{
		Name:   req.Name,
		Color:  req.Color,
		Streak: req.Streak,
	})
	if err != nil {
		hs.logger.Error("updating habit failed", slog.String("habit_id", habitID.String()), slog.String("error", err.Error()))
		switch {
		case errors.Is(err, errorvalues.ErrHabitNotFound), errors.Is(err, errorvalues.ErrValidation):
			return nil, err
		}
		return nil, errors.New("habits repository error: " + err.Error())
	}
	return habit, nil
}

func (hs *HabitsService) DeleteHabit(ctx context.Context, uid, habitID uuid.UUID) error {
	if uid == uuid.Nil {
		return errorvalues.ErrUserIDRequired
	}
	if habitID == uuid.Nil {
		return errorvalues.ErrHabitIDRequired
	}
	err := hs.habits.Delete(ctx, uid, habitID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			return err
		}
		hs.logger.Error("deleting habit failed", slog.String("habit_id", habitID.String()), slog.String("error", err.Error()))
		return errors.New("habits repository error: " + err.Error())
	}
	return nil
}

func (hs *HabitsService) ListCompletions(ctx context.Context, uid uuid.UUID, since calendar.Day) (streak.Index, error) {
	if uid == uuid.Nil {
		return nil, errorvalues.ErrUserIDRequired
	}
	completions, err := hs.completions.GetByUserSince(ctx, uid, since)
	if err != nil {
		hs.logger.Error("listing completions failed", slog.String("uid", uid.String()), slog.String("error", err.Error()))
		return nil, errors.New("completions repository error: " + err.Error())
	}
	return streak.NewIndex(completions), nil
}

func (hs *HabitsService) RecordCompletion(ctx context.Context, habitID, uid uuid.UUID, day calendar.Day) error {
	if uid == uuid.Nil {
		return errorvalues.ErrUserIDRequired
	}
	if habitID == uuid.Nil {
		return errorvalues.ErrHabitIDRequired
	}
	if !day.Valid() {
		return errors.Join(errorvalues.ErrValidation, calendar.ErrInvalidDay)
	}
	inserted, err := hs.completions.Create(ctx, entity.HabitCompletion{
		HabitID:        habitID,
		UserID:         uid,
		CompletionDate: day,
	})
	if err != nil {
		hs.logger.Error("recording completion failed", slog.String("habit_id", habitID.String()), slog.String("error", err.Error()))
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			return err
		}
		return errors.New("completions repository error: " + err.Error())
	}
	if !inserted {
		hs.logger.Info("habit already completed on day", slog.String("habit_id", habitID.String()), slog.String("day", day.String()))
	}
	return nil
}

func (hs *HabitsService) LastCompletionDate(ctx context.Context, habitID uuid.UUID) (*calendar.Day, error) {
	if habitID == uuid.Nil {
		return nil, errorvalues.ErrHabitIDRequired
	}
	day, err := hs.completions.GetLastDate(ctx, habitID)
	if err != nil {
		hs.logger.Error("getting last completion failed", slog.String("habit_id", habitID.String()), slog.String("error", err.Error()))
		return nil, errors.New("completions repository error: " + err.Error())
	}
	return day, nil
}

func (hs *HabitsService) CountCompletions(ctx context.Context, uid uuid.UUID) (int, error) {
	if uid == uuid.Nil {
		return 0, errorvalues.ErrUserIDRequired
	}
	count, err := hs.completions.CountByUserID(ctx, uid)
	if err != nil {
		hs.logger.Error("counting completions failed", slog.String("uid", uid.String()), slog.String("error", err.Error()))
		return 0, errors.New("completions repository error: " + err.Error())
	}
	return count, nil
}
