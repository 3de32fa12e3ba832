package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	errorvalues "github.com/limbo/streek/internal/error_values"
	"github.com/limbo/streek/internal/service"
	"github.com/limbo/streek/internal/tracker"
	"github.com/limbo/streek/internal/tree"
	"github.com/limbo/streek/pkg/calendar"
	"github.com/limbo/streek/pkg/entity"
	"github.com/limbo/streek/pkg/httputil"
)

type CreateHabitRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type UpdateHabitRequest struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

type GetHabitsResponse struct {
	UserID string         `json:"uid"`
	Habits []entity.Habit `json:"habits"`
}

type CompleteHabitResponse struct {
	Habit    entity.Habit   `json:"habit"`
	Progress *tree.Snapshot `json:"progress,omitempty"`
}

type GetCompletionsResponse struct {
	Dates []calendar.Day `json:"dates"`
}

type SyncResponse struct {
	Reset  []uuid.UUID    `json:"reset"`
	Habits []entity.Habit `json:"habits"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sessionTracker resolves the tracker of the request's session, answering the request itself on failure.
func (s *Server) sessionTracker(ctx context.Context, w http.ResponseWriter, r *http.Request) (*tracker.Tracker, bool) {
	logger := GetLoggerFromCtx(r.Context())
	sess, err := GetSessionFromContext(r)
	if err != nil {
		logger.Error("unauthorized request")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return nil, false
	}
	t, err := s.trackers.Get(ctx, sess)
	if err != nil {
		logger.Error("loading session state error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "couldn't load habits", nil)
		return nil, false
	}
	return t, true
}

func (s *Server) GetHabits(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()
	t, ok := s.sessionTracker(ctx, w, r)
	if !ok {
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, GetHabitsResponse{
		UserID: t.UserID().String(),
		Habits: t.Habits(),
	})
	logger.Info("habits provided")
}

func (s *Server) CreateHabit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var req CreateHabitRequest
	defer r.Body.Close()
	err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("create habit error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()
	t, ok := s.sessionTracker(ctx, w, r)
	if !ok {
		return
	}
	habit, err := t.CreateHabit(ctx, service.CreateHabitRequest{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		writeServiceError(w, logger, "create habit", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, habit)
	logger.Info("habit created", slog.String("habit_id", habit.ID.String()))
}

func (s *Server) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("update habit error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid habit id in path value", nil)
		return
	}
	var req UpdateHabitRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("update habit error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()
	t, ok := s.sessionTracker(ctx, w, r)
	if !ok {
		return
	}
	habit, err := t.UpdateHabit(ctx, id, service.UpdateHabitRequest{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		writeServiceError(w, logger, "update habit", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, habit)
	logger.Info("habit updated", slog.String("habit_id", id.String()))
}

func (s *Server) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("habit deletion error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid habit id in path value", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()
	t, ok := s.sessionTracker(ctx, w, r)
	if !ok {
		return
	}
	if err = t.Remove(ctx, id); err != nil {
		writeServiceError(w, logger, "habit deletion", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	logger.Info("habit deleted", slog.String("habit_id", id.String()))
}

func (s *Server) CompleteHabit(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("complete habit error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid habit id in path value", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()
	t, ok := s.sessionTracker(ctx, w, r)
	if !ok {
		return
	}
	habit, err := t.Complete(ctx, id)
	if err != nil {
		writeServiceError(w, logger, "complete habit", err)
		return
	}
	resp := CompleteHabitResponse{Habit: habit}
	if snap, err := s.progressService.Snapshot(ctx, t.UserID()); err == nil {
		resp.Progress = &snap
	} else {
		logger.Warn("reading progress after completion failed", slog.String("error", err.Error()))
	}
	httputil.WriteJSONResponse(w, http.StatusOK, resp)
	logger.Info("habit completed", slog.String("habit_id", id.String()), slog.Int("streak", habit.Streak))
}

func (s *Server) GetCompletions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()
	t, ok := s.sessionTracker(ctx, w, r)
	if !ok {
		return
	}
	if raw := r.URL.Query().Get("date"); raw != "" {
		day, err := calendar.Parse(raw)
		if err != nil {
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD", nil)
			return
		}
		httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{
			"date":            day,
			"has_completions": t.HasCompletionsOnDate(day),
		})
		return
	}
	byDate := t.CompletionsByDate()
	dates := make([]calendar.Day, 0, len(byDate))
	for day := range byDate {
		dates = append(dates, day)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	httputil.WriteJSONResponse(w, http.StatusOK, GetCompletionsResponse{Dates: dates})
}

func (s *Server) Sync(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()
	t, ok := s.sessionTracker(ctx, w, r)
	if !ok {
		return
	}
	reset, err := t.Sync(ctx)
	if err != nil {
		logger.Error("sync error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusBadGateway, "couldn't reload habits", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, SyncResponse{Reset: reset, Habits: t.Habits()})
	logger.Info("session state reloaded", slog.Int("reset", len(reset)))
}

func (s *Server) GetProgress(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	sess, err := GetSessionFromContext(r)
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()
	snap, err := s.progressService.Snapshot(ctx, sess.UserID)
	if err != nil {
		writeServiceError(w, logger, "get progress", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, snap)
}

func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()
	t, ok := s.sessionTracker(ctx, w, r)
	if !ok {
		return
	}
	stats, err := t.Stats(ctx)
	if err != nil {
		writeServiceError(w, logger, "get stats", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, stats)
}

func writeServiceError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, errorvalues.ErrValidation):
		logger.Error(op+" error: validation", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid habit fields", err)
	case errors.Is(err, errorvalues.ErrUserIDRequired), errors.Is(err, errorvalues.ErrHabitIDRequired):
		logger.Error(op + " error: missing id")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "missing id", nil)
	case errors.Is(err, errorvalues.ErrHabitNotFound), errors.Is(err, errorvalues.ErrWrongOwner):
		logger.Error(op + " error: unexist habit")
		httputil.WriteErrorResponse(w, http.StatusNotFound, "habit doesn't exist", nil)
	case errors.Is(err, errorvalues.ErrUserNotFound):
		logger.Error(op + " error: unexist user")
		httputil.WriteErrorResponse(w, http.StatusNotFound, "user doesn't exist", nil)
	case errors.Is(err, errorvalues.ErrAlreadyCompletedToday):
		logger.Info(op + " rejected: already completed today")
		httputil.WriteErrorResponse(w, http.StatusConflict, "habit already completed today", nil)
	case errors.Is(err, errorvalues.ErrSyncFailed):
		logger.Error(op+" error: remote write failed", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusBadGateway, errorvalues.ErrSyncFailed.Error(), nil)
	default:
		logger.Error(op+" error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error", nil)
	}
}
