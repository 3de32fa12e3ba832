// @title Streek API
// @description API for habit-tracker app "Streek"
// @BasePath /api/v1
// @schemes http
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/limbo/streek/internal/api"
	"github.com/limbo/streek/internal/realtime"
	"github.com/limbo/streek/internal/repository"
	"github.com/limbo/streek/internal/scheduler"
	"github.com/limbo/streek/internal/service"
	"github.com/limbo/streek/internal/tracker"
	"github.com/limbo/streek/pkg/calendar"
	"github.com/limbo/streek/pkg/cleanup"
	"github.com/limbo/streek/pkg/config"
	jwtservice "github.com/limbo/streek/pkg/jwt_service"
	"github.com/limbo/streek/pkg/logger"
)

func init() {
	service.InitValidator()
}

func main() {
	cfg := config.New()
	if _, err := logger.Setup(logger.Config{
		Level: cfg.GetString("LOG_LEVEL"),
		File:  cfg.GetString("LOG_FILE"),
	}); err != nil {
		log.Fatal("setting up logger error: " + err.Error())
	}
	defer cleanup.CleanUp()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbCfg := repository.PGCfg{
		Address:  cfg.GetString("POSTGRES_DB_ADDRESS"),
		Username: cfg.GetString("POSTGRES_USER"),
		Password: cfg.GetString("POSTGRES_PASSWORD"),
		DB:       cfg.GetString("POSTGRES_DB"),
	}
	if dir := cfg.GetString("MIGRATIONS_DIR"); dir != "" {
		if err := repository.Migrate(&dbCfg, dir); err != nil {
			slog.Error("migrations failed", slog.String("error", err.Error()))
			return
		}
	}
	loc, err := cfg.GetLocation("TIMEZONE")
	if err != nil {
		slog.Error("invalid TIMEZONE", slog.String("error", err.Error()))
		return
	}
	cal := calendar.New(nil, loc)

	pool := repository.NewPool(&dbCfg)
	habitsService := service.NewHabitsService(repository.NewHabitsRepo(pool), repository.NewCompletionsRepo(pool))
	progressService := service.NewProgressService(repository.NewProfilesRepo(pool))

	hub := realtime.NewHub()
	listener := realtime.NewListener(realtime.NewPoolSource(pool), hub)
	go func() {
		if err := listener.Run(ctx); err != nil {
			slog.Error("change listener stopped", slog.String("error", err.Error()))
		}
	}()

	registry := tracker.NewRegistry(habitsService, progressService, cal, hub)
	cleanup.Register(&cleanup.Job{Name: "closing trackers", F: registry.Close})

	sched, err := scheduler.New(registry, cal, cfg.GetDuration("SWEEP_TIMEOUT", time.Minute))
	if err != nil {
		slog.Error("scheduler setup failed", slog.String("error", err.Error()))
		return
	}
	sched.Start()
	cleanup.Register(&cleanup.Job{Name: "stopping scheduler", F: sched.Shutdown})

	serv := api.New(&api.ServicesList{
		Trackers:        registry,
		ProgressService: progressService,
		JwtService:      jwtservice.New(cfg.GetString("JWT_SECRET")),
	})
	err = serv.Run(ctx, cfg.GetStringOr("API_ADDRESS", ":8080"))
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("server error", slog.String("error", err.Error()))
	}
}
