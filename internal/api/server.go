package api

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/limbo/streek/internal/service"
)

type Server struct {
	mx              *chi.Mux
	trackers        TrackerRegistryI
	progressService service.ProgressServiceI
	jwtService      JWTServiceI
	requestTimeout  time.Duration
}

type ServicesList struct {
	Trackers        TrackerRegistryI
	ProgressService service.ProgressServiceI
	JwtService      JWTServiceI
}

func New(servicesOptions *ServicesList) *Server {
	if servicesOptions == nil || servicesOptions.Trackers == nil ||
		servicesOptions.ProgressService == nil || servicesOptions.JwtService == nil {
		log.Fatal("on api server provided nil services")
	}
	s := &Server{
		mx:              chi.NewMux(),
		trackers:        servicesOptions.Trackers,
		progressService: servicesOptions.ProgressService,
		jwtService:      servicesOptions.JwtService,
		requestTimeout:  10 * time.Second,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mx.Use(s.RequestIDMiddleware, s.SettingUpLoggerMiddleware)
	s.mx.Get("/healthz", s.Health)
	s.mx.Route("/api/v1", func(r chi.Router) {
		r.Use(s.AuthMiddleware, s.LoggerExtensionMiddleware)
		r.Get("/habits", s.GetHabits)
		r.Post("/habits", s.CreateHabit)
		r.Patch("/habits/{id}", s.UpdateHabit)
		r.Delete("/habits/{id}", s.DeleteHabit)
		r.Post("/habits/{id}/complete", s.CompleteHabit)
		r.Get("/completions", s.GetCompletions)
		r.Post("/sync", s.Sync)
		r.Get("/progress", s.GetProgress)
		r.Get("/stats", s.GetStats)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mx.ServeHTTP(w, r)
}

// Run serves on address until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("api server started", slog.String("address", address))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.New("server shutdown error: " + err.Error())
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
