// Package scheduler runs the streak sweep at every local midnight.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/limbo/streek/pkg/calendar"
)

const SweepJobName = "streak-sweep"

// Sweeper resets broken streaks of every tracked user and reports how many were reset.
type Sweeper interface {
	SweepAll(ctx context.Context) (int, error)
}

type Scheduler struct {
	sched   gocron.Scheduler
	sweeper Sweeper
	timeout time.Duration
	logger  *slog.Logger
}

// New registers the midnight sweep in the calendar's location. The scheduler
// runs on the calendar's clock.
func New(sweeper Sweeper, cal *calendar.Calendar, timeout time.Duration) (*Scheduler, error) {
	if sweeper == nil {
		return nil, errors.New("scheduler: nil sweeper")
	}
	if cal == nil {
		cal = calendar.New(nil, nil)
	}
	sched, err := gocron.NewScheduler(
		gocron.WithClock(cal.Clock()),
		gocron.WithLocation(cal.Location()),
	)
	if err != nil {
		return nil, errors.New("creating scheduler error: " + err.Error())
	}
	s := &Scheduler{
		sched:   sched,
		sweeper: sweeper,
		timeout: timeout,
		logger:  slog.Default().With(slog.String("component", "scheduler")),
	}
	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 0))),
		gocron.NewTask(s.Sweep),
		gocron.WithName(SweepJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, errors.New("registering sweep job error: " + err.Error())
	}
	return s, nil
}

// Sweep runs one sweep. Failures are logged, the next midnight retries.
func (s *Scheduler) Sweep() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	count, err := s.sweeper.SweepAll(ctx)
	if err != nil {
		s.logger.Error("streak sweep finished with errors", slog.Int("reset", count), slog.String("error", err.Error()))
		return
	}
	s.logger.Info("streak sweep finished", slog.Int("reset", count), slog.Duration("took", time.Since(start)))
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

// NextRun is when the next sweep is due.
func (s *Scheduler) NextRun() (time.Time, error) {
	for _, j := range s.sched.Jobs() {
		if j.Name() == SweepJobName {
			return j.NextRun()
		}
	}
	return time.Time{}, errors.New("sweep job isn't registered")
}

func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}
