package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/limbo/streek/internal/repository"
	"github.com/limbo/streek/internal/service"
	"github.com/limbo/streek/internal/session"
	"github.com/limbo/streek/internal/tracker"
	"github.com/limbo/streek/pkg/calendar"
)

var (
	sweepUsers   []string
	sweepTimeout time.Duration
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Reset broken streaks of the given users",
	Long: `sweep loads the habits of every --user, resets the streak of each habit
that wasn't completed today or yesterday and prints how many were reset.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(sweepUsers) == 0 {
			return errors.New("sweep: at least one --user is required")
		}
		uids := make([]uuid.UUID, 0, len(sweepUsers))
		for _, raw := range sweepUsers {
			uid, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("sweep: invalid user id %q", raw)
			}
			uids = append(uids, uid)
		}
		loc, err := cfg.GetLocation("TIMEZONE")
		if err != nil {
			return errors.New("sweep: " + err.Error())
		}
		cal := calendar.New(nil, loc)

		pool := repository.NewPool(dbConfig())
		habitsService := service.NewHabitsService(repository.NewHabitsRepo(pool), repository.NewCompletionsRepo(pool))
		progressService := service.NewProgressService(repository.NewProfilesRepo(pool))

		ctx, cancel := context.WithTimeout(cmd.Context(), sweepTimeout)
		defer cancel()
		var errs []error
		for _, uid := range uids {
			t := tracker.New(session.New(uid, time.Time{}), habitsService, progressService, cal)
			reset, err := t.Sync(ctx)
			if err != nil {
				errs = append(errs, fmt.Errorf("user %s: %w", uid, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d habits\t%d reset\n", uid, len(t.Habits()), len(reset))
		}
		return errors.Join(errs...)
	},
}

func init() {
	sweepCmd.Flags().StringSliceVar(&sweepUsers, "user", nil, "user id to sweep (repeatable)")
	sweepCmd.Flags().DurationVar(&sweepTimeout, "timeout", time.Minute, "overall timeout")
}
