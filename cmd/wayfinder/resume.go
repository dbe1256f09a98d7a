package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wayfinder/internal/journey"
	"wayfinder/internal/store"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <journey-id>",
	Short: "Resume a paused journey from its persisted state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		st, err := store.Open(cfg.Store.DatabasePath)
		if err != nil {
			return err
		}
		defer st.Close()

		rec, err := st.GetJourney(ctx, args[0])
		if err != nil {
			return err
		}
		if rec.Status == journey.JourneyCompleted {
			return fmt.Errorf("journey %s is already completed", rec.ID)
		}
		stages, err := st.ListStages(ctx, rec.ID)
		if err != nil {
			return err
		}

		orch, err := buildOrchestrator(ctx, st)
		if err != nil {
			return err
		}
		if err := orch.Restore(*rec, stages); err != nil {
			return err
		}

		fmt.Println(titleStyle.Render("wayfinder"),
			mutedStyle.Render(fmt.Sprintf("resuming %s at stage %d", rec.ID, len(stages)+1)))

		if _, err := orch.Resume(ctx); err != nil {
			return err
		}
		return driveJourney(ctx, orch, st)
	},
}
