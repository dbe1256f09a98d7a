package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wayfinder/internal/journey"
	"wayfinder/internal/store"
)

// pause and stop write a status the running orchestrator polls between
// stages, so they work from a second terminal against an active journey.
var pauseCmd = &cobra.Command{
	Use:   "pause <journey-id>",
	Short: "Request a pause after the current stage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setJourneyStatus(cmd, args[0], journey.JourneyPaused)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop <journey-id>",
	Short: "Request an early finish: one final summary stage, then completion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setJourneyStatus(cmd, args[0], journey.JourneyStopped)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <journey-id>",
	Short: "Print a journey and its stages as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.Store.DatabasePath)
		if err != nil {
			return err
		}
		defer st.Close()

		raw, err := st.ExportJourney(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(string(raw))
		return nil
	},
}

func setJourneyStatus(cmd *cobra.Command, id string, status journey.JourneyStatus) error {
	st, err := store.Open(cfg.Store.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SetStatus(cmd.Context(), id, status); err != nil {
		return err
	}
	fmt.Println(mutedStyle.Render(fmt.Sprintf("journey %s: %s requested", id, status)))
	return nil
}
