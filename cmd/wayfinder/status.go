package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wayfinder/internal/journey"
	"wayfinder/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status [journey-id]",
	Short: "Show journeys, or the stage history of one journey",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.Store.DatabasePath)
		if err != nil {
			return err
		}
		defer st.Close()

		if len(args) == 0 {
			return listJourneys(cmd, st)
		}
		return showJourney(cmd, st, args[0])
	},
}

func listJourneys(cmd *cobra.Command, st *store.Store) error {
	recs, err := st.ListJourneys(cmd.Context(), "")
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println(mutedStyle.Render("no journeys yet; start one with: wayfinder run \"...\""))
		return nil
	}

	fmt.Println(titleStyle.Render("journeys"))
	for _, rec := range recs {
		input := rec.Input
		if len(input) > 60 {
			input = input[:60] + "..."
		}
		line := fmt.Sprintf("%s  %-10s  stage %d  %s",
			rec.ID, rec.Status, rec.CurrentStageIndex, input)
		if rec.Status == journey.JourneyCompleted {
			fmt.Println(mutedStyle.Render(line))
		} else {
			fmt.Println(line)
		}
	}
	return nil
}

func showJourney(cmd *cobra.Command, st *store.Store, id string) error {
	rec, err := st.GetJourney(cmd.Context(), id)
	if err != nil {
		return err
	}
	stages, err := st.ListStages(cmd.Context(), id)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Journey %s\n\n", rec.ID)
	fmt.Fprintf(&b, "**Input:** %s\n\n", rec.Input)
	fmt.Fprintf(&b, "**Status:** %s after %d stage(s)\n\n", rec.Status, rec.CurrentStageIndex)
	if len(stages) > 0 {
		b.WriteString("| # | Type | Status | Completed |\n|---|------|--------|-----------|\n")
		for _, s := range stages {
			completed := "-"
			if !s.CompletedAt.IsZero() {
				completed = s.CompletedAt.Local().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", s.Number, s.Type, s.Status, completed)
		}
	}
	fmt.Println(renderMarkdown(b.String()))
	return nil
}
