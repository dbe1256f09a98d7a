package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"wayfinder/internal/insight"
	"wayfinder/internal/journey"
	"wayfinder/internal/perception"
	"wayfinder/internal/scoring"
	"wayfinder/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run <input>",
	Short: "Start a new exploration journey",
	Args:  cobra.MinimumNArgs(1),
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

		orch, err := buildOrchestrator(ctx, st)
		if err != nil {
			return err
		}

		input := strings.Join(args, " ")
		fmt.Println(titleStyle.Render("wayfinder"), mutedStyle.Render(input))

		if _, err := orch.Start(ctx, input); err != nil {
			return err
		}
		return driveJourney(ctx, orch, st)
	},
}

// buildOrchestrator assembles the generative client and collaborators from
// the loaded configuration.
func buildOrchestrator(ctx context.Context, st *store.Store) (*journey.Orchestrator, error) {
	llm, err := perception.NewGeminiClient(ctx, perception.GeminiConfig{
		APIKey:          cfg.LLM.APIKey,
		Model:           cfg.LLM.Model,
		IncludeThoughts: cfg.LLM.IncludeThoughts,
	}, logger.Named("llm"))
	if err != nil {
		return nil, err
	}

	return journey.New(journey.Deps{
		LLM:      llm,
		Scorer:   scoring.NewScorer(llm, logger.Named("scoring")),
		Insights: insight.NewExtractor(llm, logger.Named("insight")),
		Store:    st,
		Logger:   logger,
	}, journey.Config{
		MaxStages:       cfg.Journey.MaxStages,
		StageDelay:      cfg.GetStageDelay(),
		AutoAdvance:     true,
		Streaming:       cfg.Journey.Streaming,
		RevisionEnabled: cfg.Journey.RevisionEnabled,
		DedupThreshold:  cfg.Similarity.DedupThreshold,
		MatchThreshold:  cfg.Similarity.MatchThreshold,
	}), nil
}

// driveJourney watches a started journey until it completes or pauses. An
// interrupt requests a pause through the store; the orchestrator picks it up
// between stages, so the in-flight stage finishes cleanly first.
func driveJourney(ctx context.Context, orch *journey.Orchestrator, st *store.Store) error {
	journeyID := orch.Context().JourneyID

	consumerDone := make(chan struct{})
	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error {
		defer close(consumerDone)
		return consumeEvents(orch)
	})
	g.Go(func() error {
		select {
		case <-consumerDone:
		case <-ctx.Done():
			fmt.Println()
			fmt.Println(mutedStyle.Render("interrupt received, pausing after the current stage..."))
			pauseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := st.SetStatus(pauseCtx, journeyID, journey.JourneyPaused); err != nil {
				logger.Warn("pause request failed", zap.Error(err))
			}
		case <-orch.Done():
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	snap := orch.Context()
	if snap.Status == journey.JourneyCompleted {
		fmt.Println(renderMarkdown(orch.Summary()))
	} else {
		fmt.Println(mutedStyle.Render(fmt.Sprintf("journey %s paused after stage %d; resume with: wayfinder resume %s",
			journeyID, snap.CurrentStageIndex, journeyID)))
	}
	return nil
}

// consumeEvents prints journey events until the journey completes or pauses.
func consumeEvents(orch *journey.Orchestrator) error {
	events := orch.Events()
	for {
		select {
		case ev := <-events:
			printEvent(ev)
			if ev.Type == journey.EventJourneyPaused {
				return nil
			}
		case <-orch.Done():
			for {
				select {
				case ev := <-events:
					printEvent(ev)
				default:
					return nil
				}
			}
		}
	}
}

func printEvent(ev journey.JourneyEvent) {
	switch ev.Type {
	case journey.EventStageStarted:
		fmt.Println()
		fmt.Println(stageStyle.Render(fmt.Sprintf("── stage %d: %s ──", ev.StageNumber, ev.StageType)))
	case journey.EventContent:
		fmt.Print(ev.Text)
	case journey.EventThinking:
		fmt.Print(thinkingStyle.Render(ev.Text))
	case journey.EventStageCompleted:
		fmt.Println()
		if status, ok := ev.Data.(journey.StageStatus); ok && status == journey.StageError {
			fmt.Println(errorStyle.Render(fmt.Sprintf("stage %d failed, journey continues", ev.StageNumber)))
		}
	case journey.EventQuestionTracked:
		fmt.Println(mutedStyle.Render("  ? " + ev.Text))
	case journey.EventArtifactExtracted:
		fmt.Println(mutedStyle.Render(fmt.Sprintf("  + artifact: %s (%v)", ev.Text, ev.Data)))
	case journey.EventInsight:
		fmt.Println(mutedStyle.Render("  * " + ev.Text))
	case journey.EventJourneyPaused:
		fmt.Println(mutedStyle.Render("journey paused"))
	case journey.EventJourneyCompleted:
		fmt.Println(titleStyle.Render("journey complete"))
	}
}
