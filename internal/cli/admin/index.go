package admin

import (
	"context"
	"fmt"
	"log"

	"github.com/cloo-solutions/ragpipe/internal/config"
	"github.com/cloo-solutions/ragpipe/internal/database"
	"github.com/cloo-solutions/ragpipe/internal/domain"
	"github.com/cloo-solutions/ragpipe/internal/pipeline"
	"github.com/spf13/cobra"
)

// IndexCmd returns the index command
func IndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index [rag-config-id]",
		Short: "Run the derivation pipeline",
		Long:  "Run the extraction, chunking and embedding pipeline for one rag config, or for all configs when no ID is given",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runIndex,
	}

	cmd.Flags().String("project", "", "Project to index (defaults to the configured default project)")
	cmd.Flags().StringSlice("stages", nil, "Stages to run (extracting, chunking, embedding); all when omitted")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	deps, err := buildPipeline(ctx, cfg, pool)
	if err != nil {
		return err
	}

	projectID, _ := cmd.Flags().GetString("project")
	if projectID == "" {
		projectID = cfg.DefaultProjectID
	}

	stageNames, _ := cmd.Flags().GetStringSlice("stages")
	stages, err := parseStages(stageNames)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		result, err := deps.indexSvc.RunIndex(ctx, projectID, args[0], stages)
		if err != nil {
			return err
		}
		printRunResult(result)
		return nil
	}

	results, err := deps.indexSvc.RunAll(ctx, projectID)
	if err != nil {
		return err
	}
	for _, result := range results {
		printRunResult(result)
	}
	return nil
}

func parseStages(names []string) (pipeline.StageSelection, error) {
	if len(names) == 0 {
		return pipeline.AllStages(), nil
	}

	sel := make(pipeline.StageSelection, len(names))
	for _, name := range names {
		stage := domain.Stage(name)
		switch stage {
		case domain.StageExtracting, domain.StageChunking, domain.StageEmbedding:
			sel[stage] = true
		default:
			return nil, fmt.Errorf("unknown stage %q", name)
		}
	}
	return sel, nil
}

func printRunResult(result *pipeline.RunResult) {
	log.Printf("config %s: %s (%d errors)", result.RagConfigID, result.State, result.Errors)
	for _, stage := range domain.Stages() {
		snap, ok := result.StageCounts[stage]
		if !ok {
			continue
		}
		log.Printf("  %-11s total=%d completed=%d errored=%d", stage, snap.Total, snap.Completed, snap.Errored)
	}
}
