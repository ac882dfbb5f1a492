package main

import (
	"context"
	"os"
	"strings"

	"github.com/rpggio/ckanflow/internal/domain/workflow"
	"github.com/rpggio/ckanflow/internal/report"
	"github.com/spf13/cobra"
)

var pipelineCommand = &cobra.Command{
	Use:   "pipeline <query>",
	Short: "Search, filter by quality and list CSV resources",
	Long: `Runs search -> filter -> extract_csv. Datasets scoring below the threshold are dropped and the
CSV resources of the first remaining datasets are listed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPipelineCmd,
}

var exploreCommand = &cobra.Command{
	Use:   "explore <query>",
	Short: "Search, select a dataset and analyze its first resource",
	Long: `Runs search -> [filter] -> select_dataset -> select_resource and then routes by resource type to
a DataStore sample, a CSV description, or a skipped analysis.

Selectors: first (default), best_quality, name:<dataset name or id>.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExploreCmd,
}

var (
	flowRows          int
	flowThreshold     int
	flowSelector      string
	flowQualityFilter bool
)

func init() {
	for _, cmd := range []*cobra.Command{pipelineCommand, exploreCommand} {
		cmd.Flags().IntVarP(&flowRows, "rows", "r", 0, "Number of search results (default from config)")
		cmd.Flags().IntVarP(&flowThreshold, "threshold", "t", 0, "Minimum quality score (default from config)")
	}
	exploreCommand.Flags().StringVarP(&flowSelector, "selector", "s", "", "Dataset selector: first, best_quality or name:<x>")
	exploreCommand.Flags().BoolVarP(&flowQualityFilter, "quality-filter", "q", false, "Filter datasets by quality before selecting")

	rootCmd.AddCommand(pipelineCommand, exploreCommand)
}

func thresholdFlag(cmd *cobra.Command) *int {
	if !cmd.Flags().Changed("threshold") {
		return nil
	}
	t := flowThreshold
	return &t
}

func runPipelineCmd(cmd *cobra.Command, args []string) error {
	req := workflow.PipelineRequest{
		Query:     strings.Join(args, " "),
		Rows:      flowRows,
		Threshold: thresholdFlag(cmd),
	}
	return runWorkflow(cmd.Context(), func(ctx context.Context, svc *workflow.Service) (workflow.State, error) {
		return svc.RunQualityPipeline(ctx, req)
	})
}

func runExploreCmd(cmd *cobra.Command, args []string) error {
	req := workflow.ExplorationRequest{
		Query:         strings.Join(args, " "),
		Rows:          flowRows,
		Selector:      flowSelector,
		QualityFilter: flowQualityFilter,
		Threshold:     thresholdFlag(cmd),
	}
	return runWorkflow(cmd.Context(), func(ctx context.Context, svc *workflow.Service) (workflow.State, error) {
		return svc.RunExploration(ctx, req)
	})
}

// runWorkflow prints the final state and fails when a step recorded an error.
func runWorkflow(ctx context.Context, run func(context.Context, *workflow.Service) (workflow.State, error)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	format, err := parseFormat()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, logCloser := newLogger(cfg, os.Stderr)
	defer logCloser.Close()

	svc, _, cat, err := newService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cat.Close()

	state, err := run(ctx, svc)
	if err != nil {
		return err
	}
	if err := report.WriteState(os.Stdout, format, state); err != nil {
		return err
	}
	return state.Err()
}
