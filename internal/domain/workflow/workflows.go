package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/ckanflow/internal/domain/quality"
)

// Graph names.
const (
	QualityPipelineName = "quality_pipeline"
	ExplorationName     = "exploration"
)

// NewQualityPipeline builds search, quality filter, CSV extraction.
func NewQualityPipeline(st *Steps) Graph {
	return Graph{
		Name:  QualityPipelineName,
		Start: StepSearch,
		Nodes: map[string]StepFunc{
			StepSearch:     st.Search,
			StepFilter:     st.Filter,
			StepExtractCSV: st.ExtractCSV,
		},
		Edges: map[string]string{
			StepSearch:     StepFilter,
			StepFilter:     StepExtractCSV,
			StepExtractCSV: End,
		},
	}
}

// NewExploration builds search, optional quality filter, dataset and
// resource selection, then one analysis step chosen by resource type.
func NewExploration(st *Steps, qualityFilter bool) Graph {
	g := Graph{
		Name:  ExplorationName,
		Start: StepSearch,
		Nodes: map[string]StepFunc{
			StepSearch:           st.Search,
			StepSelectDataset:    st.SelectDataset,
			StepSelectResource:   st.SelectResource,
			StepAnalyzeDatastore: st.AnalyzeDatastore,
			StepAnalyzeCSV:       st.AnalyzeCSV,
			StepSkipAnalysis:     st.SkipAnalysis,
		},
		Edges: map[string]string{
			StepSearch:           StepSelectDataset,
			StepSelectDataset:    StepSelectResource,
			StepAnalyzeDatastore: End,
			StepAnalyzeCSV:       End,
			StepSkipAnalysis:     End,
		},
		Routes: map[string]RouteFunc{
			StepSelectResource: RouteByResourceType,
		},
	}
	if qualityFilter {
		g.Nodes[StepFilter] = st.Filter
		g.Edges[StepSearch] = StepFilter
		g.Edges[StepFilter] = StepSelectDataset
	}
	return g
}

// PipelineRequest defines a quality pipeline run. Zero values use the
// service defaults.
type PipelineRequest struct {
	Query     string
	Rows      int
	Threshold *int
}

// ExplorationRequest defines an exploration run.
type ExplorationRequest struct {
	Query         string
	Rows          int
	Selector      string
	QualityFilter bool
	Threshold     *int
}

// Service runs the packaged workflows against a catalog.
type Service struct {
	catalog  Catalog
	scorer   *quality.Scorer
	defaults Options
	runner   *Runner
	logger   *slog.Logger
}

// NewService creates a workflow service.
func NewService(catalog Catalog, scorer *quality.Scorer, defaults Options, maxSteps int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		catalog:  catalog,
		scorer:   scorer,
		defaults: defaults,
		runner:   NewRunner(maxSteps, logger),
		logger:   logger,
	}
}

// RunQualityPipeline searches, filters by quality and lists CSV resources.
func (s *Service) RunQualityPipeline(ctx context.Context, req PipelineRequest) (State, error) {
	if strings.TrimSpace(req.Query) == "" {
		return State{}, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	opts := s.options(req.Rows, req.Threshold)
	graph := NewQualityPipeline(NewSteps(s.catalog, s.scorer, opts, s.logger))
	return s.run(ctx, graph, req.Query)
}

// RunExploration searches, selects a dataset and analyzes its first resource.
func (s *Service) RunExploration(ctx context.Context, req ExplorationRequest) (State, error) {
	if strings.TrimSpace(req.Query) == "" {
		return State{}, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	opts := s.options(req.Rows, req.Threshold)
	if req.Selector != "" {
		sel, err := SelectorByName(req.Selector)
		if err != nil {
			return State{}, err
		}
		opts.Selector = sel
	}
	graph := NewExploration(NewSteps(s.catalog, s.scorer, opts, s.logger), req.QualityFilter)
	return s.run(ctx, graph, req.Query)
}

func (s *Service) options(rows int, threshold *int) Options {
	opts := s.defaults
	if rows > 0 {
		opts.SearchRows = rows
	}
	if threshold != nil {
		opts.Threshold = *threshold
	}
	return opts
}

func (s *Service) run(ctx context.Context, g Graph, query string) (State, error) {
	state := NewState(query)
	s.logger.Info("workflow started", "workflow", g.Name, "run_id", state.RunID, "query", query)
	final, err := s.runner.Run(ctx, g, state)
	if err != nil {
		return final, fmt.Errorf("running %s: %w", g.Name, err)
	}
	return final, nil
}
