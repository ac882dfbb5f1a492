package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/ckanflow/internal/ckan"
	"github.com/rpggio/ckanflow/internal/domain/quality"
	"github.com/rpggio/ckanflow/internal/domain/resource"
)

// Step names.
const (
	StepSearch           = "search"
	StepFilter           = "filter"
	StepExtractCSV       = "extract_csv"
	StepSelectDataset    = "select_dataset"
	StepSelectResource   = "select_resource"
	StepAnalyzeDatastore = "analyze_datastore"
	StepAnalyzeCSV       = "analyze_csv"
	StepSkipAnalysis     = "skip_analysis"
)

const untitledResource = "Untitled"

// Options tunes the steps of a run.
type Options struct {
	SearchRows     int
	Threshold      int
	DatastoreLimit int
	ExtractLimit   int
	Concurrency    int
	Selector       Selector
}

// DefaultOptions returns the stock settings.
func DefaultOptions() Options {
	return Options{
		SearchRows:     5,
		Threshold:      40,
		DatastoreLimit: 3,
		ExtractLimit:   5,
		Concurrency:    1,
		Selector:       FirstSelector{},
	}
}

// Steps binds step functions to a catalog and a scorer.
type Steps struct {
	catalog Catalog
	scorer  *quality.Scorer
	opts    Options
	logger  *slog.Logger
}

// NewSteps creates the step set. Zero limits and a nil selector fall back to
// DefaultOptions; Threshold is used as given.
func NewSteps(catalog Catalog, scorer *quality.Scorer, opts Options, logger *slog.Logger) *Steps {
	def := DefaultOptions()
	if opts.SearchRows <= 0 {
		opts.SearchRows = def.SearchRows
	}
	if opts.DatastoreLimit <= 0 {
		opts.DatastoreLimit = def.DatastoreLimit
	}
	if opts.ExtractLimit <= 0 {
		opts.ExtractLimit = def.ExtractLimit
	}
	if opts.Selector == nil {
		opts.Selector = def.Selector
	}
	if scorer == nil {
		scorer = quality.NewScorer(quality.DefaultConfig())
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Steps{catalog: catalog, scorer: scorer, opts: opts, logger: logger}
}

// Search runs the package search for the query.
func (st *Steps) Search(ctx context.Context, s State) State {
	if s.Failed() {
		return s
	}
	res, err := st.catalog.SearchPackages(ctx, s.Query, st.opts.SearchRows)
	if err != nil {
		st.logger.Warn("search failed", "run_id", s.RunID, "query", s.Query, "error", err)
		return s.fail(failureMessage(err), err)
	}

	s.Datasets = res.Results
	if s.Datasets == nil {
		s.Datasets = []ckan.Dataset{}
	}
	s.Count = res.Count
	st.logger.Info("search finished", "run_id", s.RunID, "count", res.Count, "returned", len(s.Datasets))
	return s.withMessage(fmt.Sprintf("Found %d datasets", len(s.Datasets)))
}

// Filter scores every dataset and keeps those at or above the threshold.
func (st *Steps) Filter(ctx context.Context, s State) State {
	if s.Failed() {
		return s
	}
	reports, err := st.scorer.ScoreAll(ctx, s.Datasets, st.opts.Concurrency)
	if err != nil {
		return s.fail(err.Error(), err)
	}

	kept := make([]ScoredDataset, 0, len(s.Datasets))
	for i, d := range s.Datasets {
		report := reports[i]
		if report.Score < st.opts.Threshold {
			st.logger.Debug("dataset rejected", "run_id", s.RunID, "dataset", d.Name, "score", report.Score)
			continue
		}
		kept = append(kept, ScoredDataset{Dataset: d, Quality: &report})
	}
	s.FilteredDatasets = kept
	st.logger.Info("quality filter finished", "run_id", s.RunID, "kept", len(kept), "total", len(s.Datasets), "threshold", st.opts.Threshold)
	return s.withMessage(fmt.Sprintf("Filtered to %d quality datasets", len(kept)))
}

// ExtractCSV collects the CSV resources of the first filtered datasets.
func (st *Steps) ExtractCSV(_ context.Context, s State) State {
	if s.Failed() {
		return s
	}
	found := make([]CSVResource, 0)
	for i, d := range s.candidates() {
		if i >= st.opts.ExtractLimit {
			break
		}
		for _, r := range d.Resources {
			if !strings.EqualFold(r.Format, "csv") {
				continue
			}
			name := r.Name
			if name == "" {
				name = untitledResource
			}
			found = append(found, CSVResource{
				DatasetName:  d.Name,
				DatasetTitle: d.Title,
				ResourceName: name,
				URL:          r.URL,
			})
		}
	}
	s.CSVResources = found
	return s.withMessage(fmt.Sprintf("Extracted %d CSV resources", len(found)))
}

// SelectDataset asks the selector for the dataset to explore.
func (st *Steps) SelectDataset(_ context.Context, s State) State {
	if s.Failed() {
		return s
	}
	chosen, ok := st.opts.Selector.Select(s.candidates())
	if !ok {
		return s.fail(MsgNoDatasets, ErrNoDatasets)
	}
	s.SelectedDataset = &chosen
	st.logger.Info("dataset selected", "run_id", s.RunID, "dataset", chosen.Name)
	return s
}

// SelectResource takes the first resource of the selected dataset and
// classifies it.
func (st *Steps) SelectResource(_ context.Context, s State) State {
	if s.Failed() {
		return s
	}
	if s.SelectedDataset == nil {
		return s.fail(MsgNoDatasets, ErrNoDatasets)
	}
	if len(s.SelectedDataset.Resources) == 0 {
		return s.fail(MsgNoResources, ErrNoResources)
	}
	chosen := s.SelectedDataset.Resources[0]
	s.SelectedResource = &chosen
	s.ResourceType = resource.Classify(chosen)
	st.logger.Info("resource selected", "run_id", s.RunID, "resource", chosen.ID, "kind", s.ResourceType)
	return s
}

// RouteByResourceType sends a classified run to its analysis step.
func RouteByResourceType(s State) string {
	if s.Failed() {
		return End
	}
	switch s.ResourceType {
	case resource.KindDatastore:
		return StepAnalyzeDatastore
	case resource.KindCSV:
		return StepAnalyzeCSV
	default:
		return StepSkipAnalysis
	}
}

// AnalyzeDatastore samples the DataStore table of the selected resource.
func (st *Steps) AnalyzeDatastore(ctx context.Context, s State) State {
	if s.Failed() {
		return s
	}
	if s.SelectedResource == nil {
		return s.fail(MsgNoResources, ErrNoResources)
	}
	res, err := st.catalog.DatastoreSearch(ctx, s.SelectedResource.ID, st.opts.DatastoreLimit)
	if err != nil {
		st.logger.Warn("datastore query failed", "run_id", s.RunID, "resource", s.SelectedResource.ID, "error", err)
		if errors.Is(err, ckan.ErrUnexpectedResponse) {
			return s.fail(MsgDatastoreFailed, ErrDatastoreQuery)
		}
		return s.fail(failureMessage(err), err)
	}

	s.AnalysisResult = &Analysis{
		Type:          resource.KindDatastore,
		RecordCount:   len(res.Records),
		Fields:        res.FieldIDs(),
		SampleRecords: res.Records,
	}
	return s
}

// AnalyzeCSV describes the selected CSV resource without downloading it.
func (st *Steps) AnalyzeCSV(_ context.Context, s State) State {
	if s.Failed() {
		return s
	}
	if s.SelectedResource == nil {
		return s.fail(MsgNoResources, ErrNoResources)
	}
	s.AnalysisResult = &Analysis{
		Type:   resource.KindCSV,
		URL:    s.SelectedResource.URL,
		Format: s.SelectedResource.Format,
	}
	return s
}

// SkipAnalysis marks a resource that cannot be analyzed.
func (st *Steps) SkipAnalysis(_ context.Context, s State) State {
	if s.Failed() {
		return s
	}
	s.AnalysisResult = &Analysis{Type: resource.KindUnknown, Skipped: true}
	return s
}

func failureMessage(err error) string {
	if errors.Is(err, ckan.ErrUnexpectedResponse) {
		return MsgUnexpectedStructure
	}
	return err.Error()
}
