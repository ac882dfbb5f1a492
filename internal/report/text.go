package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/rpggio/ckanflow/internal/domain/resource"
	"github.com/rpggio/ckanflow/internal/domain/workflow"
)

type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func writeStateText(w io.Writer, s workflow.State) error {
	t := &textWriter{w: w}
	t.printf("Run %s: %q\n", s.RunID, s.Query)
	t.printf("Steps: %s\n", strings.Join(s.Steps, " -> "))
	t.printf("Datasets: %d returned, %d total\n", len(s.Datasets), s.Count)

	if s.FilteredDatasets != nil {
		t.printf("Quality datasets: %d\n", len(s.FilteredDatasets))
		for _, d := range s.FilteredDatasets {
			if d.Quality != nil {
				t.printf("  %-40s %3d %s\n", d.Name, d.Quality.Score, d.Quality.Level)
			}
		}
	}
	if s.SelectedDataset != nil {
		t.printf("Selected dataset: %s\n", s.SelectedDataset.Name)
	}
	if s.SelectedResource != nil {
		t.printf("Selected resource: %s (%s)\n", displayName(s.SelectedResource.Name, s.SelectedResource.ID), s.ResourceType)
	}
	if a := s.AnalysisResult; a != nil {
		switch a.Type {
		case resource.KindDatastore:
			t.printf("Analysis: %d records, fields %s\n", a.RecordCount, strings.Join(a.Fields, ", "))
		case resource.KindCSV:
			t.printf("Analysis: %s %s\n", a.Format, a.URL)
		default:
			t.printf("Analysis: skipped\n")
		}
	}
	if len(s.CSVResources) > 0 {
		t.printf("CSV resources: %d\n", len(s.CSVResources))
		for _, r := range s.CSVResources {
			t.printf("  %s / %s: %s\n", r.DatasetName, r.ResourceName, r.URL)
		}
	}
	if s.Error != "" {
		t.printf("Error: %s\n", s.Error)
	}
	return t.err
}

func writeQualityText(w io.Writer, it ScoredItem) error {
	t := &textWriter{w: w}
	r := it.Report
	t.printf("%s: %d/100 (%s)\n", displayName(it.Dataset, "dataset"), r.Score, r.Level)
	t.printf("  completeness %d, richness %d, resources %d, freshness %d\n",
		r.Breakdown.Completeness, r.Breakdown.Richness, r.Breakdown.Resources, r.Breakdown.Freshness)
	for _, issue := range r.Issues {
		t.printf("  - %s\n", issue)
	}
	return t.err
}

func displayName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
