// Package report renders workflow runs and quality reports for the CLI.
package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rpggio/ckanflow/internal/domain/quality"
	"github.com/rpggio/ckanflow/internal/domain/workflow"
)

// Format selects an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
	FormatCSV  Format = "csv"
)

// ErrUnsupportedFormat is returned for unknown format names.
var ErrUnsupportedFormat = errors.New("unsupported format")

// ParseFormat validates a format name. Empty means JSON.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatText, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// QualityRow is the CSV form of one scored dataset.
type QualityRow struct {
	Dataset      string `csv:"dataset"`
	Score        int    `csv:"score"`
	Level        string `csv:"level"`
	Completeness int    `csv:"completeness"`
	Richness     int    `csv:"richness"`
	Resources    int    `csv:"resources"`
	Freshness    int    `csv:"freshness"`
	Issues       string `csv:"issues"`
}

// ScoredItem pairs a dataset name with its report.
type ScoredItem struct {
	Dataset string         `json:"dataset"`
	Report  quality.Report `json:"report"`
}

// WriteState renders a workflow run. CSV output lists the extracted CSV
// resources, or the scored datasets when the run produced none.
func WriteState(w io.Writer, f Format, s workflow.State) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, s)
	case FormatText:
		return writeStateText(w, s)
	case FormatCSV:
		if len(s.CSVResources) == 0 && len(s.FilteredDatasets) > 0 {
			items := make([]ScoredItem, 0, len(s.FilteredDatasets))
			for _, d := range s.FilteredDatasets {
				if d.Quality != nil {
					items = append(items, ScoredItem{Dataset: d.Name, Report: *d.Quality})
				}
			}
			return writeQualityCSV(w, items)
		}
		return writeCSV(w, workflow.CSVResource{}, s.CSVResources)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// WriteQuality renders scoring results.
func WriteQuality(w io.Writer, f Format, items []ScoredItem) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, items)
	case FormatText:
		for _, it := range items {
			if err := writeQualityText(w, it); err != nil {
				return err
			}
		}
		return nil
	case FormatCSV:
		return writeQualityCSV(w, items)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func writeQualityCSV(w io.Writer, items []ScoredItem) error {
	rows := make([]QualityRow, 0, len(items))
	for _, it := range items {
		b := it.Report.Breakdown
		rows = append(rows, QualityRow{
			Dataset:      it.Dataset,
			Score:        it.Report.Score,
			Level:        string(it.Report.Level),
			Completeness: b.Completeness,
			Richness:     b.Richness,
			Resources:    b.Resources,
			Freshness:    b.Freshness,
			Issues:       strings.Join(it.Report.Issues, "; "),
		})
	}
	return writeCSV(w, QualityRow{}, rows)
}

// writeCSV always emits a header, even for an empty slice.
func writeCSV[T any](w io.Writer, header T, rows []T) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(header); err != nil {
		return fmt.Errorf("encode csv header: %w", err)
	}
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encode csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
