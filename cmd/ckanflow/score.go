package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rpggio/ckanflow/internal/ckan"
	"github.com/rpggio/ckanflow/internal/report"
	"github.com/spf13/cobra"
)

var scoreCommand = &cobra.Command{
	Use:   "score <file.json>",
	Short: "Score dataset metadata read from a file",
	Long: `Scores one dataset, a JSON array of datasets, or a package_search result ({"results": [...]}).
Use "-" to read from stdin. No catalog access is needed.`,
	Args: cobra.ExactArgs(1),
	RunE: runScoreCmd,
}

func init() {
	rootCmd.AddCommand(scoreCommand)
}

func runScoreCmd(cmd *cobra.Command, args []string) error {
	format, err := parseFormat()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := readInput(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	datasets, err := decodeDatasets(data)
	if err != nil {
		return err
	}

	scorer := newScorer(cfg)
	reports, err := scorer.ScoreAll(cmd.Context(), datasets, cfg.Workflow.Concurrency)
	if err != nil {
		return err
	}

	items := make([]report.ScoredItem, len(datasets))
	for i, d := range datasets {
		items[i] = report.ScoredItem{Dataset: d.Name, Report: reports[i]}
	}
	return report.WriteQuality(cmd.OutOrStdout(), format, items)
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read datasets: %w", err)
	}
	return data, nil
}

// decodeDatasets accepts a dataset object, an array, or a search result.
func decodeDatasets(data []byte) ([]ckan.Dataset, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("decode datasets: empty input")
	}

	if data[0] == '[' {
		var list []ckan.Dataset
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("decode datasets: %w", err)
		}
		return list, nil
	}

	var probe struct {
		Results *[]ckan.Dataset `json:"results"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode datasets: %w", err)
	}
	if probe.Results != nil {
		return *probe.Results, nil
	}

	var d ckan.Dataset
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode datasets: %w", err)
	}
	return []ckan.Dataset{d}, nil
}
