package workflow

import (
	"encoding/json"
	"slices"

	"github.com/google/uuid"
	"github.com/rpggio/ckanflow/internal/ckan"
	"github.com/rpggio/ckanflow/internal/domain/quality"
	"github.com/rpggio/ckanflow/internal/domain/resource"
)

// RoleAssistant is the role of step summary messages.
const RoleAssistant = "assistant"

// Message is one entry of the run log.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ScoredDataset is a dataset with its quality report attached.
type ScoredDataset struct {
	ckan.Dataset
	Quality *quality.Report `json:"_quality,omitempty"`
}

// Analysis describes what was learned about the selected resource.
type Analysis struct {
	Type          resource.Kind    `json:"type"`
	RecordCount   int              `json:"record_count,omitempty"`
	Fields        []string         `json:"fields,omitempty"`
	SampleRecords []map[string]any `json:"sample_records,omitempty"`
	URL           string           `json:"url,omitempty"`
	Format        string           `json:"format,omitempty"`
	Skipped       bool             `json:"skipped,omitempty"`
}

// MarshalJSON writes only the keys that belong to the analysis type.
func (a Analysis) MarshalJSON() ([]byte, error) {
	switch a.Type {
	case resource.KindDatastore:
		fields, records := a.Fields, a.SampleRecords
		if fields == nil {
			fields = []string{}
		}
		if records == nil {
			records = []map[string]any{}
		}
		return json.Marshal(struct {
			Type          resource.Kind    `json:"type"`
			RecordCount   int              `json:"record_count"`
			Fields        []string         `json:"fields"`
			SampleRecords []map[string]any `json:"sample_records"`
		}{a.Type, a.RecordCount, fields, records})
	case resource.KindCSV:
		return json.Marshal(struct {
			Type   resource.Kind `json:"type"`
			URL    string        `json:"url"`
			Format string        `json:"format"`
		}{a.Type, a.URL, a.Format})
	default:
		return json.Marshal(struct {
			Type    resource.Kind `json:"type"`
			Skipped bool          `json:"skipped"`
		}{a.Type, a.Skipped})
	}
}

// CSVResource is a CSV file found by the quality pipeline.
type CSVResource struct {
	DatasetName  string `json:"dataset_name" csv:"dataset_name"`
	DatasetTitle string `json:"dataset_title" csv:"dataset_title"`
	ResourceName string `json:"resource_name" csv:"resource_name"`
	URL          string `json:"url" csv:"url"`
}

// State is the context of one workflow run. Steps receive a State value and
// return the next one; slices are never appended to in place.
type State struct {
	RunID            string          `json:"run_id"`
	Query            string          `json:"query"`
	Datasets         []ckan.Dataset  `json:"datasets"`
	Count            int             `json:"count"`
	FilteredDatasets []ScoredDataset `json:"filtered_datasets,omitempty"`
	SelectedDataset  *ScoredDataset  `json:"selected_dataset,omitempty"`
	SelectedResource *ckan.Resource  `json:"selected_resource,omitempty"`
	ResourceType     resource.Kind   `json:"resource_type,omitempty"`
	AnalysisResult   *Analysis       `json:"analysis_result,omitempty"`
	CSVResources     []CSVResource   `json:"csv_resources,omitempty"`
	Error            string          `json:"error,omitempty"`
	Messages         []Message       `json:"messages"`
	Steps            []string        `json:"steps"`

	cause error
}

// NewState starts a run for query.
func NewState(query string) State {
	return State{
		RunID:    uuid.NewString(),
		Query:    query,
		Datasets: []ckan.Dataset{},
		Messages: []Message{},
		Steps:    []string{},
	}
}

// Failed reports whether a step recorded an error.
func (s State) Failed() bool {
	return s.Error != ""
}

// Err returns the recorded failure, or nil.
func (s State) Err() error {
	if s.Error == "" {
		return nil
	}
	return &RunError{Message: s.Error, cause: s.cause}
}

// filtered reports whether the quality filter has run.
func (s State) filtered() bool {
	return s.FilteredDatasets != nil
}

// candidates returns the datasets a selector chooses from.
func (s State) candidates() []ScoredDataset {
	if s.filtered() {
		return s.FilteredDatasets
	}
	out := make([]ScoredDataset, len(s.Datasets))
	for i, d := range s.Datasets {
		out[i] = ScoredDataset{Dataset: d}
	}
	return out
}

func (s State) withMessage(content string) State {
	s.Messages = append(slices.Clip(s.Messages), Message{Role: RoleAssistant, Content: content})
	return s
}

func (s State) withStep(name string) State {
	s.Steps = append(slices.Clip(s.Steps), name)
	return s
}

func (s State) fail(msg string, cause error) State {
	s.Error = msg
	s.cause = cause
	return s
}
