package workflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rpggio/ckanflow/internal/ckan"
	"github.com/rpggio/ckanflow/internal/ckan/mocks"
	"github.com/rpggio/ckanflow/internal/domain/resource"
	"github.com/rpggio/ckanflow/internal/domain/workflow"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// documented scores 47 before resources and freshness are counted.
func documented(name string, resources ...ckan.Resource) ckan.Dataset {
	return ckan.Dataset{
		Name:         name,
		Title:        strings.ToUpper(name),
		Notes:        strings.Repeat("n", 250),
		LicenseID:    "cc-by",
		Author:       "A",
		AuthorEmail:  "a@b.co",
		Organization: &ckan.Organization{Name: "org"},
		Tags:         []ckan.Tag{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}, {Name: "e"}},
		Resources:    resources,
	}
}

func newService(catalog workflow.Catalog) *workflow.Service {
	return workflow.NewService(catalog, nil, workflow.DefaultOptions(), 0, nil)
}

func searchReturns(catalog *mocks.Catalog, query string, rows int, datasets ...ckan.Dataset) {
	catalog.On("SearchPackages", mock.Anything, query, rows).
		Return(&ckan.SearchResult{Count: len(datasets) + 10, Results: datasets}, nil)
}

func TestQualityPipeline(t *testing.T) {
	catalog := &mocks.Catalog{}
	searchReturns(catalog, "bus", 5,
		documented("stops",
			ckan.Resource{Name: "stops.csv", Format: "csv", URL: "http://x/stops.csv"},
			ckan.Resource{Name: "", Format: "CSV", URL: "http://x/b.csv"},
			ckan.Resource{Name: "map", Format: "PDF", URL: "http://x/map.pdf"},
		),
		ckan.Dataset{Name: "empty"},
	)

	out, err := newService(catalog).RunQualityPipeline(context.Background(), workflow.PipelineRequest{Query: "bus"})
	require.NoError(t, err)
	require.Empty(t, out.Error)
	require.Equal(t, 12, out.Count)
	require.Len(t, out.Datasets, 2)

	require.Len(t, out.FilteredDatasets, 1)
	require.Equal(t, "stops", out.FilteredDatasets[0].Name)
	require.NotNil(t, out.FilteredDatasets[0].Quality)
	require.GreaterOrEqual(t, out.FilteredDatasets[0].Quality.Score, 40)

	require.Equal(t, []workflow.CSVResource{
		{DatasetName: "stops", DatasetTitle: "STOPS", ResourceName: "stops.csv", URL: "http://x/stops.csv"},
		{DatasetName: "stops", DatasetTitle: "STOPS", ResourceName: "Untitled", URL: "http://x/b.csv"},
	}, out.CSVResources)

	require.Equal(t, []workflow.Message{
		{Role: "assistant", Content: "Found 2 datasets"},
		{Role: "assistant", Content: "Filtered to 1 quality datasets"},
		{Role: "assistant", Content: "Extracted 2 CSV resources"},
	}, out.Messages)
	require.Equal(t, []string{workflow.StepSearch, workflow.StepFilter, workflow.StepExtractCSV}, out.Steps)
	catalog.AssertExpectations(t)
}

func TestQualityPipeline_ExtractsFromFirstFiveDatasets(t *testing.T) {
	datasets := make([]ckan.Dataset, 7)
	for i := range datasets {
		datasets[i] = documented(fmt.Sprintf("ds%d", i), ckan.Resource{Name: "r", Format: "CSV", URL: "http://x"})
	}
	catalog := &mocks.Catalog{}
	searchReturns(catalog, "all", 10, datasets...)

	zero := 0
	out, err := newService(catalog).RunQualityPipeline(context.Background(),
		workflow.PipelineRequest{Query: "all", Rows: 10, Threshold: &zero})
	require.NoError(t, err)
	require.Len(t, out.FilteredDatasets, 7)
	require.Len(t, out.CSVResources, 5)
	require.Equal(t, "ds4", out.CSVResources[4].DatasetName)
}

func TestQualityPipeline_SearchErrorShortCircuits(t *testing.T) {
	catalog := &mocks.Catalog{}
	catalog.On("SearchPackages", mock.Anything, "bus", 5).
		Return(nil, &ckan.Error{Message: "Server not found: nowhere.example"})

	out, err := newService(catalog).RunQualityPipeline(context.Background(), workflow.PipelineRequest{Query: "bus"})
	require.NoError(t, err)
	require.Equal(t, "Server not found: nowhere.example", out.Error)
	require.ErrorIs(t, out.Err(), ckan.ErrCollaborator)
	require.Empty(t, out.Messages)
	require.Nil(t, out.FilteredDatasets)
	require.Nil(t, out.CSVResources)
	require.Equal(t, []string{workflow.StepSearch, workflow.StepFilter, workflow.StepExtractCSV}, out.Steps)
}

func TestSearch_UnexpectedResponse(t *testing.T) {
	catalog := &mocks.Catalog{}
	catalog.On("SearchPackages", mock.Anything, "bus", 5).
		Return(nil, fmt.Errorf("%w: missing results", ckan.ErrUnexpectedResponse))

	out, err := newService(catalog).RunExploration(context.Background(), workflow.ExplorationRequest{Query: "bus"})
	require.NoError(t, err)
	require.Equal(t, "Unexpected response structure", out.Error)
	require.Equal(t, []string{workflow.StepSearch, workflow.StepSelectDataset, workflow.StepSelectResource}, out.Steps)
}

func TestExploration_RoutesEveryKind(t *testing.T) {
	cases := map[resource.Kind]struct {
		res  ckan.Resource
		step string
	}{
		resource.KindDatastore: {ckan.Resource{ID: "r1", Format: "CSV", DatastoreActive: true}, workflow.StepAnalyzeDatastore},
		resource.KindCSV:       {ckan.Resource{ID: "r2", Format: "csv", URL: "http://x/a.csv"}, workflow.StepAnalyzeCSV},
		resource.KindUnknown:   {ckan.Resource{ID: "r3", Format: "PDF"}, workflow.StepSkipAnalysis},
	}
	require.Len(t, cases, len(resource.Kinds()))

	analysisSteps := []string{workflow.StepAnalyzeDatastore, workflow.StepAnalyzeCSV, workflow.StepSkipAnalysis}
	for kind, tc := range cases {
		t.Run(string(kind), func(t *testing.T) {
			catalog := &mocks.Catalog{}
			searchReturns(catalog, "q", 5, documented("d", tc.res))
			catalog.On("DatastoreSearch", mock.Anything, "r1", 3).Return(&ckan.DatastoreResult{
				Fields:  []ckan.DatastoreField{{ID: "_id"}, {ID: "name"}},
				Records: []map[string]any{{"_id": 1.0, "name": "a"}},
			}, nil).Maybe()

			out, err := newService(catalog).RunExploration(context.Background(), workflow.ExplorationRequest{Query: "q"})
			require.NoError(t, err)
			require.Empty(t, out.Error)
			require.Equal(t, kind, out.ResourceType)
			require.Equal(t, tc.step, out.Steps[len(out.Steps)-1])

			reached := 0
			for _, s := range out.Steps {
				for _, a := range analysisSteps {
					if s == a {
						reached++
					}
				}
			}
			require.Equal(t, 1, reached)
			require.Equal(t, kind, out.AnalysisResult.Type)
		})
	}
}

func TestExploration_DatastoreAnalysis(t *testing.T) {
	catalog := &mocks.Catalog{}
	searchReturns(catalog, "q", 5, documented("d", ckan.Resource{ID: "r1", DatastoreActive: true}))
	catalog.On("DatastoreSearch", mock.Anything, "r1", 3).Return(&ckan.DatastoreResult{
		Fields:  []ckan.DatastoreField{{ID: "_id"}, {ID: "name"}},
		Records: []map[string]any{{"_id": 1.0}, {"_id": 2.0}},
	}, nil)

	out, err := newService(catalog).RunExploration(context.Background(), workflow.ExplorationRequest{Query: "q"})
	require.NoError(t, err)
	require.Equal(t, &workflow.Analysis{
		Type:          resource.KindDatastore,
		RecordCount:   2,
		Fields:        []string{"_id", "name"},
		SampleRecords: []map[string]any{{"_id": 1.0}, {"_id": 2.0}},
	}, out.AnalysisResult)
	catalog.AssertExpectations(t)
}

func TestExploration_DatastoreWithoutRecords(t *testing.T) {
	catalog := &mocks.Catalog{}
	searchReturns(catalog, "q", 5, documented("d", ckan.Resource{ID: "r1", DatastoreActive: true}))
	catalog.On("DatastoreSearch", mock.Anything, "r1", 3).
		Return(nil, fmt.Errorf("%w: missing records", ckan.ErrUnexpectedResponse))

	out, err := newService(catalog).RunExploration(context.Background(), workflow.ExplorationRequest{Query: "q"})
	require.NoError(t, err)
	require.Equal(t, "DataStore query failed", out.Error)
	require.ErrorIs(t, out.Err(), workflow.ErrDatastoreQuery)
	require.Nil(t, out.AnalysisResult)
}

func TestExploration_NoResourcesStopsBeforeRouting(t *testing.T) {
	catalog := &mocks.Catalog{}
	searchReturns(catalog, "q", 5, documented("bare"))

	out, err := newService(catalog).RunExploration(context.Background(), workflow.ExplorationRequest{Query: "q"})
	require.NoError(t, err)
	require.Equal(t, "No resources available", out.Error)
	require.ErrorIs(t, out.Err(), workflow.ErrNoResources)
	require.Equal(t, []string{workflow.StepSearch, workflow.StepSelectDataset, workflow.StepSelectResource}, out.Steps)
	require.Nil(t, out.AnalysisResult)
	catalog.AssertNotCalled(t, "DatastoreSearch", mock.Anything, mock.Anything, mock.Anything)
}

func TestExploration_NoDatasets(t *testing.T) {
	catalog := &mocks.Catalog{}
	searchReturns(catalog, "q", 5)

	out, err := newService(catalog).RunExploration(context.Background(), workflow.ExplorationRequest{Query: "q"})
	require.NoError(t, err)
	require.Equal(t, "No datasets available", out.Error)
	require.ErrorIs(t, out.Err(), workflow.ErrNoDatasets)
}

func TestExploration_QualityFilterAndSelector(t *testing.T) {
	better := documented("better", ckan.Resource{ID: "r2", Format: "CSV", URL: "http://x/b.csv", Description: "d"})
	plain := documented("plain", ckan.Resource{ID: "r1", Format: "PDF"})
	catalog := &mocks.Catalog{}
	searchReturns(catalog, "q", 3, plain, ckan.Dataset{Name: "junk"}, better)

	out, err := newService(catalog).RunExploration(context.Background(), workflow.ExplorationRequest{
		Query:         "q",
		Rows:          3,
		Selector:      workflow.SelectorBestQuality,
		QualityFilter: true,
	})
	require.NoError(t, err)
	require.Len(t, out.FilteredDatasets, 2)
	require.Equal(t, "better", out.SelectedDataset.Name)
	require.Equal(t, resource.KindCSV, out.ResourceType)
	require.Equal(t, "http://x/b.csv", out.AnalysisResult.URL)
	require.Equal(t, workflow.StepFilter, out.Steps[1])
}

func TestExploration_NameSelector(t *testing.T) {
	catalog := &mocks.Catalog{}
	searchReturns(catalog, "q", 5,
		documented("first", ckan.Resource{Format: "PDF"}),
		documented("second", ckan.Resource{Format: "CSV"}),
	)

	out, err := newService(catalog).RunExploration(context.Background(),
		workflow.ExplorationRequest{Query: "q", Selector: "name:second"})
	require.NoError(t, err)
	require.Equal(t, "second", out.SelectedDataset.Name)
	require.Equal(t, resource.KindCSV, out.ResourceType)
}

func TestService_InvalidRequests(t *testing.T) {
	svc := newService(&mocks.Catalog{})

	_, err := svc.RunQualityPipeline(context.Background(), workflow.PipelineRequest{Query: "  "})
	require.ErrorIs(t, err, workflow.ErrInvalidInput)

	_, err = svc.RunExploration(context.Background(), workflow.ExplorationRequest{Query: "q", Selector: "random"})
	require.ErrorIs(t, err, workflow.ErrUnknownSelector)
}

func TestSteps_PassThroughAfterError(t *testing.T) {
	catalog := &mocks.Catalog{}
	st := workflow.NewSteps(catalog, nil, workflow.DefaultOptions(), nil)

	in := workflow.NewState("q")
	in.Error = "boom"
	ctx := context.Background()

	for _, step := range []workflow.StepFunc{
		st.Search, st.Filter, st.ExtractCSV, st.SelectDataset, st.SelectResource,
		st.AnalyzeDatastore, st.AnalyzeCSV, st.SkipAnalysis,
	} {
		require.Equal(t, in, step(ctx, in))
	}
	require.Equal(t, workflow.End, workflow.RouteByResourceType(in))
	catalog.AssertNotCalled(t, "SearchPackages", mock.Anything, mock.Anything, mock.Anything)
}

func TestSteps_DoNotAliasMessages(t *testing.T) {
	catalog := &mocks.Catalog{}
	searchReturns(catalog, "q", 5)
	st := workflow.NewSteps(catalog, nil, workflow.DefaultOptions(), nil)

	in := workflow.NewState("q")
	in.Messages = make([]workflow.Message, 0, 8)
	first := st.Search(context.Background(), in)
	second := st.Search(context.Background(), in)

	require.Empty(t, in.Messages)
	require.Len(t, first.Messages, 1)
	require.Len(t, second.Messages, 1)
}

func TestAnalysis_JSONKeys(t *testing.T) {
	cases := []struct {
		analysis workflow.Analysis
		keys     []string
	}{
		{workflow.Analysis{Type: resource.KindDatastore}, []string{"type", "record_count", "fields", "sample_records"}},
		{workflow.Analysis{Type: resource.KindCSV, URL: "http://x"}, []string{"type", "url", "format"}},
		{workflow.Analysis{Type: resource.KindUnknown, Skipped: true}, []string{"type", "skipped"}},
	}
	for _, tc := range cases {
		raw, err := json.Marshal(tc.analysis)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(raw, &decoded))
		require.Len(t, decoded, len(tc.keys))
		for _, k := range tc.keys {
			require.Contains(t, decoded, k)
		}
	}
}

func TestRunError_Unwrap(t *testing.T) {
	catalog := &mocks.Catalog{}
	cause := errors.New("dial tcp: refused")
	catalog.On("SearchPackages", mock.Anything, "q", 5).Return(nil, cause)

	out, err := newService(catalog).RunQualityPipeline(context.Background(), workflow.PipelineRequest{Query: "q"})
	require.NoError(t, err)

	var runErr *workflow.RunError
	require.ErrorAs(t, out.Err(), &runErr)
	require.Equal(t, "dial tcp: refused", runErr.Message)
	require.ErrorIs(t, out.Err(), cause)
}
