package mcp

// Tool names.
const (
	ToolScoreDataset       = "score_dataset"
	ToolClassifyResource   = "classify_resource"
	ToolRunQualityPipeline = "run_quality_pipeline"
	ToolRunExploration     = "run_exploration"
)

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        ToolScoreDataset,
			Description: "Score the metadata quality of a CKAN dataset (package_show/package_search record) on a 0-100 scale with a breakdown and issues",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"dataset": map[string]any{
						"type":        "object",
						"description": "CKAN dataset record as returned by the CKAN action API",
					},
				},
				"required": []string{"dataset"},
			},
		},
		{
			Name:        ToolClassifyResource,
			Description: "Classify a CKAN resource as datastore, csv or unknown to decide how it can be analyzed",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"resource": map[string]any{
						"type":        "object",
						"description": "CKAN resource record (format, url, datastore_active, ...)",
					},
				},
				"required": []string{"resource"},
			},
		},
		{
			Name:        ToolRunQualityPipeline,
			Description: "Search datasets, keep those meeting the quality threshold and list their CSV resources",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "CKAN search query (Solr syntax)",
					},
					"rows": map[string]any{
						"type":        "integer",
						"description": "Maximum datasets to fetch (default from server config)",
						"minimum":     1,
					},
					"threshold": map[string]any{
						"type":        "integer",
						"description": "Minimum quality score to keep a dataset (default 40)",
						"minimum":     0,
						"maximum":     100,
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        ToolRunExploration,
			Description: "Search datasets, select one, classify its first resource and analyze it (DataStore sample, CSV description or skip)",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "CKAN search query (Solr syntax)",
					},
					"rows": map[string]any{
						"type":        "integer",
						"description": "Maximum datasets to fetch",
						"minimum":     1,
					},
					"selector": map[string]any{
						"type":        "string",
						"description": "Dataset selection: first (default), best_quality, or name:<dataset name or id>",
					},
					"quality_filter": map[string]any{
						"type":        "boolean",
						"description": "Score and filter datasets before selection",
					},
					"threshold": map[string]any{
						"type":        "integer",
						"description": "Minimum quality score when quality_filter is set",
						"minimum":     0,
						"maximum":     100,
					},
				},
				"required": []string{"query"},
			},
		},
	}
}
