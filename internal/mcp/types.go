package mcp

import (
	"github.com/rpggio/ckanflow/internal/ckan"
	"github.com/rpggio/ckanflow/internal/domain/resource"
)

// ToolDefinition describes a tool exposed to MCP clients.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

type ScoreDatasetParams struct {
	Dataset *ckan.Dataset `json:"dataset"`
}

type ClassifyResourceParams struct {
	Resource *ckan.Resource `json:"resource"`
}

type RunQualityPipelineParams struct {
	Query     string `json:"query"`
	Rows      int    `json:"rows,omitempty"`
	Threshold *int   `json:"threshold,omitempty"`
}

type RunExplorationParams struct {
	Query         string `json:"query"`
	Rows          int    `json:"rows,omitempty"`
	Selector      string `json:"selector,omitempty"`
	QualityFilter bool   `json:"quality_filter,omitempty"`
	Threshold     *int   `json:"threshold,omitempty"`
}

type ClassifyResourceResponse struct {
	Kind resource.Kind `json:"kind"`
}
