package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rpggio/ckanflow/internal/ckan"
	"github.com/rpggio/ckanflow/internal/domain/quality"
	"github.com/rpggio/ckanflow/internal/domain/resource"
	"github.com/rpggio/ckanflow/internal/domain/workflow"
)

// Scorer defines the quality scoring needed by MCP.
type Scorer interface {
	Score(d ckan.Dataset) quality.Report
}

// WorkflowService defines workflow operations needed by MCP.
type WorkflowService interface {
	RunQualityPipeline(ctx context.Context, req workflow.PipelineRequest) (workflow.State, error)
	RunExploration(ctx context.Context, req workflow.ExplorationRequest) (workflow.State, error)
}

// Handler dispatches MCP tool calls.
type Handler struct {
	scorer    Scorer
	workflows WorkflowService
}

// NewHandler creates a new MCP handler.
func NewHandler(scorer Scorer, workflows WorkflowService) *Handler {
	return &Handler{scorer: scorer, workflows: workflows}
}

// Handle dispatches a tool call to the domain services.
func (h *Handler) Handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case ToolScoreDataset:
		var req ScoreDatasetParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.Dataset == nil {
			return nil, fmt.Errorf("%w: dataset is required", ErrInvalidParams)
		}
		return h.scorer.Score(*req.Dataset), nil
	case ToolClassifyResource:
		var req ClassifyResourceParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.Resource == nil {
			return nil, fmt.Errorf("%w: resource is required", ErrInvalidParams)
		}
		return ClassifyResourceResponse{Kind: resource.Classify(*req.Resource)}, nil
	case ToolRunQualityPipeline:
		if h.workflows == nil {
			return nil, ErrCatalogUnavailable
		}
		var req RunQualityPipelineParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		state, err := h.workflows.RunQualityPipeline(ctx, workflow.PipelineRequest{
			Query:     req.Query,
			Rows:      req.Rows,
			Threshold: req.Threshold,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return state, nil
	case ToolRunExploration:
		if h.workflows == nil {
			return nil, ErrCatalogUnavailable
		}
		var req RunExplorationParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		state, err := h.workflows.RunExploration(ctx, workflow.ExplorationRequest{
			Query:         req.Query,
			Rows:          req.Rows,
			Selector:      req.Selector,
			QualityFilter: req.QualityFilter,
			Threshold:     req.Threshold,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return state, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, method)
	}
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
