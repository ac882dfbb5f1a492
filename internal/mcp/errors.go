package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/ckanflow/internal/ckan"
	"github.com/rpggio/ckanflow/internal/domain/workflow"
)

var (
	// ErrInvalidParams indicates tool arguments that could not be decoded.
	ErrInvalidParams = errors.New("invalid tool arguments")
	// ErrUnknownTool indicates a call to a tool that is not registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrCatalogUnavailable indicates a workflow tool called without a catalog.
	ErrCatalogUnavailable = errors.New("catalog backend not configured")
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, ErrInvalidParams):
		return &APIError{Code: "INVALID_PARAMS", Message: err.Error(), RecoveryHint: "Check the tool input schema"}
	case errors.Is(err, ErrUnknownTool):
		return &APIError{Code: "UNKNOWN_TOOL", Message: err.Error(), RecoveryHint: "List tools to see what is available"}
	case errors.Is(err, workflow.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error(), RecoveryHint: "Provide a non-empty query"}
	case errors.Is(err, workflow.ErrUnknownSelector):
		return &APIError{Code: "UNKNOWN_SELECTOR", Message: err.Error(), RecoveryHint: "Use first, best_quality or name:<dataset>"}
	case errors.Is(err, workflow.ErrStepLimit), errors.Is(err, workflow.ErrUnknownNode), errors.Is(err, workflow.ErrDeadEnd):
		return &APIError{Code: "WORKFLOW_MISCONFIGURED", Message: err.Error(), RecoveryHint: "Check workflow.max_steps in the server config"}
	case errors.Is(err, ErrCatalogUnavailable), errors.Is(err, ckan.ErrNotConnected):
		return &APIError{Code: "CATALOG_UNAVAILABLE", Message: err.Error(), RecoveryHint: "Configure ckan.backend and restart the server"}
	case errors.Is(err, ckan.ErrCollaborator):
		return &APIError{Code: "CATALOG_ERROR", Message: err.Error(), RecoveryHint: "Check ckan.server_url and the query"}
	default:
		return nil
	}
}
