package workflow

import (
	"context"

	"github.com/rpggio/ckanflow/internal/ckan"
)

// Catalog is the CKAN service a workflow reads from.
type Catalog interface {
	SearchPackages(ctx context.Context, query string, rows int) (*ckan.SearchResult, error)
	DatastoreSearch(ctx context.Context, resourceID string, limit int) (*ckan.DatastoreResult, error)
}

// Selector picks the dataset to explore. It returns false when no candidate
// is acceptable.
type Selector interface {
	Select(candidates []ScoredDataset) (ScoredDataset, bool)
}
