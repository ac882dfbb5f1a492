package mocks

import (
	"context"

	"github.com/rpggio/ckanflow/internal/ckan"
	"github.com/stretchr/testify/mock"
)

// Catalog is a mock for workflow.Catalog.
type Catalog struct {
	mock.Mock
}

func (m *Catalog) SearchPackages(ctx context.Context, query string, rows int) (*ckan.SearchResult, error) {
	args := m.Called(ctx, query, rows)
	if res, ok := args.Get(0).(*ckan.SearchResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Catalog) DatastoreSearch(ctx context.Context, resourceID string, limit int) (*ckan.DatastoreResult, error) {
	args := m.Called(ctx, resourceID, limit)
	if res, ok := args.Get(0).(*ckan.DatastoreResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}
