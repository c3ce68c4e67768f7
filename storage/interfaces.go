package storage

import (
	"context"

	"listing-analytics/models"
)

// ListingSource is a read-only view over the listing collection
type ListingSource interface {
	Find(ctx context.Context, q models.Query) ([]models.Document, error)
	EstimatedCount(ctx context.Context) (int64, error)
	Close(ctx context.Context) error
}

// Connection is an open datastore handle that can report whether the node
// it talks to currently holds the primary role
type Connection interface {
	IsPrimary(ctx context.Context) (bool, error)
	Close(ctx context.Context) error
}
