package domain

import (
	"context"
	"time"
)

// AliasStore is the persistent mapping from raw receipt text to canonical
// product identity, shared across all households.
type AliasStore interface {
	// Get returns the product id mapped to the exact receipt text,
	// or ErrAliasNotFound.
	Get(ctx context.Context, receiptText string) (string, error)
	// PutIfAbsent writes the mapping only when no mapping exists for its
	// receipt text yet. Returns true when this call created the mapping.
	// Must be safe under concurrent insert for the same text.
	PutIfAbsent(ctx context.Context, mapping AliasMapping) (bool, error)
}

// CatalogClient is the read-only search interface to the external grocery
// product catalog. Implementations must swallow transport errors and return
// an empty list; a failed search is never fatal to the caller.
type CatalogClient interface {
	Search(ctx context.Context, query string) ([]CatalogCandidate, error)
}

// ShelfLifeEstimator guesses a product's shelf life in days by asking an
// external text-inference service. Any non-numeric or missing reply is
// reported as ErrEstimationUnavailable.
type ShelfLifeEstimator interface {
	Estimate(ctx context.Context, productName string) (int, error)
}

// ProductRegistry is the shared store of canonical product records.
type ProductRegistry interface {
	// FindByID looks a product up by id, or ErrProductNotFound.
	FindByID(ctx context.Context, id string) (*ProductRecord, error)
	// FindByName looks a product up by normalized name, or ErrProductNotFound.
	FindByName(ctx context.Context, name string) (*ProductRecord, error)
	// GetOrCreate returns the existing record with the same normalized name,
	// or creates the given one. Must be an atomic upsert, not read-then-write:
	// concurrent commits for the same new name must yield a single record.
	GetOrCreate(ctx context.Context, record *ProductRecord) (*ProductRecord, error)
	// SetExpirationDays fills a record's shelf life once a real estimate
	// exists. Never called with a fallback value.
	SetExpirationDays(ctx context.Context, productID string, days int) error
}

// InventoryStore persists household inventory entries. InsertBatch reports
// row-level failures; one bad row does not abort the batch.
type InventoryStore interface {
	InsertBatch(ctx context.Context, entries []InventoryEntry) []error
}

// InventoryReader serves the pantry overview and the expiry reminder job.
type InventoryReader interface {
	ListByHouse(ctx context.Context, houseID string) ([]InventoryEntry, error)
	ExpiringBefore(ctx context.Context, houseID string, cutoff time.Time) ([]InventoryEntry, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
