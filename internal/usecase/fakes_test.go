package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/NHL-StillFresh/still-fresh-backend/internal/domain"
	"github.com/google/uuid"
)

// fakeAliasStore is an in-memory domain.AliasStore for tests
type fakeAliasStore struct {
	mu      sync.Mutex
	aliases map[string]string
	getErr  error
	gets    int
}

func newFakeAliasStore() *fakeAliasStore {
	return &fakeAliasStore{aliases: make(map[string]string)}
}

func (f *fakeAliasStore) Get(ctx context.Context, receiptText string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return "", f.getErr
	}
	productID, ok := f.aliases[receiptText]
	if !ok {
		return "", domain.ErrAliasNotFound
	}
	return productID, nil
}

func (f *fakeAliasStore) PutIfAbsent(ctx context.Context, mapping domain.AliasMapping) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.aliases[mapping.ReceiptText]; ok {
		return false, nil
	}
	f.aliases[mapping.ReceiptText] = mapping.ProductID
	return true, nil
}

// fakeCatalog is a scripted domain.CatalogClient
type fakeCatalog struct {
	mu         sync.Mutex
	candidates []domain.CatalogCandidate
	err        error
	calls      int
}

func (f *fakeCatalog) Search(ctx context.Context, query string) ([]domain.CatalogCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

// fakeRegistry is an in-memory domain.ProductRegistry keyed by normalized name
type fakeRegistry struct {
	mu       sync.Mutex
	byID     map[string]*domain.ProductRecord
	byName   map[string]*domain.ProductRecord
	upserts  int
	setCalls []string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		byID:   make(map[string]*domain.ProductRecord),
		byName: make(map[string]*domain.ProductRecord),
	}
}

func (f *fakeRegistry) add(record *domain.ProductRecord) {
	f.byID[record.ID] = record
	f.byName[domain.NormalizeName(record.Name)] = record
}

func (f *fakeRegistry) FindByID(ctx context.Context, id string) (*domain.ProductRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	clone := *record
	return &clone, nil
}

func (f *fakeRegistry) FindByName(ctx context.Context, name string) (*domain.ProductRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.byName[domain.NormalizeName(name)]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	clone := *record
	return &clone, nil
}

func (f *fakeRegistry) GetOrCreate(ctx context.Context, record *domain.ProductRecord) (*domain.ProductRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if existing, ok := f.byName[domain.NormalizeName(record.Name)]; ok {
		clone := *existing
		return &clone, nil
	}
	clone := *record
	f.byID[clone.ID] = &clone
	f.byName[domain.NormalizeName(clone.Name)] = &clone
	out := clone
	return &out, nil
}

func (f *fakeRegistry) SetExpirationDays(ctx context.Context, productID string, days int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls = append(f.setCalls, productID)
	record, ok := f.byID[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	record.ExpirationDays = &days
	return nil
}

// fakeInventory records inserted entries and can fail scripted rows
type fakeInventory struct {
	mu      sync.Mutex
	entries []domain.InventoryEntry
	failFor map[string]error // productID -> row error
	batches int
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{failFor: make(map[string]error)}
}

func (f *fakeInventory) InsertBatch(ctx context.Context, entries []domain.InventoryEntry) []error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches++
	rowErrs := make([]error, len(entries))
	for i, entry := range entries {
		if err, ok := f.failFor[entry.ProductID]; ok {
			rowErrs[i] = err
			continue
		}
		f.entries = append(f.entries, entry)
	}
	return rowErrs
}

// fakeEstimator is a scripted domain.ShelfLifeEstimator counting calls per name
type fakeEstimator struct {
	mu    sync.Mutex
	days  int
	err   error
	calls map[string]int
	block chan struct{} // when set, Estimate waits until closed
}

func newFakeEstimator(days int) *fakeEstimator {
	return &fakeEstimator{days: days, calls: make(map[string]int)}
}

func (f *fakeEstimator) Estimate(ctx context.Context, productName string) (int, error) {
	f.mu.Lock()
	f.calls[productName]++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-time.After(5 * time.Second):
			return 0, fmt.Errorf("fake estimator blocked too long")
		}
	}

	if f.err != nil {
		return 0, f.err
	}
	return f.days, nil
}

func (f *fakeEstimator) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// newTestProduct builds a registry-ready product record
func newTestProduct(name string, expirationDays *int) *domain.ProductRecord {
	return &domain.ProductRecord{
		ID:             uuid.NewString(),
		Name:           name,
		ExpirationDays: expirationDays,
	}
}

func intPtr(v int) *int { return &v }
