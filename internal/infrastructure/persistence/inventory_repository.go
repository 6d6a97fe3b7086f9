package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/NHL-StillFresh/still-fresh-backend/internal/domain"
	"gorm.io/gorm"
)

// GormInventoryRepository implements domain.InventoryStore on gorm
type GormInventoryRepository struct {
	db *gorm.DB
}

// NewGormInventoryRepository creates an inventory repository
func NewGormInventoryRepository(db *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: db}
}

// InsertBatch persists the entries one row at a time and reports failures per
// row, positionally aligned with the input. A bad row never aborts the batch:
// partial success is the expected case for receipt commits.
func (r *GormInventoryRepository) InsertBatch(ctx context.Context, entries []domain.InventoryEntry) []error {
	rowErrs := make([]error, len(entries))

	for i, entry := range entries {
		model := InventoryItem{
			ID:             entry.ID,
			HouseID:        entry.HouseID,
			ProductID:      entry.ProductID,
			Quantity:       entry.Quantity,
			PurchaseDate:   entry.PurchaseDate,
			BestBeforeDate: entry.BestBeforeDate,
		}
		if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
			rowErrs[i] = fmt.Errorf("inventory insert failed: %w", err)
		}
	}

	return rowErrs
}

// ListByHouse returns a house's inventory ordered by best-before date, the
// order the pantry overview presents it in
func (r *GormInventoryRepository) ListByHouse(ctx context.Context, houseID string) ([]domain.InventoryEntry, error) {
	var models []InventoryItem
	err := r.db.WithContext(ctx).
		Where("house_id = ?", houseID).
		Order("best_before_date ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("inventory query failed: %w", err)
	}

	entries := make([]domain.InventoryEntry, len(models))
	for i, m := range models {
		entries[i] = domain.InventoryEntry{
			ID:             m.ID,
			HouseID:        m.HouseID,
			ProductID:      m.ProductID,
			Quantity:       m.Quantity,
			PurchaseDate:   m.PurchaseDate,
			BestBeforeDate: m.BestBeforeDate,
		}
	}

	return entries, nil
}

// ExpiringBefore returns a house's entries with a best-before date at or
// before the cutoff. Feeds the "still fresh?" reminder job.
func (r *GormInventoryRepository) ExpiringBefore(ctx context.Context, houseID string, cutoff time.Time) ([]domain.InventoryEntry, error) {
	var models []InventoryItem
	err := r.db.WithContext(ctx).
		Where("house_id = ? AND best_before_date <= ?", houseID, cutoff).
		Order("best_before_date ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("inventory query failed: %w", err)
	}

	entries := make([]domain.InventoryEntry, len(models))
	for i, m := range models {
		entries[i] = domain.InventoryEntry{
			ID:             m.ID,
			HouseID:        m.HouseID,
			ProductID:      m.ProductID,
			Quantity:       m.Quantity,
			PurchaseDate:   m.PurchaseDate,
			BestBeforeDate: m.BestBeforeDate,
		}
	}

	return entries, nil
}
