package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/NHL-StillFresh/still-fresh-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements domain.ProductRegistry on gorm
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a product repository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID looks a product up by id
func (r *GormProductRepository) FindByID(ctx context.Context, id string) (*domain.ProductRecord, error) {
	var product Product
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("product lookup failed: %w", err)
	}

	return product.toDomain(), nil
}

// FindByName looks a product up by normalized name
func (r *GormProductRepository) FindByName(ctx context.Context, name string) (*domain.ProductRecord, error) {
	var product Product
	err := r.db.WithContext(ctx).
		Where("name_normalized = ?", domain.NormalizeName(name)).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("product lookup failed: %w", err)
	}

	return product.toDomain(), nil
}

// GetOrCreate returns the record with the same normalized name or creates the
// given one. The unique index plus ON CONFLICT DO NOTHING turns the
// exists-then-insert race into a single atomic upsert: concurrent commits for
// the same new product name always converge on one row.
func (r *GormProductRepository) GetOrCreate(ctx context.Context, record *domain.ProductRecord) (*domain.ProductRecord, error) {
	model := Product{
		ID:              record.ID,
		Name:            record.Name,
		NameNormalized:  domain.NormalizeName(record.Name),
		ImageURL:        record.ImageURL,
		ExpirationDays:  record.ExpirationDays,
		CatalogSourceID: record.CatalogSourceID,
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name_normalized"}},
			DoNothing: true,
		}).
		Create(&model)
	if result.Error != nil {
		return nil, fmt.Errorf("product upsert failed: %w", result.Error)
	}

	// Conflict: another writer owns the name; fetch the surviving row
	if result.RowsAffected == 0 {
		return r.FindByName(ctx, record.Name)
	}

	return model.toDomain(), nil
}

// SetExpirationDays persists a real shelf-life estimate for the product.
// Only ever called with estimates, never with the 7-day fallback.
func (r *GormProductRepository) SetExpirationDays(ctx context.Context, productID string, days int) error {
	result := r.db.WithContext(ctx).
		Model(&Product{}).
		Where("id = ?", productID).
		Update("expiration_days", days)
	if result.Error != nil {
		return fmt.Errorf("product update failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}
