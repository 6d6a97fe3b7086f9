package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/NHL-StillFresh/still-fresh-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAliasRepository implements domain.AliasStore on gorm
type GormAliasRepository struct {
	db *gorm.DB
}

// NewGormAliasRepository creates an alias repository
func NewGormAliasRepository(db *gorm.DB) *GormAliasRepository {
	return &GormAliasRepository{db: db}
}

// Get returns the product id mapped to the exact receipt text
func (r *GormAliasRepository) Get(ctx context.Context, receiptText string) (string, error) {
	var alias ProductAlias
	err := r.db.WithContext(ctx).
		Where("receipt_text = ?", receiptText).
		First(&alias).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.ErrAliasNotFound
		}
		return "", fmt.Errorf("alias lookup failed: %w", err)
	}

	return alias.ProductID, nil
}

// PutIfAbsent writes the mapping only when none exists for its text yet.
// ON CONFLICT DO NOTHING makes this safe under concurrent inserts for the
// same text: the first writer wins and every later writer sees created=false.
func (r *GormAliasRepository) PutIfAbsent(ctx context.Context, mapping domain.AliasMapping) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "receipt_text"}},
			DoNothing: true,
		}).
		Create(&ProductAlias{ReceiptText: mapping.ReceiptText, ProductID: mapping.ProductID})
	if result.Error != nil {
		return false, fmt.Errorf("alias insert failed: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}
