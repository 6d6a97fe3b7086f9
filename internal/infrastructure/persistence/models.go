package persistence

import (
	"time"

	"github.com/NHL-StillFresh/still-fresh-backend/internal/domain"
)

// Product is the gorm model for canonical product records. Identity is the
// normalized name: the unique index is what makes concurrent GetOrCreate
// calls collapse onto a single row.
type Product struct {
	ID              string `gorm:"primaryKey;size:36"`
	Name            string `gorm:"not null"`
	NameNormalized  string `gorm:"uniqueIndex;not null"`
	ImageURL        string
	ExpirationDays  *int
	CatalogSourceID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName specifies the table name
func (Product) TableName() string {
	return "products"
}

// toDomain converts the model to a domain record
func (p *Product) toDomain() *domain.ProductRecord {
	return &domain.ProductRecord{
		ID:              p.ID,
		Name:            p.Name,
		ImageURL:        p.ImageURL,
		ExpirationDays:  p.ExpirationDays,
		CatalogSourceID: p.CatalogSourceID,
	}
}

// ProductAlias links one exact receipt text to a product. The receipt text is
// the primary key, which is what enforces the never-overwritten invariant at
// the storage level.
type ProductAlias struct {
	ReceiptText string `gorm:"primaryKey;size:255"`
	ProductID   string `gorm:"not null;index;size:36"`
	CreatedAt   time.Time
}

// TableName specifies the table name
func (ProductAlias) TableName() string {
	return "product_aliases"
}

// InventoryItem is one dated unit of a product in a house's pantry
type InventoryItem struct {
	ID             string `gorm:"primaryKey;size:36"`
	HouseID        string `gorm:"not null;index;size:36"`
	ProductID      string `gorm:"not null;size:36"`
	Quantity       int    `gorm:"not null;default:1"`
	PurchaseDate   time.Time
	BestBeforeDate time.Time
	CreatedAt      time.Time
}

// TableName specifies the table name
func (InventoryItem) TableName() string {
	return "inventory_items"
}
