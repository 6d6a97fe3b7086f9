package domain

import (
	"regexp"
	"strings"
	"time"
)

var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)
)

// NormalizeName reduces a product name to its canonical identity key:
// lowercase, special characters removed, whitespace collapsed. Every store
// that keys products by name must use this same normalization.
func NormalizeName(name string) string {
	result := strings.ToLower(name)
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// ProductRecord is the canonical identity of a grocery item, independent of
// how any one receipt prints its name. Identity is keyed by normalized name;
// records are created by catalog import or manual entry and never deleted by
// the pipeline.
type ProductRecord struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ImageURL        string `json:"imageUrl,omitempty"`
	ExpirationDays  *int   `json:"expirationDays,omitempty"`
	CatalogSourceID string `json:"catalogSourceId,omitempty"`
}

// AliasMapping associates one exact receipt text with one canonical product.
// Many receipt phrasings may map to the same product; a given text maps to
// exactly one. Once written a mapping is authoritative and never overwritten.
type AliasMapping struct {
	ReceiptText string `json:"receiptText"`
	ProductID   string `json:"productId"`
}

// InventoryEntry is one dated unit of a product in a household's pantry.
// Quantity is fixed at 1: each receipt line is one unit.
type InventoryEntry struct {
	ID             string    `json:"id"`
	HouseID        string    `json:"houseId"`
	ProductID      string    `json:"productId"`
	Quantity       int       `json:"quantity"`
	PurchaseDate   time.Time `json:"purchaseDate"`
	BestBeforeDate time.Time `json:"bestBeforeDate"`
}

// CommittedLine reports one receipt line that made it into the inventory.
type CommittedLine struct {
	LineIndex int            `json:"lineIndex"`
	Entry     InventoryEntry `json:"entry"`
}

// FailedLine reports one receipt line that could not be committed, with the
// reason. Failed lines may be retried; the commit path is idempotent.
type FailedLine struct {
	LineIndex int    `json:"lineIndex"`
	Reason    string `json:"reason"`
}

// CommitResult is the per-line outcome of a batch commit. Partial success is
// the expected common case, not an error.
type CommitResult struct {
	Succeeded []CommittedLine `json:"succeeded"`
	Failed    []FailedLine    `json:"failed"`
}
