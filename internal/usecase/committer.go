package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/NHL-StillFresh/still-fresh-backend/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// commitFanOut bounds how many lines are resolved concurrently during a
// commit, so a large receipt does not hammer the backend stores.
const commitFanOut = 4

// InventoryCommitter turns a session's resolved lines into persisted
// inventory entries. Every step is per-line and fetch-or-create, so a partial
// failure never blocks the other lines and a retry of the failed subset is
// safe.
type InventoryCommitter struct {
	products  domain.ProductRegistry
	aliases   domain.AliasStore
	inventory domain.InventoryStore
	expiry    *ExpiryService
	logger    *zap.Logger
}

// NewInventoryCommitter creates a committer with its dependencies
func NewInventoryCommitter(
	products domain.ProductRegistry,
	aliases domain.AliasStore,
	inventory domain.InventoryStore,
	expiry *ExpiryService,
	logger *zap.Logger,
) *InventoryCommitter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &InventoryCommitter{
		products:  products,
		aliases:   aliases,
		inventory: inventory,
		expiry:    expiry,
		logger:    logger,
	}
}

// commitLine pairs a receipt line with its resolution for the commit pass
type commitLine struct {
	line       domain.ReceiptLine
	resolution domain.Resolution
}

// Commit persists one inventory entry per committable line. Lines still
// Pending or Unknown are silently excluded. The returned CommitResult reports
// per-line success and failure; it never aborts the batch for one bad row.
func (c *InventoryCommitter) Commit(
	ctx context.Context,
	lines []domain.ReceiptLine,
	resolutions map[int]domain.Resolution,
	houseID string,
	purchaseDate time.Time,
) (*domain.CommitResult, error) {
	if houseID == "" {
		return nil, domain.ErrInvalidRequest
	}

	var included []commitLine
	for _, line := range lines {
		res, ok := resolutions[line.Index]
		if !ok || !res.Committable() {
			continue
		}
		included = append(included, commitLine{line: line, resolution: res})
	}

	result := &domain.CommitResult{
		Succeeded: []domain.CommittedLine{},
		Failed:    []domain.FailedLine{},
	}
	if len(included) == 0 {
		return result, nil
	}

	type preparedEntry struct {
		lineIndex int
		entry     domain.InventoryEntry
	}

	var (
		mu       sync.Mutex
		prepared []preparedEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(commitFanOut)

	for _, cl := range included {
		cl := cl
		g.Go(func() error {
			entry, err := c.prepareEntry(gctx, cl, houseID, purchaseDate)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.logger.Warn("line commit preparation failed",
					zap.Int("line", cl.line.Index),
					zap.Error(err))
				result.Failed = append(result.Failed, domain.FailedLine{
					LineIndex: cl.line.Index,
					Reason:    err.Error(),
				})
				return nil
			}
			prepared = append(prepared, preparedEntry{lineIndex: cl.line.Index, entry: *entry})
			return nil
		})
	}

	// Workers only record failures; the group error is always nil unless the
	// context died
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Deterministic batch order regardless of worker scheduling
	sort.Slice(prepared, func(i, j int) bool { return prepared[i].lineIndex < prepared[j].lineIndex })

	entries := make([]domain.InventoryEntry, len(prepared))
	for i, p := range prepared {
		entries[i] = p.entry
	}

	rowErrs := c.inventory.InsertBatch(ctx, entries)
	for i, p := range prepared {
		if i < len(rowErrs) && rowErrs[i] != nil {
			result.Failed = append(result.Failed, domain.FailedLine{
				LineIndex: p.lineIndex,
				Reason:    rowErrs[i].Error(),
			})
			continue
		}
		result.Succeeded = append(result.Succeeded, domain.CommittedLine{
			LineIndex: p.lineIndex,
			Entry:     p.entry,
		})
	}

	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].LineIndex < result.Failed[j].LineIndex })

	return result, nil
}

// prepareEntry resolves the line to a product record and builds its inventory
// entry. For Selected lines this is where the deferred side effects happen:
// fetch-or-create the product, then fetch-or-create the alias mapping.
func (c *InventoryCommitter) prepareEntry(
	ctx context.Context,
	cl commitLine,
	houseID string,
	purchaseDate time.Time,
) (*domain.InventoryEntry, error) {
	var (
		product *domain.ProductRecord
		err     error
	)

	switch cl.resolution.Status {
	case domain.StatusKnown:
		// Already resolved through the alias store; best-before still needs
		// the record's shelf life
		product, err = c.products.FindByID(ctx, cl.resolution.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product lookup: %w", err)
		}
	case domain.StatusSelected:
		candidate := cl.resolution.Candidate
		if candidate == nil {
			return nil, domain.ErrInvalidRequest
		}
		// Identity is keyed by normalized name: a candidate whose title
		// matches an existing record reuses it instead of duplicating
		product, err = c.products.GetOrCreate(ctx, &domain.ProductRecord{
			ID:              uuid.NewString(),
			Name:            candidate.Title,
			ImageURL:        candidate.ImageURL,
			CatalogSourceID: candidate.ExternalID,
		})
		if err != nil {
			return nil, fmt.Errorf("product upsert: %w", err)
		}
		// An existing mapping for this exact text stays authoritative
		mapping := domain.AliasMapping{ReceiptText: cl.line.Text, ProductID: product.ID}
		if _, err := c.aliases.PutIfAbsent(ctx, mapping); err != nil {
			return nil, fmt.Errorf("alias write: %w", err)
		}
	default:
		return nil, domain.ErrInvalidRequest
	}

	days := DefaultShelfLifeDays
	if product.ExpirationDays != nil {
		days = *product.ExpirationDays
	} else if estimate := c.expiry.Estimate(ctx, product.Name); estimate != nil {
		days = *estimate
		if err := c.products.SetExpirationDays(ctx, product.ID, *estimate); err != nil {
			c.logger.Warn("could not persist shelf-life estimate",
				zap.String("product_id", product.ID),
				zap.Error(err))
		}
	}

	return &domain.InventoryEntry{
		ID:             uuid.NewString(),
		HouseID:        houseID,
		ProductID:      product.ID,
		Quantity:       1,
		PurchaseDate:   purchaseDate,
		BestBeforeDate: purchaseDate.AddDate(0, 0, days),
	}, nil
}
