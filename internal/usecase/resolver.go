package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NHL-StillFresh/still-fresh-backend/internal/domain"
	"go.uber.org/zap"
)

// ProductIdentityResolver decides which canonical product (if any) a receipt
// line refers to: alias cache first, external catalog search for the rest.
type ProductIdentityResolver struct {
	aliases      domain.AliasStore
	catalog      domain.CatalogClient
	cache        domain.CacheRepository
	preprocessor *QueryPreprocessor
	matcher      *CandidateMatcher
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// NewProductIdentityResolver creates a resolver with its dependencies.
// The cache may be nil, in which case every search hits the catalog.
func NewProductIdentityResolver(
	aliases domain.AliasStore,
	catalog domain.CatalogClient,
	cache domain.CacheRepository,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *ProductIdentityResolver {
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ProductIdentityResolver{
		aliases:      aliases,
		catalog:      catalog,
		cache:        cache,
		preprocessor: NewQueryPreprocessor(),
		matcher:      NewCandidateMatcher(),
		cacheTTL:     cacheTTL,
		logger:       logger,
	}
}

// Resolve looks the line's exact text up in the alias store. A hit yields
// Known with the mapped product id; a miss yields Unknown. Pure lookup, no
// side effects, so calling it twice gives the same answer.
func (r *ProductIdentityResolver) Resolve(ctx context.Context, line domain.ReceiptLine) (domain.Resolution, error) {
	productID, err := r.aliases.Get(ctx, line.Text)
	if err != nil {
		if errors.Is(err, domain.ErrAliasNotFound) {
			return domain.Resolution{Status: domain.StatusUnknown}, nil
		}
		return domain.Resolution{Status: domain.StatusPending}, fmt.Errorf("alias lookup: %w", err)
	}

	return domain.Resolution{Status: domain.StatusKnown, ProductID: productID}, nil
}

// Search queries the external catalog with a cleaned version of the receipt
// text and returns candidates ranked best-first. Catalog failures degrade to
// an empty result; a line with zero candidates simply stays Unknown.
func (r *ProductIdentityResolver) Search(ctx context.Context, receiptText string) []domain.CatalogCandidate {
	query := r.preprocessor.CleanQuery(receiptText)
	if query == "" {
		return nil
	}

	cacheKey := "catalog:" + domain.NormalizeName(query)
	if cached := r.searchFromCache(ctx, cacheKey); cached != nil {
		return r.matcher.Rank(receiptText, cached)
	}

	candidates, err := r.catalog.Search(ctx, query)
	if err != nil {
		r.logger.Warn("catalog search failed, degrading to empty result",
			zap.String("query", query),
			zap.Error(err))
		return nil
	}

	if r.cache != nil && len(candidates) > 0 {
		if err := r.cache.Set(ctx, cacheKey, candidates, r.cacheTTL); err != nil {
			r.logger.Debug("catalog cache write failed", zap.Error(err))
		}
	}

	return r.matcher.Rank(receiptText, candidates)
}

// searchFromCache returns previously cached candidates for the key, or nil
func (r *ProductIdentityResolver) searchFromCache(ctx context.Context, key string) []domain.CatalogCandidate {
	if r.cache == nil {
		return nil
	}

	value, err := r.cache.Get(ctx, key)
	if err != nil {
		return nil
	}

	switch v := value.(type) {
	case []domain.CatalogCandidate:
		return v
	case []interface{}:
		// Stored through a JSON round trip; rebuild the typed slice
		candidates := make([]domain.CatalogCandidate, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]interface{})
			if !ok {
				return nil
			}
			candidates = append(candidates, candidateFromMap(m))
		}
		return candidates
	default:
		return nil
	}
}

// candidateFromMap converts a JSON-decoded map back to a CatalogCandidate
func candidateFromMap(m map[string]interface{}) domain.CatalogCandidate {
	var c domain.CatalogCandidate
	if v, ok := m["externalId"].(string); ok {
		c.ExternalID = v
	}
	if v, ok := m["title"].(string); ok {
		c.Title = v
	}
	if v, ok := m["imageUrl"].(string); ok {
		c.ImageURL = v
	}
	if v, ok := m["price"].(float64); ok {
		c.Price = v
	}
	return c
}
