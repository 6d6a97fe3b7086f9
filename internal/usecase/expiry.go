package usecase

import (
	"context"
	"sync"

	"github.com/NHL-StillFresh/still-fresh-backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultShelfLifeDays is the fallback used to compute a best-before date
// when no estimate is available. It is never persisted as if it were a real
// estimate.
const DefaultShelfLifeDays = 7

// ExpiryService obtains a shelf-life estimate for genuinely new products.
// Each distinct product name is estimated at most once per service instance:
// concurrent callers for the same name share a single in-flight request, and
// the outcome (including a failed one) is memoized.
type ExpiryService struct {
	estimator domain.ShelfLifeEstimator
	logger    *zap.Logger

	group singleflight.Group

	mu   sync.Mutex
	memo map[string]*int
}

// NewExpiryService creates an expiry service around the external estimator
func NewExpiryService(estimator domain.ShelfLifeEstimator, logger *zap.Logger) *ExpiryService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ExpiryService{
		estimator: estimator,
		logger:    logger,
		memo:      make(map[string]*int),
	}
}

// Estimate returns the shelf life in days for the product name, or nil when
// the estimation service fails or replies with something non-numeric. The
// caller decides what fallback to apply; this service never invents a value.
func (s *ExpiryService) Estimate(ctx context.Context, productName string) *int {
	key := domain.NormalizeName(productName)
	if key == "" {
		return nil
	}

	s.mu.Lock()
	if days, ok := s.memo[key]; ok {
		s.mu.Unlock()
		return days
	}
	s.mu.Unlock()

	result, _, _ := s.group.Do(key, func() (interface{}, error) {
		days, err := s.estimator.Estimate(ctx, productName)
		if err != nil {
			s.logger.Warn("shelf-life estimation failed",
				zap.String("product", productName),
				zap.Error(err))
			return (*int)(nil), nil
		}
		return &days, nil
	})

	days := result.(*int)

	s.mu.Lock()
	s.memo[key] = days
	s.mu.Unlock()

	return days
}
