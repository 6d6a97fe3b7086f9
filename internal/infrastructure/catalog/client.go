package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/NHL-StillFresh/still-fresh-backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// searchResponse is the wire format of the grocery catalog's search endpoint
type searchResponse struct {
	Products  []searchProduct `json:"products"`
	TotalHits int             `json:"totalHits"`
}

// searchProduct is one catalog hit on the wire
type searchProduct struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"imageUrl,omitempty"`
	Price    float64 `json:"price,omitempty"`
}

// Client handles communication with the external grocery product catalog.
// It satisfies domain.CatalogClient through the Search method; transport
// failures are reported as ErrCatalogUnavailable, which callers degrade to an
// empty candidate list.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// NewClient creates a new catalog API client
func NewClient(apiKey, baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	// The catalog allows roughly 1000 requests per hour per key
	limiter := rate.NewLimiter(rate.Limit(0.278), 10)

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: limiter,
		logger:      logger,
	}
}

// exponentialBackoff returns the wait before the next retry attempt
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// doRequest executes an HTTP GET request with proper headers
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "StillFresh/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	return resp, nil
}

// Search queries the catalog and returns candidate products for the query.
// Retries up to 3 times on transient failures; an empty result set is not an
// error here — the resolver decides what to do with zero candidates.
func (c *Client) Search(ctx context.Context, query string) ([]domain.CatalogCandidate, error) {
	endpoint := fmt.Sprintf("%s/v2/products/search", c.baseURL)
	params := url.Values{}
	params.Add("q", query)
	params.Add("api_key", c.apiKey)
	params.Add("pageSize", "10")

	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			c.logger.Warn("catalog request failed",
				zap.Int("attempt", attempt),
				zap.Error(err))
			lastErr = err
			time.Sleep(exponentialBackoff(attempt))
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			c.logger.Warn("catalog API error",
				zap.Int("attempt", attempt),
				zap.Int("status", resp.StatusCode))
			if resp.StatusCode == http.StatusNotFound {
				return nil, domain.ErrProductNotFound
			}
			lastErr = fmt.Errorf("%w: status %d", domain.ErrCatalogUnavailable, resp.StatusCode)
			time.Sleep(exponentialBackoff(attempt))
			continue
		}

		var searchResp searchResponse
		if err := json.Unmarshal(body, &searchResp); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}

		c.logger.Debug("catalog search completed",
			zap.String("query", query),
			zap.Int("hits", len(searchResp.Products)))

		return mapCandidates(searchResp.Products), nil
	}

	return nil, lastErr
}

// mapCandidates converts wire products to domain catalog candidates
func mapCandidates(products []searchProduct) []domain.CatalogCandidate {
	candidates := make([]domain.CatalogCandidate, 0, len(products))
	for _, p := range products {
		candidates = append(candidates, domain.CatalogCandidate{
			ExternalID: p.ID,
			Title:      p.Title,
			ImageURL:   p.ImageURL,
			Price:      p.Price,
		})
	}
	return candidates
}
