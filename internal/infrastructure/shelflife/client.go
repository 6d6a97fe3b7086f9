package shelflife

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/NHL-StillFresh/still-fresh-backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// promptTemplate asks the completion service for a single bare number. The
// service still occasionally wraps the number in prose, so the reply is
// scanned for the first integer rather than parsed strictly.
const promptTemplate = "How many days does %q stay fresh after purchase when stored as recommended? " +
	"Reply with a single positive whole number of days and nothing else."

var firstIntegerRegex = regexp.MustCompile(`\d+`)

// completionRequest is the wire format of the text-completion endpoint
type completionRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// completionResponse carries the service's reply text
type completionResponse struct {
	Completion string `json:"completion"`
}

// Client asks a hosted text-completion service to guess a product's shelf
// life in days. It satisfies domain.ShelfLifeEstimator; every failure mode
// maps to ErrEstimationUnavailable so callers can fall back uniformly.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// NewClient creates a new shelf-life estimation client
func NewClient(apiKey, baseURL, model string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       model,
		rateLimiter: rate.NewLimiter(rate.Limit(1), 5),
		logger:      logger,
	}
}

// Estimate asks the completion service for the product's shelf life. Returns
// ErrEstimationUnavailable for transport failures and for replies that carry
// no usable number; the two cases are logged distinctly but behave the same.
func (c *Client) Estimate(ctx context.Context, productName string) (int, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limiter error: %w", err)
	}

	payload, err := json.Marshal(completionRequest{
		Model:  c.model,
		Prompt: fmt.Sprintf(promptTemplate, productName),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/completions", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("shelf-life service unreachable",
			zap.String("product", productName),
			zap.Error(err))
		return 0, fmt.Errorf("%w: %v", domain.ErrEstimationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("shelf-life service error",
			zap.String("product", productName),
			zap.Int("status", resp.StatusCode))
		return 0, fmt.Errorf("%w: status %d", domain.ErrEstimationUnavailable, resp.StatusCode)
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrEstimationUnavailable, err)
	}

	days, err := parseDays(completion.Completion)
	if err != nil {
		c.logger.Warn("shelf-life reply not numeric",
			zap.String("product", productName),
			zap.String("reply", completion.Completion))
		return 0, err
	}

	return days, nil
}

// parseDays extracts a positive day count from the completion text
func parseDays(reply string) (int, error) {
	match := firstIntegerRegex.FindString(strings.TrimSpace(reply))
	if match == "" {
		return 0, domain.ErrEstimationUnavailable
	}

	days, err := strconv.Atoi(match)
	if err != nil || days <= 0 {
		return 0, domain.ErrEstimationUnavailable
	}

	return days, nil
}
