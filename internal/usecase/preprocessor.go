package usecase

import (
	"regexp"
	"strings"
)

// Compiled regex patterns for receipt text preprocessing
var (
	// Matches trailing prices like "1.09", "2,95 B" at the end of a line
	trailingPriceRegex = regexp.MustCompile(`\s+\d+[.,]\d{1,2}\s*[A-Za-z]?\s*$`)

	// Matches quantity prefixes like "2x", "3 X", "2 *"
	quantityPrefixRegex = regexp.MustCompile(`^\s*\d+\s*[xX*]\s+`)

	// Matches weight/volume patterns like "0.486 kg", "500 g", "1.5 l", "750ml"
	weightVolumeRegex = regexp.MustCompile(`(?i)\b\d+[.,]?\d*\s*(?:kg|gr|gram|g|ml|cl|l|liter|stuks?|st)\b`)

	// Multiple spaces cleanup
	multiSpaceRegex = regexp.MustCompile(`\s+`)
)

// storeBrandPrefixes are retailer house-brand abbreviations printed before
// the product name. The catalog indexes products by full name, so the prefix
// only adds noise to the search query. Longest prefix first.
var storeBrandPrefixes = []string{
	"ah bio ",
	"ah ",
	"jumbo ",
	"g'woon ",
	"1 de beste ",
	"lidl ",
	"plus ",
	"spar ",
}

// QueryPreprocessor cleans raw receipt text into a focused catalog search query
type QueryPreprocessor struct{}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor() *QueryPreprocessor {
	return &QueryPreprocessor{}
}

// CleanQuery strips prices, quantities, weights and store-brand prefixes from
// a receipt line so the remainder describes just the product.
func (p *QueryPreprocessor) CleanQuery(receiptText string) string {
	cleaned := trailingPriceRegex.ReplaceAllString(receiptText, " ")
	cleaned = quantityPrefixRegex.ReplaceAllString(cleaned, " ")
	cleaned = weightVolumeRegex.ReplaceAllString(cleaned, " ")

	cleaned = multiSpaceRegex.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	lower := strings.ToLower(cleaned)
	for _, prefix := range storeBrandPrefixes {
		if strings.HasPrefix(lower, prefix) {
			cleaned = strings.TrimSpace(cleaned[len(prefix):])
			break
		}
	}

	// Keep the query short; very long queries trip up the catalog API
	if len(cleaned) > 100 {
		cleaned = cleaned[:100]
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > 50 {
			cleaned = cleaned[:lastSpace]
		}
	}

	return cleaned
}
