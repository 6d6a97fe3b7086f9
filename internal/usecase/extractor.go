package usecase

import (
	"regexp"
	"strings"

	"github.com/NHL-StillFresh/still-fresh-backend/internal/domain"
)

// pureAmountRegex matches lines that are only a price with no description,
// e.g. "0.50", "1,09", " 12.95 "
var pureAmountRegex = regexp.MustCompile(`^\s*\d+[.,]\d{1,2}\s*$`)

// boilerplateSubstrings are deposit/packaging markers that never describe a
// purchasable item (Dutch receipts: statiegeld, emballage)
var boilerplateSubstrings = []string{
	"statie",
	"emballage",
}

// startMarkers indicate where the itemized section of the receipt begins.
// The LAST occurrence wins: loyalty banners above the items often repeat
// header-like words.
var startMarkers = []string{
	"=",
	"omschrijving", // "description" column header
	"beschrijving",
	"bedrag", // "amount" column header
	"aantal", // "quantity" column header
}

// endMarkers indicate where the itemized section ends. The FIRST occurrence
// after the start boundary wins.
var endMarkers = []string{
	"totaal",
	"total",
	"subtotaal",
	"betaald", // "paid"
	"maestro",
	"mastercard",
	"visa",
	"vpay",
}

// abortKeywords identify a customer-copy/approval slip, which carries no
// itemized lines at all. Their presence anywhere aborts extraction.
var abortKeywords = []string{
	"klant kopie",
	"kopie",
	"akkoord",
}

// ReceiptLineExtractor turns raw OCR line observations into a cleaned,
// ordered list of candidate item lines. Pure and deterministic: the same
// input always yields the same output.
type ReceiptLineExtractor struct{}

// NewReceiptLineExtractor creates a new extractor
func NewReceiptLineExtractor() *ReceiptLineExtractor {
	return &ReceiptLineExtractor{}
}

// Extract cleans an ordered OCR line sequence down to the itemized section.
// Returns domain.ErrNotAReceipt for customer-copy slips and
// domain.ErrNoItemsFound when nothing survives the filters.
func (e *ReceiptLineExtractor) Extract(observations []domain.OCRLine) ([]domain.ReceiptLine, error) {
	// Step 1: noise filtering, keeping original on-receipt positions
	var lines []domain.ReceiptLine
	for i, obs := range observations {
		text := strings.TrimSpace(obs.Text)
		if text == "" {
			continue
		}
		if pureAmountRegex.MatchString(text) {
			continue
		}
		if containsAny(text, boilerplateSubstrings) {
			continue
		}
		lines = append(lines, domain.ReceiptLine{Index: i, Text: text})
	}

	// Customer-copy slips are terminal: the scan is not a receipt at all,
	// regardless of where the keyword sits
	for _, line := range lines {
		if containsAny(line.Text, abortKeywords) {
			return nil, domain.ErrNotAReceipt
		}
	}

	// Step 2: last start marker wins; nothing is dropped when none is found
	start := 0
	for i, line := range lines {
		if containsAny(line.Text, startMarkers) {
			start = i
		}
	}
	lines = lines[start:]

	// Step 3: first end marker after the start boundary; everything from it
	// onward is dropped
	for i, line := range lines {
		if containsAny(line.Text, endMarkers) {
			lines = lines[:i]
			break
		}
	}

	// Step 4: the start boundary line itself may be a trailing header
	// fragment ("=", column headers); strip it when items remain below it
	if len(lines) > 1 && looksLikeHeaderFragment(lines[0].Text) {
		lines = lines[1:]
	}

	if len(lines) == 0 {
		return nil, domain.ErrNoItemsFound
	}

	return lines, nil
}

// containsAny reports whether the text contains any of the markers,
// case-insensitively
func containsAny(text string, markers []string) bool {
	lower := strings.ToLower(text)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// looksLikeHeaderFragment reports whether a line is a leftover piece of the
// receipt header rather than an item
func looksLikeHeaderFragment(text string) bool {
	return strings.Contains(text, "=") || containsAny(text, startMarkers) || containsAny(text, endMarkers)
}
