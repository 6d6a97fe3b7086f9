package domain

import "errors"

var (
	// ErrNotAReceipt is returned when the scanned text is a customer copy or
	// payment approval slip rather than an itemized receipt
	ErrNotAReceipt = errors.New("scanned text is not an itemized receipt")

	// ErrNoItemsFound is returned when extraction produced zero candidate lines
	ErrNoItemsFound = errors.New("no receipt items found")

	// ErrCatalogUnavailable is returned when the product catalog request fails
	ErrCatalogUnavailable = errors.New("product catalog unavailable")

	// ErrEstimationUnavailable is returned when the shelf-life service fails or
	// replies with something that is not a number
	ErrEstimationUnavailable = errors.New("shelf-life estimation unavailable")

	// ErrAliasNotFound is returned when no alias mapping exists for a receipt text
	ErrAliasNotFound = errors.New("alias mapping not found")

	// ErrProductNotFound is returned when a product cannot be found in the registry
	ErrProductNotFound = errors.New("product not found")

	// ErrSessionNotFound is returned when a reconciliation session id is unknown or expired
	ErrSessionNotFound = errors.New("reconciliation session not found")

	// ErrLineNotFound is returned when a line index is outside the session's receipt
	ErrLineNotFound = errors.New("receipt line not found in session")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
