package domain

// OCRLine is a single recognized row from the OCR engine, in reading order.
// Only the top candidate text is used by the pipeline; the alternatives are
// kept so a future pass could re-rank low-confidence rows.
type OCRLine struct {
	Text       string   `json:"text" binding:"required"`
	Confidence float64  `json:"confidence,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
}

// ReceiptLine is one cleaned row of the itemized section of a receipt.
// Immutable once extracted; Index is the on-receipt position.
type ReceiptLine struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// ResolutionStatus describes how far a receipt line has come in being mapped
// to a canonical product.
type ResolutionStatus string

const (
	// StatusPending means the line has not been looked up yet
	StatusPending ResolutionStatus = "pending"
	// StatusKnown means an alias mapping resolved the line to an existing product
	StatusKnown ResolutionStatus = "known"
	// StatusUnknown means no alias exists; the line needs manual verification
	StatusUnknown ResolutionStatus = "unknown"
	// StatusSelected means the user picked a catalog candidate for the line
	StatusSelected ResolutionStatus = "selected"
)

// Resolution is the per-line state a reconciliation session tracks.
// Known carries the resolved product id; Selected carries the chosen candidate.
type Resolution struct {
	Status    ResolutionStatus  `json:"status"`
	ProductID string            `json:"productId,omitempty"`
	Candidate *CatalogCandidate `json:"candidate,omitempty"`
}

// Committable reports whether the line may be included in a commit.
// Pending and Unknown lines are silently excluded, never an error.
func (r Resolution) Committable() bool {
	return r.Status == StatusKnown || r.Status == StatusSelected
}

// CatalogCandidate is an ephemeral search hit from the external product
// catalog. Selecting one is what eventually creates a ProductRecord and an
// AliasMapping at commit time; the candidate itself is never persisted.
type CatalogCandidate struct {
	ExternalID string  `json:"externalId"`
	Title      string  `json:"title"`
	ImageURL   string  `json:"imageUrl,omitempty"`
	Price      float64 `json:"price,omitempty"`
	MatchScore float64 `json:"matchScore,omitempty"`
}
