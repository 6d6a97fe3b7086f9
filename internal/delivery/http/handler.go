package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/NHL-StillFresh/still-fresh-backend/internal/domain"
	"github.com/NHL-StillFresh/still-fresh-backend/internal/infrastructure/logger"
	"github.com/NHL-StillFresh/still-fresh-backend/internal/usecase"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// purchaseDateLayout is the wire format for purchase dates
const purchaseDateLayout = "2006-01-02"

// Handler holds dependencies for HTTP handlers. Error logs go through the
// request-scoped logger the middleware hangs on the context.
type Handler struct {
	extractor    *usecase.ReceiptLineExtractor
	resolver     *usecase.ProductIdentityResolver
	sessions     *SessionRegistry
	newCommitter func() *usecase.InventoryCommitter
	inventory    domain.InventoryReader
}

// NewHandler creates a new HTTP handler. newCommitter must build a fresh
// committer per session so shelf-life estimation stays memoized per session.
func NewHandler(
	extractor *usecase.ReceiptLineExtractor,
	resolver *usecase.ProductIdentityResolver,
	sessions *SessionRegistry,
	newCommitter func() *usecase.InventoryCommitter,
	inventory domain.InventoryReader,
) *Handler {
	return &Handler{
		extractor:    extractor,
		resolver:     resolver,
		sessions:     sessions,
		newCommitter: newCommitter,
		inventory:    inventory,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "still-fresh-backend",
		"version": "1.0.0",
	})
}

// extractRequest carries the raw OCR observations of one scanned receipt
type extractRequest struct {
	Lines []domain.OCRLine `json:"lines" binding:"required"`
}

// sessionResponse is the session state the UI renders
type sessionResponse struct {
	SessionID   string                    `json:"sessionId"`
	Lines       []domain.ReceiptLine      `json:"lines"`
	Resolutions map[int]domain.Resolution `json:"resolutions"`
}

// ExtractReceipt runs extraction over the OCR lines, opens a reconciliation
// session and resolves every line against the alias store in one go
func (h *Handler) ExtractReceipt(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	lines, err := h.extractor.Extract(req.Lines)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotAReceipt):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "not_a_receipt"})
		case errors.Is(err, domain.ErrNoItemsFound):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no_items_found"})
		default:
			logger.FromContext(c.Request.Context()).Error("extraction failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "extraction failed"})
		}
		return
	}

	session := usecase.NewReconciliationSession(lines, h.resolver, h.newCommitter())
	resolutions := session.ResolveAll(c.Request.Context())
	h.sessions.Put(session)

	c.JSON(http.StatusCreated, sessionResponse{
		SessionID:   session.ID,
		Lines:       session.Lines(),
		Resolutions: resolutions,
	})
}

// GetSession returns the current per-line resolution state
func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		SessionID:   session.ID,
		Lines:       session.Lines(),
		Resolutions: session.Resolutions(),
	})
}

// searchRequest asks for catalog candidates matching a line's text
type searchRequest struct {
	Text string `json:"text" binding:"required"`
}

// SearchCandidates queries the product catalog for candidates, ranked
// best-first. Catalog outages yield an empty list, never an error status.
func (h *Handler) SearchCandidates(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	candidates := session.Search(c.Request.Context(), req.Text)
	if candidates == nil {
		candidates = []domain.CatalogCandidate{}
	}

	c.JSON(http.StatusOK, gin.H{"candidates": candidates})
}

// selectRequest records the user's pick; a null candidate reverts to Unknown
type selectRequest struct {
	Candidate *domain.CatalogCandidate `json:"candidate"`
}

// SelectCandidate records or clears the selection for one line
func (h *Handler) SelectCandidate(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	lineIndex, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line index"})
		return
	}

	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := session.Select(lineIndex, req.Candidate); err != nil {
		switch {
		case errors.Is(err, domain.ErrLineNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "line not found"})
		default:
			c.JSON(http.StatusConflict, gin.H{"error": "line is not selectable"})
		}
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		SessionID:   session.ID,
		Lines:       session.Lines(),
		Resolutions: session.Resolutions(),
	})
}

// commitRequest finalizes a session into inventory entries for a house
type commitRequest struct {
	HouseID      string `json:"houseId" binding:"required"`
	PurchaseDate string `json:"purchaseDate"`
}

// CommitSession persists every resolved line as a dated inventory entry.
// Partial failure returns 200 with the per-line breakdown; the caller may
// re-invoke for the failed subset.
func (h *Handler) CommitSession(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var req commitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	purchaseDate := time.Now().Truncate(24 * time.Hour)
	if req.PurchaseDate != "" {
		purchaseDate, err = time.Parse(purchaseDateLayout, req.PurchaseDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid purchase date, want YYYY-MM-DD"})
			return
		}
	}

	result, err := session.Commit(c.Request.Context(), req.HouseID, purchaseDate)
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("commit failed",
			zap.String("session", session.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "commit failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// AbandonSession drops the session. No rollback needed: nothing before
// commit has external effects.
func (h *Handler) AbandonSession(c *gin.Context) {
	h.sessions.Delete(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// HouseInventory returns a house's pantry, optionally only the entries
// expiring within the given number of days
func (h *Handler) HouseInventory(c *gin.Context) {
	houseID := c.Param("houseId")

	var (
		entries []domain.InventoryEntry
		err     error
	)
	if within := c.Query("expiringWithinDays"); within != "" {
		days, convErr := strconv.Atoi(within)
		if convErr != nil || days < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expiringWithinDays"})
			return
		}
		cutoff := time.Now().AddDate(0, 0, days)
		entries, err = h.inventory.ExpiringBefore(c.Request.Context(), houseID, cutoff)
	} else {
		entries, err = h.inventory.ListByHouse(c.Request.Context(), houseID)
	}
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("inventory query failed",
			zap.String("house", houseID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "inventory query failed"})
		return
	}

	if entries == nil {
		entries = []domain.InventoryEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
