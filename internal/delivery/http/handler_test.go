package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NHL-StillFresh/still-fresh-backend/config"
	"github.com/NHL-StillFresh/still-fresh-backend/internal/domain"
	"github.com/NHL-StillFresh/still-fresh-backend/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubAliasStore maps exact receipt texts to product ids
type stubAliasStore struct {
	aliases map[string]string
}

func (s *stubAliasStore) Get(ctx context.Context, receiptText string) (string, error) {
	productID, ok := s.aliases[receiptText]
	if !ok {
		return "", domain.ErrAliasNotFound
	}
	return productID, nil
}

func (s *stubAliasStore) PutIfAbsent(ctx context.Context, mapping domain.AliasMapping) (bool, error) {
	if _, ok := s.aliases[mapping.ReceiptText]; ok {
		return false, nil
	}
	s.aliases[mapping.ReceiptText] = mapping.ProductID
	return true, nil
}

// stubCatalog returns a fixed candidate list
type stubCatalog struct {
	candidates []domain.CatalogCandidate
}

func (s *stubCatalog) Search(ctx context.Context, query string) ([]domain.CatalogCandidate, error) {
	return s.candidates, nil
}

// stubRegistry keeps products in memory keyed by normalized name
type stubRegistry struct {
	byID   map[string]*domain.ProductRecord
	byName map[string]*domain.ProductRecord
}

func newStubRegistry() *stubRegistry {
	return &stubRegistry{
		byID:   make(map[string]*domain.ProductRecord),
		byName: make(map[string]*domain.ProductRecord),
	}
}

func (s *stubRegistry) add(record *domain.ProductRecord) {
	s.byID[record.ID] = record
	s.byName[domain.NormalizeName(record.Name)] = record
}

func (s *stubRegistry) FindByID(ctx context.Context, id string) (*domain.ProductRecord, error) {
	record, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return record, nil
}

func (s *stubRegistry) FindByName(ctx context.Context, name string) (*domain.ProductRecord, error) {
	record, ok := s.byName[domain.NormalizeName(name)]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return record, nil
}

func (s *stubRegistry) GetOrCreate(ctx context.Context, record *domain.ProductRecord) (*domain.ProductRecord, error) {
	if existing, ok := s.byName[domain.NormalizeName(record.Name)]; ok {
		return existing, nil
	}
	s.add(record)
	return record, nil
}

func (s *stubRegistry) SetExpirationDays(ctx context.Context, productID string, days int) error {
	record, ok := s.byID[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	record.ExpirationDays = &days
	return nil
}

// stubInventory records inserts and serves reads
type stubInventory struct {
	entries []domain.InventoryEntry
}

func (s *stubInventory) InsertBatch(ctx context.Context, entries []domain.InventoryEntry) []error {
	s.entries = append(s.entries, entries...)
	return make([]error, len(entries))
}

func (s *stubInventory) ListByHouse(ctx context.Context, houseID string) ([]domain.InventoryEntry, error) {
	var out []domain.InventoryEntry
	for _, entry := range s.entries {
		if entry.HouseID == houseID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *stubInventory) ExpiringBefore(ctx context.Context, houseID string, cutoff time.Time) ([]domain.InventoryEntry, error) {
	var out []domain.InventoryEntry
	for _, entry := range s.entries {
		if entry.HouseID == houseID && !entry.BestBeforeDate.After(cutoff) {
			out = append(out, entry)
		}
	}
	return out, nil
}

// stubEstimator always answers the same number of days
type stubEstimator struct {
	days int
}

func (s *stubEstimator) Estimate(ctx context.Context, productName string) (int, error) {
	return s.days, nil
}

type apiFixture struct {
	router    *gin.Engine
	aliases   *stubAliasStore
	catalog   *stubCatalog
	registry  *stubRegistry
	inventory *stubInventory
	sessions  *SessionRegistry
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	aliases := &stubAliasStore{aliases: make(map[string]string)}
	catalog := &stubCatalog{}
	registry := newStubRegistry()
	inventory := &stubInventory{}
	estimator := &stubEstimator{days: 7}

	sessions := NewSessionRegistry(time.Hour)
	t.Cleanup(sessions.Close)

	resolver := usecase.NewProductIdentityResolver(aliases, catalog, nil, 0, nil)
	newCommitter := func() *usecase.InventoryCommitter {
		return usecase.NewInventoryCommitter(registry, aliases, inventory,
			usecase.NewExpiryService(estimator, nil), nil)
	}

	handler := NewHandler(usecase.NewReceiptLineExtractor(), resolver, sessions,
		newCommitter, inventory)

	cfg := &config.Config{}
	cfg.Server.Environment = "development"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.RateLimit.PerIP = 1000

	return &apiFixture{
		router:    SetupRouter(cfg, handler, zap.NewNop()),
		aliases:   aliases,
		catalog:   catalog,
		registry:  registry,
		inventory: inventory,
		sessions:  sessions,
	}
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func receiptLines() []domain.OCRLine {
	return []domain.OCRLine{
		{Text: "Albert Heijn", Confidence: 0.95},
		{Text: "=", Confidence: 0.9},
		{Text: "AH Halfvolle Melk 1.09", Confidence: 0.92},
		{Text: "Roomboter Croissant 2.20", Confidence: 0.9},
		{Text: "TOTAAL 3.29", Confidence: 0.97},
	}
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) sessionResponse {
	t.Helper()
	var resp sessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestExtractReceipt(t *testing.T) {
	t.Run("opens a session over the itemized lines", func(t *testing.T) {
		f := newAPIFixture(t)
		product := &domain.ProductRecord{ID: uuid.NewString(), Name: "Halfvolle Melk"}
		f.registry.add(product)
		f.aliases.aliases["AH Halfvolle Melk 1.09"] = product.ID

		w := f.do(t, http.MethodPost, "/api/v1/receipts/extract",
			map[string]interface{}{"lines": receiptLines()})
		require.Equal(t, http.StatusCreated, w.Code)

		resp := decodeSession(t, w)
		assert.NotEmpty(t, resp.SessionID)
		require.Len(t, resp.Lines, 2)
		assert.Equal(t, "AH Halfvolle Melk 1.09", resp.Lines[0].Text)
		assert.Equal(t, domain.StatusKnown, resp.Resolutions[resp.Lines[0].Index].Status)
		assert.Equal(t, domain.StatusUnknown, resp.Resolutions[resp.Lines[1].Index].Status)
	})

	t.Run("non-receipt input is unprocessable", func(t *testing.T) {
		f := newAPIFixture(t)
		lines := []domain.OCRLine{
			{Text: "Dear customer,", Confidence: 0.9},
			{Text: "KLANT KOPIE", Confidence: 0.9},
		}

		w := f.do(t, http.MethodPost, "/api/v1/receipts/extract",
			map[string]interface{}{"lines": lines})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "not_a_receipt")
	})

	t.Run("itemless receipt is unprocessable", func(t *testing.T) {
		f := newAPIFixture(t)
		lines := []domain.OCRLine{
			{Text: "TOTAAL 0.00", Confidence: 0.9},
		}

		w := f.do(t, http.MethodPost, "/api/v1/receipts/extract",
			map[string]interface{}{"lines": lines})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "no_items_found")
	})

	t.Run("missing body is a bad request", func(t *testing.T) {
		f := newAPIFixture(t)
		w := f.do(t, http.MethodPost, "/api/v1/receipts/extract", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSessionEndpoints(t *testing.T) {
	openSession := func(t *testing.T, f *apiFixture) sessionResponse {
		t.Helper()
		w := f.do(t, http.MethodPost, "/api/v1/receipts/extract",
			map[string]interface{}{"lines": receiptLines()})
		require.Equal(t, http.StatusCreated, w.Code)
		return decodeSession(t, w)
	}

	t.Run("get session returns current state", func(t *testing.T) {
		f := newAPIFixture(t)
		opened := openSession(t, f)

		w := f.do(t, http.MethodGet, "/api/v1/sessions/"+opened.SessionID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, opened.SessionID, decodeSession(t, w).SessionID)
	})

	t.Run("unknown session is not found", func(t *testing.T) {
		f := newAPIFixture(t)
		w := f.do(t, http.MethodGet, "/api/v1/sessions/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("search returns ranked candidates", func(t *testing.T) {
		f := newAPIFixture(t)
		f.catalog.candidates = []domain.CatalogCandidate{
			{ExternalID: "wi1", Title: "Halfvolle Melk"},
		}
		opened := openSession(t, f)

		w := f.do(t, http.MethodPost, "/api/v1/sessions/"+opened.SessionID+"/search",
			map[string]string{"text": "AH Halfvolle Melk"})
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Candidates []domain.CatalogCandidate `json:"candidates"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Candidates, 1)
		assert.Equal(t, "wi1", resp.Candidates[0].ExternalID)
	})

	t.Run("select records the pick for an unknown line", func(t *testing.T) {
		f := newAPIFixture(t)
		opened := openSession(t, f)
		lineIndex := opened.Lines[0].Index

		w := f.do(t, http.MethodPost,
			"/api/v1/sessions/"+opened.SessionID+"/lines/3/select",
			map[string]interface{}{"candidate": domain.CatalogCandidate{
				ExternalID: "wi2", Title: "Roomboter Croissants",
			}})
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeSession(t, w)
		assert.Equal(t, domain.StatusSelected, resp.Resolutions[3].Status)
		assert.Equal(t, domain.StatusUnknown, resp.Resolutions[lineIndex].Status)
	})

	t.Run("select on a missing line is not found", func(t *testing.T) {
		f := newAPIFixture(t)
		opened := openSession(t, f)

		w := f.do(t, http.MethodPost,
			"/api/v1/sessions/"+opened.SessionID+"/lines/99/select",
			map[string]interface{}{"candidate": domain.CatalogCandidate{ExternalID: "wi2", Title: "X"}})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("select on a known line conflicts", func(t *testing.T) {
		f := newAPIFixture(t)
		product := &domain.ProductRecord{ID: uuid.NewString(), Name: "Halfvolle Melk"}
		f.registry.add(product)
		f.aliases.aliases["AH Halfvolle Melk 1.09"] = product.ID
		opened := openSession(t, f)

		w := f.do(t, http.MethodPost,
			"/api/v1/sessions/"+opened.SessionID+"/lines/2/select",
			map[string]interface{}{"candidate": domain.CatalogCandidate{ExternalID: "wi2", Title: "X"}})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("commit persists resolved lines and records the alias", func(t *testing.T) {
		f := newAPIFixture(t)
		opened := openSession(t, f)

		w := f.do(t, http.MethodPost,
			"/api/v1/sessions/"+opened.SessionID+"/lines/2/select",
			map[string]interface{}{"candidate": domain.CatalogCandidate{
				ExternalID: "wi1", Title: "Halfvolle Melk",
			}})
		require.Equal(t, http.StatusOK, w.Code)

		w = f.do(t, http.MethodPost, "/api/v1/sessions/"+opened.SessionID+"/commit",
			map[string]string{"houseId": "house-1", "purchaseDate": "2024-03-15"})
		require.Equal(t, http.StatusOK, w.Code)

		var result domain.CommitResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		require.Len(t, result.Succeeded, 1)
		assert.Empty(t, result.Failed)

		require.Len(t, f.inventory.entries, 1)
		entry := f.inventory.entries[0]
		assert.Equal(t, "house-1", entry.HouseID)
		assert.Equal(t, time.Date(2024, 3, 22, 0, 0, 0, 0, time.UTC), entry.BestBeforeDate)
		assert.Contains(t, f.aliases.aliases, "AH Halfvolle Melk 1.09")
	})

	t.Run("commit with a bad date is rejected", func(t *testing.T) {
		f := newAPIFixture(t)
		opened := openSession(t, f)

		w := f.do(t, http.MethodPost, "/api/v1/sessions/"+opened.SessionID+"/commit",
			map[string]string{"houseId": "house-1", "purchaseDate": "15-03-2024"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("commit without house id is rejected", func(t *testing.T) {
		f := newAPIFixture(t)
		opened := openSession(t, f)

		w := f.do(t, http.MethodPost, "/api/v1/sessions/"+opened.SessionID+"/commit",
			map[string]string{"purchaseDate": "2024-03-15"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("abandon drops the session", func(t *testing.T) {
		f := newAPIFixture(t)
		opened := openSession(t, f)

		w := f.do(t, http.MethodDelete, "/api/v1/sessions/"+opened.SessionID, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = f.do(t, http.MethodGet, "/api/v1/sessions/"+opened.SessionID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHouseInventory(t *testing.T) {
	seed := func(f *apiFixture) {
		now := time.Now()
		f.inventory.entries = []domain.InventoryEntry{
			{ID: "e1", HouseID: "house-1", ProductID: "p1", BestBeforeDate: now.AddDate(0, 0, 2)},
			{ID: "e2", HouseID: "house-1", ProductID: "p2", BestBeforeDate: now.AddDate(0, 0, 30)},
			{ID: "e3", HouseID: "house-2", ProductID: "p3", BestBeforeDate: now.AddDate(0, 0, 1)},
		}
	}

	t.Run("lists the house's pantry", func(t *testing.T) {
		f := newAPIFixture(t)
		seed(f)

		w := f.do(t, http.MethodGet, "/api/v1/houses/house-1/inventory", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Entries []domain.InventoryEntry `json:"entries"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Entries, 2)
	})

	t.Run("filters by expiry window", func(t *testing.T) {
		f := newAPIFixture(t)
		seed(f)

		w := f.do(t, http.MethodGet, "/api/v1/houses/house-1/inventory?expiringWithinDays=7", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Entries []domain.InventoryEntry `json:"entries"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Entries, 1)
		assert.Equal(t, "e1", resp.Entries[0].ID)
	})

	t.Run("rejects a bad window", func(t *testing.T) {
		f := newAPIFixture(t)
		w := f.do(t, http.MethodGet, "/api/v1/houses/house-1/inventory?expiringWithinDays=soon", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty house yields an empty list", func(t *testing.T) {
		f := newAPIFixture(t)
		w := f.do(t, http.MethodGet, "/api/v1/houses/house-9/inventory", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"entries":[]`)
	})
}
