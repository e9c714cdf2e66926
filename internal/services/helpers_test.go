package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/franciscosanchezn/partstock/internal/database"
	"github.com/franciscosanchezn/partstock/internal/models"
	"github.com/franciscosanchezn/partstock/internal/olx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.InitDatabase(database.DatabaseConfig{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "services.db"),
		MaxAttempts: 1,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

type unitSeed struct {
	ProductSKU   string
	Title        string
	ComponentRef string
	UnitSKU      string
	Status       string
	Price        int64
}

func seedUnit(t *testing.T, db *gorm.DB, seed unitSeed) *models.Unit {
	t.Helper()
	if seed.ComponentRef == "" {
		seed.ComponentRef = "KF"
	}
	if seed.Status == "" {
		seed.Status = models.UnitStatusActive
	}
	if seed.Price == 0 {
		seed.Price = 10000
	}

	var product models.Product
	err := db.Where(models.Product{SKU: seed.ProductSKU}).
		Attrs(models.Product{Title: seed.Title, ComponentRef: seed.ComponentRef}).
		FirstOrCreate(&product).Error
	require.NoError(t, err)

	unit := &models.Unit{
		ProductID:    product.ID,
		SKU:          seed.UnitSKU,
		SellingPrice: seed.Price,
		Status:       seed.Status,
	}
	require.NoError(t, db.Create(unit).Error)
	return unit
}

type stubTokens struct {
	token string
	ok    bool
	err   error
	calls int
	mu    sync.Mutex
}

func (s *stubTokens) GetUserToken(context.Context) (string, bool, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.token, s.ok, s.err
}

func authorized() *stubTokens {
	return &stubTokens{token: "user-token", ok: true}
}

type recordedCommand struct {
	AdvertID string
	Body     olx.Command
}

// fakeMarketplace serves the partner adverts endpoints.
type fakeMarketplace struct {
	*httptest.Server

	mu       sync.Mutex
	created  []olx.AdvertPayload
	createFn func(payload olx.AdvertPayload) (int, any)
	remote   []map[string]any
	listErr  int
	commands []recordedCommand
	cmdErr   int
}

func newFakeMarketplace(t *testing.T) *fakeMarketplace {
	t.Helper()
	f := &fakeMarketplace{}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeMarketplace) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/api/partner/adverts")
	switch {
	case r.Method == http.MethodPost && path == "":
		var payload olx.AdvertPayload
		_ = json.NewDecoder(r.Body).Decode(&payload)
		f.created = append(f.created, payload)
		status, body := http.StatusOK, any(map[string]any{"id": 1000 + len(f.created), "status": "active"})
		if f.createFn != nil {
			status, body = f.createFn(payload)
		}
		writeJSON(w, status, body)

	case r.Method == http.MethodGet && path == "":
		if f.listErr != 0 {
			http.Error(w, "listing unavailable", f.listErr)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		page := []map[string]any{}
		for i := offset; i < len(f.remote) && i < offset+limit; i++ {
			page = append(page, f.remote[i])
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": page})

	case r.Method == http.MethodPost && strings.HasSuffix(path, "/commands"):
		var cmd olx.Command
		_ = json.NewDecoder(r.Body).Decode(&cmd)
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/"), "/commands")
		f.commands = append(f.commands, recordedCommand{AdvertID: id, Body: cmd})
		if f.cmdErr != 0 {
			http.Error(w, `{"error":"command rejected"}`, f.cmdErr)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeMarketplace) client() *olx.Client {
	return olx.NewClient(olx.ClientOptions{
		Endpoints:     olx.Endpoints{APIBaseURL: f.URL + "/api/partner"},
		SubmitTimeout: 2 * time.Second,
		CheckTimeout:  2 * time.Second,
	})
}

func (f *fakeMarketplace) commandCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.commands)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func testPayloadBuilder(catalog CatalogService) *olx.PayloadBuilder {
	return olx.NewPayloadBuilder(olx.ListingDefaults{
		CategoryID:    377,
		CityID:        1063945,
		ContactName:   "PartStock",
		VATMultiplier: decimal.RequireFromString("1.23"),
		PhotoBaseURL:  "https://photos.example.com",
	}, catalog)
}
