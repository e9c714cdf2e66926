package olx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/franciscosanchezn/partstock/internal/database"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.InitDatabase(database.DatabaseConfig{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "olx.db"),
		MaxAttempts: 1,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

// fakeTokenServer answers the token endpoint. handler receives the decoded
// request body.
type fakeTokenServer struct {
	*httptest.Server
	calls   atomic.Int32
	handler func(w http.ResponseWriter, req TokenRequest)
}

func newFakeTokenServer(t *testing.T, handler func(w http.ResponseWriter, req TokenRequest)) *fakeTokenServer {
	t.Helper()
	f := &fakeTokenServer{handler: handler}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		var req TokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.handler(w, req)
	}))
	t.Cleanup(f.Close)
	return f
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func testClient(baseURL string) *Client {
	return NewClient(ClientOptions{
		Endpoints: Endpoints{
			APIBaseURL:   baseURL + "/api/partner",
			TokenURL:     baseURL + "/api/open/oauth/token",
			AuthorizeURL: baseURL + "/oauth/authorize",
		},
		SubmitTimeout: 2 * time.Second,
		CheckTimeout:  2 * time.Second,
	})
}
