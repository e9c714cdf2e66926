package olx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMarketplaceConfigServer serves the token endpoint and the reference
// data endpoints, and fails any data call not authorised with the client token.
func newMarketplaceConfigServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/open/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		var req TokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "client_credentials", req.GrantType)
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "client-abc", "expires_in": 3600, "scope": ClientScope})
	})
	requireClientToken := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer client-abc" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid_token"})
				return
			}
			next(w, r)
		}
	}
	mux.HandleFunc("/api/partner/categories", requireClientToken(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{
			{"id": 1, "name": "Casa e Jardim", "is_leaf": false},
			{"id": 377, "name": "Carros, motos e barcos", "is_leaf": false},
			{"id": 932, "name": "Peças e acessórios", "parent_id": 377, "is_leaf": true},
		}})
	}))
	mux.HandleFunc("/api/partner/categories/932/attributes", requireClientToken(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{
			{"code": "state", "label": "Estado", "validation": map[string]any{"type": "select", "required": true},
				"values": []map[string]any{{"code": "used", "label": "Usado"}}},
		}})
	}))
	mux.HandleFunc("/api/partner/cities", requireClientToken(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5000", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 10, "name": "Lisboa", "region_id": 1},
			{"id": 11, "name": "Porto", "region_id": 2},
		})
	}))
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestConfigReader(t *testing.T) *ConfigReader {
	t.Helper()
	server := newMarketplaceConfigServer(t)
	client := testClient(server.URL)
	manager := NewAuthManager(client, NewGormTokenStore(setupTestDB(t)), testCreds)
	return NewConfigReader(client, manager)
}

func TestConfigReaderUsesClientToken(t *testing.T) {
	reader := newTestConfigReader(t)
	ctx := context.Background()

	categories, err := reader.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 3)
	require.NotNil(t, categories[2].ParentID)
	assert.Equal(t, int64(377), *categories[2].ParentID)

	attrs, err := reader.CategoryAttributes(ctx, 932)
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, "state", attrs[0].Code)
	assert.True(t, attrs[0].Validation.Required)
	assert.Equal(t, "used", attrs[0].Values[0].Code)

	cities, err := reader.Cities(ctx, "")
	require.NoError(t, err)
	assert.Len(t, cities, 2)
}

func TestAutoPartsCategoriesFiltersByKeyword(t *testing.T) {
	reader := newTestConfigReader(t)

	categories, err := reader.AutoPartsCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, int64(932), categories[0].ID, "leaf categories come first")
	assert.Equal(t, int64(377), categories[1].ID)
}

func TestCitiesNameFilter(t *testing.T) {
	reader := newTestConfigReader(t)

	cities, err := reader.Cities(context.Background(), "  port ")
	require.NoError(t, err)
	require.Len(t, cities, 1)
	assert.Equal(t, "Porto", cities[0].Name)
}

func TestCategoryAttributesRejectsBadID(t *testing.T) {
	reader := NewConfigReader(testClient("http://127.0.0.1:1"), nil)

	_, err := reader.CategoryAttributes(context.Background(), 0)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}
