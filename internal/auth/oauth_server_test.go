package auth

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/franciscosanchezn/partstock/internal/models"
	"github.com/go-oauth2/oauth2/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "test-jwt-secret-key-32-characters"

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.OAuthClient{}, &models.OperatorToken{})
	require.NoError(t, err)

	return db
}

// seedClient stores an operator with the given role and a client bound to it.
func seedClient(t *testing.T, db *gorm.DB, clientID, secret, role string) *models.User {
	t.Helper()
	order, ok := models.RoleOrder(role)
	require.True(t, ok)

	user := &models.User{Username: clientID + "-operator", Role: role, RoleOrder: order}
	require.NoError(t, db.Create(user).Error)

	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.OAuthClient{
		ID:         clientID,
		Secret:     string(hashed),
		Domain:     "http://localhost",
		Scopes:     "read write",
		UserID:     user.ID,
		GrantTypes: "client_credentials",
	}).Error)
	return user
}

func TestOAuthServerInitialization(t *testing.T) {
	db := setupTestDB(t)

	oauthService := NewOAuthService(db, testSecret)
	assert.NotNil(t, oauthService)
	assert.NotNil(t, oauthService.GetServer())
}

func TestJWTTokenCarriesRole(t *testing.T) {
	db := setupTestDB(t)
	oauthService := NewOAuthService(db, testSecret)
	user := seedClient(t, db, "backoffice", "test_secret", models.RoleManager)

	tokenInfo, err := oauthService.GetServer().Manager.GenerateAccessToken(context.Background(), oauth2.ClientCredentials, &oauth2.TokenGenerateRequest{
		ClientID:     "backoffice",
		ClientSecret: "test_secret",
		Scope:        "read",
	})
	require.NoError(t, err)
	assert.Equal(t, OperatorTokenTTL, tokenInfo.GetAccessExpiresIn())

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(tokenInfo.GetAccess(), claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}))
	require.NoError(t, err)

	assert.Equal(t, strconv.FormatUint(uint64(user.ID), 10), claims["uid"])
	assert.Equal(t, models.RoleManager, claims["role"])
	assert.Equal(t, float64(30), claims["role_order"])
	assert.Equal(t, "backoffice", claims["aud"])

	var stored models.OperatorToken
	require.NoError(t, db.Where("access_token = ?", tokenInfo.GetAccess()).First(&stored).Error)
	assert.Equal(t, "backoffice", stored.ClientID)
}

func TestJWTTokenRequiresOperator(t *testing.T) {
	db := setupTestDB(t)
	oauthService := NewOAuthService(db, testSecret)

	hashed, err := bcrypt.GenerateFromPassword([]byte("s"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.OAuthClient{ID: "orphan", Secret: string(hashed)}).Error)

	_, err = oauthService.GetServer().Manager.GenerateAccessToken(context.Background(), oauth2.ClientCredentials, &oauth2.TokenGenerateRequest{
		ClientID:     "orphan",
		ClientSecret: "s",
	})
	assert.Error(t, err)
}

func TestClientStoreIntegration(t *testing.T) {
	db := setupTestDB(t)
	seedClient(t, db, "integration_test_client", "secret", models.RoleOperator)

	clientStore := NewGormClientStore(db)
	ctx := context.Background()

	retrievedClient, err := clientStore.GetByID(ctx, "integration_test_client")
	require.NoError(t, err)
	assert.Equal(t, "integration_test_client", retrievedClient.GetID())
	assert.NotEmpty(t, retrievedClient.GetUserID())

	_, err = clientStore.GetByID(ctx, "missing")
	assert.Error(t, err)
}

func TestTokenStoreRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	store := NewGormTokenStore(db)
	ctx := context.Background()
	now := time.Now()

	info := &oauthTokenInfo{clientID: "c1", userID: "7", access: "access-1", createdAt: now, expiresIn: time.Hour}
	require.NoError(t, store.Create(ctx, info))

	got, err := store.GetByAccess(ctx, "access-1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.GetClientID())
	assert.Equal(t, "7", got.GetUserID())
	assert.Empty(t, got.GetRefresh())

	_, err = store.GetByCode(ctx, "code")
	assert.ErrorIs(t, err, errCodesNotIssued)

	expired := &oauthTokenInfo{clientID: "c1", access: "access-2", createdAt: now.Add(-2 * time.Hour), expiresIn: time.Hour}
	require.NoError(t, store.Create(ctx, expired))

	n, err := store.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, store.RemoveByAccess(ctx, "access-1"))
	_, err = store.GetByAccess(ctx, "access-1")
	assert.Error(t, err)
}

// oauthTokenInfo is a minimal oauth2.TokenInfo for store tests.
type oauthTokenInfo struct {
	oauth2.TokenInfo
	clientID  string
	userID    string
	access    string
	createdAt time.Time
	expiresIn time.Duration
}

func (i *oauthTokenInfo) GetClientID() string               { return i.clientID }
func (i *oauthTokenInfo) GetUserID() string                 { return i.userID }
func (i *oauthTokenInfo) GetScope() string                  { return "read" }
func (i *oauthTokenInfo) GetCode() string                   { return "" }
func (i *oauthTokenInfo) GetAccess() string                 { return i.access }
func (i *oauthTokenInfo) GetAccessCreateAt() time.Time      { return i.createdAt }
func (i *oauthTokenInfo) GetAccessExpiresIn() time.Duration { return i.expiresIn }
func (i *oauthTokenInfo) GetRefresh() string                { return "" }
