package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/franciscosanchezn/partstock/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-jwt-secret-key-32-characters")

func signToken(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

func operatorClaims(role string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"uid":  "7",
		"role": role,
		"aud":  "backoffice",
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
	}
}

func protectedRouter(minRole string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", OAuth2Auth(testSecret), RequireMinRole(minRole), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":    c.GetUint(ContextUserID),
			"role":       c.GetString(ContextUserRole),
			"role_order": c.GetInt(ContextRoleOrder),
			"client_id":  c.GetString(ContextClientID),
		})
	})
	return router
}

func get(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestOAuth2AuthRejectsBadTokens(t *testing.T) {
	router := protectedRouter(models.RoleOperator)

	expired := operatorClaims(models.RoleOwner)
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	noUID := operatorClaims(models.RoleOwner)
	delete(noUID, "uid")

	noExp := operatorClaims(models.RoleOwner)
	delete(noExp, "exp")

	futureIssue := operatorClaims(models.RoleOwner)
	futureIssue["iat"] = time.Now().Add(time.Hour).Unix()

	numericUID := operatorClaims(models.RoleOwner)
	numericUID["uid"] = 7

	zeroUID := operatorClaims(models.RoleOwner)
	zeroUID["uid"] = "0"

	testCases := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "empty bearer", header: "Bearer "},
		{name: "garbage", header: "Bearer not.a.jwt"},
		{name: "expired", header: "Bearer " + signToken(t, expired, jwt.SigningMethodHS512)},
		{name: "missing uid", header: "Bearer " + signToken(t, noUID, jwt.SigningMethodHS512)},
		{name: "unknown role", header: "Bearer " + signToken(t, operatorClaims("admin"), jwt.SigningMethodHS512)},
		{name: "none alg", header: "Bearer " + signNone(t, operatorClaims(models.RoleOwner))},
		{name: "no expiry", header: "Bearer " + signToken(t, noExp, jwt.SigningMethodHS512)},
		{name: "issued in the future", header: "Bearer " + signToken(t, futureIssue, jwt.SigningMethodHS512)},
		{name: "numeric uid", header: "Bearer " + signToken(t, numericUID, jwt.SigningMethodHS512)},
		{name: "zero uid", header: "Bearer " + signToken(t, zeroUID, jwt.SigningMethodHS512)},
		{name: "wrong secret", header: "Bearer " + signWithSecret(t, operatorClaims(models.RoleOwner), []byte("another-secret"))},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			w := get(router, tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer error=")

			var body models.TokenError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func signNone(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return token
}

func signWithSecret(t *testing.T, claims jwt.MapClaims, secret []byte) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func TestOAuth2AuthAcceptsAnyHMACStrength(t *testing.T) {
	router := protectedRouter(models.RoleOperator)
	for _, method := range []jwt.SigningMethod{jwt.SigningMethodHS256, jwt.SigningMethodHS384, jwt.SigningMethodHS512} {
		w := get(router, "Bearer "+signToken(t, operatorClaims(models.RoleOperator), method))
		assert.Equal(t, http.StatusOK, w.Code, method.Alg())
	}
}

func TestOAuth2AuthErrorCodes(t *testing.T) {
	router := protectedRouter(models.RoleOperator)

	var body models.TokenError
	w := get(router, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.ErrInvalidRequest, body.Error)

	w = get(router, "Bearer not.a.jwt")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.ErrInvalidToken, body.Error)
}

func TestRequireMinRole(t *testing.T) {
	testCases := []struct {
		name     string
		minRole  string
		userRole string
		expected int
	}{
		{name: "operator on operator route", minRole: models.RoleOperator, userRole: models.RoleOperator, expected: http.StatusOK},
		{name: "owner on manager route", minRole: models.RoleManager, userRole: models.RoleOwner, expected: http.StatusOK},
		{name: "operator on manager route", minRole: models.RoleManager, userRole: models.RoleOperator, expected: http.StatusForbidden},
		{name: "manager on owner route", minRole: models.RoleOwner, userRole: models.RoleManager, expected: http.StatusForbidden},
		{name: "development everywhere", minRole: models.RoleOwner, userRole: models.RoleDevelopment, expected: http.StatusOK},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			router := protectedRouter(tt.minRole)
			w := get(router, "Bearer "+signToken(t, operatorClaims(tt.userRole), jwt.SigningMethodHS512))
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestRoleOrderComesFromRoleTable(t *testing.T) {
	router := protectedRouter(models.RoleOwner)
	claims := operatorClaims(models.RoleOperator)
	claims["role_order"] = 1

	w := get(router, "Bearer "+signToken(t, claims, jwt.SigningMethodHS512))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOAuth2AuthSetsContext(t *testing.T) {
	router := protectedRouter(models.RoleOperator)

	w := get(router, "Bearer "+signToken(t, operatorClaims(models.RoleManager), jwt.SigningMethodHS512))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7,"role":"responsavel","role_order":30,"client_id":"backoffice"}`, w.Body.String())
}

func TestRequireMinRoleUnknownRolePanics(t *testing.T) {
	assert.Panics(t, func() { RequireMinRole("admin") })
}
