package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/franciscosanchezn/partstock/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by OAuth2Auth.
const (
	ContextUserID    = "userID"
	ContextUserRole  = "userRole"
	ContextRoleOrder = "roleOrder"
	ContextClientID  = "clientID"
)

var hmacMethods = []string{"HS256", "HS384", "HS512"}

// OperatorClaims is the payload of an access token issued by /oauth/token.
// Any role_order in the token is ignored; the order comes from the role.
type OperatorClaims struct {
	jwt.RegisteredClaims
	UID  string `json:"uid"`
	Role string `json:"role"`
}

// operator is what a verified token grants.
type operator struct {
	id       uint
	role     string
	order    int
	clientID string
}

func (c *OperatorClaims) operator() (operator, error) {
	if c.UID == "" {
		return operator{}, errors.New("token has no uid")
	}
	id, err := strconv.ParseUint(c.UID, 10, 32)
	if err != nil || id == 0 {
		return operator{}, fmt.Errorf("malformed uid %q", c.UID)
	}
	order, ok := models.RoleOrder(c.Role)
	if !ok {
		return operator{}, fmt.Errorf("unknown role %q", c.Role)
	}
	op := operator{id: uint(id), role: c.Role, order: order}
	if len(c.Audience) > 0 {
		op.clientID = c.Audience[0]
	}
	return op, nil
}

// OAuth2Auth accepts requests carrying an operator bearer token signed with
// jwtSecret and stores who the operator is in the context.
func OAuth2Auth(jwtSecret []byte) gin.HandlerFunc {
	keyFunc := func(*jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	}

	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			rejectToken(c, models.ErrInvalidRequest, "a Bearer token is required")
			return
		}

		var claims OperatorClaims
		_, err := jwt.ParseWithClaims(raw, &claims, keyFunc,
			jwt.WithValidMethods(hmacMethods),
			jwt.WithIssuedAt(),
			jwt.WithExpirationRequired(),
		)
		if err != nil {
			rejectToken(c, models.ErrInvalidToken, err.Error())
			return
		}

		op, err := claims.operator()
		if err != nil {
			rejectToken(c, models.ErrInvalidToken, err.Error())
			return
		}

		c.Set(ContextUserID, op.id)
		c.Set(ContextUserRole, op.role)
		c.Set(ContextRoleOrder, op.order)
		if op.clientID != "" {
			c.Set(ContextClientID, op.clientID)
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func rejectToken(c *gin.Context, code, description string) {
	c.Header("WWW-Authenticate", fmt.Sprintf(`Bearer error=%q`, code))
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewTokenError(code, description))
}
