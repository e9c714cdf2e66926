package controllers

import (
	"context"
	"net/http"

	"github.com/franciscosanchezn/partstock/internal/models"
	"github.com/franciscosanchezn/partstock/internal/olx"
	"github.com/gin-gonic/gin"
)

// OLXAuth is the slice of the marketplace auth manager the HTTP layer uses.
type OLXAuth interface {
	GetClientToken(ctx context.Context) (string, error)
	OAuthURL(redirectURI string) string
	HandleOAuthCallback(ctx context.Context, code, redirectURI string) bool
	IsUserAuthorized(ctx context.Context) bool
	Disconnect(ctx context.Context) error
	Status(ctx context.Context) (*olx.TokenStatus, error)
}

type OLXAuthController struct {
	auth OLXAuth
}

func NewOLXAuthController(auth OLXAuth) *OLXAuthController {
	return &OLXAuthController{auth: auth}
}

// Start godoc
// @Summary Start marketplace authorization
// @Description Redirects the browser to the marketplace consent page
// @Tags OLX auth
// @Success 302 "Redirect to the marketplace"
// @Router /api/v1/olx/auth/start [get]
func (ac *OLXAuthController) Start(c *gin.Context) {
	c.Redirect(http.StatusFound, ac.auth.OAuthURL(""))
}

// Callback godoc
// @Summary Marketplace authorization callback
// @Description Exchanges the authorization code for a user token
// @Tags OLX auth
// @Produce json
// @Param code query string false "Authorization code"
// @Param state query string false "State value issued by start"
// @Param error query string false "Error reported by the marketplace"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.APIError
// @Failure 502 {object} models.APIError
// @Router /api/v1/olx/auth/callback [get]
func (ac *OLXAuthController) Callback(c *gin.Context) {
	if oauthErr := c.Query("error"); oauthErr != "" {
		badRequest(c, "authorization failed: "+oauthErr)
		return
	}

	code := c.Query("code")
	if code == "" {
		badRequest(c, "missing authorization code")
		return
	}
	if c.Query("state") != olx.OAuthState {
		badRequest(c, "invalid state parameter")
		return
	}

	ctx := c.Request.Context()
	if !ac.auth.HandleOAuthCallback(ctx, code, "") {
		c.JSON(http.StatusBadGateway, models.NewAPIError(models.ErrOLXUpstream, "failed to exchange authorization code for tokens"))
		return
	}

	status, err := ac.auth.Status(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "connected to OLX",
		"token_status": status,
	})
}

// Status godoc
// @Summary Marketplace token status
// @Description Tries to acquire a client token, then reports both tokens
// @Tags OLX auth
// @Produce json
// @Success 200 {object} olx.TokenStatus
// @Security BearerAuth
// @Router /api/v1/olx/auth/status [get]
func (ac *OLXAuthController) Status(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := ac.auth.GetClientToken(ctx); err != nil {
		log.WithError(err).Warn("Client token acquisition failed")
	}

	status, err := ac.auth.Status(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Check godoc
// @Summary Check marketplace authorization
// @Tags OLX auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/v1/olx/auth/check [get]
func (ac *OLXAuthController) Check(c *gin.Context) {
	ctx := c.Request.Context()
	status, err := ac.auth.Status(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_authorized": ac.auth.IsUserAuthorized(ctx),
		"token_status":    status,
	})
}

// Disconnect godoc
// @Summary Disconnect from the marketplace
// @Description Removes the stored user token
// @Tags OLX auth
// @Produce json
// @Success 200 {object} olx.TokenStatus
// @Security BearerAuth
// @Router /api/v1/olx/auth/disconnect [post]
func (ac *OLXAuthController) Disconnect(c *gin.Context) {
	ctx := c.Request.Context()
	if err := ac.auth.Disconnect(ctx); err != nil {
		respondError(c, err)
		return
	}

	status, err := ac.auth.Status(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
