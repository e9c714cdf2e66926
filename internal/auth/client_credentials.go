package auth

import (
	"net/http"

	"github.com/franciscosanchezn/partstock/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/go-oauth2/oauth2/v4"
)

// HandleToken handles the operator token endpoint
// @Summary Token Endpoint
// @Description Obtain an operator access token using the client credentials grant
// @Tags OAuth2
// @Accept application/x-www-form-urlencoded
// @Produce json
// @Param grant_type formData string true "Grant type: client_credentials"
// @Param client_id formData string true "Client ID"
// @Param client_secret formData string true "Client Secret"
// @Param scope formData string false "Requested scope"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.TokenError
// @Failure 401 {object} models.TokenError
// @Router /oauth/token [post]
func (o *OAuthService) HandleToken(c *gin.Context) {
	grantType := c.PostForm("grant_type")
	if grantType != oauth2.ClientCredentials.String() {
		c.JSON(http.StatusBadRequest, models.NewTokenError(models.ErrUnsupportedGrantType, "only client_credentials is supported"))
		return
	}

	if err := o.server.HandleTokenRequest(c.Writer, c.Request); err != nil {
		log.WithError(err).WithField("client_id", c.PostForm("client_id")).Error("Token request failed")
		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, models.NewTokenError(models.ErrInvalidRequest, "token_generation_failed"))
		}
	}
}
