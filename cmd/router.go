package main

import (
	"net/http"
	"time"

	_ "github.com/franciscosanchezn/partstock/docs" // Import generated docs
	"github.com/franciscosanchezn/partstock/internal/controllers"
	"github.com/franciscosanchezn/partstock/internal/middleware"
	"github.com/franciscosanchezn/partstock/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// setupRouter initializes the Gin router and sets up the routes
func setupRouter(a *app) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	units := controllers.NewUnitController(a.catalog)
	olxCtl := controllers.NewOLXController(a.drafts, a.publish, a.adverts)
	olxAuth := controllers.NewOLXAuthController(a.olxAuth)
	clients := controllers.NewClientController(a.clients)
	users := controllers.NewUserController(a.users)
	photos := controllers.NewPhotoController(a.photos)
	olxConfig := controllers.NewOLXConfigController(a.olxConfig)

	router.GET("/health", healthCheckHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST("/oauth/token", a.oauth.HandleToken)
	// Fetched by the marketplace when it imports advert images
	router.GET("/photos/*filepath", photos.Serve)

	v1 := router.Group("/api/v1")
	{
		// Browser redirects, guarded by the OAuth state instead of a bearer token
		v1.GET("/olx/auth/start", olxAuth.Start)
		v1.GET("/olx/auth/callback", olxAuth.Callback)

		secured := v1.Group("")
		secured.Use(middleware.OAuth2Auth([]byte(a.cfg.JWTSecret)))

		operator := secured.Group("")
		operator.Use(middleware.RequireMinRole(models.RoleOperator))
		{
			operator.GET("/units", units.ListUnits)
			operator.GET("/units/:id", units.GetUnit)
			operator.POST("/units/:id/photos", photos.Upload)
			operator.GET("/olx/drafts", olxCtl.ListDrafts)
			operator.POST("/olx/drafts/:unit_id", olxCtl.CreateDraft)
			operator.DELETE("/olx/drafts/:id", olxCtl.DeleteDraft)
			operator.GET("/olx/adverts", olxCtl.ListAdverts)
			operator.GET("/olx/auth/status", olxAuth.Status)
			operator.GET("/olx/auth/check", olxAuth.Check)
			operator.GET("/olx/config/categories", olxConfig.Categories)
			operator.GET("/olx/config/categories/:id/attributes", olxConfig.CategoryAttributes)
			operator.GET("/olx/config/cities", olxConfig.Cities)
			operator.GET("/protected/me", users.Me)
		}

		manager := secured.Group("")
		manager.Use(middleware.RequireMinRole(models.RoleManager))
		{
			manager.POST("/olx/adverts/send_all", olxCtl.SendAll)
			manager.POST("/olx/adverts/refresh", olxCtl.RefreshStatus)
			manager.POST("/olx/adverts/:olx_id/deactivate", olxCtl.Deactivate)
			manager.POST("/olx/adverts/:olx_id/finish", olxCtl.Finish)
			manager.POST("/olx/auth/disconnect", olxAuth.Disconnect)
			manager.POST("/protected/users", users.Register)
		}

		owner := secured.Group("/protected/clients")
		owner.Use(middleware.RequireMinRole(models.RoleOwner))
		{
			owner.POST("", clients.CreateClient)
			owner.GET("", clients.ListClients)
			owner.DELETE("/:id", clients.DeleteClient)
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("Request handled")
	}
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "partstock",
	})
}
