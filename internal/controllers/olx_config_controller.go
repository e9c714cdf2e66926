package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/partstock/internal/olx"
	"github.com/gin-gonic/gin"
)

// MarketplaceConfig reads marketplace reference data with the client token.
type MarketplaceConfig interface {
	Categories(ctx context.Context) ([]olx.Category, error)
	AutoPartsCategories(ctx context.Context) ([]olx.Category, error)
	Cities(ctx context.Context, nameFilter string) ([]olx.City, error)
	CategoryAttributes(ctx context.Context, categoryID int64) ([]olx.CategoryAttribute, error)
}

type OLXConfigController struct {
	config MarketplaceConfig
}

func NewOLXConfigController(config MarketplaceConfig) *OLXConfigController {
	return &OLXConfigController{config: config}
}

// Categories godoc
// @Summary List marketplace categories
// @Description With auto=true only categories that look like vehicle parts are returned
// @Tags OLX config
// @Produce json
// @Param auto query bool false "Only auto parts categories"
// @Success 200 {array} olx.Category
// @Failure 502 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/olx/config/categories [get]
func (cc *OLXConfigController) Categories(c *gin.Context) {
	var (
		categories []olx.Category
		err        error
	)
	if auto, _ := strconv.ParseBool(c.Query("auto")); auto {
		categories, err = cc.config.AutoPartsCategories(c.Request.Context())
	} else {
		categories, err = cc.config.Categories(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// CategoryAttributes godoc
// @Summary List a category's attributes
// @Tags OLX config
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {array} olx.CategoryAttribute
// @Failure 400 {object} models.APIError
// @Failure 502 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/olx/config/categories/{id}/attributes [get]
func (cc *OLXConfigController) CategoryAttributes(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return
	}
	attrs, err := cc.config.CategoryAttributes(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attrs)
}

// Cities godoc
// @Summary List marketplace cities
// @Tags OLX config
// @Produce json
// @Param name query string false "Case-insensitive name filter"
// @Success 200 {array} olx.City
// @Failure 502 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/olx/config/cities [get]
func (cc *OLXConfigController) Cities(c *gin.Context) {
	cities, err := cc.config.Cities(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cities)
}
