package controllers

import (
	"net/http"
	"strconv"

	"github.com/franciscosanchezn/partstock/internal/models"
	"github.com/franciscosanchezn/partstock/internal/services"
	"github.com/gin-gonic/gin"
)

// UnitController serves the read side of the stock catalog
type UnitController interface {
	// ListUnits retrieves units with optional status filter and paging
	ListUnits(c *gin.Context)
	// GetUnit retrieves a unit with its photos and compatible models
	GetUnit(c *gin.Context)
}

type unitController struct {
	service services.CatalogService
}

// NewUnitController creates a new instance of UnitController
func NewUnitController(service services.CatalogService) UnitController {
	return &unitController{service: service}
}

// ListUnits godoc
// @Summary List stock units
// @Description List units with their listing state
// @Tags units
// @Produce json
// @Param status query string false "Filter by unit status (active, sold, incomplete, consume)"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} services.UnitDetails
// @Failure 400 {object} models.APIError
// @Failure 500 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/units [get]
func (uc *unitController) ListUnits(ctx *gin.Context) {
	filter := services.UnitFilter{Status: ctx.Query("status")}
	if filter.Status != "" && !models.ValidUnitStatus(filter.Status) {
		badRequest(ctx, "invalid status filter")
		return
	}

	var err error
	if filter.Limit, err = queryInt(ctx, "limit"); err != nil {
		badRequest(ctx, "invalid limit")
		return
	}
	if filter.Offset, err = queryInt(ctx, "offset"); err != nil {
		badRequest(ctx, "invalid offset")
		return
	}

	units, err := uc.service.ListUnits(ctx.Request.Context(), filter)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, units)
}

// GetUnit godoc
// @Summary Get unit by ID
// @Description Get a single unit with photos and compatible models
// @Tags units
// @Produce json
// @Param id path int true "Unit ID"
// @Success 200 {object} services.UnitDetails
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/units/{id} [get]
func (uc *unitController) GetUnit(ctx *gin.Context) {
	unitID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	unit, err := uc.service.GetUnitDetails(ctx.Request.Context(), unitID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, unit)
}

func queryInt(ctx *gin.Context, key string) (int, error) {
	raw := ctx.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}

// pathID parses a positive numeric path parameter, answering 400 itself
// when it is malformed.
func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		badRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
