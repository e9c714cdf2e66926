package controllers

import (
	"net/http"
	"strings"

	"github.com/franciscosanchezn/partstock/internal/olx"
	"github.com/franciscosanchezn/partstock/internal/services"
	"github.com/gin-gonic/gin"
)

// OLXController serves drafts, publishing and listing reconciliation.
type OLXController struct {
	drafts  services.DraftService
	publish services.PublishService
	adverts services.AdvertService
}

func NewOLXController(drafts services.DraftService, publish services.PublishService, adverts services.AdvertService) *OLXController {
	return &OLXController{
		drafts:  drafts,
		publish: publish,
		adverts: adverts,
	}
}

// CreateDraft godoc
// @Summary Queue a unit for publishing
// @Description Create a draft advert for an active unit
// @Tags OLX drafts
// @Produce json
// @Param unit_id path int true "Unit ID"
// @Success 201 {object} models.OLXDraftAdvert
// @Failure 400 {object} models.APIError "Unit is not active"
// @Failure 404 {object} models.APIError "Unit not found"
// @Failure 409 {object} models.APIError "Draft or live listing already exists"
// @Security BearerAuth
// @Router /api/v1/olx/drafts/{unit_id} [post]
func (oc *OLXController) CreateDraft(c *gin.Context) {
	unitID, ok := pathID(c, "unit_id")
	if !ok {
		return
	}

	draft, err := oc.drafts.CreateDraft(c.Request.Context(), unitID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, draft)
}

// ListDrafts godoc
// @Summary List pending drafts
// @Tags OLX drafts
// @Produce json
// @Success 200 {array} services.DraftView
// @Security BearerAuth
// @Router /api/v1/olx/drafts [get]
func (oc *OLXController) ListDrafts(c *gin.Context) {
	drafts, err := oc.drafts.ListDrafts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, drafts)
}

// DeleteDraft godoc
// @Summary Remove a draft
// @Tags OLX drafts
// @Param id path int true "Draft ID"
// @Success 204 "Draft deleted"
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/olx/drafts/{id} [delete]
func (oc *OLXController) DeleteDraft(c *gin.Context) {
	draftID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := oc.drafts.DeleteDraft(c.Request.Context(), draftID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SendAll godoc
// @Summary Publish every pending draft
// @Description Each draft is processed independently; failures stay queued with their error
// @Tags OLX adverts
// @Produce json
// @Success 200 {object} services.PublishSummary
// @Failure 401 {object} models.APIError "OLX authorization required"
// @Security BearerAuth
// @Router /api/v1/olx/adverts/send_all [post]
func (oc *OLXController) SendAll(c *gin.Context) {
	summary, err := oc.publish.ProcessAllDrafts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ListAdverts godoc
// @Summary List adverts
// @Description Local listings overlaid with live marketplace data, plus listings only the marketplace knows
// @Tags OLX adverts
// @Produce json
// @Success 200 {object} services.EnrichedListings
// @Security BearerAuth
// @Router /api/v1/olx/adverts [get]
func (oc *OLXController) ListAdverts(c *gin.Context) {
	listings, err := oc.adverts.ListEnriched(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

// RefreshStatus godoc
// @Summary Pull listing statuses from the marketplace
// @Tags OLX adverts
// @Produce json
// @Success 200 {object} services.RefreshResult
// @Failure 401 {object} models.APIError "OLX authorization required"
// @Failure 502 {object} models.APIError "Marketplace failure"
// @Security BearerAuth
// @Router /api/v1/olx/adverts/refresh [post]
func (oc *OLXController) RefreshStatus(c *gin.Context) {
	result, err := oc.adverts.RefreshStatus(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Deactivate godoc
// @Summary Deactivate an active listing
// @Tags OLX adverts
// @Accept json
// @Produce json
// @Param olx_id path string true "Marketplace advert ID"
// @Param body body object{is_success=bool} true "Whether the item sold through the marketplace"
// @Success 200 {object} models.OLXAdvert
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Failure 502 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/olx/adverts/{olx_id}/deactivate [post]
func (oc *OLXController) Deactivate(c *gin.Context) {
	var req struct {
		IsSuccess *bool `json:"is_success" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "is_success is required")
		return
	}
	oc.sendCommand(c, olx.CommandDeactivate, req.IsSuccess)
}

// Finish godoc
// @Summary Finish a limited listing
// @Tags OLX adverts
// @Produce json
// @Param olx_id path string true "Marketplace advert ID"
// @Success 200 {object} models.OLXAdvert
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Failure 502 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/olx/adverts/{olx_id}/finish [post]
func (oc *OLXController) Finish(c *gin.Context) {
	oc.sendCommand(c, olx.CommandFinish, nil)
}

func (oc *OLXController) sendCommand(c *gin.Context, command olx.CommandName, isSuccess *bool) {
	olxID := strings.TrimSpace(c.Param("olx_id"))
	if olxID == "" {
		badRequest(c, "invalid olx_id")
		return
	}

	advert, err := oc.adverts.SendCommand(c.Request.Context(), olxID, command, isSuccess)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, advert)
}
