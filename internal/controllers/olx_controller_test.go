package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/franciscosanchezn/partstock/internal/models"
	"github.com/franciscosanchezn/partstock/internal/olx"
	"github.com/franciscosanchezn/partstock/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func olxRouter(drafts *stubDrafts, publish *stubPublish, adverts *stubAdverts) *gin.Engine {
	oc := NewOLXController(drafts, publish, adverts)
	router := gin.New()
	router.POST("/drafts/:unit_id", oc.CreateDraft)
	router.GET("/drafts", oc.ListDrafts)
	router.DELETE("/drafts/:id", oc.DeleteDraft)
	router.GET("/adverts", oc.ListAdverts)
	router.POST("/adverts/send_all", oc.SendAll)
	router.POST("/adverts/refresh", oc.RefreshStatus)
	router.POST("/adverts/:olx_id/deactivate", oc.Deactivate)
	router.POST("/adverts/:olx_id/finish", oc.Finish)
	return router
}

func TestErrorMapping(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "auth required", err: olx.ErrAuthRequired, status: http.StatusUnauthorized, code: models.ErrOLXAuthRequired},
		{name: "wrapped auth required", err: fmt.Errorf("publish: %w", olx.ErrAuthRequired), status: http.StatusUnauthorized, code: models.ErrOLXAuthRequired},
		{name: "invalid", err: olx.Invalidf("unit 1 is sold"), status: http.StatusBadRequest, code: models.ErrValidationFailed},
		{name: "not found", err: olx.NotFoundf("unit 1 not found"), status: http.StatusNotFound, code: models.ErrNotFound},
		{name: "conflict", err: olx.Conflictf("draft exists"), status: http.StatusConflict, code: models.ErrConflict},
		{name: "transport", err: &olx.TransportError{Op: "create_advert", StatusCode: 422, Body: "bad category"}, status: http.StatusBadGateway, code: models.ErrOLXUpstream},
		{name: "shape", err: &olx.ResponseShapeError{Op: "create_advert", Message: "missing advert id"}, status: http.StatusBadGateway, code: models.ErrOLXBadResponse},
		{name: "record not found", err: fmt.Errorf("unit 4: %w", gorm.ErrRecordNotFound), status: http.StatusNotFound, code: models.ErrNotFound},
		{name: "unexpected", err: errors.New("disk full"), status: http.StatusInternalServerError, code: models.ErrInternalServer},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			router := olxRouter(&stubDrafts{err: tt.err}, &stubPublish{}, &stubAdverts{})
			w := perform(router, http.MethodPost, "/drafts/7", "")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeAPIError(t, w).Code)
		})
	}
}

func TestTransportErrorCarriesUpstreamDetails(t *testing.T) {
	router := olxRouter(&stubDrafts{}, &stubPublish{}, &stubAdverts{
		err: &olx.TransportError{Op: "send_command", StatusCode: 409, Body: "already finished"},
	})

	w := perform(router, http.MethodPost, "/adverts/999/finish", "")
	require.Equal(t, http.StatusBadGateway, w.Code)
	apiErr := decodeAPIError(t, w)
	assert.Equal(t, float64(409), apiErr.Details["status_code"])
	assert.Equal(t, "already finished", apiErr.Details["body"])
}

func TestCreateDraft(t *testing.T) {
	drafts := &stubDrafts{}
	router := olxRouter(drafts, &stubPublish{}, &stubAdverts{})

	w := perform(router, http.MethodPost, "/drafts/42", "")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, uint(42), drafts.created)

	for _, bad := range []string{"abc", "0", "-1"} {
		w = perform(router, http.MethodPost, "/drafts/"+bad, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

func TestDeleteDraft(t *testing.T) {
	router := olxRouter(&stubDrafts{}, &stubPublish{}, &stubAdverts{})
	w := perform(router, http.MethodDelete, "/drafts/3", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSendAllReturnsSummary(t *testing.T) {
	summary := &services.PublishSummary{
		Successful: 1,
		Failed:     1,
		Results: []services.DraftResult{
			{DraftID: 1, UnitID: 10, Success: true, OLXAdvertID: "501"},
			{DraftID: 2, UnitID: 11, Error: "olx create_advert: status 500: boom"},
		},
	}
	router := olxRouter(&stubDrafts{}, &stubPublish{summary: summary}, &stubAdverts{})

	w := perform(router, http.MethodPost, "/adverts/send_all", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"successful": 1,
		"failed": 1,
		"results": [
			{"draft_id": 1, "unit_id": 10, "success": true, "olx_advert_id": "501"},
			{"draft_id": 2, "unit_id": 11, "success": false, "error": "olx create_advert: status 500: boom"}
		]
	}`, w.Body.String())
}

func TestDeactivateRequiresSuccessFlag(t *testing.T) {
	adverts := &stubAdverts{}
	router := olxRouter(&stubDrafts{}, &stubPublish{}, adverts)

	w := perform(router, http.MethodPost, "/adverts/999/deactivate", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, adverts.command)

	w = perform(router, http.MethodPost, "/adverts/999/deactivate", `{"is_success": false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, olx.CommandDeactivate, adverts.command)
	require.NotNil(t, adverts.isSuccess)
	assert.False(t, *adverts.isSuccess)
}

func TestFinish(t *testing.T) {
	adverts := &stubAdverts{}
	router := olxRouter(&stubDrafts{}, &stubPublish{}, adverts)

	w := perform(router, http.MethodPost, "/adverts/999/finish", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, olx.CommandFinish, adverts.command)
	assert.Nil(t, adverts.isSuccess)
	assert.Contains(t, w.Body.String(), `"status":"removed_by_user"`)
}

func TestRefreshRequiresAuthorization(t *testing.T) {
	router := olxRouter(&stubDrafts{}, &stubPublish{}, &stubAdverts{err: olx.ErrAuthRequired})
	w := perform(router, http.MethodPost, "/adverts/refresh", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListAdverts(t *testing.T) {
	listings := &services.EnrichedListings{RemoteError: "olx list_adverts: status 502: down"}
	router := olxRouter(&stubDrafts{}, &stubPublish{}, &stubAdverts{listings: listings})

	w := perform(router, http.MethodGet, "/adverts", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "status 502")
}
