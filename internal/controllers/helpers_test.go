package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/franciscosanchezn/partstock/internal/models"
	"github.com/franciscosanchezn/partstock/internal/olx"
	"github.com/franciscosanchezn/partstock/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	log.SetOutput(io.Discard)
}

func perform(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeAPIError(t *testing.T, w *httptest.ResponseRecorder) models.APIError {
	t.Helper()
	var apiErr models.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	return apiErr
}

type stubDrafts struct {
	created uint
	err     error
	drafts  []services.DraftView
}

func (s *stubDrafts) CreateDraft(_ context.Context, unitID uint) (*models.OLXDraftAdvert, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = unitID
	return &models.OLXDraftAdvert{ID: 1, UnitID: unitID}, nil
}

func (s *stubDrafts) ListDrafts(context.Context) ([]services.DraftView, error) {
	return s.drafts, s.err
}

func (s *stubDrafts) DeleteDraft(context.Context, uint) error {
	return s.err
}

type stubPublish struct {
	summary *services.PublishSummary
	err     error
}

func (s *stubPublish) ProcessAllDrafts(context.Context) (*services.PublishSummary, error) {
	return s.summary, s.err
}

type stubAdverts struct {
	listings *services.EnrichedListings
	refresh  *services.RefreshResult
	err      error

	command   olx.CommandName
	isSuccess *bool
}

func (s *stubAdverts) FetchRemote(context.Context) (map[string]olx.RemoteAdvert, error) {
	return nil, s.err
}

func (s *stubAdverts) ListEnriched(context.Context) (*services.EnrichedListings, error) {
	return s.listings, s.err
}

func (s *stubAdverts) RefreshStatus(context.Context) (*services.RefreshResult, error) {
	return s.refresh, s.err
}

func (s *stubAdverts) SendCommand(_ context.Context, olxAdvertID string, command olx.CommandName, isSuccess *bool) (*models.OLXAdvert, error) {
	s.command = command
	s.isSuccess = isSuccess
	if s.err != nil {
		return nil, s.err
	}
	return &models.OLXAdvert{OLXAdvertID: olxAdvertID, Status: models.AdvertStatusRemovedByUser}, nil
}

type stubAuth struct {
	callbackOK   bool
	clientErr    error
	clientCalls  int
	callbackCode string
	disconnected bool
	authorized   bool
}

func (s *stubAuth) GetClientToken(context.Context) (string, error) {
	s.clientCalls++
	return "client-token", s.clientErr
}

func (s *stubAuth) OAuthURL(string) string {
	return "https://www.olx.pt/oauth/authorize?state=" + olx.OAuthState
}

func (s *stubAuth) HandleOAuthCallback(_ context.Context, code, _ string) bool {
	s.callbackCode = code
	return s.callbackOK
}

func (s *stubAuth) IsUserAuthorized(context.Context) bool {
	return s.authorized
}

func (s *stubAuth) Disconnect(context.Context) error {
	s.disconnected = true
	s.authorized = false
	return nil
}

func (s *stubAuth) Status(context.Context) (*olx.TokenStatus, error) {
	return &olx.TokenStatus{UserToken: olx.TokenInfo{Exists: s.authorized, Valid: s.authorized}}, nil
}
