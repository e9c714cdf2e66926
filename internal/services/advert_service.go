package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/franciscosanchezn/partstock/internal/metrics"
	"github.com/franciscosanchezn/partstock/internal/models"
	"github.com/franciscosanchezn/partstock/internal/olx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	// RemotePageSize is the listing page size requested from the marketplace.
	RemotePageSize = 50
	// RemoteMaxPages stops pagination on a misbehaving endpoint.
	RemoteMaxPages = 200
	// StatusDisplayWidth truncates external-only status strings.
	StatusDisplayWidth = 15
)

var validToLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// AppListing is a local confirmed advert overlaid with remote data.
type AppListing struct {
	ID            uint                `json:"id"`
	UnitID        uint                `json:"unit_id"`
	UnitSKU       string              `json:"unit_sku"`
	FullReference string              `json:"full_reference"`
	OLXAdvertID   string              `json:"olx_advert_id"`
	Status        models.AdvertStatus `json:"status"`
	Recognized    bool                `json:"recognized"`
	Synced        bool                `json:"synced"`
	Title         string              `json:"title"`
	Price         *decimal.Decimal    `json:"price,omitempty"`
	Currency      string              `json:"currency,omitempty"`
	URL           string              `json:"url,omitempty"`
	CreatedAt     string              `json:"created_at"`
	ActivatedAt   string              `json:"activated_at,omitempty"`
	ValidTo       string              `json:"valid_to,omitempty"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// ExternalListing is a remote advert with no local counterpart.
type ExternalListing struct {
	OLXAdvertID string           `json:"olx_advert_id"`
	Status      string           `json:"status"`
	Recognized  bool             `json:"recognized"`
	Title       string           `json:"title"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Currency    string           `json:"currency,omitempty"`
	URL         string           `json:"url,omitempty"`
	CreatedAt   string           `json:"created_at,omitempty"`
	ValidTo     string           `json:"valid_to,omitempty"`
}

// EnrichedListings groups listings for the back office. RemoteError is set
// when the marketplace could not be read and only local data is shown.
type EnrichedListings struct {
	AppListings     []AppListing      `json:"app_listings"`
	ExternalOnly    []ExternalListing `json:"external_only"`
	ExternalLimited []ExternalListing `json:"external_limited"`
	RemoteError     string            `json:"remote_error,omitempty"`
}

// RefreshResult counts what a status refresh did to local adverts.
type RefreshResult struct {
	Updated       int `json:"updated"`
	Unchanged     int `json:"unchanged"`
	Unrecognized  int `json:"unrecognized"`
	MissingRemote int `json:"missing_remote"`
}

// AdvertService reconciles confirmed adverts with the marketplace.
type AdvertService interface {
	// FetchRemote returns an empty map when no user token is available.
	FetchRemote(ctx context.Context) (map[string]olx.RemoteAdvert, error)
	ListEnriched(ctx context.Context) (*EnrichedListings, error)
	RefreshStatus(ctx context.Context) (*RefreshResult, error)
	SendCommand(ctx context.Context, olxAdvertID string, command olx.CommandName, isSuccess *bool) (*models.OLXAdvert, error)
}

type advertService struct {
	db     *gorm.DB
	tokens UserTokenSource
	api    AdvertAPI
}

func NewAdvertService(db *gorm.DB, tokens UserTokenSource, api AdvertAPI) AdvertService {
	return &advertService{db: db, tokens: tokens, api: api}
}

func (s *advertService) FetchRemote(ctx context.Context) (map[string]olx.RemoteAdvert, error) {
	token, ok, err := s.tokens.GetUserToken(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string]olx.RemoteAdvert{}, nil
	}
	return s.fetchAll(ctx, token)
}

func (s *advertService) fetchAll(ctx context.Context, token string) (map[string]olx.RemoteAdvert, error) {
	remote := make(map[string]olx.RemoteAdvert)
	for page := 0; ; page++ {
		if page == RemoteMaxPages {
			log.WithField("pages", page).Warn("Stopped listing remote adverts at page limit")
			break
		}
		adverts, err := s.api.ListAdverts(ctx, token, RemotePageSize, page*RemotePageSize)
		if err != nil {
			return nil, err
		}
		if len(adverts) == 0 {
			break
		}
		for _, a := range adverts {
			if a.ID == "" {
				continue
			}
			remote[string(a.ID)] = a
		}
	}
	log.WithField("count", len(remote)).Debug("Fetched remote adverts")
	return remote, nil
}

func (s *advertService) ListEnriched(ctx context.Context) (*EnrichedListings, error) {
	var local []models.OLXAdvert
	if err := s.db.WithContext(ctx).Preload("Unit.Product").Order("id").Find(&local).Error; err != nil {
		return nil, fmt.Errorf("load adverts: %w", err)
	}

	out := &EnrichedListings{
		AppListings:     make([]AppListing, 0, len(local)),
		ExternalOnly:    []ExternalListing{},
		ExternalLimited: []ExternalListing{},
	}

	remote, err := s.FetchRemote(ctx)
	if err != nil {
		log.WithError(err).Warn("Showing local adverts only")
		out.RemoteError = err.Error()
		remote = map[string]olx.RemoteAdvert{}
	}

	known := make(map[string]bool, len(local))
	for _, advert := range local {
		known[advert.OLXAdvertID] = true
		listing := AppListing{
			ID:          advert.ID,
			UnitID:      advert.UnitID,
			OLXAdvertID: advert.OLXAdvertID,
			Status:      advert.Status,
			CreatedAt:   advert.CreatedAt.Format(time.RFC3339),
			UpdatedAt:   advert.UpdatedAt,
		}
		if advert.ValidTo != nil {
			listing.ValidTo = advert.ValidTo.Format(time.RFC3339)
		}
		if advert.Unit != nil {
			listing.UnitSKU = advert.Unit.SKU
			if advert.Unit.Product != nil {
				listing.FullReference = advert.Unit.FullReference(*advert.Unit.Product)
				listing.Title = olx.Title(advert.Unit, advert.Unit.Product)
			}
		}
		if r, ok := remote[advert.OLXAdvertID]; ok {
			overlayRemote(&listing, r)
		}
		listing.Recognized = listing.Status.Recognized()
		out.AppListings = append(out.AppListings, listing)
	}

	sort.SliceStable(out.AppListings, func(i, j int) bool {
		return out.AppListings[i].Status.Priority() < out.AppListings[j].Status.Priority()
	})

	ids := make([]string, 0, len(remote))
	for id := range remote {
		if !known[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		r := remote[id]
		ext := ExternalListing{
			OLXAdvertID: id,
			Status:      truncate(string(r.Status), StatusDisplayWidth),
			Recognized:  r.Status.Recognized(),
			Title:       r.Title,
			URL:         r.URL,
			CreatedAt:   r.CreatedAt,
			ValidTo:     r.ValidTo,
		}
		if r.Price != nil {
			price := r.Price.Value
			ext.Price = &price
			ext.Currency = r.Price.Currency
		}
		if r.Status == models.AdvertStatusLimited {
			out.ExternalLimited = append(out.ExternalLimited, ext)
		} else {
			out.ExternalOnly = append(out.ExternalOnly, ext)
		}
	}
	return out, nil
}

func overlayRemote(listing *AppListing, r olx.RemoteAdvert) {
	listing.Synced = true
	if r.Status != "" {
		listing.Status = r.Status
	}
	if r.Title != "" {
		listing.Title = r.Title
	}
	if r.Price != nil {
		price := r.Price.Value
		listing.Price = &price
		listing.Currency = r.Price.Currency
	}
	if r.URL != "" {
		listing.URL = r.URL
	}
	if r.CreatedAt != "" {
		listing.CreatedAt = r.CreatedAt
	}
	listing.ActivatedAt = r.ActivatedAt
	if r.ValidTo != "" {
		listing.ValidTo = r.ValidTo
	}
}

func (s *advertService) RefreshStatus(ctx context.Context) (*RefreshResult, error) {
	token, ok, err := s.tokens.GetUserToken(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, olx.ErrAuthRequired
	}

	remote, err := s.fetchAll(ctx, token)
	if err != nil {
		return nil, err
	}

	var local []models.OLXAdvert
	if err := s.db.WithContext(ctx).Order("id").Find(&local).Error; err != nil {
		return nil, fmt.Errorf("load adverts: %w", err)
	}

	result := &RefreshResult{}
	for _, advert := range local {
		entry := log.WithFields(logrus.Fields{"olx_advert_id": advert.OLXAdvertID, "unit_id": advert.UnitID})
		r, found := remote[advert.OLXAdvertID]
		if !found {
			result.MissingRemote++
			continue
		}

		updates := map[string]any{}
		unrecognized := false
		if r.Status != "" && r.Status != advert.Status {
			if r.Status.Recognized() {
				updates["status"] = r.Status
			} else {
				unrecognized = true
				result.Unrecognized++
				entry.WithField("remote_status", string(r.Status)).Warn("Unrecognized remote advert status")
			}
		}
		if validTo, ok := parseValidTo(r.ValidTo); ok && (advert.ValidTo == nil || !advert.ValidTo.Equal(validTo)) {
			updates["valid_to"] = validTo
		}

		if len(updates) == 0 {
			if !unrecognized {
				result.Unchanged++
			}
			continue
		}
		if err := s.db.WithContext(ctx).Model(&models.OLXAdvert{}).Where("id = ?", advert.ID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update advert %s: %w", advert.OLXAdvertID, err)
		}
		result.Updated++
		entry.WithField("changes", len(updates)).Debug("Advert refreshed")
	}

	metrics.RecordReconcile("updated", result.Updated)
	metrics.RecordReconcile("unchanged", result.Unchanged)
	metrics.RecordReconcile("unrecognized", result.Unrecognized)
	metrics.RecordReconcile("missing_remote", result.MissingRemote)
	log.WithFields(logrus.Fields{
		"updated":        result.Updated,
		"unchanged":      result.Unchanged,
		"unrecognized":   result.Unrecognized,
		"missing_remote": result.MissingRemote,
	}).Info("Advert statuses refreshed")
	return result, nil
}

func (s *advertService) SendCommand(ctx context.Context, olxAdvertID string, command olx.CommandName, isSuccess *bool) (*models.OLXAdvert, error) {
	var advert models.OLXAdvert
	if err := s.db.WithContext(ctx).Where("olx_advert_id = ?", olxAdvertID).First(&advert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, olx.NotFoundf("advert %s not found", olxAdvertID)
		}
		return nil, err
	}

	cmd := olx.Command{Command: command}
	switch command {
	case olx.CommandDeactivate:
		if advert.Status != models.AdvertStatusActive {
			return nil, olx.Invalidf("only active adverts can be deactivated (advert %s is %s)", olxAdvertID, advert.Status)
		}
		if isSuccess == nil {
			return nil, olx.Invalidf("deactivate requires is_success")
		}
		cmd.IsSuccess = isSuccess
	case olx.CommandFinish:
		if advert.Status != models.AdvertStatusLimited {
			return nil, olx.Invalidf("only limited adverts can be finished (advert %s is %s)", olxAdvertID, advert.Status)
		}
	default:
		return nil, olx.Invalidf("unknown command %q", command)
	}

	token, ok, err := s.tokens.GetUserToken(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, olx.ErrAuthRequired
	}

	if err := s.api.SendCommand(ctx, token, olxAdvertID, cmd); err != nil {
		return nil, err
	}

	advert.Status = models.AdvertStatusRemovedByUser
	if err := s.db.WithContext(ctx).Model(&advert).Update("status", advert.Status).Error; err != nil {
		return nil, fmt.Errorf("update advert %s: %w", olxAdvertID, err)
	}
	log.WithFields(logrus.Fields{
		"olx_advert_id": olxAdvertID,
		"command":       command,
	}).Info("Advert command sent")
	return &advert, nil
}

func parseValidTo(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range validToLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width])
}
