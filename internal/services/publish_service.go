package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/franciscosanchezn/partstock/internal/metrics"
	"github.com/franciscosanchezn/partstock/internal/models"
	"github.com/franciscosanchezn/partstock/internal/olx"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
}

// SetLogLevel adjusts the package logger.
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

// UserTokenSource hands out the user-scoped marketplace token.
type UserTokenSource interface {
	GetUserToken(ctx context.Context) (token string, ok bool, err error)
}

// AdvertAPI is the marketplace surface the pipeline and reconciliation use.
type AdvertAPI interface {
	CreateAdvert(ctx context.Context, token string, payload *olx.AdvertPayload) (*olx.CreatedAdvert, error)
	ListAdverts(ctx context.Context, token string, limit, offset int) ([]olx.RemoteAdvert, error)
	SendCommand(ctx context.Context, token, advertID string, cmd olx.Command) error
}

// PayloadSource builds the create-advert body for a unit.
type PayloadSource interface {
	Build(ctx context.Context, unit *models.Unit, product *models.Product) (*olx.AdvertPayload, error)
}

// PhotoCleaner removes staged photo files after a successful publish.
// Paths are relative to the photo root.
type PhotoCleaner interface {
	Cleanup(ctx context.Context, relPaths []string) (removed, failed int)
}

// DraftResult is the outcome of one draft in a batch.
type DraftResult struct {
	DraftID     uint   `json:"draft_id"`
	UnitID      uint   `json:"unit_id"`
	Success     bool   `json:"success"`
	OLXAdvertID string `json:"olx_advert_id,omitempty"`
	Error       string `json:"error,omitempty"`
}

// PublishSummary is what a batch publish reports. Failed drafts are part
// of a normal summary, not an error.
type PublishSummary struct {
	Successful int           `json:"successful"`
	Failed     int           `json:"failed"`
	Results    []DraftResult `json:"results"`
}

// PublishService promotes drafts to confirmed adverts.
type PublishService interface {
	// ProcessAllDrafts returns olx.ErrAuthRequired without touching any
	// draft when no user token is usable.
	ProcessAllDrafts(ctx context.Context) (*PublishSummary, error)
}

type publishService struct {
	db       *gorm.DB
	catalog  CatalogService
	tokens   UserTokenSource
	api      AdvertAPI
	payloads PayloadSource
	photos   PhotoCleaner
}

func NewPublishService(db *gorm.DB, catalog CatalogService, tokens UserTokenSource, api AdvertAPI, payloads PayloadSource, photos PhotoCleaner) PublishService {
	return &publishService{
		db:       db,
		catalog:  catalog,
		tokens:   tokens,
		api:      api,
		payloads: payloads,
		photos:   photos,
	}
}

func (s *publishService) ProcessAllDrafts(ctx context.Context) (*PublishSummary, error) {
	_, ok, err := s.tokens.GetUserToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("check marketplace authorization: %w", err)
	}
	if !ok {
		return nil, olx.ErrAuthRequired
	}

	var drafts []models.OLXDraftAdvert
	if err := s.db.WithContext(ctx).Order("id").Find(&drafts).Error; err != nil {
		return nil, fmt.Errorf("load drafts: %w", err)
	}

	summary := &PublishSummary{Results: make([]DraftResult, 0, len(drafts))}
	for _, draft := range drafts {
		result := s.processDraft(ctx, draft)
		metrics.RecordPublish(result.Success)
		if result.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
		summary.Results = append(summary.Results, result)
	}

	log.WithFields(logrus.Fields{
		"successful": summary.Successful,
		"failed":     summary.Failed,
	}).Info("Draft batch processed")
	return summary, nil
}

func (s *publishService) processDraft(ctx context.Context, draft models.OLXDraftAdvert) DraftResult {
	result := DraftResult{DraftID: draft.ID, UnitID: draft.UnitID}
	entry := log.WithFields(logrus.Fields{"draft_id": draft.ID, "unit_id": draft.UnitID})

	advertID, err := s.safePublish(ctx, draft)
	if err != nil {
		result.Error = err.Error()
		entry.WithError(err).Warn("Draft publish failed")
		s.recordFailure(ctx, draft.ID, result.Error)
		return result
	}

	result.Success = true
	result.OLXAdvertID = advertID
	entry.WithField("olx_advert_id", advertID).Info("Draft published")

	s.cleanupPhotos(ctx, draft.UnitID)
	return result
}

// safePublish turns a panic while publishing one draft into that draft's error.
func (s *publishService) safePublish(ctx context.Context, draft models.OLXDraftAdvert) (advertID string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(logrus.Fields{"draft_id": draft.ID, "panic": r}).Error("Draft processing panicked")
			advertID = ""
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()
	return s.publish(ctx, draft)
}

func (s *publishService) publish(ctx context.Context, draft models.OLXDraftAdvert) (string, error) {
	token, ok, err := s.tokens.GetUserToken(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", olx.ErrAuthRequired
	}

	unit, err := s.catalog.GetUnit(ctx, draft.UnitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("unit %d not found", draft.UnitID)
		}
		return "", err
	}
	product, err := s.catalog.GetProduct(ctx, unit.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("product %d not found", unit.ProductID)
		}
		return "", err
	}

	payload, err := s.payloads.Build(ctx, unit, product)
	if err != nil {
		return "", fmt.Errorf("build payload: %w", err)
	}

	created, err := s.api.CreateAdvert(ctx, token, payload)
	if err != nil {
		return "", err
	}

	status := created.Status
	if !status.Recognized() {
		status = models.AdvertStatusLimited
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		advert := &models.OLXAdvert{
			UnitID:      draft.UnitID,
			OLXAdvertID: created.ID,
			Status:      status,
		}
		if err := tx.Create(advert).Error; err != nil {
			return fmt.Errorf("record advert %s: %w", created.ID, err)
		}
		if err := tx.Delete(&models.OLXDraftAdvert{}, draft.ID).Error; err != nil {
			return fmt.Errorf("remove draft: %w", err)
		}
		return nil
	})
	if err != nil {
		// the marketplace already holds this listing; refresh will show it as external
		log.WithError(err).WithFields(logrus.Fields{
			"draft_id":      draft.ID,
			"olx_advert_id": created.ID,
		}).Error("Advert created remotely but not recorded locally")
		return "", err
	}
	return created.ID, nil
}

func (s *publishService) recordFailure(ctx context.Context, draftID uint, message string) {
	err := s.db.WithContext(ctx).Model(&models.OLXDraftAdvert{}).Where("id = ?", draftID).Update("error", message).Error
	if err != nil {
		log.WithError(err).WithField("draft_id", draftID).Error("Failed to record draft error")
	}
}

// cleanupPhotos runs after the draft is committed, so nothing here may
// change the draft's outcome.
func (s *publishService) cleanupPhotos(ctx context.Context, unitID uint) {
	if s.photos == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(logrus.Fields{"unit_id": unitID, "panic": r}).Error("Staged photo cleanup panicked")
		}
	}()
	unit, err := s.catalog.GetUnit(ctx, unitID)
	if err != nil {
		log.WithError(err).WithField("unit_id", unitID).Warn("Could not load unit for photo cleanup")
		return
	}
	product, err := s.catalog.GetProduct(ctx, unit.ProductID)
	if err != nil {
		log.WithError(err).WithField("unit_id", unitID).Warn("Could not load product for photo cleanup")
		return
	}
	photos, err := s.catalog.UnitPhotos(ctx, unitID)
	if err != nil {
		log.WithError(err).WithField("unit_id", unitID).Warn("Could not list photos for cleanup")
		return
	}
	if len(photos) == 0 {
		return
	}
	paths := make([]string, len(photos))
	for i, p := range photos {
		paths[i] = p.RelativePath(*product)
	}
	if _, failed := s.photos.Cleanup(ctx, paths); failed > 0 {
		log.WithFields(logrus.Fields{"unit_id": unitID, "failed": failed}).Warn("Some staged photos were not removed")
	}
}
