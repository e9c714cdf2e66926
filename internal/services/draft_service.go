package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/franciscosanchezn/partstock/internal/models"
	"github.com/franciscosanchezn/partstock/internal/olx"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var liveAdvertStatuses = []models.AdvertStatus{
	models.AdvertStatusActive,
	models.AdvertStatusLimited,
	models.AdvertStatusPending,
}

// DraftView is a draft joined with the unit it advertises.
type DraftView struct {
	ID            uint      `json:"id"`
	UnitID        uint      `json:"unit_id"`
	UnitSKU       string    `json:"unit_sku"`
	FullReference string    `json:"full_reference"`
	Title         string    `json:"title"`
	Error         *string   `json:"error"`
	CreatedAt     time.Time `json:"created_at"`
}

// DraftService manages units queued for publishing.
type DraftService interface {
	CreateDraft(ctx context.Context, unitID uint) (*models.OLXDraftAdvert, error)
	ListDrafts(ctx context.Context) ([]DraftView, error)
	DeleteDraft(ctx context.Context, draftID uint) error
}

type draftService struct {
	db *gorm.DB
}

func NewDraftService(db *gorm.DB) DraftService {
	return &draftService{db: db}
}

func (s *draftService) CreateDraft(ctx context.Context, unitID uint) (*models.OLXDraftAdvert, error) {
	db := s.db.WithContext(ctx)

	var unit models.Unit
	if err := db.First(&unit, unitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, olx.NotFoundf("unit %d not found", unitID)
		}
		return nil, err
	}
	if unit.Status != models.UnitStatusActive {
		return nil, olx.Invalidf("only active units can be advertised (unit %d is %s)", unitID, unit.Status)
	}

	var drafts int64
	if err := db.Model(&models.OLXDraftAdvert{}).Where("unit_id = ?", unitID).Count(&drafts).Error; err != nil {
		return nil, err
	}
	if drafts > 0 {
		return nil, olx.Conflictf("unit %d already has a draft", unitID)
	}

	var live int64
	err := db.Model(&models.OLXAdvert{}).
		Where("unit_id = ? AND status IN ?", unitID, liveAdvertStatuses).
		Count(&live).Error
	if err != nil {
		return nil, err
	}
	if live > 0 {
		return nil, olx.Conflictf("unit %d already has a live advert", unitID)
	}

	draft := &models.OLXDraftAdvert{UnitID: unitID}
	if err := db.Create(draft).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, olx.Conflictf("unit %d already has a draft", unitID)
		}
		return nil, err
	}

	log.WithFields(logrus.Fields{"draft_id": draft.ID, "unit_id": unitID}).Info("Draft created")
	return draft, nil
}

func (s *draftService) ListDrafts(ctx context.Context) ([]DraftView, error) {
	var drafts []models.OLXDraftAdvert
	err := s.db.WithContext(ctx).Preload("Unit.Product").Order("id").Find(&drafts).Error
	if err != nil {
		return nil, err
	}

	views := make([]DraftView, 0, len(drafts))
	for _, d := range drafts {
		v := DraftView{ID: d.ID, UnitID: d.UnitID, Error: d.Error, CreatedAt: d.CreatedAt}
		if d.Unit != nil {
			v.UnitSKU = d.Unit.SKU
			if d.Unit.Product != nil {
				v.FullReference = d.Unit.FullReference(*d.Unit.Product)
				v.Title = olx.Title(d.Unit, d.Unit.Product)
			}
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *draftService) DeleteDraft(ctx context.Context, draftID uint) error {
	result := s.db.WithContext(ctx).Delete(&models.OLXDraftAdvert{}, draftID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return olx.NotFoundf("draft %d not found", draftID)
	}
	log.WithField("draft_id", draftID).Info("Draft deleted")
	return nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
