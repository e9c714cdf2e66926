package services

import (
	"context"
	"fmt"
	"time"

	"github.com/franciscosanchezn/partstock/internal/models"
	"gorm.io/gorm"
)

// UnitFilter narrows ListUnits. Zero values mean no filter.
type UnitFilter struct {
	Status string
	Limit  int
	Offset int
}

// UnitDetails is a unit as the back office displays it.
type UnitDetails struct {
	ID             uint                     `json:"id"`
	ProductID      uint                     `json:"product_id"`
	SKU            string                   `json:"sku"`
	FullReference  string                   `json:"full_reference"`
	Title          string                   `json:"title"`
	AlternativeSKU string                   `json:"alternative_sku,omitempty"`
	SellingPrice   int64                    `json:"selling_price"`
	Km             int                      `json:"km"`
	Observations   string                   `json:"observations,omitempty"`
	Status         string                   `json:"status"`
	HasOLXDraft    bool                     `json:"has_olx_draft"`
	HasOLXAdvert   bool                     `json:"has_olx_advert"`
	Photos         []models.UnitPhoto       `json:"photos,omitempty"`
	Compatible     []models.CompatibleModel `json:"compatible_models,omitempty"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

// CatalogService reads the parts inventory.
type CatalogService interface {
	// GetUnit returns gorm.ErrRecordNotFound (wrapped) when missing.
	GetUnit(ctx context.Context, id uint) (*models.Unit, error)
	// GetProduct returns gorm.ErrRecordNotFound (wrapped) when missing.
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	ListUnits(ctx context.Context, filter UnitFilter) ([]UnitDetails, error)
	GetUnitDetails(ctx context.Context, id uint) (*UnitDetails, error)
	UnitPhotos(ctx context.Context, unitID uint) ([]models.UnitPhoto, error)
	// CompatibleModels resolves make and model names, silently skipping
	// compatibilities whose model no longer exists.
	CompatibleModels(ctx context.Context, productID uint) ([]models.CompatibleModel, error)
}

type catalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) CatalogService {
	return &catalogService{db: db}
}

func (s *catalogService) GetUnit(ctx context.Context, id uint) (*models.Unit, error) {
	var unit models.Unit
	if err := s.db.WithContext(ctx).First(&unit, id).Error; err != nil {
		return nil, fmt.Errorf("unit %d: %w", id, err)
	}
	return &unit, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, fmt.Errorf("product %d: %w", id, err)
	}
	return &product, nil
}

func (s *catalogService) ListUnits(ctx context.Context, filter UnitFilter) ([]UnitDetails, error) {
	query := s.db.WithContext(ctx).Preload("Product").Order("id")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var units []models.Unit
	if err := query.Find(&units).Error; err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return []UnitDetails{}, nil
	}

	ids := make([]uint, len(units))
	for i, u := range units {
		ids[i] = u.ID
	}
	drafts, err := s.unitIDSet(ctx, &models.OLXDraftAdvert{}, ids)
	if err != nil {
		return nil, err
	}
	adverts, err := s.unitIDSet(ctx, &models.OLXAdvert{}, ids)
	if err != nil {
		return nil, err
	}

	details := make([]UnitDetails, 0, len(units))
	for _, u := range units {
		d := toUnitDetails(u)
		d.HasOLXDraft = drafts[u.ID]
		d.HasOLXAdvert = adverts[u.ID]
		details = append(details, d)
	}
	return details, nil
}

func (s *catalogService) GetUnitDetails(ctx context.Context, id uint) (*UnitDetails, error) {
	var unit models.Unit
	if err := s.db.WithContext(ctx).Preload("Product").First(&unit, id).Error; err != nil {
		return nil, fmt.Errorf("unit %d: %w", id, err)
	}

	d := toUnitDetails(unit)
	ids := []uint{unit.ID}
	drafts, err := s.unitIDSet(ctx, &models.OLXDraftAdvert{}, ids)
	if err != nil {
		return nil, err
	}
	adverts, err := s.unitIDSet(ctx, &models.OLXAdvert{}, ids)
	if err != nil {
		return nil, err
	}
	d.HasOLXDraft = drafts[unit.ID]
	d.HasOLXAdvert = adverts[unit.ID]

	if d.Photos, err = s.UnitPhotos(ctx, unit.ID); err != nil {
		return nil, err
	}
	if d.Compatible, err = s.CompatibleModels(ctx, unit.ProductID); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *catalogService) UnitPhotos(ctx context.Context, unitID uint) ([]models.UnitPhoto, error) {
	var photos []models.UnitPhoto
	err := s.db.WithContext(ctx).Where("unit_id = ?", unitID).Order("created_at, id").Find(&photos).Error
	if err != nil {
		return nil, fmt.Errorf("photos for unit %d: %w", unitID, err)
	}
	return photos, nil
}

func (s *catalogService) CompatibleModels(ctx context.Context, productID uint) ([]models.CompatibleModel, error) {
	var compatible []models.CompatibleModel
	// inner joins drop compatibilities pointing at deleted models
	err := s.db.WithContext(ctx).
		Table("product_compatibilities pc").
		Select("makes.name AS make, models.name AS model").
		Joins("JOIN models ON models.id = pc.model_id").
		Joins("JOIN makes ON makes.id = models.make_id").
		Where("pc.product_id = ?", productID).
		Order("pc.id").
		Scan(&compatible).Error
	if err != nil {
		return nil, fmt.Errorf("compatibilities for product %d: %w", productID, err)
	}
	return compatible, nil
}

func (s *catalogService) unitIDSet(ctx context.Context, model any, unitIDs []uint) (map[uint]bool, error) {
	var found []uint
	if err := s.db.WithContext(ctx).Model(model).Where("unit_id IN ?", unitIDs).Distinct().Pluck("unit_id", &found).Error; err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(found))
	for _, id := range found {
		set[id] = true
	}
	return set, nil
}

func toUnitDetails(u models.Unit) UnitDetails {
	d := UnitDetails{
		ID:             u.ID,
		ProductID:      u.ProductID,
		SKU:            u.SKU,
		AlternativeSKU: u.AlternativeSKU,
		SellingPrice:   u.SellingPrice,
		Km:             u.Km,
		Observations:   u.Observations,
		Status:         u.Status,
		UpdatedAt:      u.UpdatedAt,
	}
	if u.Product != nil {
		d.FullReference = u.FullReference(*u.Product)
		d.Title = u.Product.Title
		if u.TitleSuffix != "" {
			d.Title += " " + u.TitleSuffix
		}
	}
	return d
}
