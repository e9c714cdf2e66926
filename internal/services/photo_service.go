package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/franciscosanchezn/partstock/internal/models"
	"github.com/franciscosanchezn/partstock/internal/olx"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MaxUnitPhotos is the most photos a unit may carry.
const MaxUnitPhotos = 9

// PhotoStore holds photo files until their advert is published.
type PhotoStore interface {
	Stage(ctx context.Context, relPath string, content io.Reader) error
	Read(ctx context.Context, relPath string) ([]byte, error)
}

// UploadedPhoto describes a freshly staged photo.
type UploadedPhoto struct {
	ID         uint   `json:"id"`
	Filename   string `json:"filename"`
	Path       string `json:"path"`
	Sequence   int    `json:"sequence"`
	UnitSKU    string `json:"unit_sku"`
	ProductSKU string `json:"product_sku"`
}

type PhotoService interface {
	// AddUnitPhoto stages content as the unit's next photo and records it.
	AddUnitPhoto(ctx context.Context, unitID uint, content io.Reader) (*UploadedPhoto, error)
	// ReadPhoto returns a staged photo by its path under the photo root.
	ReadPhoto(ctx context.Context, relPath string) ([]byte, error)
}

type photoService struct {
	db    *gorm.DB
	store PhotoStore
	now   func() time.Time
}

func NewPhotoService(db *gorm.DB, store PhotoStore) PhotoService {
	return &photoService{db: db, store: store, now: time.Now}
}

func (s *photoService) AddUnitPhoto(ctx context.Context, unitID uint, content io.Reader) (*UploadedPhoto, error) {
	var unit models.Unit
	if err := s.db.WithContext(ctx).Preload("Product").First(&unit, unitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, olx.NotFoundf("unit %d not found", unitID)
		}
		return nil, fmt.Errorf("load unit %d: %w", unitID, err)
	}
	if unit.Product == nil {
		return nil, olx.NotFoundf("product %d not found", unit.ProductID)
	}
	product := *unit.Product

	var uploaded *UploadedPhoto
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.UnitPhoto{}).Where("unit_id = ?", unitID).Count(&count).Error; err != nil {
			return fmt.Errorf("count photos: %w", err)
		}
		if count >= MaxUnitPhotos {
			return olx.Invalidf("unit %d already has the maximum of %d photos", unitID, MaxUnitPhotos)
		}

		sequence := int(count) + 1
		photo := &models.UnitPhoto{
			UnitID:   unitID,
			Filename: fmt.Sprintf("%s_%s_%d_%s.jpg", unit.SKU, product.SKU, sequence, s.now().Format("20060102_150405")),
		}
		if err := tx.Create(photo).Error; err != nil {
			return fmt.Errorf("record photo: %w", err)
		}

		// the row is rolled back when the file cannot be written
		relPath := photo.RelativePath(product)
		if err := s.store.Stage(ctx, relPath, content); err != nil {
			return err
		}

		uploaded = &UploadedPhoto{
			ID:         photo.ID,
			Filename:   photo.Filename,
			Path:       relPath,
			Sequence:   sequence,
			UnitSKU:    unit.SKU,
			ProductSKU: product.SKU,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"unit_id": unitID, "path": uploaded.Path}).Info("Unit photo staged")
	return uploaded, nil
}

func (s *photoService) ReadPhoto(ctx context.Context, relPath string) ([]byte, error) {
	return s.store.Read(ctx, relPath)
}
