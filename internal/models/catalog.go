package models

import (
	"fmt"
	"time"
)

// Unit statuses. Only active units may be advertised.
const (
	UnitStatusActive     = "active"
	UnitStatusSold       = "sold"
	UnitStatusIncomplete = "incomplete"
	UnitStatusConsume    = "consume"
)

// ValidUnitStatus reports whether s is one of the unit statuses.
func ValidUnitStatus(s string) bool {
	switch s {
	case UnitStatusActive, UnitStatusSold, UnitStatusIncomplete, UnitStatusConsume:
		return true
	}
	return false
}

type Make struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:50;not null" json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Model struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MakeID    uint      `gorm:"not null;index" json:"make_id"`
	Make      Make      `json:"make"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	StartYear *int      `json:"start_year,omitempty"`
	EndYear   *int      `json:"end_year,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product is a part definition; units are the physical instances sold.
type Product struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SKU          string    `gorm:"uniqueIndex;not null" json:"sku"`
	Title        string    `gorm:"not null" json:"title"`
	Description  string    `json:"description"`
	ComponentRef string    `gorm:"size:2;not null" json:"component_ref"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ProductCompatibility struct {
	ID        uint `gorm:"primaryKey"`
	ProductID uint `gorm:"not null;index"`
	ModelID   uint `gorm:"not null"`
}

func (ProductCompatibility) TableName() string {
	return "product_compatibilities"
}

type Unit struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ProductID      uint      `gorm:"not null;index" json:"product_id"`
	Product        *Product  `gorm:"constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	YearMonth      string    `gorm:"size:3" json:"year_month"`
	SKUID          int       `json:"sku_id"`
	SKU            string    `gorm:"not null" json:"sku"`
	AlternativeSKU string    `json:"alternative_sku,omitempty"`
	SellingPrice   int64     `gorm:"not null" json:"selling_price"` // cents
	Km             int       `json:"km"`
	Observations   string    `json:"observations,omitempty"`
	Status         string    `gorm:"not null;default:'active'" json:"status"`
	TitleSuffix    string    `json:"title_suffix,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FullReference is the business display reference "PRODUCT-UNIT".
func (u Unit) FullReference(product Product) string {
	return fmt.Sprintf("%s-%s", product.SKU, u.SKU)
}

type UnitPhoto struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UnitID    uint      `gorm:"not null;index" json:"unit_id"`
	Filename  string    `gorm:"not null" json:"filename"`
	CreatedAt time.Time `json:"created_at"`
}

// RelativePath is where the photo lives under the photo root.
func (p UnitPhoto) RelativePath(product Product) string {
	return product.ComponentRef + "/" + product.SKU + "/" + p.Filename
}

// CompatibleModel is a resolved make/model pair for a product.
type CompatibleModel struct {
	Make  string `json:"make"`
	Model string `json:"model"`
}
