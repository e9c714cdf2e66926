package olx

import (
	"context"
	"strings"

	"github.com/franciscosanchezn/partstock/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Component codes that ship with a product warranty (motors and gearboxes).
var warrantyComponents = map[string]bool{
	"KF": true,
	"KB": true,
}

const (
	warrantyNote        = "\nGarantia de produto: 3 meses"
	compatibilityHeader = "\nCompatibilidades (alguns exemplos):"
	advertiserType      = "business"
	currencyEUR         = "EUR"
)

// ListingDefaults are the fixed parts of every advert.
type ListingDefaults struct {
	CategoryID    int
	CityID        int
	ContactName   string
	ContactPhone  string
	VATMultiplier decimal.Decimal
	PhotoBaseURL  string
}

// CatalogLookup is the slice of the catalog the builder reads.
type CatalogLookup interface {
	UnitPhotos(ctx context.Context, unitID uint) ([]models.UnitPhoto, error)
	CompatibleModels(ctx context.Context, productID uint) ([]models.CompatibleModel, error)
}

type AdvertContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

type AdvertLocation struct {
	CityID int `json:"city_id"`
}

type AdvertImage struct {
	URL string `json:"url"`
}

type AdvertPrice struct {
	Value      int64  `json:"value"`
	Currency   string `json:"currency"`
	Negotiable bool   `json:"negotiable"`
	Trade      bool   `json:"trade"`
	Budget     bool   `json:"budget"`
}

type AdvertAttribute struct {
	Code  string `json:"code"`
	Value string `json:"value"`
}

// AdvertPayload is the create-advert request body.
type AdvertPayload struct {
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	CategoryID     int               `json:"category_id"`
	AdvertiserType string            `json:"advertiser_type"`
	Contact        AdvertContact     `json:"contact"`
	Location       AdvertLocation    `json:"location"`
	Images         []AdvertImage     `json:"images"`
	Price          AdvertPrice       `json:"price"`
	Attributes     []AdvertAttribute `json:"attributes"`
}

// PayloadBuilder maps a unit and its product to an advert payload.
type PayloadBuilder struct {
	defaults ListingDefaults
	catalog  CatalogLookup
	printer  *message.Printer
}

func NewPayloadBuilder(defaults ListingDefaults, catalog CatalogLookup) *PayloadBuilder {
	if defaults.VATMultiplier.IsZero() {
		defaults.VATMultiplier = decimal.RequireFromString("1.23")
	}
	return &PayloadBuilder{
		defaults: defaults,
		catalog:  catalog,
		printer:  message.NewPrinter(language.English),
	}
}

// Build assembles the payload for one unit.
func (b *PayloadBuilder) Build(ctx context.Context, unit *models.Unit, product *models.Product) (*AdvertPayload, error) {
	description, err := b.Description(ctx, unit, product)
	if err != nil {
		return nil, err
	}
	photos, err := b.catalog.UnitPhotos(ctx, unit.ID)
	if err != nil {
		return nil, err
	}

	images := make([]AdvertImage, 0, len(photos))
	base := strings.TrimRight(b.defaults.PhotoBaseURL, "/")
	for _, photo := range photos {
		images = append(images, AdvertImage{URL: base + "/" + photo.RelativePath(*product)})
	}

	return &AdvertPayload{
		Title:          Title(unit, product),
		Description:    description,
		CategoryID:     b.defaults.CategoryID,
		AdvertiserType: advertiserType,
		Contact: AdvertContact{
			Name:  b.defaults.ContactName,
			Phone: b.defaults.ContactPhone,
		},
		Location: AdvertLocation{CityID: b.defaults.CityID},
		Images:   images,
		Price: AdvertPrice{
			Value:    CalcPrice(unit.SellingPrice, b.defaults.VATMultiplier),
			Currency: currencyEUR,
		},
		Attributes: []AdvertAttribute{{Code: "state", Value: "used"}},
	}, nil
}

// Title is the product title with the unit suffix appended when set.
func Title(unit *models.Unit, product *models.Product) string {
	if unit.TitleSuffix == "" {
		return product.Title
	}
	return product.Title + " " + unit.TitleSuffix
}

// Description renders the advert body text.
func (b *PayloadBuilder) Description(ctx context.Context, unit *models.Unit, product *models.Product) (string, error) {
	parts := []string{Title(unit, product)}

	if d := strings.TrimSpace(product.Description); d != "" {
		parts = append(parts, d)
	}
	parts = append(parts, "Ref. Interna: "+unit.FullReference(*product))
	if unit.AlternativeSKU != "" {
		parts = append(parts, "Ref. Alternativa(s): "+unit.AlternativeSKU)
	}
	if unit.Km != 0 {
		parts = append(parts, b.printer.Sprintf("Km: %d km", unit.Km))
	}
	if obs := strings.TrimSpace(unit.Observations); obs != "" {
		parts = append(parts, obs)
	}
	if warrantyComponents[product.ComponentRef] {
		parts = append(parts, warrantyNote)
	}

	compatible, err := b.catalog.CompatibleModels(ctx, product.ID)
	if err != nil {
		return "", err
	}
	if len(compatible) > 0 {
		lines := []string{compatibilityHeader}
		for _, cm := range compatible {
			lines = append(lines, cm.Make+" "+cm.Model)
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}

	parts = append(parts, "\n"+b.defaults.ContactName)
	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}

// CalcPrice converts a cent price to whole euros including VAT, rounding up.
func CalcPrice(sellingPriceCents int64, vat decimal.Decimal) int64 {
	euros := decimal.New(sellingPriceCents, -2)
	return euros.Mul(vat).Ceil().IntPart()
}
