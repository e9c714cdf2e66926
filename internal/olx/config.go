package olx

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// CitiesPageLimit is how many cities one cities call asks for.
const CitiesPageLimit = 5000

// autoPartsKeywords select categories that may fit auto parts.
var autoPartsKeywords = []string{
	"auto", "car", "vehicle", "parts", "peças", "automóvel",
	"motor", "engine", "chassis", "electrical", "elétrica",
	"brake", "travão", "suspension", "suspensão", "carros",
	"motos", "acessórios",
}

type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id,omitempty"`
	IsLeaf   bool   `json:"is_leaf"`
}

type City struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	RegionID *int64 `json:"region_id,omitempty"`
}

type AttributeValue struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

type AttributeValidation struct {
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Numeric  bool   `json:"numeric"`
}

// CategoryAttribute is one attribute an advert in a category may carry.
type CategoryAttribute struct {
	Code       string              `json:"code"`
	Label      string              `json:"label"`
	Unit       string              `json:"unit,omitempty"`
	Validation AttributeValidation `json:"validation"`
	Values     []AttributeValue    `json:"values,omitempty"`
}

// ListCategories fetches the category tree as a flat list.
func (c *Client) ListCategories(ctx context.Context, token string) ([]Category, error) {
	const op = "list_categories"
	body, err := c.do(ctx, op, http.MethodGet, c.endpoints.apiURL("categories"), token, nil, c.submitTimeout)
	if err != nil {
		return nil, err
	}
	return decodeList[Category](op, body)
}

// ListCities fetches up to limit cities.
func (c *Client) ListCities(ctx context.Context, token string, limit int) ([]City, error) {
	const op = "list_cities"
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	body, err := c.do(ctx, op, http.MethodGet, c.endpoints.apiURL("cities")+"?"+q.Encode(), token, nil, c.submitTimeout)
	if err != nil {
		return nil, err
	}
	return decodeList[City](op, body)
}

// ListCategoryAttributes fetches the attributes of one category.
func (c *Client) ListCategoryAttributes(ctx context.Context, token string, categoryID int64) ([]CategoryAttribute, error) {
	const op = "list_category_attributes"
	endpoint := c.endpoints.apiURL("categories", strconv.FormatInt(categoryID, 10), "attributes")
	body, err := c.do(ctx, op, http.MethodGet, endpoint, token, nil, c.checkTimeout)
	if err != nil {
		return nil, err
	}
	return decodeList[CategoryAttribute](op, body)
}

// ClientTokenSource hands out the client_credentials token.
type ClientTokenSource interface {
	GetClientToken(ctx context.Context) (string, error)
}

// ConfigReader reads marketplace reference data (categories, cities and
// attributes). These calls only need the client token, never the user's.
type ConfigReader struct {
	client *Client
	tokens ClientTokenSource
}

func NewConfigReader(client *Client, tokens ClientTokenSource) *ConfigReader {
	return &ConfigReader{client: client, tokens: tokens}
}

func (r *ConfigReader) Categories(ctx context.Context) ([]Category, error) {
	token, err := r.tokens.GetClientToken(ctx)
	if err != nil {
		return nil, err
	}
	return r.client.ListCategories(ctx, token)
}

// AutoPartsCategories narrows the category list to names that look like
// vehicle parts, leaves first.
func (r *ConfigReader) AutoPartsCategories(ctx context.Context) ([]Category, error) {
	categories, err := r.Categories(ctx)
	if err != nil {
		return nil, err
	}
	matches := make([]Category, 0)
	for _, category := range categories {
		name := strings.ToLower(category.Name)
		for _, keyword := range autoPartsKeywords {
			if strings.Contains(name, keyword) {
				matches = append(matches, category)
				break
			}
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].IsLeaf && !matches[j].IsLeaf
	})
	log.WithField("count", len(matches)).Debug("Auto parts categories found")
	return matches, nil
}

// Cities returns every city, or only those whose name contains nameFilter.
func (r *ConfigReader) Cities(ctx context.Context, nameFilter string) ([]City, error) {
	token, err := r.tokens.GetClientToken(ctx)
	if err != nil {
		return nil, err
	}
	cities, err := r.client.ListCities(ctx, token, CitiesPageLimit)
	if err != nil {
		return nil, err
	}
	filter := strings.ToLower(strings.TrimSpace(nameFilter))
	if filter == "" {
		return cities, nil
	}
	matches := make([]City, 0)
	for _, city := range cities {
		if strings.Contains(strings.ToLower(city.Name), filter) {
			matches = append(matches, city)
		}
	}
	return matches, nil
}

func (r *ConfigReader) CategoryAttributes(ctx context.Context, categoryID int64) ([]CategoryAttribute, error) {
	if categoryID <= 0 {
		return nil, Invalidf("invalid category id %d", categoryID)
	}
	token, err := r.tokens.GetClientToken(ctx)
	if err != nil {
		return nil, err
	}
	return r.client.ListCategoryAttributes(ctx, token, categoryID)
}
