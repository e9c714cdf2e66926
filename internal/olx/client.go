package olx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/franciscosanchezn/partstock/internal/metrics"
	"github.com/franciscosanchezn/partstock/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	// APIVersion is sent on every partner API call.
	APIVersion = "2.0"
	// DefaultUserAgent identifies us to the marketplace.
	DefaultUserAgent = "PartStock/1.0"

	maxResponseBytes = 4 << 20
)

// Endpoints are the marketplace URLs we talk to.
type Endpoints struct {
	APIBaseURL   string
	TokenURL     string
	AuthorizeURL string
}

func (e Endpoints) apiURL(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, segment := range segments {
		escaped[i] = url.PathEscape(segment)
	}
	return strings.TrimRight(e.APIBaseURL, "/") + "/" + strings.Join(escaped, "/")
}

func (e Endpoints) advertsURL() string {
	return e.apiURL("adverts")
}

// ClientOptions configures a Client. Zero values fall back to sane defaults.
type ClientOptions struct {
	Endpoints     Endpoints
	UserAgent     string
	SubmitTimeout time.Duration
	CheckTimeout  time.Duration
	// RateLimit is the sustained requests per second; zero disables throttling.
	RateLimit  float64
	HTTPClient *http.Client
}

// Client performs raw calls against the marketplace partner API. It does
// not know where tokens come from; callers hand one in per call.
type Client struct {
	endpoints     Endpoints
	userAgent     string
	submitTimeout time.Duration
	checkTimeout  time.Duration
	limiter       *rate.Limiter
	httpClient    *http.Client
}

// NewClient constructs a marketplace client.
func NewClient(opts ClientOptions) *Client {
	c := &Client{
		endpoints:     opts.Endpoints,
		userAgent:     opts.UserAgent,
		submitTimeout: opts.SubmitTimeout,
		checkTimeout:  opts.CheckTimeout,
		httpClient:    opts.HTTPClient,
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.submitTimeout <= 0 {
		c.submitTimeout = 30 * time.Second
	}
	if c.checkTimeout <= 0 {
		c.checkTimeout = 10 * time.Second
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	c.limiter = rate.NewLimiter(limit, 1)
	return c
}

// Endpoints returns the URLs the client was built with.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// TokenRequest is the body sent to the token endpoint for every grant.
type TokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Scope        string `json:"scope,omitempty"`
	Code         string `json:"code,omitempty"`
	RedirectURI  string `json:"redirect_uri,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// TokenResponse is the token endpoint answer.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
}

// RequestToken calls the token endpoint.
func (c *Client) RequestToken(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	op := "token_" + req.GrantType
	body, err := c.do(ctx, op, http.MethodPost, c.endpoints.TokenURL, "", req, c.checkTimeout)
	if err != nil {
		return nil, err
	}
	var resp TokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ResponseShapeError{Op: op, Message: fmt.Sprintf("decode token response: %v", err)}
	}
	if resp.AccessToken == "" {
		return nil, &ResponseShapeError{Op: op, Message: "missing access_token"}
	}
	return &resp, nil
}

// AdvertID accepts both numeric and string ids from the marketplace.
type AdvertID string

func (id *AdvertID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = AdvertID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("advert id: %w", err)
	}
	*id = AdvertID(n.String())
	return nil
}

// RemotePrice is the price block of a remote advert.
type RemotePrice struct {
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
}

// RemoteAdvert is one advert as the marketplace reports it.
type RemoteAdvert struct {
	ID          AdvertID            `json:"id"`
	Status      models.AdvertStatus `json:"status"`
	Title       string              `json:"title"`
	URL         string              `json:"url"`
	Price       *RemotePrice        `json:"price,omitempty"`
	CreatedAt   string              `json:"created_at"`
	ActivatedAt string              `json:"activated_at"`
	ValidTo     string              `json:"valid_to"`
}

// ListAdverts fetches one page of the account's adverts.
func (c *Client) ListAdverts(ctx context.Context, token string, limit, offset int) ([]RemoteAdvert, error) {
	const op = "list_adverts"
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	endpoint := c.endpoints.advertsURL() + "?" + q.Encode()

	body, err := c.do(ctx, op, http.MethodGet, endpoint, token, nil, c.submitTimeout)
	if err != nil {
		return nil, err
	}
	return decodeList[RemoteAdvert](op, body)
}

// decodeList reads a partner list response, either a bare array or
// {"data": [...]}.
func decodeList[T any](op string, body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, &ResponseShapeError{Op: op, Message: err.Error()}
		}
		return items, nil
	}
	var wrapped struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, &ResponseShapeError{Op: op, Message: err.Error()}
	}
	return wrapped.Data, nil
}

// CreatedAdvert is what we keep from a successful create call.
type CreatedAdvert struct {
	ID     string
	Status models.AdvertStatus
}

// CreateAdvert submits a new listing. Success requires an id, either at
// the top level or under "data".
func (c *Client) CreateAdvert(ctx context.Context, token string, payload *AdvertPayload) (*CreatedAdvert, error) {
	const op = "create_advert"
	body, err := c.do(ctx, op, http.MethodPost, c.endpoints.advertsURL(), token, payload, c.submitTimeout)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, &ResponseShapeError{Op: op, Message: fmt.Sprintf("decode response: %v", err)}
	}

	fields := raw
	if data, ok := raw["data"].(map[string]any); ok {
		fields = data
	}
	id := stringValue(fields["id"])
	if id == "" {
		id = stringValue(raw["id"])
	}
	if id == "" {
		return nil, &ResponseShapeError{Op: op, Message: "missing advert id"}
	}
	return &CreatedAdvert{ID: id, Status: models.AdvertStatus(stringValue(fields["status"]))}, nil
}

// CommandName is a status-changing advert command.
type CommandName string

const (
	CommandDeactivate CommandName = "deactivate"
	CommandFinish     CommandName = "finish"
)

// Command is the body of the advert commands endpoint.
type Command struct {
	Command   CommandName `json:"command"`
	IsSuccess *bool       `json:"is_success,omitempty"`
}

// SendCommand posts a command for one advert.
func (c *Client) SendCommand(ctx context.Context, token, advertID string, cmd Command) error {
	op := "command_" + string(cmd.Command)
	endpoint := c.endpoints.advertsURL() + "/" + url.PathEscape(advertID) + "/commands"
	_, err := c.do(ctx, op, http.MethodPost, endpoint, token, cmd, c.submitTimeout)
	return err
}

func (c *Client) do(ctx context.Context, op, method, endpoint, token string, payload any, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	var reader io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("olx %s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("olx %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Version", APIVersion)
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordRequest(op, "error", time.Since(start).Seconds())
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	metrics.RecordRequest(op, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
	if err != nil {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func stringValue(input any) string {
	switch v := input.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return ""
	}
}
