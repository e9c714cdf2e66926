package olx

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/franciscosanchezn/partstock/internal/metrics"
	"github.com/franciscosanchezn/partstock/internal/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
}

// SetLogLevel adjusts the package logger.
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

const (
	// OAuthState is the static anti-forgery value sent to and expected back
	// from the authorization endpoint.
	OAuthState = "partstock_auth"
	// ClientScope is requested with the client_credentials grant.
	ClientScope = "v2 read"
	// UserScope is requested from the operator during authorization.
	UserScope = "v2 read write"

	defaultExpiresIn = time.Hour
	tokenCacheTTL    = time.Minute
)

// Credentials identify this application to the marketplace.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// TokenInfo describes one stored token without exposing its secrets.
type TokenInfo struct {
	Exists     bool       `json:"exists"`
	Valid      bool       `json:"valid"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Scope      string     `json:"scope,omitempty"`
	HasRefresh bool       `json:"has_refresh"`
}

// TokenStatus reports both token types.
type TokenStatus struct {
	ClientToken TokenInfo `json:"client_token"`
	UserToken   TokenInfo `json:"user_token"`
}

type userTokenResult struct {
	token string
	ok    bool
}

// AuthManager acquires, caches and refreshes the client and user tokens.
// The TokenStore is the source of truth; the in-process cache only saves
// round trips for a minute at most.
type AuthManager struct {
	client *Client
	store  TokenStore
	creds  Credentials
	cache  *expirable.LRU[models.TokenType, models.OLXToken]
	group  singleflight.Group
	now    func() time.Time
}

// NewAuthManager wires an AuthManager over a client and store.
func NewAuthManager(client *Client, store TokenStore, creds Credentials) *AuthManager {
	return &AuthManager{
		client: client,
		store:  store,
		creds:  creds,
		cache:  expirable.NewLRU[models.TokenType, models.OLXToken](4, nil, tokenCacheTTL),
		now:    time.Now,
	}
}

// GetClientToken returns a valid client_credentials token, acquiring a new
// one when the stored token is missing or inside the expiry buffer.
func (m *AuthManager) GetClientToken(ctx context.Context) (string, error) {
	token, err := m.load(ctx, models.TokenTypeClient)
	if err != nil {
		return "", err
	}
	if token != nil && token.IsValidAt(m.now()) {
		return token.AccessToken, nil
	}

	// The shared call outlives whichever caller started it; the client's
	// own request timeout still bounds it.
	shared := context.WithoutCancel(ctx)
	v, err, _ := m.group.Do(string(models.TokenTypeClient), func() (any, error) {
		// another caller may have acquired one while we waited
		stored, err := m.store.Get(shared, models.TokenTypeClient)
		if err != nil {
			return "", err
		}
		if stored != nil && stored.IsValidAt(m.now()) {
			m.cache.Add(models.TokenTypeClient, *stored)
			return stored.AccessToken, nil
		}
		return m.acquireClientToken(shared)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *AuthManager) acquireClientToken(ctx context.Context) (string, error) {
	resp, err := m.client.RequestToken(ctx, TokenRequest{
		GrantType:    "client_credentials",
		ClientID:     m.creds.ClientID,
		ClientSecret: m.creds.ClientSecret,
		Scope:        ClientScope,
	})
	metrics.RecordToken(string(models.TokenTypeClient), "client_credentials", err)
	if err != nil {
		log.WithError(err).WithField("token_type", models.TokenTypeClient).Error("Client token acquisition failed")
		return "", err
	}

	token := m.tokenFromResponse(models.TokenTypeClient, resp)
	token.RefreshToken = nil
	if err := m.save(ctx, token); err != nil {
		return "", err
	}
	log.WithField("token_type", models.TokenTypeClient).Info("Client token acquired")
	return token.AccessToken, nil
}

// GetUserToken returns the user token when one is usable. ok is false when
// no token is stored, when it expired without refresh material, or when the
// marketplace rejected the refresh (the stored token is then removed).
// An error is returned only for transport failures during a refresh.
func (m *AuthManager) GetUserToken(ctx context.Context) (token string, ok bool, err error) {
	stored, err := m.load(ctx, models.TokenTypeUser)
	if err != nil {
		return "", false, err
	}
	if stored == nil {
		return "", false, nil
	}
	if stored.IsValidAt(m.now()) {
		return stored.AccessToken, true, nil
	}
	if !stored.HasRefresh() {
		return "", false, nil
	}

	shared := context.WithoutCancel(ctx)
	v, err, _ := m.group.Do(string(models.TokenTypeUser), func() (any, error) {
		return m.refreshUserToken(shared)
	})
	if err != nil {
		return "", false, err
	}
	res := v.(userTokenResult)
	return res.token, res.ok, nil
}

func (m *AuthManager) refreshUserToken(ctx context.Context) (userTokenResult, error) {
	// refresh tokens may rotate, so never refresh with a cached copy
	m.cache.Remove(models.TokenTypeUser)
	stored, err := m.store.Get(ctx, models.TokenTypeUser)
	if err != nil {
		return userTokenResult{}, err
	}
	if stored == nil {
		return userTokenResult{}, nil
	}
	if stored.IsValidAt(m.now()) {
		m.cache.Add(models.TokenTypeUser, *stored)
		return userTokenResult{token: stored.AccessToken, ok: true}, nil
	}
	if !stored.HasRefresh() {
		return userTokenResult{}, nil
	}

	resp, err := m.client.RequestToken(ctx, TokenRequest{
		GrantType:    "refresh_token",
		ClientID:     m.creds.ClientID,
		ClientSecret: m.creds.ClientSecret,
		RefreshToken: *stored.RefreshToken,
	})
	metrics.RecordToken(string(models.TokenTypeUser), "refresh_token", err)
	if err != nil {
		if refreshRejected(err) {
			log.WithError(err).WithField("token_type", models.TokenTypeUser).Warn("User token refresh rejected, authorization required")
			if delErr := m.store.Delete(ctx, models.TokenTypeUser); delErr != nil {
				return userTokenResult{}, delErr
			}
			return userTokenResult{}, nil
		}
		log.WithError(err).WithField("token_type", models.TokenTypeUser).Error("User token refresh failed")
		return userTokenResult{}, err
	}

	refreshed := m.tokenFromResponse(models.TokenTypeUser, resp)
	if refreshed.RefreshToken == nil {
		refreshed.RefreshToken = stored.RefreshToken
	}
	if err := m.save(ctx, refreshed); err != nil {
		return userTokenResult{}, err
	}
	log.WithField("token_type", models.TokenTypeUser).Info("User token refreshed")
	return userTokenResult{token: refreshed.AccessToken, ok: true}, nil
}

func refreshRejected(err error) bool {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Rejected()
	}
	var shapeErr *ResponseShapeError
	return errors.As(err, &shapeErr)
}

// OAuthURL builds the browser redirect for the authorization-code flow.
// An empty redirectURI falls back to the configured one.
func (m *AuthManager) OAuthURL(redirectURI string) string {
	if redirectURI == "" {
		redirectURI = m.creds.RedirectURI
	}
	q := url.Values{}
	q.Set("client_id", m.creds.ClientID)
	q.Set("response_type", "code")
	q.Set("scope", UserScope)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", OAuthState)
	return m.client.Endpoints().AuthorizeURL + "?" + q.Encode()
}

// HandleOAuthCallback exchanges an authorization code for the user token.
// Any failure is logged and reported as false.
func (m *AuthManager) HandleOAuthCallback(ctx context.Context, code, redirectURI string) bool {
	if code == "" {
		log.Warn("OAuth callback without code")
		return false
	}
	if redirectURI == "" {
		redirectURI = m.creds.RedirectURI
	}

	resp, err := m.client.RequestToken(ctx, TokenRequest{
		GrantType:    "authorization_code",
		ClientID:     m.creds.ClientID,
		ClientSecret: m.creds.ClientSecret,
		Code:         code,
		RedirectURI:  redirectURI,
		Scope:        UserScope,
	})
	metrics.RecordToken(string(models.TokenTypeUser), "authorization_code", err)
	if err != nil {
		log.WithError(err).Error("Authorization code exchange failed")
		return false
	}

	if err := m.save(ctx, m.tokenFromResponse(models.TokenTypeUser, resp)); err != nil {
		log.WithError(err).Error("Failed to persist user token")
		return false
	}
	log.WithField("token_type", models.TokenTypeUser).Info("User authorized marketplace access")
	return true
}

// IsUserAuthorized checks existence and validity without refreshing.
func (m *AuthManager) IsUserAuthorized(ctx context.Context) bool {
	token, err := m.store.Get(ctx, models.TokenTypeUser)
	if err != nil {
		log.WithError(err).Warn("Could not read user token")
		return false
	}
	return token != nil && token.IsValidAt(m.now())
}

// Disconnect forgets the user token.
func (m *AuthManager) Disconnect(ctx context.Context) error {
	m.cache.Remove(models.TokenTypeUser)
	if err := m.store.Delete(ctx, models.TokenTypeUser); err != nil {
		return err
	}
	log.WithField("token_type", models.TokenTypeUser).Info("User token removed")
	return nil
}

// Status reports both tokens straight from the store.
func (m *AuthManager) Status(ctx context.Context) (*TokenStatus, error) {
	client, err := m.store.Get(ctx, models.TokenTypeClient)
	if err != nil {
		return nil, err
	}
	user, err := m.store.Get(ctx, models.TokenTypeUser)
	if err != nil {
		return nil, err
	}
	now := m.now()
	return &TokenStatus{
		ClientToken: describeToken(client, now),
		UserToken:   describeToken(user, now),
	}, nil
}

func describeToken(token *models.OLXToken, now time.Time) TokenInfo {
	if token == nil {
		return TokenInfo{}
	}
	expiresAt := token.ExpiresAt
	return TokenInfo{
		Exists:     true,
		Valid:      token.IsValidAt(now),
		ExpiresAt:  &expiresAt,
		Scope:      token.Scope,
		HasRefresh: token.HasRefresh(),
	}
}

func (m *AuthManager) load(ctx context.Context, tokenType models.TokenType) (*models.OLXToken, error) {
	if cached, ok := m.cache.Get(tokenType); ok && cached.IsValidAt(m.now()) {
		return &cached, nil
	}
	token, err := m.store.Get(ctx, tokenType)
	if err != nil {
		return nil, err
	}
	if token != nil {
		m.cache.Add(tokenType, *token)
	}
	return token, nil
}

func (m *AuthManager) save(ctx context.Context, token *models.OLXToken) error {
	if err := m.store.Save(ctx, token); err != nil {
		return fmt.Errorf("persist %s token: %w", token.TokenType, err)
	}
	m.cache.Add(token.TokenType, *token)
	return nil
}

func (m *AuthManager) tokenFromResponse(tokenType models.TokenType, resp *TokenResponse) *models.OLXToken {
	expiresIn := defaultExpiresIn
	if resp.ExpiresIn > 0 {
		expiresIn = time.Duration(resp.ExpiresIn) * time.Second
	}
	token := &models.OLXToken{
		TokenType:   tokenType,
		AccessToken: resp.AccessToken,
		ExpiresAt:   m.now().Add(expiresIn),
		Scope:       resp.Scope,
	}
	if resp.RefreshToken != "" {
		refresh := resp.RefreshToken
		token.RefreshToken = &refresh
	}
	return token
}
