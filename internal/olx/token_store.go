package olx

import (
	"context"
	"errors"
	"fmt"

	"github.com/franciscosanchezn/partstock/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenStore persists at most one token per token type.
type TokenStore interface {
	// Get returns nil, nil when no token of that type is stored.
	Get(ctx context.Context, tokenType models.TokenType) (*models.OLXToken, error)
	// Save inserts or replaces the token of token.TokenType.
	Save(ctx context.Context, token *models.OLXToken) error
	// Delete is a no-op when nothing is stored.
	Delete(ctx context.Context, tokenType models.TokenType) error
}

type gormTokenStore struct {
	db *gorm.DB
}

// NewGormTokenStore returns a TokenStore backed by the olx_tokens table.
func NewGormTokenStore(db *gorm.DB) TokenStore {
	return &gormTokenStore{db: db}
}

func (s *gormTokenStore) Get(ctx context.Context, tokenType models.TokenType) (*models.OLXToken, error) {
	var token models.OLXToken
	err := s.db.WithContext(ctx).Where("token_type = ?", tokenType).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s token: %w", tokenType, err)
	}
	return &token, nil
}

func (s *gormTokenStore) Save(ctx context.Context, token *models.OLXToken) error {
	if token.TokenType != models.TokenTypeClient && token.TokenType != models.TokenTypeUser {
		return fmt.Errorf("unknown token type %q", token.TokenType)
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "expires_at", "scope", "updated_at"}),
	}).Create(token).Error
	if err != nil {
		return fmt.Errorf("save %s token: %w", token.TokenType, err)
	}
	return nil
}

func (s *gormTokenStore) Delete(ctx context.Context, tokenType models.TokenType) error {
	err := s.db.WithContext(ctx).Where("token_type = ?", tokenType).Delete(&models.OLXToken{}).Error
	if err != nil {
		return fmt.Errorf("delete %s token: %w", tokenType, err)
	}
	return nil
}
