package models

import (
	"time"
)

// OperatorToken is an access token issued by our own token endpoint.
type OperatorToken struct {
	ID           uint   `gorm:"primaryKey"`
	ClientID     string `gorm:"not null"`
	UserID       *string
	AccessToken  string `gorm:"uniqueIndex;not null"`
	RefreshToken *string
	Scopes       string
	ExpiresAt    time.Time `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (OperatorToken) TableName() string {
	return "operator_tokens"
}
