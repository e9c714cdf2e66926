package models

import (
	"time"
)

// TokenExpiryBuffer is subtracted from a token's expiry before it is
// considered usable, so a request never leaves with a token about to lapse.
const TokenExpiryBuffer = 5 * time.Minute

// TokenType tags which OAuth grant a stored token came from.
type TokenType string

const (
	TokenTypeClient TokenType = "client"
	TokenTypeUser   TokenType = "user"
)

// Refreshable reports whether tokens of this type carry refresh material.
// Client tokens are re-acquired instead.
func (t TokenType) Refreshable() bool {
	return t == TokenTypeUser
}

// OLXToken is one persisted marketplace credential, at most one per type.
type OLXToken struct {
	ID           uint      `gorm:"primaryKey"`
	TokenType    TokenType `gorm:"type:varchar(16);uniqueIndex;not null"`
	AccessToken  string    `gorm:"not null"`
	RefreshToken *string
	ExpiresAt    time.Time `gorm:"not null"`
	Scope        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (OLXToken) TableName() string {
	return "olx_tokens"
}

// IsValidAt reports whether the token can still be sent at the given instant.
func (t OLXToken) IsValidAt(now time.Time) bool {
	if t.AccessToken == "" {
		return false
	}
	return now.Before(t.ExpiresAt.Add(-TokenExpiryBuffer))
}

func (t OLXToken) HasRefresh() bool {
	return t.RefreshToken != nil && *t.RefreshToken != ""
}

// AdvertStatus mirrors the marketplace advert status vocabulary. Values
// outside the known set are kept verbatim and reported as unrecognized.
type AdvertStatus string

const (
	AdvertStatusLimited       AdvertStatus = "limited"
	AdvertStatusActive        AdvertStatus = "active"
	AdvertStatusRemovedByUser AdvertStatus = "removed_by_user"
	AdvertStatusPending       AdvertStatus = "pending"
	AdvertStatusBlocked       AdvertStatus = "blocked"
)

var advertStatusPriority = map[AdvertStatus]int{
	AdvertStatusActive:        1,
	AdvertStatusLimited:       2,
	AdvertStatusRemovedByUser: 3,
	AdvertStatusBlocked:       4,
}

func (s AdvertStatus) Recognized() bool {
	switch s {
	case AdvertStatusLimited, AdvertStatusActive, AdvertStatusRemovedByUser,
		AdvertStatusPending, AdvertStatusBlocked:
		return true
	}
	return false
}

// Priority orders listings for display; lower sorts first.
func (s AdvertStatus) Priority() int {
	if p, ok := advertStatusPriority[s]; ok {
		return p
	}
	return 99
}

// Live statuses block a new draft for the same unit.
func (s AdvertStatus) Live() bool {
	return s == AdvertStatusActive || s == AdvertStatusLimited || s == AdvertStatusPending
}

// OLXDraftAdvert is a unit queued for publishing. The unique index on
// unit_id keeps concurrent creations from producing two drafts.
type OLXDraftAdvert struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UnitID    uint      `gorm:"not null;uniqueIndex" json:"unit_id"`
	Unit      *Unit     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Error     *string   `gorm:"type:text" json:"error"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (OLXDraftAdvert) TableName() string {
	return "olx_draft_adverts"
}

// OLXAdvert is a listing confirmed by the marketplace.
type OLXAdvert struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	UnitID      uint         `gorm:"not null;index" json:"unit_id"`
	Unit        *Unit        `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	OLXAdvertID string       `gorm:"column:olx_advert_id;uniqueIndex;not null" json:"olx_advert_id"`
	Status      AdvertStatus `gorm:"type:varchar(32);not null;check:chk_olx_adverts_status,status IN ('limited','active','removed_by_user','pending','blocked')" json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	ValidTo     *time.Time   `json:"valid_to"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (OLXAdvert) TableName() string {
	return "olx_adverts"
}
