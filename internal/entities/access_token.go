package entities

import (
	"time"
)

// AccessToken is a previously obtained bearer token for one service, stored
// encrypted at rest. The token value is opaque to the sync layer.
type AccessToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Service   string    `gorm:"uniqueIndex;size:50" json:"service"`
	Token     string    `gorm:"type:text" json:"-"` // encrypted
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AccessToken) TableName() string {
	return "access_tokens"
}
