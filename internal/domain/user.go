package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type User struct {
	ID              uuid.UUID                      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email           string                         `json:"email" gorm:"uniqueIndex;not null"`
	DisplayName     string                         `json:"displayName" gorm:"not null"`
	PasswordHash    string                         `json:"-" gorm:"not null"`
	CreatedSessions datatypes.JSONSlice[uuid.UUID] `json:"createdSessions" gorm:"type:jsonb;not null;default:'[]'"`
	JoinedSessions  datatypes.JSONSlice[uuid.UUID] `json:"joinedSessions" gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt       time.Time                      `json:"createdAt"`
	UpdatedAt       time.Time                      `json:"updatedAt"`
}

// Clone returns a copy that shares no slices with u.
func (u *User) Clone() *User {
	c := *u
	c.CreatedSessions = slices.Clone(u.CreatedSessions)
	c.JoinedSessions = slices.Clone(u.JoinedSessions)
	return &c
}

// AuthSession holds the hashed refresh token issued at login.
type AuthSession struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID           uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	RefreshTokenHash string    `json:"-" gorm:"not null"`
	ExpiresAt        time.Time `json:"expiresAt" gorm:"not null"`
	CreatedAt        time.Time `json:"createdAt"`
}

// TableName returns the table name for GORM
func (AuthSession) TableName() string {
	return "auth_sessions"
}
