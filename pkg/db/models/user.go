package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a creator account with a public profile page.
type User struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string    `gorm:"column:name;not null;default:'User'"`
	Email        string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	Username     string    `gorm:"column:username;type:text;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	ProfilePic   *string   `gorm:"column:profile_pic;type:text"`
	CoverPic     *string   `gorm:"column:cover_pic;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
