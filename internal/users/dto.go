package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/adityaverma/getmeachai-backend/pkg/db/models"
)

// UserDTO is the transport shape for the account owner; it omits credentials.
type UserDTO struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	ProfilePic *string   `json:"profile_pic,omitempty"`
	CoverPic   *string   `json:"cover_pic,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PublicProfileDTO is what anyone may see about a creator. No email.
type PublicProfileDTO struct {
	Name       string  `json:"name"`
	Username   string  `json:"username"`
	ProfilePic *string `json:"profile_pic,omitempty"`
	CoverPic   *string `json:"cover_pic,omitempty"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Name         string
	Email        string
	Username     string
	PasswordHash string
}

// UpdateProfileInput lists the fields an owner may change; nil means keep.
type UpdateProfileInput struct {
	Name       *string
	Username   *string
	ProfilePic *string
	CoverPic   *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Username:   u.Username,
		ProfilePic: u.ProfilePic,
		CoverPic:   u.CoverPic,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func PublicFromModel(u *models.User) *PublicProfileDTO {
	if u == nil {
		return nil
	}
	return &PublicProfileDTO{
		Name:       u.Name,
		Username:   u.Username,
		ProfilePic: u.ProfilePic,
		CoverPic:   u.CoverPic,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Name:         c.Name,
		Email:        c.Email,
		Username:     c.Username,
		PasswordHash: c.PasswordHash,
	}
}
