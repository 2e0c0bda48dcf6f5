package users

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adityaverma/getmeachai-backend/pkg/db"
	"github.com/adityaverma/getmeachai-backend/pkg/db/models"
	pkgerrors "github.com/adityaverma/getmeachai-backend/pkg/errors"
)

const searchLimit = 20

var usernameRe = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

// ValidUsername reports whether a handle fits the public page URL format.
func ValidUsername(username string) bool {
	return usernameRe.MatchString(username)
}

type userStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) error
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
}

// Service exposes profile operations over the users repository.
type Service struct {
	repo userStore
}

// NewService builds a users service.
func NewService(repo userStore) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "users repo required")
	}
	return &Service{repo: repo}, nil
}

// PublicProfile returns the public view of a creator's page.
func (s *Service) PublicProfile(ctx context.Context, username string) (*PublicProfileDTO, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load user")
	}
	return PublicFromModel(user), nil
}

// Me returns the full profile of the authenticated user.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load user")
	}
	return FromModel(user), nil
}

// UpdateMe applies profile edits for the authenticated user and returns the
// fresh profile. Username changes are checked for availability first; the
// unique constraint backstops races.
func (s *Service) UpdateMe(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if trimmed == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		input.Name = &trimmed
	}
	if input.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*input.Username))
		if !usernameRe.MatchString(username) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				"username must be 3-30 characters of lowercase letters, digits, or underscores")
		}

		current, err := s.repo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load user")
		}
		if current.Username != username {
			taken, err := s.repo.UsernameExists(ctx, username)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "check username")
			}
			if taken {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
			}
		}
		input.Username = &username
	}

	if err := s.repo.UpdateProfile(ctx, userID, input); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update profile")
	}
	return s.Me(ctx, userID)
}

// SearchCreators finds public profiles matching the query.
func (s *Service) SearchCreators(ctx context.Context, query string) ([]PublicProfileDTO, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query is required")
	}
	found, err := s.repo.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "search users")
	}
	results := make([]PublicProfileDTO, 0, len(found))
	for i := range found {
		results = append(results, *PublicFromModel(&found[i]))
	}
	return results, nil
}
