package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/adityaverma/getmeachai-backend/api/middleware"
	"github.com/adityaverma/getmeachai-backend/api/responses"
	"github.com/adityaverma/getmeachai-backend/api/validators"
	"github.com/adityaverma/getmeachai-backend/internal/users"
	pkgerrors "github.com/adityaverma/getmeachai-backend/pkg/errors"
	"github.com/adityaverma/getmeachai-backend/pkg/logger"
)

type userService interface {
	Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
	UpdateMe(ctx context.Context, userID uuid.UUID, input users.UpdateProfileInput) (*users.UserDTO, error)
	PublicProfile(ctx context.Context, username string) (*users.PublicProfileDTO, error)
	SearchCreators(ctx context.Context, query string) ([]users.PublicProfileDTO, error)
}

type updateProfileRequest struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Username   *string `json:"username,omitempty" validate:"omitempty,max=30"`
	ProfilePic *string `json:"profile_pic,omitempty" validate:"omitempty,url"`
	CoverPic   *string `json:"cover_pic,omitempty" validate:"omitempty,url"`
}

// UserMe returns the authenticated user's own profile.
func UserMe(svc userService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Me(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

// UserUpdateMe applies a partial update to the authenticated user's profile.
func UserUpdateMe(svc userService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpdateMe(r.Context(), userID, users.UpdateProfileInput{
			Name:       body.Name,
			Username:   body.Username,
			ProfilePic: body.ProfilePic,
			CoverPic:   body.CoverPic,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

// UserPublicProfile serves a creator page lookup by username.
func UserPublicProfile(svc userService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		username := chi.URLParam(r, "username")
		profile, err := svc.PublicProfile(r.Context(), username)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

// UserSearch finds creators by username or display name.
func UserSearch(svc userService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		query, err := validators.RequireQuery(r, "q")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, err := svc.SearchCreators(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, results)
	}
}

func authedUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}
