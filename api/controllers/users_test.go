package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/adityaverma/getmeachai-backend/api/middleware"
	"github.com/adityaverma/getmeachai-backend/internal/users"
	pkgerrors "github.com/adityaverma/getmeachai-backend/pkg/errors"
)

type stubUserService struct {
	me         *users.UserDTO
	meErr      error
	updated    *users.UserDTO
	updateErr  error
	profile    *users.PublicProfileDTO
	profileErr error
	results    []users.PublicProfileDTO
	searchErr  error
	lastUpdate users.UpdateProfileInput
}

func (s *stubUserService) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	return s.me, s.meErr
}

func (s *stubUserService) UpdateMe(ctx context.Context, userID uuid.UUID, input users.UpdateProfileInput) (*users.UserDTO, error) {
	s.lastUpdate = input
	return s.updated, s.updateErr
}

func (s *stubUserService) PublicProfile(ctx context.Context, username string) (*users.PublicProfileDTO, error) {
	return s.profile, s.profileErr
}

func (s *stubUserService) SearchCreators(ctx context.Context, query string) ([]users.PublicProfileDTO, error) {
	return s.results, s.searchErr
}

func TestUserMeRequiresAuthContext(t *testing.T) {
	t.Parallel()

	handler := UserMe(&stubUserService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestUserMeReturnsProfile(t *testing.T) {
	t.Parallel()

	svc := &stubUserService{me: &users.UserDTO{Username: "adityaverma", Email: "a@example.com"}}
	handler := UserMe(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data users.UserDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Username != "adityaverma" {
		t.Fatalf("unexpected profile: %+v", envelope.Data)
	}
}

func TestUserUpdateMeForwardsPartialInput(t *testing.T) {
	t.Parallel()

	svc := &stubUserService{updated: &users.UserDTO{Username: "newname"}}
	handler := UserUpdateMe(svc, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/me",
		strings.NewReader(`{"username":"newname"}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastUpdate.Name != nil {
		t.Fatal("name must stay unset")
	}
	if svc.lastUpdate.Username == nil || *svc.lastUpdate.Username != "newname" {
		t.Fatalf("username not forwarded: %+v", svc.lastUpdate)
	}
}

func TestUserPublicProfileNotFound(t *testing.T) {
	t.Parallel()

	svc := &stubUserService{profileErr: pkgerrors.New(pkgerrors.CodeNotFound, "creator not found")}
	handler := UserPublicProfile(svc, nil)

	r := chi.NewRouter()
	r.Get("/api/v1/users/{username}", handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/ghost", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestUserSearchRequiresQuery(t *testing.T) {
	t.Parallel()

	handler := UserSearch(&stubUserService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/search", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
