package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dquezada/titula/internal/model"
	"github.com/dquezada/titula/internal/user"
)

// UserServiceInterface is the service interface the user handler needs.
type UserServiceInterface interface {
	List(ctx context.Context) ([]*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, in user.CreateInput) (*model.User, error)
	Update(ctx context.Context, id string, in user.UpdateInput) (*model.User, error)
	Delete(ctx context.Context, id string) error
	SetPhotoFromURL(ctx context.Context, id, photoURL string) error
	GetPhoto(ctx context.Context, id string) (*model.ProfilePhoto, error)
}

// UserHandler handles the admin account management endpoints.
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

type createUserRequest struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

type updateUserRequest struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Roles    []string `json:"roles"`
}

type setPhotoRequest struct {
	URL string `json:"url"`
}

type userResponse struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Roles    []string `json:"roles"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Roles:    u.Roles,
	}
}

// ListUsers handles GET /admin/users.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetUser handles GET /admin/users/{id}.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// CreateUser handles POST /admin/users.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	u, err := h.service.Create(r.Context(), user.CreateInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
		Roles:    req.Roles,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

// UpdateUser handles PUT /admin/users/{id}.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	u, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), user.UpdateInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Roles:    req.Roles,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// DeleteUser handles DELETE /admin/users/{id}.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetPhoto handles PUT /admin/users/{id}/photo. The photo is fetched from
// the given URL through the SSRF guard and stored.
func (h *UserHandler) SetPhoto(w http.ResponseWriter, r *http.Request) {
	var req setPhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}
	if req.URL == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewPhotoFetchFailedError("the photo URL is empty"))
		return
	}

	if err := h.service.SetPhotoFromURL(r.Context(), chi.URLParam(r, "id"), req.URL); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetPhoto handles GET /users/{id}/photo, readable by any authenticated
// user.
func (h *UserHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	photo, err := h.service.GetPhoto(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if photo == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:     "PHOTO_NOT_FOUND",
			Message:  "The user has no profile photo.",
			Category: "academic",
			Action:   "Upload a photo first.",
		})
		return
	}

	w.Header().Set("Content-Type", photo.Mime)
	w.WriteHeader(http.StatusOK)
	w.Write(photo.Data)
}
