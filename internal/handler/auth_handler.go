// Package handler exposes the HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dquezada/titula/internal/middleware"
	"github.com/dquezada/titula/internal/model"
)

// AuthServiceInterface is the service interface the auth handler needs.
type AuthServiceInterface interface {
	// Login checks credentials and issues a session.
	Login(ctx context.Context, username, password string) (*model.Session, error)
	// Logout deletes the session for the token. Idempotent.
	Logout(ctx context.Context, token string) error
	// ForgotPassword issues a one-shot reset token. Returns an empty token
	// when the email is unknown.
	ForgotPassword(ctx context.Context, email string) (string, error)
	// ResetPassword consumes a reset token and replaces the password.
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// AuthMetrics is the metric recording subset the auth handler uses.
type AuthMetrics interface {
	RecordLoginSuccess()
	RecordLoginFailure()
}

// AuthHandler handles the credential and session endpoints.
type AuthHandler struct {
	service AuthServiceInterface
	metrics AuthMetrics
}

// NewAuthHandler builds an AuthHandler. metrics may be nil.
func NewAuthHandler(service AuthServiceInterface, metrics AuthMetrics) *AuthHandler {
	return &AuthHandler{service: service, metrics: metrics}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type forgotPasswordResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type identityResponse struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}
	if req.Username == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewInvalidCredentialsError())
		return
	}

	session, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordLoginFailure()
		}
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLoginSuccess()
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     session.ID,
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout handles POST /auth/logout. Deleting an unknown token still
// succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /me. The bearer middleware has already resolved the
// identity; roles are returned in canonical form.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	writeJSON(w, http.StatusOK, identityResponse{
		ID:       identity.UserID,
		Username: identity.Username,
		Roles:    identity.Roles,
	})
}

// ForgotPassword handles POST /auth/forgot-password. The response is the
// same for known and unknown emails; the token rides in the body because
// no mail transport is configured.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	token, err := h.service.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, forgotPasswordResponse{
		Message: "If the email is registered, a reset token has been issued.",
		Token:   token,
	})
}

// ResetPassword handles POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidResetTokenError())
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- shared helpers ---

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// invalidRequestError flags an unparsable request body.
func invalidRequestError() *model.APIError {
	return &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "The request body could not be parsed.",
		Category: "validation",
		Action:   "Send a well-formed JSON body.",
	}
}

// writeAPIErrorResponse writes an error response in the unified format.
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError maps a service-layer error to an HTTP response.
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus maps an APIError code to an HTTP status code.
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden, model.ErrCodePhotoBlocked:
		return http.StatusForbidden
	case model.ErrCodeUserNotFound, model.ErrCodePeriodNotFound,
		model.ErrCodeCareerNotFound, model.ErrCodeStudentNotFound,
		model.ErrCodeWindowNotFound, model.ErrCodeSlotNotFound,
		model.ErrCodeBookingNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicateUsername, model.ErrCodeProjectExists,
		model.ErrCodeSlotTaken, model.ErrCodeAlreadyBooked,
		model.ErrCodeSlotOverlap:
		return http.StatusConflict
	case model.ErrCodeInvalidResetToken, model.ErrCodeUnknownRole,
		model.ErrCodeInvalidWindow, model.ErrCodeSlotOutsideWindow,
		model.ErrCodeInvalidScore,
		"INVALID_REQUEST", "INVALID_PERIOD", "INVALID_CAREER",
		"INVALID_INCIDENT_KIND", "EMPTY_INCIDENT_BODY", "INVALID_PROJECT",
		"NOT_A_TUTOR":
		return http.StatusBadRequest
	case model.ErrCodePhotoFetchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
