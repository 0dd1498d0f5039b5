package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dquezada/titula/internal/model"
)

// AcademicServiceInterface is the service interface for periods and
// careers.
type AcademicServiceInterface interface {
	ListPeriods(ctx context.Context) ([]*model.Period, error)
	ActivePeriod(ctx context.Context) (*model.Period, error)
	CreatePeriod(ctx context.Context, name string, startsAt, endsAt time.Time) (*model.Period, error)
	UpdatePeriod(ctx context.Context, id, name string, startsAt, endsAt time.Time) (*model.Period, error)
	ActivatePeriod(ctx context.Context, id string) error
	DeletePeriod(ctx context.Context, id string) error

	ListCareers(ctx context.Context) ([]*model.Career, error)
	CreateCareer(ctx context.Context, name string) (*model.Career, error)
	UpdateCareer(ctx context.Context, id, name string) (*model.Career, error)
	DeleteCareer(ctx context.Context, id string) error
}

// AcademicHandler handles period and career management.
type AcademicHandler struct {
	service AcademicServiceInterface
}

// NewAcademicHandler builds an AcademicHandler.
func NewAcademicHandler(service AcademicServiceInterface) *AcademicHandler {
	return &AcademicHandler{service: service}
}

type periodRequest struct {
	Name     string    `json:"name"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

type periodResponse struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Active   bool      `json:"active"`
}

type careerRequest struct {
	Name string `json:"name"`
}

type careerResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func toPeriodResponse(p *model.Period) periodResponse {
	return periodResponse{
		ID:       p.ID,
		Name:     p.Name,
		StartsAt: p.StartsAt,
		EndsAt:   p.EndsAt,
		Active:   p.Active,
	}
}

// ListPeriods handles GET /admin/periods.
func (h *AcademicHandler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.service.ListPeriods(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]periodResponse, 0, len(periods))
	for _, p := range periods {
		out = append(out, toPeriodResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// ActivePeriod handles GET /periods/active, readable by any authenticated
// user.
func (h *AcademicHandler) ActivePeriod(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.ActivePeriod(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if p == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:     model.ErrCodePeriodNotFound,
			Message:  "No academic period is active.",
			Category: "academic",
			Action:   "Ask an administrator to activate a period.",
		})
		return
	}
	writeJSON(w, http.StatusOK, toPeriodResponse(p))
}

// CreatePeriod handles POST /admin/periods.
func (h *AcademicHandler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	var req periodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	p, err := h.service.CreatePeriod(r.Context(), req.Name, req.StartsAt, req.EndsAt)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPeriodResponse(p))
}

// UpdatePeriod handles PUT /admin/periods/{id}.
func (h *AcademicHandler) UpdatePeriod(w http.ResponseWriter, r *http.Request) {
	var req periodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	p, err := h.service.UpdatePeriod(r.Context(), chi.URLParam(r, "id"), req.Name, req.StartsAt, req.EndsAt)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodResponse(p))
}

// ActivatePeriod handles POST /admin/periods/{id}/activate. All other
// periods are deactivated.
func (h *AcademicHandler) ActivatePeriod(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ActivatePeriod(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeletePeriod handles DELETE /admin/periods/{id}.
func (h *AcademicHandler) DeletePeriod(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePeriod(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCareers handles GET /careers, readable by any authenticated user.
func (h *AcademicHandler) ListCareers(w http.ResponseWriter, r *http.Request) {
	careers, err := h.service.ListCareers(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]careerResponse, 0, len(careers))
	for _, c := range careers {
		out = append(out, careerResponse{ID: c.ID, Name: c.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateCareer handles POST /admin/careers.
func (h *AcademicHandler) CreateCareer(w http.ResponseWriter, r *http.Request) {
	var req careerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	c, err := h.service.CreateCareer(r.Context(), req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, careerResponse{ID: c.ID, Name: c.Name})
}

// UpdateCareer handles PUT /admin/careers/{id}.
func (h *AcademicHandler) UpdateCareer(w http.ResponseWriter, r *http.Request) {
	var req careerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	c, err := h.service.UpdateCareer(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, careerResponse{ID: c.ID, Name: c.Name})
}

// DeleteCareer handles DELETE /admin/careers/{id}.
func (h *AcademicHandler) DeleteCareer(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCareer(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
