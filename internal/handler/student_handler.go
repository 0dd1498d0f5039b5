package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dquezada/titula/internal/middleware"
	"github.com/dquezada/titula/internal/model"
	"github.com/dquezada/titula/internal/student"
)

// StudentServiceInterface is the service interface for student tracking.
type StudentServiceInterface interface {
	Register(ctx context.Context, in student.RegisterInput) (*model.Student, error)
	Get(ctx context.Context, id string) (*model.Student, error)
	ListByPeriod(ctx context.Context, periodID string) ([]*model.Student, error)
	ListByTutor(ctx context.Context, tutorID, periodID string) ([]*model.Student, error)
	AssignTutor(ctx context.Context, studentID, tutorID string) error
	RecordIncident(ctx context.Context, studentID, authorID string, kind model.IncidentKind, body string, occurredAt time.Time) (*model.Incident, error)
	ListIncidents(ctx context.Context, studentID string) ([]*model.Incident, error)
	AssignProject(ctx context.Context, studentID, assignedBy, title, description string) (*model.Project, error)
	GetProject(ctx context.Context, studentID string) (*model.Project, error)
}

// StudentHandler handles student registration and tracking.
type StudentHandler struct {
	service StudentServiceInterface
}

// NewStudentHandler builds a StudentHandler.
func NewStudentHandler(service StudentServiceInterface) *StudentHandler {
	return &StudentHandler{service: service}
}

type registerStudentRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	CareerID string `json:"career_id"`
	PeriodID string `json:"period_id"`
}

type assignTutorRequest struct {
	TutorID string `json:"tutor_id"`
}

type recordIncidentRequest struct {
	Kind       string    `json:"kind"`
	Body       string    `json:"body"`
	OccurredAt time.Time `json:"occurred_at"`
}

type assignProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type studentResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	CareerID string `json:"career_id"`
	PeriodID string `json:"period_id"`
	TutorID  string `json:"tutor_id,omitempty"`
}

type incidentResponse struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	AuthorID   string    `json:"author_id"`
	Kind       string    `json:"kind"`
	Body       string    `json:"body"`
	OccurredAt time.Time `json:"occurred_at"`
}

type projectResponse struct {
	ID          string `json:"id"`
	StudentID   string `json:"student_id"`
	PeriodID    string `json:"period_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func toStudentResponse(s *model.Student) studentResponse {
	return studentResponse{
		ID:       s.ID,
		FullName: s.FullName,
		Email:    s.Email,
		CareerID: s.CareerID,
		PeriodID: s.PeriodID,
		TutorID:  s.TutorID,
	}
}

func toIncidentResponse(inc *model.Incident) incidentResponse {
	return incidentResponse{
		ID:         inc.ID,
		StudentID:  inc.StudentID,
		AuthorID:   inc.AuthorID,
		Kind:       string(inc.Kind),
		Body:       inc.Body,
		OccurredAt: inc.OccurredAt,
	}
}

func toProjectResponse(p *model.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		StudentID:   p.StudentID,
		PeriodID:    p.PeriodID,
		Title:       p.Title,
		Description: p.Description,
	}
}

// RegisterStudent handles POST /coordinator/students.
func (h *StudentHandler) RegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req registerStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	s, err := h.service.Register(r.Context(), student.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		CareerID: req.CareerID,
		PeriodID: req.PeriodID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStudentResponse(s))
}

// ListStudents handles GET /coordinator/students?period_id=...
func (h *StudentHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.service.ListByPeriod(r.Context(), r.URL.Query().Get("period_id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentResponses(students))
}

// ListMyStudents handles GET /tutor/students?period_id=... — the
// students assigned to the authenticated tutor.
func (h *StudentHandler) ListMyStudents(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	students, err := h.service.ListByTutor(r.Context(), identity.UserID, r.URL.Query().Get("period_id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentResponses(students))
}

func toStudentResponses(students []*model.Student) []studentResponse {
	out := make([]studentResponse, 0, len(students))
	for _, s := range students {
		out = append(out, toStudentResponse(s))
	}
	return out
}

// GetStudent handles GET .../students/{id}.
func (h *StudentHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentResponse(s))
}

// AssignTutor handles PUT /coordinator/students/{id}/tutor.
func (h *StudentHandler) AssignTutor(w http.ResponseWriter, r *http.Request) {
	var req assignTutorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	if err := h.service.AssignTutor(r.Context(), chi.URLParam(r, "id"), req.TutorID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordIncident handles POST .../students/{id}/incidents. The author is
// the authenticated coordinator or tutor.
func (h *StudentHandler) RecordIncident(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req recordIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	inc, err := h.service.RecordIncident(
		r.Context(),
		chi.URLParam(r, "id"),
		identity.UserID,
		model.IncidentKind(req.Kind),
		req.Body,
		req.OccurredAt,
	)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toIncidentResponse(inc))
}

// ListIncidents handles GET .../students/{id}/incidents.
func (h *StudentHandler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	incidents, err := h.service.ListIncidents(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]incidentResponse, 0, len(incidents))
	for _, inc := range incidents {
		out = append(out, toIncidentResponse(inc))
	}
	writeJSON(w, http.StatusOK, out)
}

// AssignProject handles POST .../students/{id}/project.
func (h *StudentHandler) AssignProject(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req assignProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	p, err := h.service.AssignProject(r.Context(), chi.URLParam(r, "id"), identity.UserID, req.Title, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectResponse(p))
}

// GetProject handles GET .../students/{id}/project.
func (h *StudentHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if p == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:     "PROJECT_NOT_FOUND",
			Message:  "The student has no project assigned in the active period.",
			Category: "academic",
			Action:   "Assign a project first.",
		})
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(p))
}
