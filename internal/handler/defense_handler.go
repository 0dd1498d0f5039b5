package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dquezada/titula/internal/middleware"
	"github.com/dquezada/titula/internal/model"
)

// DefenseServiceInterface is the service interface for defense
// scheduling. The same machinery serves the predefense and the final
// defense.
type DefenseServiceInterface interface {
	CreateWindow(ctx context.Context, periodID string, stage model.DefenseStage, startsAt, endsAt time.Time, createdBy string) (*model.DefenseWindow, error)
	ListWindows(ctx context.Context, periodID string, stage model.DefenseStage) ([]*model.DefenseWindow, error)
	OpenSlot(ctx context.Context, windowID, juryID string, startsAt, endsAt time.Time) (*model.DefenseSlot, error)
	ListSlots(ctx context.Context, windowID string) ([]*model.DefenseSlot, error)
	BookSlot(ctx context.Context, slotID, studentID, bookedBy string) (*model.Booking, error)
	CancelBooking(ctx context.Context, slotID string) error
	RecordEvaluation(ctx context.Context, slotID, juryID string, score float64, comments string) (*model.Evaluation, error)
	StudentSummary(ctx context.Context, studentID string, stage model.DefenseStage) (*model.EvaluationSummary, error)
}

// DefenseHandler handles one defense stage's scheduling endpoints. Two
// instances are mounted, one per stage.
type DefenseHandler struct {
	service DefenseServiceInterface
	stage   model.DefenseStage
}

// NewDefenseHandler builds a DefenseHandler bound to a stage.
func NewDefenseHandler(service DefenseServiceInterface, stage model.DefenseStage) *DefenseHandler {
	return &DefenseHandler{service: service, stage: stage}
}

type createWindowRequest struct {
	PeriodID string    `json:"period_id"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

type openSlotRequest struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

type bookSlotRequest struct {
	StudentID string `json:"student_id"`
}

type recordEvaluationRequest struct {
	Score    float64 `json:"score"`
	Comments string  `json:"comments"`
}

type windowResponse struct {
	ID       string    `json:"id"`
	PeriodID string    `json:"period_id"`
	Stage    string    `json:"stage"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

type slotResponse struct {
	ID       string    `json:"id"`
	WindowID string    `json:"window_id"`
	JuryID   string    `json:"jury_id"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

type bookingResponse struct {
	ID        string `json:"id"`
	SlotID    string `json:"slot_id"`
	StudentID string `json:"student_id"`
}

type evaluationResponse struct {
	ID       string  `json:"id"`
	SlotID   string  `json:"slot_id"`
	JuryID   string  `json:"jury_id"`
	Score    float64 `json:"score"`
	Comments string  `json:"comments,omitempty"`
}

type summaryResponse struct {
	StudentID string  `json:"student_id"`
	Stage     string  `json:"stage"`
	Count     int     `json:"count"`
	Average   float64 `json:"average"`
	Passed    bool    `json:"passed"`
}

func toWindowResponse(w *model.DefenseWindow) windowResponse {
	return windowResponse{
		ID:       w.ID,
		PeriodID: w.PeriodID,
		Stage:    string(w.Stage),
		StartsAt: w.StartsAt,
		EndsAt:   w.EndsAt,
	}
}

func toSlotResponse(s *model.DefenseSlot) slotResponse {
	return slotResponse{
		ID:       s.ID,
		WindowID: s.WindowID,
		JuryID:   s.JuryID,
		StartsAt: s.StartsAt,
		EndsAt:   s.EndsAt,
	}
}

// CreateWindow handles POST /admin/defense/{stage-prefixed tree}/windows.
func (h *DefenseHandler) CreateWindow(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	win, err := h.service.CreateWindow(r.Context(), req.PeriodID, h.stage, req.StartsAt, req.EndsAt, identity.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWindowResponse(win))
}

// ListWindows handles GET .../windows?period_id=...
func (h *DefenseHandler) ListWindows(w http.ResponseWriter, r *http.Request) {
	windows, err := h.service.ListWindows(r.Context(), r.URL.Query().Get("period_id"), h.stage)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]windowResponse, 0, len(windows))
	for _, win := range windows {
		out = append(out, toWindowResponse(win))
	}
	writeJSON(w, http.StatusOK, out)
}

// OpenSlot handles POST .../windows/{id}/slots. The slot belongs to the
// authenticated jury member.
func (h *DefenseHandler) OpenSlot(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req openSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	slot, err := h.service.OpenSlot(r.Context(), chi.URLParam(r, "id"), identity.UserID, req.StartsAt, req.EndsAt)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSlotResponse(slot))
}

// ListSlots handles GET .../windows/{id}/slots.
func (h *DefenseHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.service.ListSlots(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]slotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, toSlotResponse(s))
	}
	writeJSON(w, http.StatusOK, out)
}

// BookSlot handles POST .../slots/{id}/booking.
func (h *DefenseHandler) BookSlot(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req bookSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	b, err := h.service.BookSlot(r.Context(), chi.URLParam(r, "id"), req.StudentID, identity.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bookingResponse{
		ID:        b.ID,
		SlotID:    b.SlotID,
		StudentID: b.StudentID,
	})
}

// CancelBooking handles DELETE .../slots/{id}/booking.
func (h *DefenseHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CancelBooking(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordEvaluation handles POST .../slots/{id}/evaluation. The evaluator
// is the authenticated jury member.
func (h *DefenseHandler) RecordEvaluation(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req recordEvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestError())
		return
	}

	e, err := h.service.RecordEvaluation(r.Context(), chi.URLParam(r, "id"), identity.UserID, req.Score, req.Comments)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, evaluationResponse{
		ID:       e.ID,
		SlotID:   e.SlotID,
		JuryID:   e.JuryID,
		Score:    e.Score,
		Comments: e.Comments,
	})
}

// StudentSummary handles GET .../students/{id}/summary — the aggregated
// evaluation outcome for this stage.
func (h *DefenseHandler) StudentSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.service.StudentSummary(r.Context(), chi.URLParam(r, "id"), h.stage)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		StudentID: sum.StudentID,
		Stage:     string(sum.Stage),
		Count:     sum.Count,
		Average:   sum.Average,
		Passed:    sum.Passed,
	})
}
