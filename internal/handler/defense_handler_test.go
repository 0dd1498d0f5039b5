package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dquezada/titula/internal/middleware"
	"github.com/dquezada/titula/internal/model"
)

type mockDefenseService struct {
	createWindowFunc     func(ctx context.Context, periodID string, stage model.DefenseStage, startsAt, endsAt time.Time, createdBy string) (*model.DefenseWindow, error)
	listWindowsFunc      func(ctx context.Context, periodID string, stage model.DefenseStage) ([]*model.DefenseWindow, error)
	openSlotFunc         func(ctx context.Context, windowID, juryID string, startsAt, endsAt time.Time) (*model.DefenseSlot, error)
	listSlotsFunc        func(ctx context.Context, windowID string) ([]*model.DefenseSlot, error)
	bookSlotFunc         func(ctx context.Context, slotID, studentID, bookedBy string) (*model.Booking, error)
	cancelBookingFunc    func(ctx context.Context, slotID string) error
	recordEvaluationFunc func(ctx context.Context, slotID, juryID string, score float64, comments string) (*model.Evaluation, error)
	studentSummaryFunc   func(ctx context.Context, studentID string, stage model.DefenseStage) (*model.EvaluationSummary, error)
}

func (m *mockDefenseService) CreateWindow(ctx context.Context, periodID string, stage model.DefenseStage, startsAt, endsAt time.Time, createdBy string) (*model.DefenseWindow, error) {
	if m.createWindowFunc != nil {
		return m.createWindowFunc(ctx, periodID, stage, startsAt, endsAt, createdBy)
	}
	return &model.DefenseWindow{}, nil
}

func (m *mockDefenseService) ListWindows(ctx context.Context, periodID string, stage model.DefenseStage) ([]*model.DefenseWindow, error) {
	if m.listWindowsFunc != nil {
		return m.listWindowsFunc(ctx, periodID, stage)
	}
	return nil, nil
}

func (m *mockDefenseService) OpenSlot(ctx context.Context, windowID, juryID string, startsAt, endsAt time.Time) (*model.DefenseSlot, error) {
	if m.openSlotFunc != nil {
		return m.openSlotFunc(ctx, windowID, juryID, startsAt, endsAt)
	}
	return &model.DefenseSlot{}, nil
}

func (m *mockDefenseService) ListSlots(ctx context.Context, windowID string) ([]*model.DefenseSlot, error) {
	if m.listSlotsFunc != nil {
		return m.listSlotsFunc(ctx, windowID)
	}
	return nil, nil
}

func (m *mockDefenseService) BookSlot(ctx context.Context, slotID, studentID, bookedBy string) (*model.Booking, error) {
	if m.bookSlotFunc != nil {
		return m.bookSlotFunc(ctx, slotID, studentID, bookedBy)
	}
	return &model.Booking{}, nil
}

func (m *mockDefenseService) CancelBooking(ctx context.Context, slotID string) error {
	if m.cancelBookingFunc != nil {
		return m.cancelBookingFunc(ctx, slotID)
	}
	return nil
}

func (m *mockDefenseService) RecordEvaluation(ctx context.Context, slotID, juryID string, score float64, comments string) (*model.Evaluation, error) {
	if m.recordEvaluationFunc != nil {
		return m.recordEvaluationFunc(ctx, slotID, juryID, score, comments)
	}
	return &model.Evaluation{}, nil
}

func (m *mockDefenseService) StudentSummary(ctx context.Context, studentID string, stage model.DefenseStage) (*model.EvaluationSummary, error) {
	if m.studentSummaryFunc != nil {
		return m.studentSummaryFunc(ctx, studentID, stage)
	}
	return &model.EvaluationSummary{}, nil
}

// defenseRequest builds a request carrying a jury identity and a chi
// route param.
func defenseRequest(method, target, body, paramID string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	ctx := middleware.ContextWithIdentity(req.Context(), &model.Identity{
		UserID:   "u-jury",
		Username: "jury",
		Roles:    []string{"ROLE_JURY"},
	})
	if paramID != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", paramID)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func TestCreateWindowHandler(t *testing.T) {
	t.Run("creates a window for the bound stage", func(t *testing.T) {
		var gotStage model.DefenseStage
		var gotCreatedBy string
		service := &mockDefenseService{
			createWindowFunc: func(_ context.Context, periodID string, stage model.DefenseStage, startsAt, endsAt time.Time, createdBy string) (*model.DefenseWindow, error) {
				gotStage, gotCreatedBy = stage, createdBy
				return &model.DefenseWindow{
					ID: "w1", PeriodID: periodID, Stage: stage,
					StartsAt: startsAt, EndsAt: endsAt,
				}, nil
			},
		}
		h := NewDefenseHandler(service, model.StagePredefense)

		body := `{"period_id":"p1","starts_at":"2026-03-10T08:00:00Z","ends_at":"2026-03-14T18:00:00Z"}`
		rec := httptest.NewRecorder()
		h.CreateWindow(rec, defenseRequest(http.MethodPost, "/windows", body, ""))

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
		if gotStage != model.StagePredefense {
			t.Errorf("stage = %q, want the handler's bound stage", gotStage)
		}
		if gotCreatedBy != "u-jury" {
			t.Errorf("createdBy = %q, want the authenticated user", gotCreatedBy)
		}

		var resp windowResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.ID != "w1" || resp.Stage != string(model.StagePredefense) {
			t.Errorf("response = %+v", resp)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		h := NewDefenseHandler(&mockDefenseService{}, model.StagePredefense)
		rec := httptest.NewRecorder()
		h.CreateWindow(rec, defenseRequest(http.MethodPost, "/windows", "{not json", ""))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("no identity", func(t *testing.T) {
		h := NewDefenseHandler(&mockDefenseService{}, model.StagePredefense)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/windows", strings.NewReader(`{}`))
		h.CreateWindow(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}

func TestOpenSlotHandler(t *testing.T) {
	t.Run("owner is the authenticated jury member", func(t *testing.T) {
		var gotWindow, gotJury string
		service := &mockDefenseService{
			openSlotFunc: func(_ context.Context, windowID, juryID string, startsAt, endsAt time.Time) (*model.DefenseSlot, error) {
				gotWindow, gotJury = windowID, juryID
				return &model.DefenseSlot{ID: "sl1", WindowID: windowID, JuryID: juryID, StartsAt: startsAt, EndsAt: endsAt}, nil
			},
		}
		h := NewDefenseHandler(service, model.StageFinal)

		body := `{"starts_at":"2026-03-10T09:00:00Z","ends_at":"2026-03-10T10:00:00Z"}`
		rec := httptest.NewRecorder()
		h.OpenSlot(rec, defenseRequest(http.MethodPost, "/windows/w1/slots", body, "w1"))

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
		if gotWindow != "w1" || gotJury != "u-jury" {
			t.Errorf("OpenSlot(%q, %q), want (w1, u-jury)", gotWindow, gotJury)
		}
	})

	t.Run("overlap surfaces as conflict", func(t *testing.T) {
		service := &mockDefenseService{
			openSlotFunc: func(_ context.Context, _, _ string, _, _ time.Time) (*model.DefenseSlot, error) {
				return nil, model.NewSlotOverlapError()
			},
		}
		h := NewDefenseHandler(service, model.StageFinal)

		body := `{"starts_at":"2026-03-10T09:00:00Z","ends_at":"2026-03-10T10:00:00Z"}`
		rec := httptest.NewRecorder()
		h.OpenSlot(rec, defenseRequest(http.MethodPost, "/windows/w1/slots", body, "w1"))
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})
}

func TestBookSlotHandler(t *testing.T) {
	t.Run("books for a student", func(t *testing.T) {
		var gotSlot, gotStudent, gotBookedBy string
		service := &mockDefenseService{
			bookSlotFunc: func(_ context.Context, slotID, studentID, bookedBy string) (*model.Booking, error) {
				gotSlot, gotStudent, gotBookedBy = slotID, studentID, bookedBy
				return &model.Booking{ID: "b1", SlotID: slotID, StudentID: studentID}, nil
			},
		}
		h := NewDefenseHandler(service, model.StagePredefense)

		rec := httptest.NewRecorder()
		h.BookSlot(rec, defenseRequest(http.MethodPost, "/slots/sl1/booking", `{"student_id":"s1"}`, "sl1"))

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
		if gotSlot != "sl1" || gotStudent != "s1" || gotBookedBy != "u-jury" {
			t.Errorf("BookSlot(%q, %q, %q)", gotSlot, gotStudent, gotBookedBy)
		}
	})

	t.Run("taken slot is a conflict", func(t *testing.T) {
		service := &mockDefenseService{
			bookSlotFunc: func(_ context.Context, _, _, _ string) (*model.Booking, error) {
				return nil, model.NewSlotTakenError("sl1")
			},
		}
		h := NewDefenseHandler(service, model.StagePredefense)

		rec := httptest.NewRecorder()
		h.BookSlot(rec, defenseRequest(http.MethodPost, "/slots/sl1/booking", `{"student_id":"s1"}`, "sl1"))
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})
}

func TestCancelBookingHandler(t *testing.T) {
	t.Run("cancels", func(t *testing.T) {
		h := NewDefenseHandler(&mockDefenseService{}, model.StagePredefense)
		rec := httptest.NewRecorder()
		h.CancelBooking(rec, defenseRequest(http.MethodDelete, "/slots/sl1/booking", "", "sl1"))
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
	})

	t.Run("no booking to cancel", func(t *testing.T) {
		service := &mockDefenseService{
			cancelBookingFunc: func(_ context.Context, _ string) error {
				return &model.APIError{Code: model.ErrCodeBookingNotFound, Message: "no booking", Category: "defense"}
			},
		}
		h := NewDefenseHandler(service, model.StagePredefense)
		rec := httptest.NewRecorder()
		h.CancelBooking(rec, defenseRequest(http.MethodDelete, "/slots/sl1/booking", "", "sl1"))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestRecordEvaluationHandler(t *testing.T) {
	t.Run("records with the authenticated evaluator", func(t *testing.T) {
		var gotJury string
		var gotScore float64
		service := &mockDefenseService{
			recordEvaluationFunc: func(_ context.Context, slotID, juryID string, score float64, comments string) (*model.Evaluation, error) {
				gotJury, gotScore = juryID, score
				return &model.Evaluation{ID: "e1", SlotID: slotID, JuryID: juryID, Score: score, Comments: comments}, nil
			},
		}
		h := NewDefenseHandler(service, model.StageFinal)

		rec := httptest.NewRecorder()
		h.RecordEvaluation(rec, defenseRequest(http.MethodPost, "/slots/sl1/evaluation", `{"score":8.5,"comments":"solid defense"}`, "sl1"))

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
		if gotJury != "u-jury" || gotScore != 8.5 {
			t.Errorf("RecordEvaluation(jury=%q, score=%v)", gotJury, gotScore)
		}
	})

	t.Run("out-of-band score", func(t *testing.T) {
		service := &mockDefenseService{
			recordEvaluationFunc: func(_ context.Context, _, _ string, score float64, _ string) (*model.Evaluation, error) {
				return nil, model.NewInvalidScoreError(score)
			},
		}
		h := NewDefenseHandler(service, model.StageFinal)

		rec := httptest.NewRecorder()
		h.RecordEvaluation(rec, defenseRequest(http.MethodPost, "/slots/sl1/evaluation", `{"score":11}`, "sl1"))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestStudentSummaryHandler(t *testing.T) {
	service := &mockDefenseService{
		studentSummaryFunc: func(_ context.Context, studentID string, stage model.DefenseStage) (*model.EvaluationSummary, error) {
			return &model.EvaluationSummary{
				StudentID: studentID,
				Stage:     stage,
				Count:     3,
				Average:   7.5,
				Passed:    true,
			}, nil
		},
	}
	h := NewDefenseHandler(service, model.StagePredefense)

	rec := httptest.NewRecorder()
	h.StudentSummary(rec, defenseRequest(http.MethodGet, "/students/s1/summary", "", "s1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp summaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.StudentID != "s1" || resp.Stage != string(model.StagePredefense) || !resp.Passed {
		t.Errorf("response = %+v", resp)
	}
}
