package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dquezada/titula/internal/model"
	"github.com/dquezada/titula/internal/student"
	"github.com/dquezada/titula/internal/user"
)

// stub services return empty results; the router tests only exercise
// routing and the middleware chain.

type stubUserService struct{}

func (stubUserService) List(_ context.Context) ([]*model.User, error) { return nil, nil }
func (stubUserService) Get(_ context.Context, id string) (*model.User, error) {
	return &model.User{ID: id}, nil
}
func (stubUserService) Create(_ context.Context, _ user.CreateInput) (*model.User, error) {
	return &model.User{}, nil
}
func (stubUserService) Update(_ context.Context, id string, _ user.UpdateInput) (*model.User, error) {
	return &model.User{ID: id}, nil
}
func (stubUserService) Delete(_ context.Context, _ string) error             { return nil }
func (stubUserService) SetPhotoFromURL(_ context.Context, _, _ string) error { return nil }
func (stubUserService) GetPhoto(_ context.Context, _ string) (*model.ProfilePhoto, error) {
	return nil, nil
}

type stubAcademicService struct{}

func (stubAcademicService) ListPeriods(_ context.Context) ([]*model.Period, error) { return nil, nil }
func (stubAcademicService) ActivePeriod(_ context.Context) (*model.Period, error) {
	return &model.Period{ID: "p1"}, nil
}
func (stubAcademicService) CreatePeriod(_ context.Context, _ string, _, _ time.Time) (*model.Period, error) {
	return &model.Period{}, nil
}
func (stubAcademicService) UpdatePeriod(_ context.Context, id, _ string, _, _ time.Time) (*model.Period, error) {
	return &model.Period{ID: id}, nil
}
func (stubAcademicService) ActivatePeriod(_ context.Context, _ string) error { return nil }
func (stubAcademicService) DeletePeriod(_ context.Context, _ string) error   { return nil }
func (stubAcademicService) ListCareers(_ context.Context) ([]*model.Career, error) {
	return nil, nil
}
func (stubAcademicService) CreateCareer(_ context.Context, _ string) (*model.Career, error) {
	return &model.Career{}, nil
}
func (stubAcademicService) UpdateCareer(_ context.Context, id, _ string) (*model.Career, error) {
	return &model.Career{ID: id}, nil
}
func (stubAcademicService) DeleteCareer(_ context.Context, _ string) error { return nil }

type stubStudentService struct{}

func (stubStudentService) Register(_ context.Context, _ student.RegisterInput) (*model.Student, error) {
	return &model.Student{}, nil
}
func (stubStudentService) Get(_ context.Context, id string) (*model.Student, error) {
	return &model.Student{ID: id}, nil
}
func (stubStudentService) ListByPeriod(_ context.Context, _ string) ([]*model.Student, error) {
	return nil, nil
}
func (stubStudentService) ListByTutor(_ context.Context, _, _ string) ([]*model.Student, error) {
	return nil, nil
}
func (stubStudentService) AssignTutor(_ context.Context, _, _ string) error { return nil }
func (stubStudentService) RecordIncident(_ context.Context, _, _ string, _ model.IncidentKind, _ string, _ time.Time) (*model.Incident, error) {
	return &model.Incident{}, nil
}
func (stubStudentService) ListIncidents(_ context.Context, _ string) ([]*model.Incident, error) {
	return nil, nil
}
func (stubStudentService) AssignProject(_ context.Context, _, _, _, _ string) (*model.Project, error) {
	return &model.Project{}, nil
}
func (stubStudentService) GetProject(_ context.Context, _ string) (*model.Project, error) {
	return &model.Project{}, nil
}

type stubDefenseService struct{}

func (stubDefenseService) CreateWindow(_ context.Context, _ string, stage model.DefenseStage, _, _ time.Time, _ string) (*model.DefenseWindow, error) {
	return &model.DefenseWindow{Stage: stage}, nil
}
func (stubDefenseService) ListWindows(_ context.Context, _ string, _ model.DefenseStage) ([]*model.DefenseWindow, error) {
	return nil, nil
}
func (stubDefenseService) OpenSlot(_ context.Context, _, _ string, _, _ time.Time) (*model.DefenseSlot, error) {
	return &model.DefenseSlot{}, nil
}
func (stubDefenseService) ListSlots(_ context.Context, _ string) ([]*model.DefenseSlot, error) {
	return nil, nil
}
func (stubDefenseService) BookSlot(_ context.Context, _, _, _ string) (*model.Booking, error) {
	return &model.Booking{}, nil
}
func (stubDefenseService) CancelBooking(_ context.Context, _ string) error { return nil }
func (stubDefenseService) RecordEvaluation(_ context.Context, _, _ string, _ float64, _ string) (*model.Evaluation, error) {
	return &model.Evaluation{}, nil
}
func (stubDefenseService) StudentSummary(_ context.Context, _ string, stage model.DefenseStage) (*model.EvaluationSummary, error) {
	return &model.EvaluationSummary{Stage: stage}, nil
}

// tokenResolver maps fixed tokens to identities.
type tokenResolver map[string]*model.Identity

func (tr tokenResolver) IdentityByToken(_ context.Context, token string) (*model.Identity, error) {
	return tr[token], nil
}

func newTestRouter() http.Handler {
	return NewRouter(&RouterDeps{
		IdentityResolver: tokenResolver{
			"admin-tok":   {UserID: "u-admin", Username: "admin", Roles: []string{"ROLE_ADMIN"}},
			"coord-tok":   {UserID: "u-coord", Username: "coord", Roles: []string{"ROLE_COORDINATOR"}},
			"tutor-tok":   {UserID: "u-tutor", Username: "tutor", Roles: []string{"ROLE_TUTOR"}},
			"jury-tok":    {UserID: "u-jury", Username: "jury", Roles: []string{"ROLE_JURY"}},
			"no-role-tok": {UserID: "u-none", Username: "none", Roles: nil},
		},
		CORSAllowedOrigin: "http://localhost:3000",

		AuthService:     &mockAuthService{},
		UserService:     stubUserService{},
		AcademicService: stubAcademicService{},
		StudentService:  stubStudentService{},
		DefenseService:  stubDefenseService{},
	})
}

func doRouted(t *testing.T, router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouterRoleGating(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{name: "no token rejected", method: http.MethodGet, path: "/me", token: "", wantStatus: http.StatusUnauthorized},
		{name: "unknown token rejected", method: http.MethodGet, path: "/me", token: "bogus", wantStatus: http.StatusUnauthorized},
		{name: "any role reads careers", method: http.MethodGet, path: "/careers", token: "jury-tok", wantStatus: http.StatusOK},

		{name: "admin reaches admin tree", method: http.MethodGet, path: "/admin/users", token: "admin-tok", wantStatus: http.StatusOK},
		{name: "tutor blocked from admin tree", method: http.MethodGet, path: "/admin/users", token: "tutor-tok", wantStatus: http.StatusForbidden},
		{name: "coordinator blocked from admin tree", method: http.MethodGet, path: "/admin/periods", token: "coord-tok", wantStatus: http.StatusForbidden},

		{name: "coordinator reaches coordinator tree", method: http.MethodGet, path: "/coordinator/students", token: "coord-tok", wantStatus: http.StatusOK},
		{name: "jury blocked from coordinator tree", method: http.MethodGet, path: "/coordinator/students", token: "jury-tok", wantStatus: http.StatusForbidden},

		{name: "tutor reaches tutor tree", method: http.MethodGet, path: "/tutor/students", token: "tutor-tok", wantStatus: http.StatusOK},
		{name: "admin blocked from tutor tree", method: http.MethodGet, path: "/tutor/students", token: "admin-tok", wantStatus: http.StatusForbidden},

		// jury duty: coordinators and tutors are admitted to defense trees
		{name: "jury reaches predefense", method: http.MethodGet, path: "/predefense/windows", token: "jury-tok", wantStatus: http.StatusOK},
		{name: "coordinator reaches predefense", method: http.MethodGet, path: "/predefense/windows", token: "coord-tok", wantStatus: http.StatusOK},
		{name: "tutor reaches final defense", method: http.MethodGet, path: "/final-defense/windows", token: "tutor-tok", wantStatus: http.StatusOK},
		{name: "admin blocked from defense trees", method: http.MethodGet, path: "/predefense/windows", token: "admin-tok", wantStatus: http.StatusForbidden},

		{name: "home for a role-less user is forbidden", method: http.MethodGet, path: "/home", token: "no-role-tok", wantStatus: http.StatusForbidden},
		{name: "home for jury", method: http.MethodGet, path: "/home", token: "jury-tok", wantStatus: http.StatusOK},

		{name: "health is public", method: http.MethodGet, path: "/health", token: "", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRouted(t, router, tt.method, tt.path, tt.token)
			if rec.Code != tt.wantStatus {
				t.Errorf("%s %s: status = %d, want %d", tt.method, tt.path, rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestRouter()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/me", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q, want the pinned origin", got)
	}
}
