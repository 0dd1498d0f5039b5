package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dquezada/titula/internal/model"
	"github.com/dquezada/titula/internal/role"
)

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		name       string
		roles      []string
		allowed    []string
		wantStatus int
	}{
		{
			name:       "exact match passes",
			roles:      []string{"ROLE_ADMIN"},
			allowed:    []string{role.Admin},
			wantStatus: http.StatusOK,
		},
		{
			name:       "one of several roles passes",
			roles:      []string{"ROLE_TUTOR", "ROLE_JURY"},
			allowed:    []string{role.Jury, role.Coordinator},
			wantStatus: http.StatusOK,
		},
		{
			name:       "no overlap is forbidden",
			roles:      []string{"ROLE_TUTOR"},
			allowed:    []string{role.Admin},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "empty role set is forbidden",
			roles:      nil,
			allowed:    []string{role.Admin},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "comparison is case-sensitive after normalization",
			roles:      []string{"role_admin"},
			allowed:    []string{role.Admin},
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			mw := RequireRoles(tt.allowed...)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			req = req.WithContext(ContextWithIdentity(req.Context(), &model.Identity{
				UserID: "u1",
				Roles:  tt.roles,
			}))
			mw(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireRolesWithoutIdentity(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without an identity")
	})
	mw := RequireRoles(role.Admin)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	mw(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
