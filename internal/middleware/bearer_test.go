package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dquezada/titula/internal/model"
)

type mockIdentityResolver struct {
	identityByTokenFn func(ctx context.Context, token string) (*model.Identity, error)
}

func (m *mockIdentityResolver) IdentityByToken(ctx context.Context, token string) (*model.Identity, error) {
	if m.identityByTokenFn != nil {
		return m.identityByTokenFn(ctx, token)
	}
	return nil, nil
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "well-formed", header: "Bearer abc123", want: "abc123"},
		{name: "no header", header: "", want: ""},
		{name: "wrong scheme", header: "Basic abc123", want: ""},
		{name: "scheme only", header: "Bearer", want: ""},
		{name: "scheme with empty token", header: "Bearer ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if got := BearerToken(r); got != tt.want {
				t.Errorf("BearerToken = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBearerMiddleware(t *testing.T) {
	identity := &model.Identity{UserID: "u1", Username: "mlopez", Roles: []string{"ROLE_ADMIN"}}

	t.Run("valid token reaches the handler with an identity", func(t *testing.T) {
		var seen *model.Identity
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = IdentityFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})
		mw := NewBearerMiddleware(&mockIdentityResolver{
			identityByTokenFn: func(_ context.Context, token string) (*model.Identity, error) {
				if token != "tok" {
					return nil, nil
				}
				return identity, nil
			},
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer tok")
		mw(next).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if seen == nil || seen.UserID != "u1" {
			t.Errorf("identity in context = %+v, want u1", seen)
		}
	})

	rejections := []struct {
		name     string
		header   string
		resolver *mockIdentityResolver
	}{
		{
			name:     "no token",
			header:   "",
			resolver: &mockIdentityResolver{},
		},
		{
			name:     "unknown token",
			header:   "Bearer unknown",
			resolver: &mockIdentityResolver{},
		},
		{
			name:   "resolver failure",
			header: "Bearer tok",
			resolver: &mockIdentityResolver{
				identityByTokenFn: func(_ context.Context, _ string) (*model.Identity, error) {
					return nil, errors.New("db down")
				},
			},
		},
	}

	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler must not run without an identity")
			})
			mw := NewBearerMiddleware(tt.resolver)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			mw(next).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestIdentityFromContextMissing(t *testing.T) {
	if _, err := IdentityFromContext(context.Background()); err == nil {
		t.Error("expected an error for a context without identity")
	}
}
