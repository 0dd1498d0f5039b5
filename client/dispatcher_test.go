package client

import (
	"context"
	"errors"
	"testing"
)

func TestDispatchNoToken(t *testing.T) {
	store := newTestStore(t)
	resolver := &mockResolver{
		resolveFunc: func(ctx context.Context) (*StoredIdentity, error) {
			t.Fatal("resolver must not be invoked without a token")
			return nil, nil
		},
	}

	d := NewDispatcher(store, resolver)
	path, err := d.Dispatch(context.Background())
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if path != LoginPath {
		t.Errorf("path = %s, want %s", path, LoginPath)
	}
}

func TestDispatchPrecedence(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  string
	}{
		{name: "admin only", roles: []string{"ROLE_ADMIN"}, want: "/admin"},
		{name: "coordinator only", roles: []string{"ROLE_COORDINATOR"}, want: "/coordinator"},
		{name: "tutor only", roles: []string{"ROLE_TUTOR"}, want: "/tutor"},
		{name: "jury only", roles: []string{"ROLE_JURY"}, want: "/jury"},
		{
			name:  "admin wins over everything",
			roles: []string{"ROLE_JURY", "ROLE_TUTOR", "ROLE_ADMIN"},
			want:  "/admin",
		},
		{
			name:  "coordinator wins over tutor and jury",
			roles: []string{"ROLE_JURY", "ROLE_COORDINATOR", "ROLE_TUTOR"},
			want:  "/coordinator",
		},
		{
			name:  "tutor wins over jury",
			roles: []string{"ROLE_JURY", "ROLE_TUTOR"},
			want:  "/tutor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			if err := store.Set("tok-abc", nil); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			resolver := &mockResolver{
				resolveFunc: func(ctx context.Context) (*StoredIdentity, error) {
					return &StoredIdentity{UserID: "u1", Roles: tt.roles}, nil
				},
			}

			d := NewDispatcher(store, resolver)
			path, err := d.Dispatch(context.Background())
			if err != nil {
				t.Fatalf("Dispatch failed: %v", err)
			}
			if path != tt.want {
				t.Errorf("path = %s, want %s", path, tt.want)
			}
		})
	}
}

func TestDispatchNoConfiguredRoleClearsStore(t *testing.T) {
	store := newTestStore(t)
	if err := store.Set("tok-abc", &StoredIdentity{UserID: "u1"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	resolver := &mockResolver{
		resolveFunc: func(ctx context.Context) (*StoredIdentity, error) {
			return &StoredIdentity{UserID: "u1", Roles: []string{"ROLE_VISITOR"}}, nil
		},
	}

	d := NewDispatcher(store, resolver)
	path, err := d.Dispatch(context.Background())
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if path != LoginPath {
		t.Errorf("path = %s, want %s", path, LoginPath)
	}

	token, _ := store.Token()
	if token != "" {
		t.Error("token should be cleared when no configured role matches")
	}
}

func TestDispatchResolveFailureFallsBackToLogin(t *testing.T) {
	store := newTestStore(t)
	if err := store.Set("tok-abc", nil); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	resolver := &mockResolver{
		resolveFunc: func(ctx context.Context) (*StoredIdentity, error) {
			return nil, errors.New("connection refused")
		},
	}

	d := NewDispatcher(store, resolver)
	path, err := d.Dispatch(context.Background())
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if path != LoginPath {
		t.Errorf("path = %s, want %s", path, LoginPath)
	}

	token, _ := store.Token()
	if token != "" {
		t.Error("token should be cleared after a resolve failure")
	}
}
