package client

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *TokenStore {
	t.Helper()
	return NewTokenStore(filepath.Join(t.TempDir(), "session.json"))
}

func TestTokenStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	identity := &StoredIdentity{
		UserID:   "u1",
		Username: "mlopez",
		Roles:    []string{"ROLE_COORDINATOR"},
	}
	if err := store.Set("tok-abc", identity); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	token, err := store.Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "tok-abc" {
		t.Errorf("token = %q, want tok-abc", token)
	}

	got, err := store.Identity()
	if err != nil {
		t.Fatalf("Identity failed: %v", err)
	}
	if got == nil || got.Username != "mlopez" || len(got.Roles) != 1 {
		t.Errorf("identity = %+v, want stored identity", got)
	}
}

func TestTokenStoreEmptyFile(t *testing.T) {
	store := newTestStore(t)

	token, err := store.Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "" {
		t.Errorf("token = %q, want empty", token)
	}

	identity, err := store.Identity()
	if err != nil {
		t.Fatalf("Identity failed: %v", err)
	}
	if identity != nil {
		t.Errorf("identity = %+v, want nil", identity)
	}
}

func TestTokenStoreClearPreservesPreferences(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set("tok-abc", &StoredIdentity{UserID: "u1"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.SetSelectedPeriodID("p-2026-1"); err != nil {
		t.Fatalf("SetSelectedPeriodID failed: %v", err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	token, _ := store.Token()
	if token != "" {
		t.Errorf("token survived Clear: %q", token)
	}
	identity, _ := store.Identity()
	if identity != nil {
		t.Errorf("identity survived Clear: %+v", identity)
	}

	period, err := store.SelectedPeriodID()
	if err != nil {
		t.Fatalf("SelectedPeriodID failed: %v", err)
	}
	if period != "p-2026-1" {
		t.Errorf("selected period = %q, want p-2026-1: Clear must not touch preferences", period)
	}
}

func TestTokenStoreClearIdempotent(t *testing.T) {
	store := newTestStore(t)

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear on empty store failed: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}
}
