package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
)

func newSessionStore(slot *stubSlot) *SessionStore {
	return NewSessionStore(context.Background(), NewAuthenticator(seededIdentities()), slot, newCountingLatency(), zerolog.Nop())
}

func TestSessionStore_StartsLoggedOut(t *testing.T) {
	store := newSessionStore(&stubSlot{})

	if store.IsAuthenticated() {
		t.Fatal("expected no session")
	}
	if _, ok := store.CurrentIdentity(); ok {
		t.Fatal("expected no current identity")
	}
	if store.HasRole(domain.RoleAdmin) {
		t.Fatal("anonymous store reports admin role")
	}
}

func TestSessionStore_LoginPersistsSnapshot(t *testing.T) {
	slot := &stubSlot{}
	store := newSessionStore(slot)

	identity, err := store.Login(context.Background(), "admin", "password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if identity.ID != "1" {
		t.Errorf("expected identity 1, got %s", identity.ID)
	}
	if !store.HasRole(domain.RoleAdmin) {
		t.Error("expected admin role")
	}
	if store.HasRole(domain.RoleStandard) {
		t.Error("admin reported as standard")
	}
	if len(slot.data) == 0 {
		t.Fatal("snapshot not persisted")
	}

	// A new store over the same slot picks the session up.
	restored := newSessionStore(slot)
	got, ok := restored.CurrentIdentity()
	if !ok || got.Username != "admin" {
		t.Fatalf("expected restored admin session, got %+v (ok=%v)", got, ok)
	}
	if got.PasswordHash != "" {
		t.Error("password hash persisted with session")
	}
}

func TestSessionStore_FailedLoginKeepsPriorSession(t *testing.T) {
	store := newSessionStore(&stubSlot{})
	ctx := context.Background()

	if _, err := store.Login(ctx, "johndoe", "password"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := store.Login(ctx, "admin", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	got, ok := store.CurrentIdentity()
	if !ok || got.Username != "johndoe" {
		t.Fatalf("prior session lost: %+v", got)
	}
}

func TestSessionStore_PersistFailureLeavesSessionUnchanged(t *testing.T) {
	slot := &stubSlot{saveErr: errors.New("disk full")}
	store := newSessionStore(slot)

	if _, err := store.Login(context.Background(), "admin", "password"); err == nil {
		t.Fatal("expected error")
	}
	if store.IsAuthenticated() {
		t.Fatal("session set although it could not be persisted")
	}
}

func TestSessionStore_Logout(t *testing.T) {
	slot := &stubSlot{}
	store := newSessionStore(slot)
	ctx := context.Background()

	if _, err := store.Login(ctx, "user", "password"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store.Logout(ctx)

	if store.IsAuthenticated() {
		t.Fatal("session survived logout")
	}
	if slot.data != nil {
		t.Fatal("snapshot survived logout")
	}

	// Logging out twice is harmless.
	store.Logout(ctx)
	if slot.cleared != 2 {
		t.Errorf("expected 2 clears, got %d", slot.cleared)
	}
}

func TestSessionStore_CorruptSnapshotIsCleared(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{garbage"},
		{"missing id", `{"username":"admin","role":"admin"}`},
		{"unknown role", `{"id":"1","username":"admin","role":"root"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := &stubSlot{data: []byte(tt.data)}
			store := newSessionStore(slot)

			if store.IsAuthenticated() {
				t.Fatal("corrupt snapshot restored")
			}
			if slot.cleared != 1 {
				t.Errorf("expected slot to be cleared once, got %d", slot.cleared)
			}
		})
	}
}

func TestSessionStore_LegacyRoleRestored(t *testing.T) {
	slot := &stubSlot{data: []byte(`{"id":"2","username":"user","role":"user"}`)}
	store := newSessionStore(slot)

	if !store.HasRole(domain.RoleStandard) {
		t.Fatal("legacy role not mapped to standard")
	}
}

func TestSessionStore_UnreadableSlotFailsOpen(t *testing.T) {
	store := newSessionStore(&stubSlot{loadErr: errors.New("permission denied")})

	if store.IsAuthenticated() {
		t.Fatal("expected logged-out store")
	}
}

func TestSessionStore_ContextCarriesCaller(t *testing.T) {
	store := newSessionStore(&stubSlot{})
	ctx := context.Background()

	if _, err := domain.Caller(store.Context(ctx)); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	if _, err := store.Login(ctx, "janedoe", "password"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	caller, err := domain.Caller(store.Context(ctx))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if caller.ID != "4" {
		t.Errorf("expected caller 4, got %s", caller.ID)
	}
}
