package domain

import (
	"context"
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"admin", RoleAdmin, false},
		{"standard", RoleStandard, false},
		{"user", RoleStandard, false},
		{" Admin ", RoleAdmin, false},
		{"root", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRole) {
					t.Fatalf("expected ErrInvalidRole, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestRecordStatus_Valid(t *testing.T) {
	for _, s := range []RecordStatus{StatusPending, StatusCompleted, StatusArchived} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	for _, s := range []RecordStatus{"", "done", "Pending"} {
		if s.Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestRecord_VisibleTo(t *testing.T) {
	rec := Record{ID: "1", UserID: "2"}

	if !rec.VisibleTo(Identity{ID: "2", Role: RoleStandard}) {
		t.Error("owner cannot see own record")
	}
	if rec.VisibleTo(Identity{ID: "3", Role: RoleStandard}) {
		t.Error("non-owner sees record")
	}
	if !rec.VisibleTo(Identity{ID: "1", Role: RoleAdmin}) {
		t.Error("admin cannot see record")
	}
}

func TestIdentity_SnapshotDropsHash(t *testing.T) {
	id := Identity{ID: "1", Username: "admin", PasswordHash: "secret"}
	snap := id.Snapshot()

	if snap.PasswordHash != "" {
		t.Error("snapshot kept the password hash")
	}
	if id.PasswordHash != "secret" {
		t.Error("snapshot mutated the source identity")
	}
}

func TestCaller(t *testing.T) {
	if _, err := Caller(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	// A session without an identity is not a caller.
	empty := WithSession(context.Background(), Session{})
	if _, err := Caller(empty); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	// Anonymous callers of admin operations are unauthorized and unauthenticated.
	_, err := AdminCaller(context.Background())
	if !errors.Is(err, ErrUnauthorized) || !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthorized wrapping ErrUnauthenticated, got %v", err)
	}

	user := WithSession(context.Background(), Session{Identity: Identity{ID: "2", Role: RoleStandard}})
	got, err := Caller(user)
	if err != nil || got.ID != "2" {
		t.Fatalf("expected caller 2, got %+v (%v)", got, err)
	}
	if _, err := AdminCaller(user); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	admin := WithSession(context.Background(), Session{Identity: Identity{ID: "1", Role: RoleAdmin}})
	if _, err := AdminCaller(admin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNotFoundKinds(t *testing.T) {
	if !errors.Is(ErrIdentityNotFound, ErrNotFound) || !errors.Is(ErrRecordNotFound, ErrNotFound) {
		t.Fatal("entity errors must wrap ErrNotFound")
	}
}
