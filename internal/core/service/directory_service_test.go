package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
)

func newDirectory(repo *stubIdentityRepo, sink *recordingSink) *DirectoryService {
	return NewDirectoryService(repo, sink, newCountingLatency(), bcrypt.MinCost, zerolog.Nop())
}

func TestDirectoryService_RequiresAdmin(t *testing.T) {
	svc := newDirectory(seededIdentities(), &recordingSink{})

	tests := []struct {
		name    string
		ctx     context.Context
		wantErr error
	}{
		{"anonymous", context.Background(), domain.ErrUnauthorized},
		{"standard identity", userCtx(), domain.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ListIdentities(tt.ctx); !errors.Is(err, tt.wantErr) {
				t.Errorf("list: expected %v, got %v", tt.wantErr, err)
			}
			if _, err := svc.AddIdentity(tt.ctx, domain.NewIdentity{Username: "x", Role: domain.RoleStandard}); !errors.Is(err, tt.wantErr) {
				t.Errorf("add: expected %v, got %v", tt.wantErr, err)
			}
			if err := svc.RemoveIdentity(tt.ctx, "3"); !errors.Is(err, tt.wantErr) {
				t.Errorf("remove: expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDirectoryService_ListIdentities(t *testing.T) {
	svc := newDirectory(seededIdentities(), &recordingSink{})

	identities, err := svc.ListIdentities(adminCtx())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(identities) != 4 {
		t.Fatalf("expected 4 identities, got %d", len(identities))
	}
	for i, want := range []string{"1", "2", "3", "4"} {
		if identities[i].ID != want {
			t.Errorf("position %d: expected id %s, got %s", i, want, identities[i].ID)
		}
		if identities[i].PasswordHash != "" {
			t.Errorf("identity %s leaks its password hash", identities[i].ID)
		}
	}
}

func TestDirectoryService_AddIdentityRoundTrip(t *testing.T) {
	repo := seededIdentities()
	sink := &recordingSink{}
	svc := newDirectory(repo, sink)
	ctx := adminCtx()

	created, err := svc.AddIdentity(ctx, domain.NewIdentity{
		Username: "  newbie ",
		Name:     "New Person",
		Email:    "new@example.com",
		Role:     "user",
		Password: "longenough",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != "5" {
		t.Errorf("expected id 5, got %s", created.ID)
	}
	if created.Username != "newbie" {
		t.Errorf("expected trimmed username, got %q", created.Username)
	}
	if created.Role != domain.RoleStandard {
		t.Errorf("expected standard role, got %s", created.Role)
	}

	identities, _ := svc.ListIdentities(ctx)
	if len(identities) != 5 || identities[4].ID != "5" {
		t.Fatalf("new identity not appended: %+v", identities)
	}

	// The new identity can sign in with its password.
	if _, err := NewAuthenticator(repo).Verify(context.Background(), "newbie", "longenough"); err != nil {
		t.Fatalf("new identity cannot log in: %v", err)
	}

	if len(sink.entries) != 1 || sink.entries[0].Action != domain.AuditIdentityAdded {
		t.Fatalf("expected one identity.added entry, got %+v", sink.entries)
	}
	if sink.entries[0].ActorID != "1" || sink.entries[0].SubjectID != "5" {
		t.Errorf("unexpected audit entry: %+v", sink.entries[0])
	}
}

func TestDirectoryService_AddIdentityValidation(t *testing.T) {
	svc := newDirectory(seededIdentities(), &recordingSink{})

	tests := []struct {
		name    string
		in      domain.NewIdentity
		wantErr error
	}{
		{"blank username", domain.NewIdentity{Username: "  ", Role: domain.RoleStandard}, domain.ErrUsernameRequired},
		{"bad role", domain.NewIdentity{Username: "x", Role: "root"}, domain.ErrInvalidRole},
		{"taken username", domain.NewIdentity{Username: "johndoe", Role: domain.RoleStandard}, domain.ErrHandleTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.AddIdentity(adminCtx(), tt.in); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDirectoryService_RemoveIdentity(t *testing.T) {
	repo := seededIdentities()
	sink := &recordingSink{}
	svc := newDirectory(repo, sink)
	ctx := adminCtx()

	if err := svc.RemoveIdentity(ctx, "3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.FindByID(context.Background(), "3"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatal("identity 3 still present")
	}
	if len(sink.entries) != 1 || sink.entries[0].Action != domain.AuditIdentityRemoved {
		t.Fatalf("expected identity.removed entry, got %+v", sink.entries)
	}

	// Removed ids are not handed out again.
	created, err := svc.AddIdentity(ctx, domain.NewIdentity{Username: "again", Role: domain.RoleStandard})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != "5" {
		t.Errorf("expected id 5, got %s", created.ID)
	}
}

func TestDirectoryService_RemoveIdentityErrors(t *testing.T) {
	repo := seededIdentities()
	sink := &recordingSink{}
	svc := newDirectory(repo, sink)

	if err := svc.RemoveIdentity(adminCtx(), "1"); !errors.Is(err, domain.ErrSelfDeletion) {
		t.Errorf("expected ErrSelfDeletion, got %v", err)
	}
	if err := svc.RemoveIdentity(adminCtx(), "99"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if len(repo.items) != 4 {
		t.Errorf("expected 4 identities, got %d", len(repo.items))
	}
	if len(sink.entries) != 0 {
		t.Errorf("failed removals were audited: %+v", sink.entries)
	}
}
