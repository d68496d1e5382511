// Package seed loads the demo directory and records into empty repositories.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
	"github.com/opsdesk/records-dashboard/internal/core/ports"
	"github.com/opsdesk/records-dashboard/internal/core/service"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Identities returns the demo accounts without password hashes.
func Identities() []domain.Identity {
	return []domain.Identity{
		{
			ID: "1", Username: "admin", Name: "Admin User", Email: "admin@example.com",
			Role:      domain.RoleAdmin,
			Avatar:    "https://ui-avatars.com/api/?name=Admin+User&background=0D8ABC&color=fff",
			CreatedAt: day(2023, time.January, 1),
		},
		{
			ID: "2", Username: "user", Name: "Regular User", Email: "user@example.com",
			Role:      domain.RoleStandard,
			Avatar:    "https://ui-avatars.com/api/?name=Regular+User&background=27AE60&color=fff",
			CreatedAt: day(2023, time.February, 15),
		},
		{
			ID: "3", Username: "johndoe", Name: "John Doe", Email: "john@example.com",
			Role:      domain.RoleStandard,
			CreatedAt: day(2023, time.March, 10),
		},
		{
			ID: "4", Username: "janedoe", Name: "Jane Doe", Email: "jane@example.com",
			Role:      domain.RoleStandard,
			CreatedAt: day(2023, time.April, 20),
		},
	}
}

// Records returns the demo records in id order.
func Records() []domain.Record {
	return []domain.Record{
		{ID: "1", UserID: "1", Title: "System Maintenance", Description: "Perform regular system updates and maintenance", Status: domain.StatusCompleted, CreatedAt: day(2023, time.May, 10)},
		{ID: "2", UserID: "1", Title: "User Onboarding", Description: "Develop new user onboarding flow", Status: domain.StatusPending, CreatedAt: day(2023, time.May, 15)},
		{ID: "3", UserID: "1", Title: "Security Audit", Description: "Conduct security review of all systems", Status: domain.StatusPending, CreatedAt: day(2023, time.May, 18)},
		{ID: "4", UserID: "2", Title: "Complete Profile", Description: "Add personal details to user profile", Status: domain.StatusCompleted, CreatedAt: day(2023, time.May, 1)},
		{ID: "5", UserID: "2", Title: "Training Module 1", Description: "Complete first training module", Status: domain.StatusCompleted, CreatedAt: day(2023, time.May, 5)},
		{ID: "6", UserID: "2", Title: "Submit Documents", Description: "Upload required documentation", Status: domain.StatusPending, CreatedAt: day(2023, time.May, 12)},
		{ID: "7", UserID: "3", Title: "Project Alpha", Description: "Initial planning for Project Alpha", Status: domain.StatusPending, CreatedAt: day(2023, time.April, 22)},
		{ID: "8", UserID: "3", Title: "Client Meeting", Description: "Schedule meeting with new client", Status: domain.StatusCompleted, CreatedAt: day(2023, time.April, 28)},
		{ID: "9", UserID: "4", Title: "Data Analysis", Description: "Analyze Q1 sales data", Status: domain.StatusCompleted, CreatedAt: day(2023, time.May, 3)},
		{ID: "10", UserID: "4", Title: "Presentation Prep", Description: "Prepare slides for quarterly review", Status: domain.StatusPending, CreatedAt: day(2023, time.May, 8)},
	}
}

// Load inserts the demo data. Each repository is seeded only when empty, so
// restarting against a persistent backend keeps existing data. Every seeded
// identity gets the bcrypt hash of password.
func Load(ctx context.Context, identities ports.IdentityRepository, records ports.RecordRepository, password string, cost int, log zerolog.Logger) error {
	existing, err := identities.List(ctx)
	if err != nil {
		return fmt.Errorf("seed: list identities: %w", err)
	}
	if len(existing) == 0 {
		hash, err := service.HashPassword(password, cost)
		if err != nil {
			return fmt.Errorf("seed: hash password: %w", err)
		}
		for _, it := range Identities() {
			it.PasswordHash = hash
			if _, err := identities.Insert(ctx, &it); err != nil {
				return fmt.Errorf("seed: insert identity %s: %w", it.Username, err)
			}
		}
		log.Info().Int("count", len(Identities())).Msg("seeded identities")
	}

	owned, err := records.List(ctx, "")
	if err != nil {
		return fmt.Errorf("seed: list records: %w", err)
	}
	if len(owned) == 0 {
		for _, rec := range Records() {
			if _, err := records.Insert(ctx, &rec); err != nil {
				return fmt.Errorf("seed: insert record %s: %w", rec.ID, err)
			}
		}
		log.Info().Int("count", len(Records())).Msg("seeded records")
	}
	return nil
}
