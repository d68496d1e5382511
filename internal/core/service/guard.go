package service

import (
	"context"
	"fmt"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
)

// Guard decides whether a view is reachable for the session attached to ctx.
type Guard struct{}

func NewGuard() Guard {
	return Guard{}
}

// Decide returns the decision for view. Unknown views yield domain.ErrNotFound.
func (Guard) Decide(ctx context.Context, view domain.View) (domain.Decision, error) {
	caller, err := domain.Caller(ctx)
	authenticated := err == nil

	d := domain.Decision{View: view}
	switch view {
	case domain.ViewLogin:
		// Signed-in callers are sent to their landing view.
		if !authenticated {
			d.Allowed = true
		} else if caller.IsAdmin() {
			d.Redirect = domain.PathAdmin
		} else {
			d.Redirect = domain.PathDashboard
		}
	case domain.ViewRoot:
		if authenticated {
			d.Redirect = domain.PathDashboard
		} else {
			d.Redirect = domain.PathLogin
		}
	case domain.ViewDashboard:
		if authenticated {
			d.Allowed = true
		} else {
			d.Redirect = domain.PathLogin
		}
	case domain.ViewAdmin:
		switch {
		case !authenticated:
			d.Redirect = domain.PathLogin
		case !caller.IsAdmin():
			d.Redirect = domain.PathDashboard
		default:
			d.Allowed = true
		}
	default:
		return domain.Decision{}, fmt.Errorf("view %q: %w", view, domain.ErrNotFound)
	}
	return d, nil
}

// RequireAuthenticated and RequireAdmin express the guard as errors for
// callers that do not redirect.
func (g Guard) RequireAuthenticated(ctx context.Context) error {
	_, err := domain.Caller(ctx)
	return err
}

func (g Guard) RequireAdmin(ctx context.Context) error {
	_, err := domain.AdminCaller(ctx)
	return err
}
