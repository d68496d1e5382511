package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
)

// ViewGuard decides whether a view is reachable for the current session.
type ViewGuard interface {
	Decide(ctx context.Context, view domain.View) (domain.Decision, error)
}

type ViewHandler struct {
	guard ViewGuard
}

func NewViewHandler(guard ViewGuard) *ViewHandler {
	return &ViewHandler{guard: guard}
}

// Decide handles GET /v1/views/:view.
//
// @Summary      Route guard decision
// @Description  Reports whether the view is allowed and where to redirect otherwise.
// @Tags         views
// @Produce      json
// @Param        view  path      string  true  "root, login, dashboard or admin"
// @Success      200   {object}  domain.Decision
// @Failure      404   {object}  errorResponse
// @Router       /v1/views/{view} [get]
func (h *ViewHandler) Decide(c echo.Context) error {
	d, err := h.guard.Decide(c.Request().Context(), domain.View(c.Param("view")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}
