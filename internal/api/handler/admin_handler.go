package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/opsdesk/records-dashboard/internal/api/metrics"
	"github.com/opsdesk/records-dashboard/internal/core/domain"
	"github.com/opsdesk/records-dashboard/internal/core/ports"
)

// AdminHandler serves the admin-only directory and reporting endpoints.
type AdminHandler struct {
	directory ports.DirectoryService
	records   ports.RecordService
	audit     ports.AuditService
}

func NewAdminHandler(directory ports.DirectoryService, records ports.RecordService, audit ports.AuditService) *AdminHandler {
	return &AdminHandler{directory: directory, records: records, audit: audit}
}

// ListIdentities handles GET /v1/admin/identities.
//
// @Summary      List identities
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  identityListResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/admin/identities [get]
func (h *AdminHandler) ListIdentities(c echo.Context) error {
	start := time.Now()
	identities, err := h.directory.ListIdentities(c.Request().Context())
	observe(ports.OpListIdentities, start, err)
	if err != nil {
		return err
	}
	if identities == nil {
		identities = []domain.Identity{}
	}
	return c.JSON(http.StatusOK, identityListResponse{Data: identities, Total: len(identities)})
}

// AddIdentity handles POST /v1/admin/identities.
//
// @Summary      Add an identity
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addIdentityRequest  true  "Identity details"
// @Success      201   {object}  domain.Identity
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/identities [post]
func (h *AdminHandler) AddIdentity(c echo.Context) error {
	var req addIdentityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	start := time.Now()
	created, err := h.directory.AddIdentity(c.Request().Context(), domain.NewIdentity{
		Username: req.Username,
		Name:     cleanText(req.Name),
		Email:    req.Email,
		Role:     domain.Role(req.Role),
		Avatar:   req.Avatar,
		Password: req.Password,
	})
	observe(ports.OpAddIdentity, start, err)
	if err != nil {
		return err
	}
	metrics.IdentitiesChangedTotal.WithLabelValues("added").Inc()

	c.Response().Header().Set(echo.HeaderLocation, "/v1/admin/identities/"+created.ID)
	return c.JSON(http.StatusCreated, created)
}

// RemoveIdentity handles DELETE /v1/admin/identities/:id.
//
// @Summary      Remove an identity
// @Description  Records owned by the identity are kept.
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  string  true  "Identity id"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/admin/identities/{id} [delete]
func (h *AdminHandler) RemoveIdentity(c echo.Context) error {
	start := time.Now()
	err := h.directory.RemoveIdentity(c.Request().Context(), c.Param("id"))
	observe(ports.OpRemoveIdentity, start, err)
	if err != nil {
		return err
	}
	metrics.IdentitiesChangedTotal.WithLabelValues("removed").Inc()
	return c.NoContent(http.StatusNoContent)
}

// RecordCounts handles GET /v1/admin/identities/record-counts.
//
// @Summary      Identities with their record counts
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  recordCountsResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/admin/identities/record-counts [get]
func (h *AdminHandler) RecordCounts(c echo.Context) error {
	start := time.Now()
	rows, err := h.records.ListIdentitiesWithRecordCounts(c.Request().Context())
	observe(ports.OpRecordCounts, start, err)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []domain.IdentityWithCount{}
	}
	return c.JSON(http.StatusOK, recordCountsResponse{Data: rows})
}

// Audit handles GET /v1/admin/audit.
//
// @Summary      Recent audit entries
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum entries (default 50, max 200)"
// @Success      200    {object}  auditListResponse
// @Failure      401    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Router       /v1/admin/audit [get]
func (h *AdminHandler) Audit(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}

	entries, err := h.audit.Recent(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	return c.JSON(http.StatusOK, auditListResponse{Data: entries})
}
