package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/opsdesk/records-dashboard/internal/api/metrics"
	"github.com/opsdesk/records-dashboard/internal/core/domain"
	"github.com/opsdesk/records-dashboard/internal/core/ports"
)

// RecordHandler handles HTTP requests for record operations.
type RecordHandler struct {
	service ports.RecordService
}

func NewRecordHandler(service ports.RecordService) *RecordHandler {
	return &RecordHandler{service: service}
}

// List handles GET /v1/records.
//
// @Summary      List records visible to the caller
// @Description  Admins see every record; standard identities see only their own.
// @Tags         records
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  recordListResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/records [get]
func (h *RecordHandler) List(c echo.Context) error {
	start := time.Now()
	records, err := h.service.ListVisibleRecords(c.Request().Context())
	observe(ports.OpListRecords, start, err)
	if err != nil {
		return err
	}
	if records == nil {
		records = []domain.Record{}
	}
	return c.JSON(http.StatusOK, recordListResponse{Data: records, Total: len(records)})
}

// Get handles GET /v1/records/:id.
//
// @Summary      Get a record by id
// @Tags         records
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Record id"
// @Success      200  {object}  domain.Record
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/records/{id} [get]
func (h *RecordHandler) Get(c echo.Context) error {
	start := time.Now()
	record, err := h.service.GetRecord(c.Request().Context(), c.Param("id"))
	observe(ports.OpGetRecord, start, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, record)
}

// UpdateStatus handles PATCH /v1/records/:id/status.
//
// @Summary      Change the status of a record
// @Tags         records
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Record id"
// @Param        body  body      updateStatusRequest  true  "New status"
// @Success      200   {object}  domain.Record
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/records/{id}/status [patch]
func (h *RecordHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	start := time.Now()
	record, err := h.service.UpdateStatus(c.Request().Context(), c.Param("id"), domain.RecordStatus(req.Status))
	observe(ports.OpUpdateStatus, start, err)
	if err != nil {
		return err
	}
	metrics.StatusUpdatesTotal.WithLabelValues(string(record.Status)).Inc()
	return c.JSON(http.StatusOK, record)
}

// Create handles POST /v1/records.
//
// @Summary      Create a record owned by the caller
// @Tags         records
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createRecordRequest  true  "Record details"
// @Success      201   {object}  domain.Record
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/records [post]
func (h *RecordHandler) Create(c echo.Context) error {
	var req createRecordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	title := cleanText(req.Title)
	if title == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "title is required")
	}

	start := time.Now()
	record, err := h.service.CreateRecord(c.Request().Context(), domain.NewRecord{
		Title:       title,
		Description: cleanText(req.Description),
		Status:      domain.RecordStatus(req.Status),
	})
	observe(ports.OpCreateRecord, start, err)
	if err != nil {
		return err
	}
	metrics.RecordsCreatedTotal.WithLabelValues(string(record.Status)).Inc()

	c.Response().Header().Set(echo.HeaderLocation, "/v1/records/"+record.ID)
	return c.JSON(http.StatusCreated, record)
}
