package handler

import (
	"time"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Identity  domain.Identity `json:"identity"`
}

type identityResponse struct {
	Identity domain.Identity `json:"identity"`
}

// --- Records ---

type createRecordRequest struct {
	Title       string `json:"title"       validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Status      string `json:"status"      validate:"omitempty,oneof=pending completed archived"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed archived"`
}

type recordListResponse struct {
	Data  []domain.Record `json:"data"`
	Total int             `json:"total"`
}

// --- Directory ---

type addIdentityRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Name     string `json:"name"     validate:"required,max=120"`
	Email    string `json:"email"    validate:"required,email"`
	Role     string `json:"role"     validate:"required,oneof=admin standard user"`
	Avatar   string `json:"avatar"   validate:"omitempty,url"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

type identityListResponse struct {
	Data  []domain.Identity `json:"data"`
	Total int               `json:"total"`
}

type recordCountsResponse struct {
	Data []domain.IdentityWithCount `json:"data"`
}

type auditListResponse struct {
	Data []domain.AuditEntry `json:"data"`
}
