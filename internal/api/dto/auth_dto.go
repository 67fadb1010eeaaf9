package dto

import (
	"time"

	"github.com/spec-kit/shop-portal/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresAt   time.Time        `json:"expires_at"`
	AccountID   string           `json:"account_id"`
	Kind        domain.ActorKind `json:"kind"`
	CustomerID  *string          `json:"customer_id,omitempty"`
}

// AuditEntryResponse is one recorded status change.
type AuditEntryResponse struct {
	ActorID   string           `json:"actor_id"`
	ActorKind domain.ActorKind `json:"actor_kind"`
	OldStatus string           `json:"old_status"`
	NewStatus string           `json:"new_status"`
	CreatedAt time.Time        `json:"created_at"`
}

// NewAuditEntryResponses maps audit entries, oldest first.
func NewAuditEntryResponses(entries []domain.AuditEntry) []AuditEntryResponse {
	resp := make([]AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, AuditEntryResponse{
			ActorID:   entry.ActorID,
			ActorKind: entry.ActorKind,
			OldStatus: entry.OldStatus,
			NewStatus: entry.NewStatus,
			CreatedAt: entry.CreatedAt,
		})
	}
	return resp
}
