package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/shop-portal/internal/domain"
	"github.com/spec-kit/shop-portal/internal/events"
	"github.com/spec-kit/shop-portal/internal/repository"
)

// AuditService records every status change published on the dispatcher.
type AuditService struct {
	dispatcher events.Dispatcher
	entries    repository.AuditRepository
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, entries repository.AuditRepository) *AuditService {
	return &AuditService{dispatcher: dispatcher, entries: entries}
}

// RegisterHandlers subscribes to status events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil || a.entries == nil {
		return
	}
	for _, eventType := range events.StatusEvents() {
		a.dispatcher.Subscribe(eventType, a.handleStatusChanged)
	}
}

func (a *AuditService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.StatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	createdAt := event.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	entry := &domain.AuditEntry{
		ID:         uuid.NewString(),
		EntityKind: event.EntityKind,
		EntityID:   event.EntityID,
		ActorID:    event.Actor.ID,
		ActorKind:  event.Actor.Kind,
		OldStatus:  payload.OldStatus,
		NewStatus:  payload.NewStatus,
		CreatedAt:  createdAt,
	}
	return a.entries.Create(ctx, entry)
}

// History lists the status changes of one entity, oldest first.
func (a *AuditService) History(ctx context.Context, kind domain.EntityKind, id string) ([]domain.AuditEntry, error) {
	return a.entries.ListByEntity(ctx, kind, id)
}
