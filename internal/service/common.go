package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-portal/internal/domain"
	"github.com/spec-kit/shop-portal/internal/events"
	"github.com/spec-kit/shop-portal/internal/filter"
	"github.com/spec-kit/shop-portal/internal/repository"
	apperrors "github.com/spec-kit/shop-portal/pkg/util/errorutil"
)

// ListResult is one page of a listing.
type ListResult[T any] struct {
	Rows     []T
	Total    int
	Page     int
	PageSize int
}

// Runtime carries collaborators every entity service needs.
type Runtime struct {
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Limits     filter.Limits
	Now        func() time.Time
	NewID      func() string
}

func (r Runtime) withDefaults() Runtime {
	if r.Logger == nil {
		r.Logger = zap.NewNop()
	}
	if r.Now == nil {
		r.Now = func() time.Time { return time.Now().UTC() }
	}
	if r.NewID == nil {
		r.NewID = uuid.NewString
	}
	return r
}

func (r Runtime) publishEvent(ctx context.Context, event events.Event) {
	if r.Dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = r.NewID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = r.Now()
	}
	_ = r.Dispatcher.Publish(ctx, event)
}

func (r Runtime) publishStatusChange(ctx context.Context, typ events.EventType, kind domain.EntityKind, id, customerID string, actor domain.Actor, oldStatus, newStatus string) {
	r.Logger.Info("status changed",
		zap.String("entity", string(kind)),
		zap.String("id", id),
		zap.String("from", oldStatus),
		zap.String("to", newStatus),
		zap.String("actor", actor.ID),
	)
	r.publishEvent(ctx, events.Event{
		Type:       typ,
		EntityKind: kind,
		EntityID:   id,
		CustomerID: customerID,
		Actor:      events.ActorFrom(actor),
		Payload: events.StatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
}

// storeError translates record store failures into domain errors. Infrastructure
// failures are logged here and surface as INTERNAL_ERROR.
func (r Runtime) storeError(err error, entity, id string) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound(entity, map[string]any{"id": id})
	case errors.Is(err, repository.ErrVersionConflict):
		return apperrors.NewConflict(entity+" was modified concurrently; reload and retry", map[string]any{"id": id})
	}
	r.Logger.Error("record store failure", zap.String("entity", entity), zap.String("id", id), zap.Error(err))
	return apperrors.NewInternalError(err)
}

func validationError(message string, details map[string]any) error {
	return apperrors.NewValidationError(message, details)
}

func stringPreview(body string, limit int) string {
	body = strings.TrimSpace(body)
	if len(body) <= limit {
		return body
	}
	if limit <= 3 {
		return body[:limit]
	}
	return body[:limit-3] + "..."
}

func includeList(names ...string) []string {
	var out []string
	for _, name := range names {
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
