package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/shop-portal/internal/config"
	"github.com/spec-kit/shop-portal/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	queue      NotificationQueue
	recipients RecipientDirectory
}

// RecipientDirectory resolves where customer emails go.
type RecipientDirectory interface {
	CustomerEmails(ctx context.Context, customerID string) ([]string, error)
}

// NotificationDependencies bundles collaborators for the notification service.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Config     config.NotificationConfig
	Queue      NotificationQueue
	Recipients RecipientDirectory
}

// NotificationQueue hands outbound notifications to a background sender.
type NotificationQueue interface {
	Enqueue(n Notification) bool
}

// Notification is one outbound email or webhook call. Target is the
// recipient address for email and the URL for webhooks.
type Notification struct {
	Channel string
	From    string
	Target  string
	Event   events.Event
}

const (
	ChannelEmail   = "email"
	ChannelWebhook = "webhook"
)

// NewNotificationService creates the service. A nil queue only logs
// notifications; a nil directory disables email.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		logger:     logger,
		cfg:        deps.Config,
		queue:      deps.Queue,
		recipients: deps.Recipients,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventOrderCreated, n.handleCustomerFacing)
	n.dispatcher.Subscribe(events.EventOrderStatusChanged, n.handleCustomerFacing)
	n.dispatcher.Subscribe(events.EventQuoteStatusChanged, n.handleCustomerFacing)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleWebhookOnly)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleWebhookOnly)
	n.dispatcher.Subscribe(events.EventTicketMessageAdded, n.handleTicketMessageAdded)
}

func (n *NotificationService) handleCustomerFacing(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.String("entity_id", event.EntityID), zap.Any("payload", event.Payload))
	n.sendEmailNotification(ctx, event)
	n.sendWebhookNotification(ctx, event)
	return nil
}

func (n *NotificationService) handleWebhookOnly(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.String("entity_id", event.EntityID), zap.Any("payload", event.Payload))
	n.sendWebhookNotification(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketMessageAdded(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.String("entity_id", event.EntityID), zap.Any("payload", event.Payload))
	if payload, ok := event.Payload.(events.TicketMessageAddedPayload); ok && payload.IsInternal {
		return nil
	}
	n.sendEmailNotification(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotification(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || n.recipients == nil || event.CustomerID == "" {
		return
	}
	emails, err := n.recipients.CustomerEmails(ctx, event.CustomerID)
	if err != nil {
		n.logger.Error("resolve notification recipients",
			zap.String("customer_id", event.CustomerID),
			zap.Error(err))
		return
	}
	if len(emails) == 0 {
		n.logger.Debug("no recipients for customer", zap.String("customer_id", event.CustomerID))
		return
	}
	for _, email := range emails {
		n.dispatch(Notification{Channel: ChannelEmail, From: n.cfg.EmailFrom, Target: email, Event: event})
	}
}

func (n *NotificationService) sendWebhookNotification(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.dispatch(Notification{Channel: ChannelWebhook, Target: n.cfg.WebhookURL, Event: event})
}

func (n *NotificationService) dispatch(note Notification) {
	if n.queue == nil {
		n.logger.Debug("notification",
			zap.String("channel", note.Channel),
			zap.String("target", note.Target),
			zap.String("entity_id", note.Event.EntityID),
			zap.String("event_type", string(note.Event.Type)))
		return
	}
	if !n.queue.Enqueue(note) {
		n.logger.Warn("notification queue full; dropping",
			zap.String("channel", note.Channel),
			zap.String("event_type", string(note.Event.Type)))
	}
}
