package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-portal/internal/service"
)

// Sender delivers one notification.
type Sender func(ctx context.Context, n service.Notification) error

// NotificationWorker drains queued notifications on a single goroutine so
// request handlers never wait on outbound calls.
type NotificationWorker struct {
	queue  chan service.Notification
	send   Sender
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewNotificationWorker builds a worker with the given buffer. A nil sender
// uses DefaultSender.
func NewNotificationWorker(logger *zap.Logger, buffer int, send Sender) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = 64
	}
	if send == nil {
		send = DefaultSender(logger, 5*time.Second)
	}
	return &NotificationWorker{
		queue:  make(chan service.Notification, buffer),
		send:   send,
		logger: logger,
	}
}

// Enqueue implements service.NotificationQueue. It never blocks.
func (w *NotificationWorker) Enqueue(n service.Notification) bool {
	select {
	case w.queue <- n:
		return true
	default:
		return false
	}
}

// Start runs the worker until ctx is cancelled. Queued items are drained first.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case n := <-w.queue:
				w.deliver(ctx, n)
			case <-ctx.Done():
				for {
					select {
					case n := <-w.queue:
						w.deliver(context.Background(), n)
					default:
						return
					}
				}
			}
		}
	}()
}

// Wait blocks until the worker goroutine has exited.
func (w *NotificationWorker) Wait() {
	w.wg.Wait()
}

func (w *NotificationWorker) deliver(ctx context.Context, n service.Notification) {
	if err := w.send(ctx, n); err != nil {
		w.logger.Warn("notification delivery failed",
			zap.String("channel", n.Channel),
			zap.String("event_type", string(n.Event.Type)),
			zap.Error(err))
	}
}

// DefaultSender posts webhooks as JSON and logs email notifications.
func DefaultSender(logger *zap.Logger, timeout time.Duration) Sender {
	return func(_ context.Context, n service.Notification) error {
		switch n.Channel {
		case service.ChannelWebhook:
			agent := fiber.Post(n.Target).JSON(n.Event).Timeout(timeout)
			status, _, errs := agent.Bytes()
			if len(errs) > 0 {
				return errs[0]
			}
			if status >= fiber.StatusBadRequest {
				return fmt.Errorf("webhook responded %d", status)
			}
			return nil
		case service.ChannelEmail:
			logger.Info("email notification",
				zap.String("from", n.From),
				zap.String("to", n.Target),
				zap.String("customer_id", n.Event.CustomerID),
				zap.String("event_type", string(n.Event.Type)))
			return nil
		}
		return fmt.Errorf("unknown channel %q", n.Channel)
	}
}
