package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/marcoalvarez/boostgrid-backend/pkg/db/models"
	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
	"github.com/marcoalvarez/boostgrid-backend/pkg/logger"
	"github.com/marcoalvarez/boostgrid-backend/pkg/mailer"
	"github.com/marcoalvarez/boostgrid-backend/pkg/outbox"
	"github.com/marcoalvarez/boostgrid-backend/pkg/outbox/payloads"
	"github.com/marcoalvarez/boostgrid-backend/pkg/outbox/registry"
)

const notificationConsumerName = "notification-worker"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type userDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// ConsumerParams wires the notification consumer dependencies.
type ConsumerParams struct {
	Repository   repository
	Users        userDirectory
	Subscription *pubsub.Subscriber
	Idempotency  idempotencyChecker
	Mailer       mailer.Mailer
	Logger       *logger.Logger
}

// Consumer turns domain events into notification rows plus best-effort
// emails. Each event is applied at most once per consumer name.
type Consumer struct {
	repo         repository
	users        userDirectory
	subscription *pubsub.Subscriber
	idempotency  idempotencyChecker
	mail         mailer.Mailer
	decoders     *registry.DecoderRegistry
	logg         *logger.Logger
}

// NewConsumer builds the notification consumer.
func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if params.Idempotency == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         params.Repository,
		users:        params.Users,
		subscription: params.Subscription,
		idempotency:  params.Idempotency,
		mail:         params.Mailer,
		decoders:     newPayloadDecoders(),
		logg:         params.Logger,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if c.subscription == nil {
		return fmt.Errorf("domain subscription required")
	}
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	rawType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": rawType,
	})

	eventType, err := enums.ParseOutboxEventType(rawType)
	if err != nil {
		c.logg.Info(logCtx, "skipping unsupported event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}
	logCtx = c.logg.WithField(logCtx, "event_id", envelope.EventID)

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, notificationConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	decoded, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, notificationConsumerName, eventID)
		return processResult{nack: true}
	}

	if err := c.handleEvent(ctx, decoded, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, notificationConsumerName, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func (c *Consumer) handleEvent(ctx context.Context, decoded interface{}, logCtx context.Context) error {
	var (
		userID       uuid.UUID
		notification *models.Notification
	)

	switch payload := decoded.(type) {
	case *payloads.OrderStatusChangedEvent:
		userID = payload.UserID
		message := fmt.Sprintf("Order #%d is now %s.", payload.OrderNumber, payload.Status)
		if payload.Remains != nil {
			message = fmt.Sprintf("Order #%d is now %s (%d remaining).", payload.OrderNumber, payload.Status, *payload.Remains)
		}
		notification = &models.Notification{
			Type:    enums.NotificationTypeOrderStatus,
			Title:   "Order update",
			Message: message,
		}
	case *payloads.OrderConfirmedEvent:
		userID = payload.UserID
		notification = &models.Notification{
			Type:  enums.NotificationTypeOrderApproval,
			Title: "Order approved",
			Message: fmt.Sprintf("Order #%d was approved and %s %s was charged to your balance.",
				payload.OrderNumber, payload.Charge.StringFixed(2), payload.Currency),
		}
	case *payloads.OrderRejectedEvent:
		userID = payload.UserID
		message := fmt.Sprintf("Order #%d was rejected.", payload.OrderNumber)
		if payload.Reason != "" {
			message = fmt.Sprintf("Order #%d was rejected: %s", payload.OrderNumber, payload.Reason)
		}
		notification = &models.Notification{
			Type:    enums.NotificationTypeOrderApproval,
			Title:   "Order rejected",
			Message: message,
		}
	case *payloads.DepositConfirmedEvent:
		userID = payload.UserID
		notification = &models.Notification{
			Type:  enums.NotificationTypeDeposit,
			Title: "Deposit confirmed",
			Message: fmt.Sprintf("Your %s deposit of %s was credited to your balance.",
				payload.Method, payload.Amount.StringFixed(2)),
		}
	case *payloads.DepositRejectedEvent:
		userID = payload.UserID
		message := fmt.Sprintf("Your %s deposit of %s was rejected.", payload.Method, payload.Amount.StringFixed(2))
		if payload.Reason != "" {
			message = fmt.Sprintf("Your %s deposit of %s was rejected: %s", payload.Method, payload.Amount.StringFixed(2), payload.Reason)
		}
		notification = &models.Notification{
			Type:    enums.NotificationTypeDeposit,
			Title:   "Deposit rejected",
			Message: message,
		}
	case *payloads.UserSignedUpEvent:
		userID = payload.UserID
		notification = &models.Notification{
			Type:    enums.NotificationTypeSystem,
			Title:   "Welcome to BoostGrid",
			Message: fmt.Sprintf("Hi %s, your account is ready. Top up your balance to place your first order.", payload.Username),
		}
	default:
		c.logg.Info(logCtx, "event not handled by notification consumer")
		return nil
	}

	if userID == uuid.Nil {
		return fmt.Errorf("user id missing")
	}
	notification.UserID = userID

	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "notification created")

	c.sendEmail(ctx, userID, notification.Title, notification.Message, logCtx)
	return nil
}

// sendEmail is best-effort: delivery failures never fail the event.
func (c *Consumer) sendEmail(ctx context.Context, userID uuid.UUID, subject, body string, logCtx context.Context) {
	user, err := c.users.FindByID(ctx, userID)
	if err != nil {
		c.logg.Warn(c.logg.WithField(logCtx, "error", err.Error()), "skipping notification email, user lookup failed")
		return
	}
	msg := mailer.Message{
		To:      user.Email,
		Subject: subject,
		Body:    body,
	}
	if err := c.mail.Send(ctx, msg); err != nil {
		c.logg.Warn(c.logg.WithField(logCtx, "error", err.Error()), "notification email delivery failed")
	}
}

func newPayloadDecoders() *registry.DecoderRegistry {
	reg := registry.NewDecoderRegistry()
	reg.Register(enums.EventOrderStatusChanged, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded payloads.OrderStatusChangedEvent
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return &decoded, nil
	})
	reg.Register(enums.EventOrderConfirmed, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded payloads.OrderConfirmedEvent
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return &decoded, nil
	})
	reg.Register(enums.EventOrderRejected, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded payloads.OrderRejectedEvent
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return &decoded, nil
	})
	reg.Register(enums.EventDepositConfirmed, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded payloads.DepositConfirmedEvent
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return &decoded, nil
	})
	reg.Register(enums.EventDepositRejected, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded payloads.DepositRejectedEvent
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return &decoded, nil
	})
	reg.Register(enums.EventUserSignedUp, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded payloads.UserSignedUpEvent
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return &decoded, nil
	})
	return reg
}
