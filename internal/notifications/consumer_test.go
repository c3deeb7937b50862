package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcoalvarez/boostgrid-backend/pkg/db/models"
	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
	"github.com/marcoalvarez/boostgrid-backend/pkg/logger"
	"github.com/marcoalvarez/boostgrid-backend/pkg/mailer"
	"github.com/marcoalvarez/boostgrid-backend/pkg/outbox"
	"github.com/marcoalvarez/boostgrid-backend/pkg/outbox/payloads"
)

type fakeNotificationStore struct {
	created []*models.Notification
	err     error
}

func (f *fakeNotificationStore) Create(ctx context.Context, notification *models.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, notification)
	return nil
}

type fakeUserDirectory struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUserDirectory) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := f.users[id]; ok {
		return user, nil
	}
	return nil, errors.New("user not found")
}

type fakeIdempotencyChecker struct {
	processed map[uuid.UUID]bool
	checkErr  error
	deleted   []uuid.UUID
}

func (f *fakeIdempotencyChecker) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	if f.checkErr != nil {
		return false, f.checkErr
	}
	if f.processed == nil {
		f.processed = map[uuid.UUID]bool{}
	}
	if f.processed[eventID] {
		return true, nil
	}
	f.processed[eventID] = true
	return false, nil
}

func (f *fakeIdempotencyChecker) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	delete(f.processed, eventID)
	f.deleted = append(f.deleted, eventID)
	return nil
}

type fakeMailer struct {
	sent []mailer.Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type consumerHarness struct {
	consumer *Consumer
	store    *fakeNotificationStore
	users    *fakeUserDirectory
	idem     *fakeIdempotencyChecker
	mail     *fakeMailer
	userID   uuid.UUID
}

func newConsumerHarness(t *testing.T) *consumerHarness {
	t.Helper()

	userID := uuid.New()
	store := &fakeNotificationStore{}
	users := &fakeUserDirectory{users: map[uuid.UUID]*models.User{
		userID: {ID: userID, Email: "buyer@example.com", Username: "buyer"},
	}}
	idem := &fakeIdempotencyChecker{}
	mail := &fakeMailer{}

	consumer, err := NewConsumer(ConsumerParams{
		Repository:  store,
		Users:       users,
		Idempotency: idem,
		Mailer:      mail,
		Logger:      logger.New(logger.Options{ServiceName: "notifications-test"}),
	})
	if err != nil {
		t.Fatalf("build consumer: %v", err)
	}
	return &consumerHarness{
		consumer: consumer,
		store:    store,
		users:    users,
		idem:     idem,
		mail:     mail,
		userID:   userID,
	}
}

func newEventMessage(t *testing.T, eventType enums.OutboxEventType, eventID string, payload any) *pubsub.Message {
	t.Helper()

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &pubsub.Message{
		ID:         "msg-" + eventID,
		Data:       raw,
		Attributes: map[string]string{"event_type": string(eventType)},
	}
}

func TestConsumerCreatesStatusNotificationAndEmail(t *testing.T) {
	h := newConsumerHarness(t)
	remains := 40
	msg := newEventMessage(t, enums.EventOrderStatusChanged, uuid.NewString(), payloads.OrderStatusChangedEvent{
		OrderNumber:    1001,
		UserID:         h.userID,
		PreviousStatus: "Pending",
		Status:         "Partial",
		Remains:        &remains,
		ObservedAt:     time.Now().UTC(),
	})

	result := h.consumer.process(context.Background(), msg)
	if !result.ack || result.nack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(h.store.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(h.store.created))
	}
	row := h.store.created[0]
	if row.UserID != h.userID {
		t.Fatalf("notification for wrong user %s", row.UserID)
	}
	if row.Type != enums.NotificationTypeOrderStatus {
		t.Fatalf("unexpected type %s", row.Type)
	}
	if !strings.Contains(row.Message, "Partial") || !strings.Contains(row.Message, "40 remaining") {
		t.Fatalf("unexpected message %q", row.Message)
	}
	if len(h.mail.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(h.mail.sent))
	}
	if h.mail.sent[0].To != "buyer@example.com" {
		t.Fatalf("email to wrong address %q", h.mail.sent[0].To)
	}
}

func TestConsumerNotificationShapes(t *testing.T) {
	h := newConsumerHarness(t)
	charge := decimal.RequireFromString("12.50")

	cases := []struct {
		name      string
		eventType enums.OutboxEventType
		payload   any
		wantType  enums.NotificationType
		wantText  string
	}{
		{
			name:      "order confirmed",
			eventType: enums.EventOrderConfirmed,
			payload:   payloads.OrderConfirmedEvent{OrderNumber: 1002, UserID: h.userID, Charge: charge, Currency: "USD"},
			wantType:  enums.NotificationTypeOrderApproval,
			wantText:  "12.50 USD",
		},
		{
			name:      "order rejected",
			eventType: enums.EventOrderRejected,
			payload:   payloads.OrderRejectedEvent{OrderNumber: 1003, UserID: h.userID, Reason: "link unreachable"},
			wantType:  enums.NotificationTypeOrderApproval,
			wantText:  "link unreachable",
		},
		{
			name:      "deposit confirmed",
			eventType: enums.EventDepositConfirmed,
			payload:   payloads.DepositConfirmedEvent{TransactionID: uuid.New(), UserID: h.userID, Amount: charge, Method: "bank_transfer"},
			wantType:  enums.NotificationTypeDeposit,
			wantText:  "credited",
		},
		{
			name:      "deposit rejected",
			eventType: enums.EventDepositRejected,
			payload:   payloads.DepositRejectedEvent{TransactionID: uuid.New(), UserID: h.userID, Amount: charge, Method: "bank_transfer", Reason: "no matching wire"},
			wantType:  enums.NotificationTypeDeposit,
			wantText:  "no matching wire",
		},
		{
			name:      "user signed up",
			eventType: enums.EventUserSignedUp,
			payload:   payloads.UserSignedUpEvent{UserID: h.userID, Username: "buyer"},
			wantType:  enums.NotificationTypeSystem,
			wantText:  "buyer",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := len(h.store.created)
			msg := newEventMessage(t, tc.eventType, uuid.NewString(), tc.payload)
			result := h.consumer.process(context.Background(), msg)
			if !result.ack {
				t.Fatalf("expected ack, got %+v", result)
			}
			if len(h.store.created) != before+1 {
				t.Fatalf("expected a new notification row")
			}
			row := h.store.created[len(h.store.created)-1]
			if row.Type != tc.wantType {
				t.Fatalf("unexpected type %s", row.Type)
			}
			if !strings.Contains(row.Message, tc.wantText) {
				t.Fatalf("message %q missing %q", row.Message, tc.wantText)
			}
		})
	}
}

func TestConsumerDeduplicatesByEventID(t *testing.T) {
	h := newConsumerHarness(t)
	eventID := uuid.NewString()
	payload := payloads.OrderConfirmedEvent{OrderNumber: 1004, UserID: h.userID, Charge: decimal.NewFromInt(5), Currency: "USD"}

	first := h.consumer.process(context.Background(), newEventMessage(t, enums.EventOrderConfirmed, eventID, payload))
	second := h.consumer.process(context.Background(), newEventMessage(t, enums.EventOrderConfirmed, eventID, payload))

	if !first.ack || !second.ack {
		t.Fatalf("expected both deliveries acked, got %+v / %+v", first, second)
	}
	if len(h.store.created) != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", len(h.store.created))
	}
}

func TestConsumerNacksWhenCreateFails(t *testing.T) {
	h := newConsumerHarness(t)
	h.store.err = errors.New("insert failed")
	msg := newEventMessage(t, enums.EventOrderRejected, uuid.NewString(), payloads.OrderRejectedEvent{
		OrderNumber: 1005,
		UserID:      h.userID,
	})

	result := h.consumer.process(context.Background(), msg)
	if !result.nack {
		t.Fatalf("expected nack, got %+v", result)
	}
	if len(h.idem.deleted) != 1 {
		t.Fatal("expected idempotency mark cleared for retry")
	}
}

func TestConsumerSkipsUnknownEvents(t *testing.T) {
	h := newConsumerHarness(t)
	msg := &pubsub.Message{
		ID:         "msg-unknown",
		Data:       []byte(`{}`),
		Attributes: map[string]string{"event_type": "catalog_reindexed"},
	}

	result := h.consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(h.store.created) != 0 {
		t.Fatal("expected no notifications")
	}
}

func TestConsumerAcksPoisonEnvelope(t *testing.T) {
	h := newConsumerHarness(t)
	msg := &pubsub.Message{
		ID:         "msg-poison",
		Data:       []byte("not json"),
		Attributes: map[string]string{"event_type": string(enums.EventOrderConfirmed)},
	}

	result := h.consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(h.store.created) != 0 {
		t.Fatal("expected no notifications")
	}
}

func TestConsumerNacksUnknownPayloadVersion(t *testing.T) {
	h := newConsumerHarness(t)
	data, err := json.Marshal(payloads.OrderConfirmedEvent{OrderNumber: 1006, UserID: h.userID, Charge: decimal.NewFromInt(5), Currency: "USD"})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope := outbox.PayloadEnvelope{Version: 9, EventID: uuid.NewString(), OccurredAt: time.Now().UTC(), Data: data}
	raw, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	msg := &pubsub.Message{
		ID:         "msg-v9",
		Data:       raw,
		Attributes: map[string]string{"event_type": string(enums.EventOrderConfirmed)},
	}

	result := h.consumer.process(context.Background(), msg)
	if !result.nack {
		t.Fatalf("expected nack, got %+v", result)
	}
}

func TestConsumerEmailFailureIsBestEffort(t *testing.T) {
	h := newConsumerHarness(t)
	h.mail.err = errors.New("smtp down")
	msg := newEventMessage(t, enums.EventUserSignedUp, uuid.NewString(), payloads.UserSignedUpEvent{
		UserID:   h.userID,
		Username: "buyer",
	})

	result := h.consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(h.store.created) != 1 {
		t.Fatal("expected notification row despite email failure")
	}
}

func TestConsumerMissingUserSkipsEmail(t *testing.T) {
	h := newConsumerHarness(t)
	ghost := uuid.New()
	msg := newEventMessage(t, enums.EventOrderConfirmed, uuid.NewString(), payloads.OrderConfirmedEvent{
		OrderNumber: 1007,
		UserID:      ghost,
		Charge:      decimal.NewFromInt(5),
		Currency:    "USD",
	})

	result := h.consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(h.store.created) != 1 {
		t.Fatal("expected notification row")
	}
	if len(h.mail.sent) != 0 {
		t.Fatal("expected no email for missing user")
	}
}
