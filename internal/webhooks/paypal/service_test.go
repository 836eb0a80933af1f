package paypalwebhook

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/peptidrop/backend/internal/orders"
	"github.com/peptidrop/backend/pkg/db/models"
	"github.com/peptidrop/backend/pkg/enums"
	pkgerrors "github.com/peptidrop/backend/pkg/errors"
	"github.com/peptidrop/backend/pkg/logger"
)

type passthroughTx struct {
	db *gorm.DB
}

func (p passthroughTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return p.db.Transaction(fn)
}

func setupWebhookTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	stmts := []string{`
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  processor TEXT NOT NULL,
  processor_reference TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  customer_email TEXT,
  user_id TEXT,
  amount_total_cents INTEGER,
  currency TEXT NOT NULL DEFAULT 'usd',
  paid_at DATETIME,
  refunded_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  sku TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  qty INTEGER NOT NULL,
  image_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_history_entries (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  order_id TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL,
  amount_total_cents INTEGER NOT NULL,
  currency TEXT NOT NULL,
  placed_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`}

	for _, stmt := range stmts {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newTestService(t *testing.T) (*Service, orders.Repository) {
	t.Helper()

	db := setupWebhookTestDB(t)
	repo := orders.NewRepository(db)
	ordersSvc, err := orders.NewService(repo, passthroughTx{db: db})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Orders: ordersSvc,
		Logger: logger.New(logger.Options{ServiceName: "paypal-webhook-test"}),
	})
	require.NoError(t, err)
	return svc, repo
}

func seedPendingOrder(t *testing.T, repo orders.Repository, reference string) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:                 uuid.New(),
		Processor:          enums.ProcessorPayPal,
		ProcessorReference: reference,
		Status:             enums.OrderStatusPending,
		Currency:           "usd",
	}
	_, err := repo.Create(context.Background(), order)
	require.NoError(t, err)
	return order
}

func captureEvent(t *testing.T, eventType, paypalOrderID, customID, value string) *Event {
	t.Helper()

	resource, err := json.Marshal(map[string]any{
		"id":        "capture-1",
		"status":    "COMPLETED",
		"custom_id": customID,
		"amount":    map[string]string{"currency_code": "USD", "value": value},
		"supplementary_data": map[string]any{
			"related_ids": map[string]string{"order_id": paypalOrderID},
		},
	})
	require.NoError(t, err)

	return &Event{
		ID:           "WH-" + uuid.NewString(),
		EventType:    eventType,
		CreateTime:   time.Now().UTC(),
		ResourceType: "capture",
		Resource:     resource,
	}
}

func refundEvent(t *testing.T, customID, refundValue, totalRefundedValue string) *Event {
	t.Helper()

	resource, err := json.Marshal(map[string]any{
		"id":        "refund-1",
		"status":    "COMPLETED",
		"custom_id": customID,
		"amount":    map[string]string{"currency_code": "USD", "value": refundValue},
		"seller_payable_breakdown": map[string]any{
			"total_refunded_amount": map[string]string{"currency_code": "USD", "value": totalRefundedValue},
		},
	})
	require.NoError(t, err)

	return &Event{
		ID:           "WH-" + uuid.NewString(),
		EventType:    EventCaptureRefunded,
		CreateTime:   time.Now().UTC(),
		ResourceType: "refund",
		Resource:     resource,
	}
}

func TestCaptureCompletedMarksOrderPaid(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	order := seedPendingOrder(t, repo, "PAYPAL-ORDER-1")

	event := captureEvent(t, EventCaptureCompleted, "PAYPAL-ORDER-1", order.ID.String(), "99.98")
	require.NoError(t, svc.HandleEvent(ctx, event))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, found.Status)
	require.NotNil(t, found.AmountTotalCents)
	assert.Equal(t, int64(9998), *found.AmountTotalCents)
}

func TestCaptureCompletedReplayIsIdempotent(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	order := seedPendingOrder(t, repo, "PAYPAL-ORDER-2")

	event := captureEvent(t, EventCaptureCompleted, "PAYPAL-ORDER-2", order.ID.String(), "49.99")
	require.NoError(t, svc.HandleEvent(ctx, event))
	require.NoError(t, svc.HandleEvent(ctx, event))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, found.Status)
}

func TestCaptureDeniedMarksPaymentFailed(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	order := seedPendingOrder(t, repo, "PAYPAL-ORDER-3")

	event := captureEvent(t, EventCaptureDenied, "PAYPAL-ORDER-3", order.ID.String(), "49.99")
	require.NoError(t, svc.HandleEvent(ctx, event))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaymentFailed, found.Status)
}

func TestCaptureRefundedFullAndPartial(t *testing.T) {
	cases := []struct {
		name          string
		totalRefunded string
		want          enums.OrderStatus
	}{
		{name: "full refund", totalRefunded: "99.98", want: enums.OrderStatusRefunded},
		{name: "partial refund", totalRefunded: "20.00", want: enums.OrderStatusPartiallyRefunded},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo := newTestService(t)
			ctx := context.Background()

			order := seedPendingOrder(t, repo, "PAYPAL-ORDER-4")
			paid := captureEvent(t, EventCaptureCompleted, "PAYPAL-ORDER-4", order.ID.String(), "99.98")
			require.NoError(t, svc.HandleEvent(ctx, paid))

			refund := refundEvent(t, order.ID.String(), "20.00", tc.totalRefunded)
			require.NoError(t, svc.HandleEvent(ctx, refund))

			found, err := repo.FindByID(ctx, order.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, found.Status)
			require.NotNil(t, found.AmountTotalCents)
			assert.Equal(t, int64(9998), *found.AmountTotalCents)
		})
	}
}

func TestUnknownEventTypeIsIgnored(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	order := seedPendingOrder(t, repo, "PAYPAL-ORDER-5")

	event := &Event{
		ID:        "WH-ignored",
		EventType: "BILLING.SUBSCRIPTION.CREATED",
		Resource:  json.RawMessage(`{}`),
	}
	require.NoError(t, svc.HandleEvent(ctx, event))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, found.Status)
}

func TestCaptureCompletedUnknownOrder(t *testing.T) {
	svc, _ := newTestService(t)

	event := captureEvent(t, EventCaptureCompleted, "PAYPAL-NEVER-SEEN", uuid.NewString(), "10.00")
	err := svc.HandleEvent(context.Background(), event)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
