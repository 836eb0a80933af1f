// Package stripewebhook reconciles Stripe Checkout events into order state.
// Stripe is the synchronous-redirect integration: approval and capture
// happen in one flow on Stripe's side, and these events are the only
// authority that ever advances an order.
package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/peptidrop/backend/internal/orders"
	"github.com/peptidrop/backend/pkg/enums"
	pkgerrors "github.com/peptidrop/backend/pkg/errors"
	"github.com/peptidrop/backend/pkg/logger"
	"github.com/peptidrop/backend/pkg/metrics"
)

type ServiceParams struct {
	Orders  orders.Service
	Logger  *logger.Logger
	Metrics *metrics.PaymentMetrics
}

type eventHandler func(ctx context.Context, event *stripe.Event) error

type Service struct {
	orders   orders.Service
	logg     *logger.Logger
	metrics  *metrics.PaymentMetrics
	handlers map[stripe.EventType]eventHandler
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	svc := &Service{
		orders:  params.Orders,
		logg:    params.Logger,
		metrics: params.Metrics,
	}
	svc.handlers = map[stripe.EventType]eventHandler{
		stripe.EventTypeCheckoutSessionCompleted: func(ctx context.Context, event *stripe.Event) error {
			return svc.handleSessionTransition(ctx, event, enums.OrderStatusPaid)
		},
		stripe.EventTypeCheckoutSessionExpired: func(ctx context.Context, event *stripe.Event) error {
			return svc.handleSessionTransition(ctx, event, enums.OrderStatusExpired)
		},
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed: func(ctx context.Context, event *stripe.Event) error {
			return svc.handleSessionTransition(ctx, event, enums.OrderStatusPaymentFailed)
		},
		stripe.EventTypeChargeRefunded: svc.handleChargeRefunded,
	}
	return svc, nil
}

// HandleEvent dispatches a verified Stripe event. Unrecognized event types
// are acknowledged and ignored so new Stripe features never break delivery.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	started := time.Now()
	ctx = s.logg.WithEventType(ctx, string(event.Type))

	handler, ok := s.handlers[event.Type]
	if !ok {
		s.logg.Info(ctx, fmt.Sprintf("ignoring stripe event type %s", event.Type))
		s.metrics.IncEvent(enums.ProcessorStripe.String(), "ignored")
		return nil
	}

	err := handler(ctx, event)
	s.metrics.ObserveHandleDuration(enums.ProcessorStripe.String(), time.Since(started))
	if err != nil {
		s.metrics.IncEvent(enums.ProcessorStripe.String(), "error")
		return err
	}
	s.metrics.IncEvent(enums.ProcessorStripe.String(), "applied")
	return nil
}

// handleSessionTransition covers the three checkout.session.* outcomes. The
// amount is taken from the session payload only on the paid path; expiry and
// failure assert no amount.
func (s *Service) handleSessionTransition(ctx context.Context, event *stripe.Event, target enums.OrderStatus) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session event")
	}

	input := orders.ApplyTransitionInput{
		Processor:          enums.ProcessorStripe,
		ProcessorReference: session.ID,
		MetadataOrderID:    orderIDFromSession(&session),
		Target:             target,
		OccurredAt:         time.Unix(event.Created, 0).UTC(),
	}
	if target == enums.OrderStatusPaid {
		amount := session.AmountTotal
		input.AmountTotalCents = &amount
		input.Currency = string(session.Currency)
	}

	return s.orders.ApplyTransition(ctx, input)
}

// handleChargeRefunded distinguishes full from partial refunds using the
// charge's own amounts; both are present in the payload.
func (s *Service) handleChargeRefunded(ctx context.Context, event *stripe.Event) error {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode charge event")
	}

	target := enums.OrderStatusPartiallyRefunded
	if charge.AmountRefunded >= charge.Amount {
		target = enums.OrderStatusRefunded
	}

	// the order keeps its paid total; refunds only move status and set
	// refunded_at
	return s.orders.ApplyTransition(ctx, orders.ApplyTransitionInput{
		Processor:       enums.ProcessorStripe,
		MetadataOrderID: charge.Metadata["order_id"],
		Target:          target,
		OccurredAt:      time.Unix(event.Created, 0).UTC(),
	})
}

// orderIDFromSession prefers explicit metadata, falling back to the client
// reference id set at session creation.
func orderIDFromSession(session *stripe.CheckoutSession) string {
	if id := session.Metadata["order_id"]; id != "" {
		return id
	}
	return session.ClientReferenceID
}
