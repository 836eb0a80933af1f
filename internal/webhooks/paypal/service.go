// Package paypalwebhook reconciles PayPal Orders v2 events into order
// state. PayPal is the two-phase integration: the capture endpoint triggers
// the charge, but these events remain the only authority over order status.
package paypalwebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

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

type eventHandler func(ctx context.Context, event *Event) error

type Service struct {
	orders   orders.Service
	logg     *logger.Logger
	metrics  *metrics.PaymentMetrics
	handlers map[string]eventHandler
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
	svc.handlers = map[string]eventHandler{
		EventCaptureCompleted: svc.handleCaptureCompleted,
		EventCaptureDenied:    svc.handleCaptureDenied,
		EventCaptureRefunded:  svc.handleCaptureRefunded,
	}
	return svc, nil
}

// HandleEvent dispatches a verified PayPal event. Unrecognized event types
// are acknowledged and ignored.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil || len(event.Resource) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "paypal event resource required")
	}

	started := time.Now()
	ctx = s.logg.WithEventType(ctx, event.EventType)

	handler, ok := s.handlers[event.EventType]
	if !ok {
		s.logg.Info(ctx, fmt.Sprintf("ignoring paypal event type %s", event.EventType))
		s.metrics.IncEvent(enums.ProcessorPayPal.String(), "ignored")
		return nil
	}

	err := handler(ctx, event)
	s.metrics.ObserveHandleDuration(enums.ProcessorPayPal.String(), time.Since(started))
	if err != nil {
		s.metrics.IncEvent(enums.ProcessorPayPal.String(), "error")
		return err
	}
	s.metrics.IncEvent(enums.ProcessorPayPal.String(), "applied")
	return nil
}

func (s *Service) handleCaptureCompleted(ctx context.Context, event *Event) error {
	var capture captureResource
	if err := json.Unmarshal(event.Resource, &capture); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode capture resource")
	}

	input := orders.ApplyTransitionInput{
		Processor:          enums.ProcessorPayPal,
		ProcessorReference: capture.SupplementaryData.RelatedIDs.OrderID,
		MetadataOrderID:    capture.CustomID,
		Target:             enums.OrderStatusPaid,
		OccurredAt:         event.CreateTime,
	}
	if capture.Amount != nil {
		cents, err := moneyToCents(capture.Amount)
		if err != nil {
			return err
		}
		input.AmountTotalCents = &cents
		input.Currency = strings.ToLower(capture.Amount.CurrencyCode)
	}
	return s.orders.ApplyTransition(ctx, input)
}

func (s *Service) handleCaptureDenied(ctx context.Context, event *Event) error {
	var capture captureResource
	if err := json.Unmarshal(event.Resource, &capture); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode capture resource")
	}

	return s.orders.ApplyTransition(ctx, orders.ApplyTransitionInput{
		Processor:          enums.ProcessorPayPal,
		ProcessorReference: capture.SupplementaryData.RelatedIDs.OrderID,
		MetadataOrderID:    capture.CustomID,
		Target:             enums.OrderStatusPaymentFailed,
		OccurredAt:         event.CreateTime,
	})
}

// handleCaptureRefunded compares the cumulative refunded amount with the
// order's captured total to pick full vs partial refund. The refund
// resource carries no PayPal order id, so the custom_id is the only handle.
func (s *Service) handleCaptureRefunded(ctx context.Context, event *Event) error {
	var refund refundResource
	if err := json.Unmarshal(event.Resource, &refund); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode refund resource")
	}

	orderID, err := uuid.Parse(strings.TrimSpace(refund.CustomID))
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "refund carries no usable order id")
	}

	confirmation, err := s.orders.Confirmation(ctx, orderID)
	if err != nil {
		return err
	}

	target := enums.OrderStatusPartiallyRefunded
	if refund.SellerPayableBreakdown.TotalRefundedAmount != nil && confirmation.AmountTotalCents != nil {
		refunded, err := moneyToCents(refund.SellerPayableBreakdown.TotalRefundedAmount)
		if err != nil {
			return err
		}
		if refunded >= *confirmation.AmountTotalCents {
			target = enums.OrderStatusRefunded
		}
	}

	return s.orders.ApplyTransition(ctx, orders.ApplyTransitionInput{
		Processor:       enums.ProcessorPayPal,
		MetadataOrderID: refund.CustomID,
		Target:          target,
		OccurredAt:      event.CreateTime,
	})
}

func moneyToCents(m *Money) (int64, error) {
	d, err := decimal.NewFromString(m.Value)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("parse amount %q", m.Value))
	}
	return d.Mul(decimal.NewFromInt(100)).IntPart(), nil
}
