// Package checkout turns a validated cart into a pending order and a
// processor payment session. The pending order is persisted before the
// processor is called, so a webhook can always find something to reconcile.
package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/peptidrop/backend/internal/cart"
	"github.com/peptidrop/backend/internal/orders"
	"github.com/peptidrop/backend/internal/pricing"
	"github.com/peptidrop/backend/pkg/config"
	"github.com/peptidrop/backend/pkg/db/models"
	"github.com/peptidrop/backend/pkg/enums"
	pkgerrors "github.com/peptidrop/backend/pkg/errors"
	"github.com/peptidrop/backend/pkg/logger"
	"github.com/peptidrop/backend/pkg/metrics"
	"github.com/peptidrop/backend/pkg/payments"
)

// LineItemInput is one requested line. Quantities only; prices are always
// recomputed server-side.
type LineItemInput struct {
	SKU string
	Qty int
}

// CreateSessionInput is the checkout request after transport validation.
type CreateSessionInput struct {
	Items         []LineItemInput
	CustomerEmail string
	UserID        *uuid.UUID
	SuccessURL    string
	CancelURL     string
}

// CreateSessionResult points the client at the processor's approval flow.
type CreateSessionResult struct {
	OrderID            uuid.UUID `json:"order_id"`
	ProcessorReference string    `json:"processor_reference"`
	ApprovalURL        string    `json:"approval_url"`
}

// Service initiates checkout sessions.
type Service interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*CreateSessionResult, error)
}

type service struct {
	engine    *pricing.Engine
	repo      orders.Repository
	processor payments.Processor
	logg      *logger.Logger
	metrics   *metrics.PaymentMetrics
	cfg       config.CheckoutConfig
	timeout   time.Duration
}

// NewService builds the checkout service.
func NewService(
	engine *pricing.Engine,
	repo orders.Repository,
	processor payments.Processor,
	logg *logger.Logger,
	paymentMetrics *metrics.PaymentMetrics,
	cfg config.CheckoutConfig,
	timeout time.Duration,
) (Service, error) {
	if engine == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if processor == nil {
		return nil, fmt.Errorf("payment processor required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &service{
		engine:    engine,
		repo:      repo,
		processor: processor,
		logg:      logg,
		metrics:   paymentMetrics,
		cfg:       cfg,
		timeout:   timeout,
	}, nil
}

// CreateSession validates and prices the requested lines, persists the
// pending order, then opens the processor session. A processor failure
// leaves the pending order behind; nothing was charged and the order simply
// never advances.
func (s *service) CreateSession(ctx context.Context, input CreateSessionInput) (*CreateSessionResult, error) {
	lines, err := s.buildLines(input)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(input.CustomerEmail)
	if input.UserID == nil && email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest checkout requires a customer email")
	}

	orderID := uuid.New()
	order := &models.Order{
		ID:        orderID,
		Processor: s.processor.Kind(),
		Status:    enums.OrderStatusPending,
		Currency:  s.cfg.Currency,
		UserID:    input.UserID,
	}
	if email != "" {
		order.CustomerEmail = &email
	}
	for _, line := range lines {
		item := models.OrderLineItem{
			ID:             uuid.New(),
			OrderID:        orderID,
			SKU:            line.SKU,
			Name:           line.Name,
			UnitPriceCents: line.UnitAmountCents,
			Qty:            line.Qty,
		}
		if line.ImageURL != "" {
			imageURL := line.ImageURL
			item.ImageURL = &imageURL
		}
		order.Items = append(order.Items, item)
	}

	if _, err := s.repo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist pending order")
	}

	successURL := input.SuccessURL
	if successURL == "" {
		successURL = s.cfg.SuccessURL
	}
	cancelURL := input.CancelURL
	if cancelURL == "" {
		cancelURL = s.cfg.CancelURL
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session, err := s.processor.CreateSession(callCtx, payments.CreateSessionInput{
		OrderID:       orderID.String(),
		LineItems:     lines,
		Currency:      s.cfg.Currency,
		CustomerEmail: email,
		SuccessURL:    successURL,
		CancelURL:     cancelURL,
		Metadata:      map[string]string{"order_id": orderID.String()},
	})
	if err != nil {
		s.metrics.IncSession(s.processor.Kind().String(), "processor_error")
		// the pending order stays; the webhook reconciler is the only
		// authority that could ever advance it
		s.logg.Error(s.logg.WithOrderID(ctx, orderID.String()), "create processor session failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create processor session")
	}

	if err := s.repo.UpdateProcessorReference(ctx, orderID, session.Reference); err != nil {
		// recoverable: metadata on the session still carries the order id
		s.logg.Warn(s.logg.WithOrderID(ctx, orderID.String()),
			fmt.Sprintf("writing back processor reference %s: %v", session.Reference, err))
	}

	s.metrics.IncSession(s.processor.Kind().String(), "created")

	return &CreateSessionResult{
		OrderID:            orderID,
		ProcessorReference: session.Reference,
		ApprovalURL:        session.ApprovalURL,
	}, nil
}

// buildLines validates every requested line and prices it via the engine.
func (s *service) buildLines(input CreateSessionInput) ([]payments.LineItem, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	lines := make([]payments.LineItem, 0, len(input.Items))
	seen := make(map[string]struct{}, len(input.Items))
	for _, item := range input.Items {
		if item.Qty < 1 || item.Qty > cart.MaxQty {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("quantity for %q must be between 1 and %d", item.SKU, cart.MaxQty))
		}
		if _, dup := seen[item.SKU]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate sku %q", item.SKU))
		}
		seen[item.SKU] = struct{}{}

		product, ok := s.engine.Lookup(item.SKU)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown sku %q", item.SKU))
		}

		unitPrice, err := s.engine.PriceFor(item.SKU, item.Qty)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "price line item")
		}

		lines = append(lines, payments.LineItem{
			SKU:             item.SKU,
			Name:            product.Name,
			UnitAmountCents: unitPrice,
			Qty:             item.Qty,
			ImageURL:        product.ImageURL,
		})
	}
	return lines, nil
}
