package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/peptidrop/backend/pkg/db/models"
	"github.com/peptidrop/backend/pkg/enums"
	pkgerrors "github.com/peptidrop/backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service applies processor-asserted state transitions and serves reads.
type Service interface {
	ApplyTransition(ctx context.Context, input ApplyTransitionInput) error
	Confirmation(ctx context.Context, orderID uuid.UUID) (*OrderConfirmation, error)
	HistoryForUser(ctx context.Context, userID uuid.UUID) ([]HistoryItem, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the order service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// ApplyTransition performs the single atomic read-modify-write for a
// reconciled processor event. Re-applying the current status is a no-op
// success, which is what makes webhook delivery retries safe. Backward
// transitions are rejected.
func (s *service) ApplyTransition(ctx context.Context, input ApplyTransitionInput) error {
	if !input.Target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown target status %q", input.Target))
	}
	if strings.TrimSpace(input.ProcessorReference) == "" && strings.TrimSpace(input.MetadataOrderID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "processor reference or metadata order id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.resolve(ctx, repo, input)
		if err != nil {
			return err
		}

		locked, err := repo.FindByIDForUpdate(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order row")
		}

		if locked.Status == input.Target {
			return nil
		}
		if !locked.Status.CanTransitionTo(input.Target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order %s cannot move from %s to %s", locked.ID, locked.Status, input.Target))
		}

		now := input.OccurredAt
		if now.IsZero() {
			now = time.Now().UTC()
		}

		updates := map[string]any{"status": input.Target}
		if input.AmountTotalCents != nil {
			updates["amount_total_cents"] = *input.AmountTotalCents
		}
		if input.Currency != "" {
			updates["currency"] = strings.ToLower(input.Currency)
		}
		if locked.ProcessorReference == "" && input.ProcessorReference != "" {
			updates["processor_reference"] = input.ProcessorReference
		}

		switch input.Target {
		case enums.OrderStatusPaid:
			updates["paid_at"] = now
		case enums.OrderStatusRefunded, enums.OrderStatusPartiallyRefunded:
			updates["refunded_at"] = now
		}

		if err := repo.Update(ctx, locked.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		if locked.UserID == nil {
			return nil
		}

		amount := int64(0)
		if input.AmountTotalCents != nil {
			amount = *input.AmountTotalCents
		} else if locked.AmountTotalCents != nil {
			amount = *locked.AmountTotalCents
		}
		currency := locked.Currency
		if input.Currency != "" {
			currency = strings.ToLower(input.Currency)
		}

		entry := &models.OrderHistoryEntry{
			UserID:           *locked.UserID,
			OrderID:          locked.ID,
			Status:           input.Target,
			AmountTotalCents: amount,
			Currency:         currency,
			PlacedAt:         locked.CreatedAt,
		}
		if err := repo.UpsertHistoryEntry(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mirror history entry")
		}
		return nil
	})
}

// resolve locates the order by processor reference first, then by the
// metadata order id.
func (s *service) resolve(ctx context.Context, repo Repository, input ApplyTransitionInput) (*models.Order, error) {
	if ref := strings.TrimSpace(input.ProcessorReference); ref != "" {
		order, err := repo.FindByProcessorReference(ctx, input.Processor.String(), ref)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find order by processor reference")
		}
	}

	if raw := strings.TrimSpace(input.MetadataOrderID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		order, err := repo.FindByID(ctx, id)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find order by metadata id")
		}
	}

	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

// Confirmation returns the confirmation-page view of the order.
func (s *service) Confirmation(ctx context.Context, orderID uuid.UUID) (*OrderConfirmation, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	items := make([]ConfirmationLineItem, 0, len(order.Items))
	for _, item := range order.Items {
		line := ConfirmationLineItem{
			SKU:            item.SKU,
			Name:           item.Name,
			UnitPriceCents: item.UnitPriceCents,
			Qty:            item.Qty,
		}
		if item.ImageURL != nil {
			line.ImageURL = *item.ImageURL
		}
		items = append(items, line)
	}

	return &OrderConfirmation{
		OrderID:          order.ID,
		Status:           order.Status,
		Processor:        order.Processor,
		AmountTotalCents: order.AmountTotalCents,
		Currency:         order.Currency,
		Items:            items,
		PaidAt:           order.PaidAt,
		CreatedAt:        order.CreatedAt,
	}, nil
}

// HistoryForUser lists the user's mirrored order history, newest first.
func (s *service) HistoryForUser(ctx context.Context, userID uuid.UUID) ([]HistoryItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	entries, err := s.repo.ListHistoryByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order history")
	}

	items := make([]HistoryItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, HistoryItem{
			OrderID:          entry.OrderID,
			Status:           entry.Status,
			AmountTotalCents: entry.AmountTotalCents,
			Currency:         entry.Currency,
			PlacedAt:         entry.PlacedAt,
		})
	}
	return items, nil
}
