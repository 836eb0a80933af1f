package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/peptidrop/backend/pkg/enums"
)

// ApplyTransitionInput carries everything a reconciled processor event
// asserts about an order. Amounts are processor-reported and are the only
// values ever written to amount_total_cents.
type ApplyTransitionInput struct {
	Processor          enums.Processor
	ProcessorReference string
	// MetadataOrderID is the internal order id echoed back in processor
	// metadata. Used to resolve the order when the stored reference is
	// missing, e.g. the write-back after session creation never landed.
	MetadataOrderID  string
	Target           enums.OrderStatus
	AmountTotalCents *int64
	Currency         string
	OccurredAt       time.Time
}

// ConfirmationLineItem is one snapshotted line on the confirmation read.
type ConfirmationLineItem struct {
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Qty            int    `json:"qty"`
	ImageURL       string `json:"image_url,omitempty"`
}

// OrderConfirmation is the confirmation-page view of an order. The status
// may still be pending while the webhook is in flight; clients poll.
type OrderConfirmation struct {
	OrderID          uuid.UUID              `json:"order_id"`
	Status           enums.OrderStatus      `json:"status"`
	Processor        enums.Processor        `json:"processor"`
	AmountTotalCents *int64                 `json:"amount_total_cents,omitempty"`
	Currency         string                 `json:"currency"`
	Items            []ConfirmationLineItem `json:"items"`
	PaidAt           *time.Time             `json:"paid_at,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

// HistoryItem is one row of a user's order history.
type HistoryItem struct {
	OrderID          uuid.UUID         `json:"order_id"`
	Status           enums.OrderStatus `json:"status"`
	AmountTotalCents int64             `json:"amount_total_cents"`
	Currency         string            `json:"currency"`
	PlacedAt         time.Time         `json:"placed_at"`
}
