// Package payments defines the processor-neutral contract the checkout and
// capture services program against. Each processor integration (Stripe,
// PayPal) adapts its SDK to these types.
package payments

import (
	"context"

	"github.com/peptidrop/backend/pkg/enums"
)

// LineItem is one priced cart row handed to the processor.
type LineItem struct {
	SKU             string
	Name            string
	UnitAmountCents int64
	Qty             int
	ImageURL        string
}

// CreateSessionInput carries everything a processor needs to open a payment
// session for an order. Metadata always includes the internal order id so
// webhook events can be correlated even when the stored reference is missing.
type CreateSessionInput struct {
	OrderID       string
	LineItems     []LineItem
	Currency      string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// Session is the processor's handle for a created payment session.
type Session struct {
	// Reference is the processor-side identifier persisted on the order.
	Reference string
	// ApprovalURL is where the buyer is redirected to approve payment.
	ApprovalURL string
}

// CaptureResult reports the outcome of an explicit capture call.
type CaptureResult struct {
	// Status is the processor-reported capture status, passed through
	// verbatim (COMPLETED, PENDING, DECLINED, ...).
	Status      string
	CaptureID   string
	AmountCents int64
	Currency    string
	// AlreadyCaptured is set when the processor reports the session was
	// captured before this call. Treated as success by callers.
	AlreadyCaptured bool
}

// Processor creates payment sessions for orders.
type Processor interface {
	Kind() enums.Processor
	CreateSession(ctx context.Context, in CreateSessionInput) (*Session, error)
}

// Capturer is implemented by processors that require an explicit capture
// step after buyer approval.
type Capturer interface {
	Capture(ctx context.Context, reference string) (*CaptureResult, error)
}
