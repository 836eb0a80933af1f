package stripe

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"

	"github.com/peptidrop/backend/pkg/enums"
	"github.com/peptidrop/backend/pkg/payments"
)

// Kind identifies this integration to the payments layer.
func (c *Client) Kind() enums.Processor {
	return enums.ProcessorStripe
}

// CreateSession opens a Stripe Checkout session in payment mode. Stripe owns
// the full approval-and-capture flow; the eventual outcome arrives via
// webhook only, never on the redirect back.
func (c *Client) CreateSession(ctx context.Context, in payments.CreateSessionInput) (*payments.Session, error) {
	if len(in.LineItems) == 0 {
		return nil, errors.New("at least one line item is required")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(in.OrderID),
		SuccessURL:        stripe.String(in.SuccessURL),
		CancelURL:         stripe.String(in.CancelURL),
	}
	params.Context = ctx

	if in.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(in.CustomerEmail)
	}

	for _, item := range in.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:     stripe.String(item.Name),
			Metadata: map[string]string{"sku": item.SKU},
		}
		if item.ImageURL != "" {
			product.Images = []*string{stripe.String(item.ImageURL)}
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(item.Qty)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(in.Currency),
				UnitAmount:  stripe.Int64(item.UnitAmountCents),
				ProductData: product,
			},
		})
	}

	// Mirror the metadata onto the payment intent so refund events, which
	// reference the intent rather than the session, still carry the order id.
	params.Metadata = in.Metadata
	params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{
		Metadata: in.Metadata,
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("creating stripe checkout session: %w", err)
	}

	return &payments.Session{
		Reference:   sess.ID,
		ApprovalURL: sess.URL,
	}, nil
}
