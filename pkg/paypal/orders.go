package paypal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	paypalsdk "github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"

	"github.com/peptidrop/backend/pkg/enums"
	"github.com/peptidrop/backend/pkg/payments"
)

const issueOrderAlreadyCaptured = "ORDER_ALREADY_CAPTURED"

// Kind identifies this integration to the payments layer.
func (c *Client) Kind() enums.Processor {
	return enums.ProcessorPayPal
}

// CreateSession creates a PayPal order with intent CAPTURE and returns the
// approval link the buyer is redirected to. The internal order id rides on
// the purchase unit's custom_id so webhook events can be correlated.
func (c *Client) CreateSession(ctx context.Context, in payments.CreateSessionInput) (*payments.Session, error) {
	if len(in.LineItems) == 0 {
		return nil, errors.New("at least one line item is required")
	}

	currency := strings.ToUpper(in.Currency)

	var total int64
	items := make([]paypalsdk.Item, 0, len(in.LineItems))
	for _, item := range in.LineItems {
		total += item.UnitAmountCents * int64(item.Qty)
		items = append(items, paypalsdk.Item{
			Name:     item.Name,
			SKU:      item.SKU,
			Quantity: strconv.Itoa(item.Qty),
			UnitAmount: &paypalsdk.Money{
				Currency: currency,
				Value:    centsToValue(item.UnitAmountCents),
			},
		})
	}

	units := []paypalsdk.PurchaseUnitRequest{{
		CustomID: in.OrderID,
		Items:    items,
		Amount: &paypalsdk.PurchaseUnitAmount{
			Currency: currency,
			Value:    centsToValue(total),
			Breakdown: &paypalsdk.PurchaseUnitAmountBreakdown{
				ItemTotal: &paypalsdk.Money{
					Currency: currency,
					Value:    centsToValue(total),
				},
			},
		},
	}}

	appCtx := &paypalsdk.ApplicationContext{
		ReturnURL: in.SuccessURL,
		CancelURL: in.CancelURL,
	}

	order, err := c.api.CreateOrder(ctx, paypalsdk.OrderIntentCapture, units, nil, appCtx)
	if err != nil {
		return nil, fmt.Errorf("creating paypal order: %w", err)
	}

	approvalURL := ""
	for _, link := range order.Links {
		if link.Rel == "approve" {
			approvalURL = link.Href
			break
		}
	}
	if approvalURL == "" {
		return nil, fmt.Errorf("paypal order %s has no approval link", order.ID)
	}

	return &payments.Session{
		Reference:   order.ID,
		ApprovalURL: approvalURL,
	}, nil
}

// Capture performs the explicit capture for an approved PayPal order. A
// repeat capture of the same order is reported as success with
// AlreadyCaptured set, so the capture endpoint stays idempotent.
func (c *Client) Capture(ctx context.Context, reference string) (*payments.CaptureResult, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, errors.New("paypal order id is required")
	}

	resp, err := c.api.CaptureOrder(ctx, reference, paypalsdk.CaptureOrderRequest{})
	if err != nil {
		if isAlreadyCaptured(err) {
			return &payments.CaptureResult{Status: "COMPLETED", AlreadyCaptured: true}, nil
		}
		return nil, fmt.Errorf("capturing paypal order %s: %w", reference, err)
	}

	// The processor's status is passed through as-is. A PENDING or
	// DECLINED capture is a valid outcome, not a transport failure.
	result := &payments.CaptureResult{Status: resp.Status}
	for _, unit := range resp.PurchaseUnits {
		if unit.Payments == nil {
			continue
		}
		for _, capture := range unit.Payments.Captures {
			result.CaptureID = capture.ID
			if capture.Amount != nil {
				cents, err := valueToCents(capture.Amount.Value)
				if err != nil {
					return nil, fmt.Errorf("parsing capture amount %q: %w", capture.Amount.Value, err)
				}
				result.AmountCents += cents
				result.Currency = strings.ToLower(capture.Amount.Currency)
			}
		}
	}
	return result, nil
}

func isAlreadyCaptured(err error) bool {
	var errResp *paypalsdk.ErrorResponse
	if errors.As(err, &errResp) {
		for _, detail := range errResp.Details {
			if detail.Issue == issueOrderAlreadyCaptured {
				return true
			}
		}
	}
	return strings.Contains(err.Error(), issueOrderAlreadyCaptured)
}

// centsToValue renders an integer cent amount as PayPal's "12.34" string.
func centsToValue(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}

// valueToCents parses PayPal's decimal string into integer cents.
func valueToCents(value string) (int64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, err
	}
	return d.Mul(decimal.NewFromInt(100)).IntPart(), nil
}
