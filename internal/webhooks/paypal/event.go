package paypalwebhook

import (
	"encoding/json"
	"time"
)

// PayPal webhook event types the reconciler understands.
const (
	EventCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"
	EventCaptureDenied    = "PAYMENT.CAPTURE.DENIED"
	EventCaptureRefunded  = "PAYMENT.CAPTURE.REFUNDED"
)

// Event is the envelope PayPal posts to the webhook endpoint. The resource
// shape depends on event_type, so it stays raw until dispatch.
type Event struct {
	ID           string          `json:"id"`
	EventType    string          `json:"event_type"`
	CreateTime   time.Time       `json:"create_time"`
	ResourceType string          `json:"resource_type"`
	Resource     json.RawMessage `json:"resource"`
}

// Money is PayPal's decimal-string amount representation.
type Money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

// captureResource is the v2 capture object carried on PAYMENT.CAPTURE.*
// completed/denied events. CustomID echoes the internal order id set at
// order creation.
type captureResource struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	CustomID          string `json:"custom_id"`
	Amount            *Money `json:"amount"`
	SupplementaryData struct {
		RelatedIDs struct {
			OrderID string `json:"order_id"`
		} `json:"related_ids"`
	} `json:"supplementary_data"`
}

// refundResource is the v2 refund object on PAYMENT.CAPTURE.REFUNDED. The
// breakdown carries the cumulative refunded amount, which decides full vs
// partial.
type refundResource struct {
	ID                     string `json:"id"`
	Status                 string `json:"status"`
	CustomID               string `json:"custom_id"`
	Amount                 *Money `json:"amount"`
	SellerPayableBreakdown struct {
		TotalRefundedAmount *Money `json:"total_refunded_amount"`
	} `json:"seller_payable_breakdown"`
}
