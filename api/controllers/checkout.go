package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/peptidrop/backend/api/responses"
	"github.com/peptidrop/backend/api/validators"
	checkoutsvc "github.com/peptidrop/backend/internal/checkout"
	pkgerrors "github.com/peptidrop/backend/pkg/errors"
	"github.com/peptidrop/backend/pkg/logger"
)

type checkoutLineItemRequest struct {
	SKU string `json:"sku" validate:"required"`
	Qty int    `json:"qty" validate:"required,min=1,max=1000"`
	// Accepted so stored carts can be posted as-is, then discarded. The
	// pricing engine is the only source of charged amounts.
	UnitPriceCents *int64 `json:"unit_price_cents,omitempty"`
}

type checkoutRequest struct {
	Items         []checkoutLineItemRequest `json:"items" validate:"required,min=1,dive"`
	CustomerEmail string                    `json:"customer_email,omitempty" validate:"omitempty,email"`
	UserID        *uuid.UUID                `json:"user_id,omitempty"`
	SuccessURL    string                    `json:"success_url,omitempty" validate:"omitempty,url"`
	CancelURL     string                    `json:"cancel_url,omitempty" validate:"omitempty,url"`
}

// CheckoutSession opens a processor checkout session for the priced lines.
// Client-supplied prices never reach the service; only SKUs and quantities do.
func CheckoutSession(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]checkoutsvc.LineItemInput, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, checkoutsvc.LineItemInput{SKU: item.SKU, Qty: item.Qty})
		}

		result, err := svc.CreateSession(r.Context(), checkoutsvc.CreateSessionInput{
			Items:         items,
			CustomerEmail: payload.CustomerEmail,
			UserID:        payload.UserID,
			SuccessURL:    payload.SuccessURL,
			CancelURL:     payload.CancelURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
