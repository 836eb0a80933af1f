package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/peptidrop/backend/api/responses"
	"github.com/peptidrop/backend/api/validators"
	cartsvc "github.com/peptidrop/backend/internal/cart"
	pkgerrors "github.com/peptidrop/backend/pkg/errors"
	"github.com/peptidrop/backend/pkg/logger"
)

type cartAddRequest struct {
	SKU            string `json:"sku" validate:"required"`
	Name           string `json:"name" validate:"required,max=200"`
	Qty            int    `json:"qty" validate:"required,min=1,max=1000"`
	UnitPriceCents *int64 `json:"unit_price_cents,omitempty" validate:"omitempty,min=0"`
	ImageURL       string `json:"image_url,omitempty" validate:"omitempty,url"`
}

type cartSetQtyRequest struct {
	Qty *int `json:"qty" validate:"required,min=0,max=1000"`
}

type cartResponse struct {
	CartID string             `json:"cart_id"`
	Items  []cartsvc.LineItem `json:"items"`
	// AdvisoryTotalCents sums stored display prices. Checkout reprices
	// every line server-side; this number is never charged.
	AdvisoryTotalCents int64 `json:"advisory_total_cents"`
	ItemCount          int   `json:"item_count"`
}

func newCartResponse(cartID string, items []cartsvc.LineItem) cartResponse {
	return cartResponse{
		CartID:             cartID,
		Items:              items,
		AdvisoryTotalCents: cartsvc.Total(items),
		ItemCount:          cartsvc.ItemCount(items),
	}
}

func cartIDParam(r *http.Request) (string, error) {
	cartID := strings.TrimSpace(chi.URLParam(r, "cartID"))
	if cartID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "cart id required")
	}
	return cartID, nil
}

// CartFetch loads the validated cart. Corrupted entries were already
// dropped by the store, so the response is always well-formed.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		cartID, err := cartIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.Load(r.Context(), cartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart"))
			return
		}

		responses.WriteSuccess(w, newCartResponse(cartID, items))
	}
}

// CartAddItem merges one line into the cart by SKU.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		cartID, err := cartIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.Add(r.Context(), cartID, cartsvc.LineItem{
			SKU:            payload.SKU,
			Name:           payload.Name,
			Qty:            payload.Qty,
			UnitPriceCents: payload.UnitPriceCents,
			ImageURL:       payload.ImageURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "add cart item"))
			return
		}

		responses.WriteSuccess(w, newCartResponse(cartID, items))
	}
}

// CartSetQuantity replaces the quantity for one SKU. Zero removes the line.
func CartSetQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		cartID, err := cartIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sku := strings.TrimSpace(chi.URLParam(r, "sku"))
		if sku == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "sku required"))
			return
		}

		var payload cartSetQtyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.SetQuantity(r.Context(), cartID, sku, *payload.Qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "set cart quantity"))
			return
		}

		responses.WriteSuccess(w, newCartResponse(cartID, items))
	}
}

// CartRemoveItem drops one SKU from the cart. Absent SKUs are a no-op.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		cartID, err := cartIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sku := strings.TrimSpace(chi.URLParam(r, "sku"))
		if sku == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "sku required"))
			return
		}

		items, err := svc.Remove(r.Context(), cartID, sku)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item"))
			return
		}

		responses.WriteSuccess(w, newCartResponse(cartID, items))
	}
}

// CartClear empties the cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		cartID, err := cartIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Clear(r.Context(), cartID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart"))
			return
		}

		responses.WriteSuccess(w, newCartResponse(cartID, []cartsvc.LineItem{}))
	}
}
