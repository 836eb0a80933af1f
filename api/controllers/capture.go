package controllers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/peptidrop/backend/api/responses"
	"github.com/peptidrop/backend/api/validators"
	"github.com/peptidrop/backend/internal/orders"
	"github.com/peptidrop/backend/pkg/enums"
	pkgerrors "github.com/peptidrop/backend/pkg/errors"
	"github.com/peptidrop/backend/pkg/logger"
	"github.com/peptidrop/backend/pkg/payments"
)

type captureRequest struct {
	ProcessorReference string `json:"processor_reference" validate:"required"`
}

type captureResponse struct {
	OrderID         uuid.UUID `json:"order_id"`
	Status          string    `json:"status"`
	CaptureID       string    `json:"capture_id,omitempty"`
	AmountCents     int64     `json:"amount_cents,omitempty"`
	Currency        string    `json:"currency,omitempty"`
	AlreadyCaptured bool      `json:"already_captured"`
}

// CheckoutCapture captures an approved session for processors that require
// an explicit capture step. The order stays pending here; the webhook is the
// only writer of payment state.
func CheckoutCapture(repo orders.Repository, capturer payments.Capturer, processor enums.Processor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders repository unavailable"))
			return
		}
		if capturer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "configured processor captures on completion; no capture call needed"))
			return
		}

		var payload captureRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := repo.FindByProcessorReference(r.Context(), string(processor), payload.ProcessorReference)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found for processor reference"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up order"))
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, order.ID.String())
		}

		result, err := capturer.Capture(ctx, payload.ProcessorReference)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			if result.AlreadyCaptured {
				logg.Info(ctx, "capture repeated; processor reports funds already captured")
			} else {
				logg.Info(logg.WithFields(ctx, map[string]any{"capture_status": result.Status}), "capture call returned")
			}
		}

		// Status is whatever the processor reported. Order state still only
		// moves on the webhook, so a PENDING or DECLINED capture is echoed,
		// not translated into an error.
		responses.WriteSuccess(w, captureResponse{
			OrderID:         order.ID,
			Status:          result.Status,
			CaptureID:       result.CaptureID,
			AmountCents:     result.AmountCents,
			Currency:        result.Currency,
			AlreadyCaptured: result.AlreadyCaptured,
		})
	}
}
