package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/jtorres-dev/storefront-backend/api/responses"
	"github.com/jtorres-dev/storefront-backend/api/validators"
	"github.com/jtorres-dev/storefront-backend/internal/checkout"
	internalorders "github.com/jtorres-dev/storefront-backend/internal/orders"
	pkgerrors "github.com/jtorres-dev/storefront-backend/pkg/errors"
	"github.com/jtorres-dev/storefront-backend/pkg/logger"
)

type checkoutItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type checkoutRequest struct {
	AddressID string                `json:"address_id" validate:"required,uuid"`
	Items     []checkoutItemRequest `json:"items" validate:"omitempty,dive"`
}

func (req checkoutRequest) toInput() (checkout.Input, error) {
	addressID, err := uuid.Parse(req.AddressID)
	if err != nil {
		return checkout.Input{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address_id")
	}
	items := make([]checkout.ItemInput, len(req.Items))
	for i, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return checkout.Input{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id")
		}
		items[i] = checkout.ItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
		}
	}
	return checkout.Input{
		AddressID: addressID,
		Items:     items,
	}, nil
}

// PlaceCODOrder finalizes a cash-on-delivery order synchronously.
func PlaceCODOrder(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := req.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceCODOrder(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, internalorders.NewOrderDetail(order))
	}
}

// CreateCheckoutSession opens (or reuses) a pending order and returns the
// hosted checkout redirect target.
func CreateCheckoutSession(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := req.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateStripeSession(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
