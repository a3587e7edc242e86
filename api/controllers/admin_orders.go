package controllers

import (
	"net/http"

	"github.com/jtorres-dev/storefront-backend/api/middleware"
	"github.com/jtorres-dev/storefront-backend/api/responses"
	"github.com/jtorres-dev/storefront-backend/api/validators"
	internalorders "github.com/jtorres-dev/storefront-backend/internal/orders"
	"github.com/jtorres-dev/storefront-backend/pkg/enums"
	pkgerrors "github.com/jtorres-dev/storefront-backend/pkg/errors"
	"github.com/jtorres-dev/storefront-backend/pkg/logger"
)

type adminStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminUpdateOrderStatus drives an order through the state machine from the
// back office. The transition table, not the admin, decides what is legal.
func AdminUpdateOrderStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if middleware.RoleFromContext(r.Context()) != string(enums.RoleAdmin) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required"))
			return
		}
		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req adminStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		next, err := enums.ParseOrderStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.AdminUpdateStatus(r.Context(), internalorders.AdminStatusInput{
			OrderID:     orderID,
			NextStatus:  next,
			ActorUserID: actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewOrderDetail(order))
	}
}
