package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/marcoalvarez/boostgrid-backend/api/responses"
	"github.com/marcoalvarez/boostgrid-backend/api/validators"
	internalorders "github.com/marcoalvarez/boostgrid-backend/internal/orders"
	"github.com/marcoalvarez/boostgrid-backend/internal/reconcile"
	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
	pkgerrors "github.com/marcoalvarez/boostgrid-backend/pkg/errors"
	"github.com/marcoalvarez/boostgrid-backend/pkg/logger"
)

type confirmOrderRequest struct {
	Notes *string `json:"notes,omitempty"`
}

type rejectOrderRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// AdminOrderList returns orders across all users with admin filters.
func AdminOrderList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		params, err := parsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := parseAdminOrderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListAdmin(r.Context(), internalorders.AdminListQuery{
			Filters:    filters,
			Pagination: params,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// AdminOrderRefresh reconciles one order against the provider on demand.
func AdminOrderRefresh(svc reconcile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconcile service unavailable"))
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := svc.RefreshOrder(r.Context(), orderID, nil)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, status)
	}
}

// AdminOrderConfirm settles a manual order's pending charge and completes it.
func AdminOrderConfirm(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actorID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body confirmOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Confirm(r.Context(), internalorders.ConfirmInput{
			OrderID: orderID,
			ActorID: actorID,
			Notes:   body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// AdminOrderReject closes a manual order without charging the user.
func AdminOrderReject(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actorID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body rejectOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Reject(r.Context(), internalorders.RejectInput{
			OrderID: orderID,
			ActorID: actorID,
			Reason:  body.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

func parseAdminOrderFilters(r *http.Request) (internalorders.AdminListFilters, error) {
	var filters internalorders.AdminListFilters

	if status := strings.TrimSpace(r.URL.Query().Get("status")); status != "" {
		filters.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("userId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid userId filter")
		}
		filters.UserID = &id
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("service")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid service filter")
		}
		filters.ServiceID = &id
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("provider")); raw != "" {
		provider, err := enums.ParseOrderProvider(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid provider filter")
		}
		filters.Provider = &provider
	}
	filters.Search = validators.SanitizeString(r.URL.Query().Get("search"), 120)

	return filters, nil
}
