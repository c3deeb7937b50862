package controllers

import (
	"net/http"
	"strings"

	"github.com/marcoalvarez/boostgrid-backend/api/responses"
	"github.com/marcoalvarez/boostgrid-backend/api/validators"
	"github.com/marcoalvarez/boostgrid-backend/internal/deposits"
	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
	pkgerrors "github.com/marcoalvarez/boostgrid-backend/pkg/errors"
	"github.com/marcoalvarez/boostgrid-backend/pkg/logger"
)

// DepositCreate records a pending deposit declaration for the caller.
func DepositCreate(svc deposits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deposits service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body deposits.CreateDepositRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deposit, err := svc.CreateDeposit(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, deposit)
	}
}

// DepositList returns the caller's deposits, newest first.
func DepositList(svc deposits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deposits service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query, err := parseDepositQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListMine(r.Context(), userID, query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func parseDepositQuery(r *http.Request) (deposits.ListQuery, error) {
	params, err := parsePagination(r)
	if err != nil {
		return deposits.ListQuery{}, err
	}

	query := deposits.ListQuery{Pagination: params}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		value, parseErr := enums.ParseTransactionStatus(raw)
		if parseErr != nil {
			return deposits.ListQuery{}, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status filter")
		}
		query.Status = &value
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("method")); raw != "" {
		query.Method = &raw
	}
	query.Query = validators.SanitizeString(r.URL.Query().Get("search"), 120)

	return query, nil
}
