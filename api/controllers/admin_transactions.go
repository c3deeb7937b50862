package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/marcoalvarez/boostgrid-backend/api/responses"
	"github.com/marcoalvarez/boostgrid-backend/internal/wallet"
	pkgerrors "github.com/marcoalvarez/boostgrid-backend/pkg/errors"
	"github.com/marcoalvarez/boostgrid-backend/pkg/logger"
)

// AdminTransactionList returns the ledger across all users.
func AdminTransactionList(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		params, err := parsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := parseTransactionFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := wallet.TransactionListQuery{
			Filters:    filters,
			Pagination: params,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("userId")); raw != "" {
			id, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid userId filter"))
				return
			}
			query.UserID = &id
		}

		list, err := svc.ListTransactions(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}
