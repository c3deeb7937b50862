package controllers

import (
	"context"
	"net/http"

	"github.com/marcoalvarez/boostgrid-backend/api/responses"
	pkgerrors "github.com/marcoalvarez/boostgrid-backend/pkg/errors"
	"github.com/marcoalvarez/boostgrid-backend/pkg/logger"
	"github.com/marcoalvarez/boostgrid-backend/pkg/secsers"
)

// ProviderBalanceFetcher exposes the panel balance lookup used by the
// admin surface.
type ProviderBalanceFetcher interface {
	Balance(ctx context.Context) (*secsers.BalanceInfo, error)
}

// AdminProviderBalance reports the remaining funds on the provider account.
func AdminProviderBalance(client ProviderBalanceFetcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "provider client unavailable"))
			return
		}

		info, err := client.Balance(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "fetch provider balance"))
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"balance":  info.Balance,
			"currency": info.Currency,
		})
	}
}
