package visibility

import (
	"fmt"

	"github.com/marcoalvarez/boostgrid-backend/pkg/db/models"
	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
	pkgerrors "github.com/marcoalvarez/boostgrid-backend/pkg/errors"
)

// ServiceOrderInput drives the shared orderability checks for buyer-facing queries
// and order placement.
type ServiceOrderInput struct {
	Service         *models.Service
	Title           *models.ServiceTitle
	Platform        *models.Platform
	Category        *models.Category
	Quantity        int
	Runs            *int
	IntervalMinutes *int
}

// EnsureServiceVisible enforces the active-chain rules shared by storefront
// reads and order placement. A nil level is skipped so callers that only
// loaded part of the chain can still use it.
func EnsureServiceVisible(service *models.Service, title *models.ServiceTitle, platform *models.Platform, category *models.Category) error {
	if service == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
	}
	if !service.Active {
		return pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
	}
	if title != nil && !title.Active {
		return pkgerrors.New(pkgerrors.CodeNotFound, "service not available")
	}
	if platform != nil && !platform.Active {
		return pkgerrors.New(pkgerrors.CodeNotFound, "service not available")
	}
	if category != nil && !category.Active {
		return pkgerrors.New(pkgerrors.CodeNotFound, "service not available")
	}
	if service.Provider == enums.OrderProviderSecsers && service.ProviderServiceID == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "service not available")
	}
	return nil
}

// EnsureServiceOrderable enforces canonical rules so disabled or misconfigured
// services never leak through buyer queries or accept orders.
func EnsureServiceOrderable(input ServiceOrderInput) error {
	if err := EnsureServiceVisible(input.Service, input.Title, input.Platform, input.Category); err != nil {
		return err
	}
	if input.Quantity < input.Service.MinQty || input.Quantity > input.Service.MaxQty {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between %d and %d", input.Service.MinQty, input.Service.MaxQty))
	}
	if (input.Runs == nil) != (input.IntervalMinutes == nil) {
		return pkgerrors.New(pkgerrors.CodeValidation, "runs and interval must be provided together")
	}
	if input.Runs != nil {
		if !input.Service.Dripfeed {
			return pkgerrors.New(pkgerrors.CodeValidation, "service does not support drip-feed")
		}
		if *input.Runs < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "runs must be at least 1")
		}
		if *input.IntervalMinutes < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "interval must be at least 1 minute")
		}
	}
	return nil
}
