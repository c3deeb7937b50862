package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcoalvarez/boostgrid-backend/api/responses"
	"github.com/marcoalvarez/boostgrid-backend/api/validators"
	"github.com/marcoalvarez/boostgrid-backend/internal/catalog"
	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
	pkgerrors "github.com/marcoalvarez/boostgrid-backend/pkg/errors"
	"github.com/marcoalvarez/boostgrid-backend/pkg/logger"
)

type createCategoryRequest struct {
	Name      string  `json:"name" validate:"required,min=2,max=80"`
	ImagePath *string `json:"image_path,omitempty"`
	SortOrder int     `json:"sort_order,omitempty"`
	Active    *bool   `json:"active,omitempty"`
}

type updateCategoryRequest struct {
	Name      *string `json:"name,omitempty"`
	ImagePath *string `json:"image_path,omitempty"`
	SortOrder *int    `json:"sort_order,omitempty"`
	Active    *bool   `json:"active,omitempty"`
}

type createPlatformRequest struct {
	CategoryID uuid.UUID `json:"category_id" validate:"required"`
	Name       string    `json:"name" validate:"required,min=2,max=80"`
	ImagePath  *string   `json:"image_path,omitempty"`
	SortOrder  int       `json:"sort_order,omitempty"`
	Active     *bool     `json:"active,omitempty"`
}

type updatePlatformRequest struct {
	Name      *string `json:"name,omitempty"`
	ImagePath *string `json:"image_path,omitempty"`
	SortOrder *int    `json:"sort_order,omitempty"`
	Active    *bool   `json:"active,omitempty"`
}

type createServiceTitleRequest struct {
	PlatformID uuid.UUID `json:"platform_id" validate:"required"`
	Name       string    `json:"name" validate:"required,min=2,max=120"`
	SortOrder  int       `json:"sort_order,omitempty"`
	Active     *bool     `json:"active,omitempty"`
}

type updateServiceTitleRequest struct {
	Name      *string `json:"name,omitempty"`
	SortOrder *int    `json:"sort_order,omitempty"`
	Active    *bool   `json:"active,omitempty"`
}

type createCatalogServiceRequest struct {
	ServiceTitleID    uuid.UUID       `json:"service_title_id" validate:"required"`
	Name              string          `json:"name" validate:"required,min=2,max=160"`
	Provider          string          `json:"provider" validate:"required"`
	ProviderServiceID *int64          `json:"provider_service_id,omitempty"`
	UserPrice         decimal.Decimal `json:"user_price" validate:"required"`
	MinQty            int             `json:"min_qty" validate:"required,min=1"`
	MaxQty            int             `json:"max_qty" validate:"required,min=1"`
	Dripfeed          bool            `json:"dripfeed,omitempty"`
	Refill            bool            `json:"refill,omitempty"`
	Description       *string         `json:"description,omitempty"`
	SortOrder         int             `json:"sort_order,omitempty"`
	Active            *bool           `json:"active,omitempty"`
}

type updateCatalogServiceRequest struct {
	Name              *string          `json:"name,omitempty"`
	Provider          *string          `json:"provider,omitempty"`
	ProviderServiceID *int64           `json:"provider_service_id,omitempty"`
	UserPrice         *decimal.Decimal `json:"user_price,omitempty"`
	MinQty            *int             `json:"min_qty,omitempty"`
	MaxQty            *int             `json:"max_qty,omitempty"`
	Dripfeed          *bool            `json:"dripfeed,omitempty"`
	Refill            *bool            `json:"refill,omitempty"`
	Description       *string          `json:"description,omitempty"`
	SortOrder         *int             `json:"sort_order,omitempty"`
	Active            *bool            `json:"active,omitempty"`
}

func activeOrDefault(value *bool) bool {
	if value == nil {
		return true
	}
	return *value
}

// AdminCategoryList returns every category, active or not.
func AdminCategoryList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"categories": categories})
	}
}

func AdminCategoryCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body createCategoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.CreateCategory(r.Context(), catalog.CreateCategoryInput{
			Name:      body.Name,
			ImagePath: body.ImagePath,
			SortOrder: body.SortOrder,
			Active:    activeOrDefault(body.Active),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}

func AdminCategoryUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categoryID, err := parseUUIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateCategoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.UpdateCategory(r.Context(), categoryID, catalog.UpdateCategoryInput{
			Name:      body.Name,
			ImagePath: body.ImagePath,
			SortOrder: body.SortOrder,
			Active:    body.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, category)
	}
}

func AdminCategoryDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categoryID, err := parseUUIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteCategory(r.Context(), categoryID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// AdminPlatformList returns the platforms under one category.
func AdminPlatformList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categoryID, err := parseUUIDQuery(r, "category")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		platforms, err := svc.ListPlatforms(r.Context(), categoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"platforms": platforms})
	}
}

func AdminPlatformCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body createPlatformRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		platform, err := svc.CreatePlatform(r.Context(), catalog.CreatePlatformInput{
			CategoryID: body.CategoryID,
			Name:       body.Name,
			ImagePath:  body.ImagePath,
			SortOrder:  body.SortOrder,
			Active:     activeOrDefault(body.Active),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, platform)
	}
}

func AdminPlatformUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		platformID, err := parseUUIDParam(r, "platformId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updatePlatformRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		platform, err := svc.UpdatePlatform(r.Context(), platformID, catalog.UpdatePlatformInput{
			Name:      body.Name,
			ImagePath: body.ImagePath,
			SortOrder: body.SortOrder,
			Active:    body.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, platform)
	}
}

func AdminPlatformDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		platformID, err := parseUUIDParam(r, "platformId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeletePlatform(r.Context(), platformID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// AdminServiceTitleList returns the titles under one platform.
func AdminServiceTitleList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		platformID, err := parseUUIDQuery(r, "platform")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		titles, err := svc.ListServiceTitles(r.Context(), platformID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"titles": titles})
	}
}

func AdminServiceTitleCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body createServiceTitleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		title, err := svc.CreateServiceTitle(r.Context(), catalog.CreateServiceTitleInput{
			PlatformID: body.PlatformID,
			Name:       body.Name,
			SortOrder:  body.SortOrder,
			Active:     activeOrDefault(body.Active),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, title)
	}
}

func AdminServiceTitleUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		titleID, err := parseUUIDParam(r, "titleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateServiceTitleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		title, err := svc.UpdateServiceTitle(r.Context(), titleID, catalog.UpdateServiceTitleInput{
			Name:      body.Name,
			SortOrder: body.SortOrder,
			Active:    body.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, title)
	}
}

func AdminServiceTitleDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		titleID, err := parseUUIDParam(r, "titleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteServiceTitle(r.Context(), titleID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// AdminServiceList returns every service under a title, active or not.
func AdminServiceList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		titleID, err := parseUUIDQuery(r, "title")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		services, err := svc.AdminListServices(r.Context(), titleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"services": services})
	}
}

func AdminServiceCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body createCatalogServiceRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		provider, err := enums.ParseOrderProvider(body.Provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid provider"))
			return
		}

		service, err := svc.CreateService(r.Context(), catalog.CreateServiceInput{
			ServiceTitleID:    body.ServiceTitleID,
			Name:              body.Name,
			Provider:          provider,
			ProviderServiceID: body.ProviderServiceID,
			UserPrice:         body.UserPrice,
			MinQty:            body.MinQty,
			MaxQty:            body.MaxQty,
			Dripfeed:          body.Dripfeed,
			Refill:            body.Refill,
			Description:       body.Description,
			SortOrder:         body.SortOrder,
			Active:            activeOrDefault(body.Active),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, service)
	}
}

func AdminServiceUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		serviceID, err := parseUUIDParam(r, "serviceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateCatalogServiceRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.UpdateServiceInput{
			Name:        body.Name,
			UserPrice:   body.UserPrice,
			MinQty:      body.MinQty,
			MaxQty:      body.MaxQty,
			Dripfeed:    body.Dripfeed,
			Refill:      body.Refill,
			Description: body.Description,
			SortOrder:   body.SortOrder,
			Active:      body.Active,
		}
		if body.Provider != nil {
			provider, parseErr := enums.ParseOrderProvider(*body.Provider)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid provider"))
				return
			}
			input.Provider = &provider
			if provider == enums.OrderProviderManual && body.ProviderServiceID == nil {
				// switching to manual drops the panel linkage
				var cleared *int64
				input.ProviderServiceID = &cleared
			}
		}
		if body.ProviderServiceID != nil {
			input.ProviderServiceID = &body.ProviderServiceID
		}

		service, err := svc.UpdateService(r.Context(), serviceID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, service)
	}
}

func AdminServiceDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		serviceID, err := parseUUIDParam(r, "serviceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteService(r.Context(), serviceID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func parseUUIDQuery(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, key+" query parameter is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return id, nil
}
