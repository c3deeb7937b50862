package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcoalvarez/boostgrid-backend/pkg/db/models"
	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
)

// CategoryNode is one branch of the storefront tree. Only active levels are
// included and image paths are already resolved against the CDN base.
type CategoryNode struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	ImageURL  *string        `json:"image_url,omitempty"`
	Platforms []PlatformNode `json:"platforms"`
}

// PlatformNode is a social network inside a storefront category.
type PlatformNode struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	ImageURL      *string     `json:"image_url,omitempty"`
	ServiceTitles []TitleNode `json:"service_titles"`
}

// TitleNode is a leaf of the storefront tree; services hang off it via
// the services listing endpoint.
type TitleNode struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ServiceSummary is the buyer-facing view of a sellable service. Provider
// identity and upstream linkage are deliberately absent.
type ServiceSummary struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	UserPrice   decimal.Decimal `json:"user_price"`
	MinQty      int             `json:"min_qty"`
	MaxQty      int             `json:"max_qty"`
	Dripfeed    bool            `json:"dripfeed"`
	Refill      bool            `json:"refill"`
	Description *string         `json:"description,omitempty"`
}

// CategoryDTO is the admin view of a category.
type CategoryDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	ImagePath *string   `json:"image_path,omitempty"`
	ImageURL  *string   `json:"image_url,omitempty"`
	SortOrder int       `json:"sort_order"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlatformDTO is the admin view of a platform.
type PlatformDTO struct {
	ID         uuid.UUID `json:"id"`
	CategoryID uuid.UUID `json:"category_id"`
	Name       string    `json:"name"`
	ImagePath  *string   `json:"image_path,omitempty"`
	ImageURL   *string   `json:"image_url,omitempty"`
	SortOrder  int       `json:"sort_order"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ServiceTitleDTO is the admin view of a service title.
type ServiceTitleDTO struct {
	ID         uuid.UUID `json:"id"`
	PlatformID uuid.UUID `json:"platform_id"`
	Name       string    `json:"name"`
	SortOrder  int       `json:"sort_order"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ServiceDTO is the admin view of a service, including provider linkage.
type ServiceDTO struct {
	ID                uuid.UUID           `json:"id"`
	ServiceTitleID    uuid.UUID           `json:"service_title_id"`
	Name              string              `json:"name"`
	Provider          enums.OrderProvider `json:"provider"`
	ProviderServiceID *int64              `json:"provider_service_id,omitempty"`
	UserPrice         decimal.Decimal     `json:"user_price"`
	MinQty            int                 `json:"min_qty"`
	MaxQty            int                 `json:"max_qty"`
	Dripfeed          bool                `json:"dripfeed"`
	Refill            bool                `json:"refill"`
	Description       *string             `json:"description,omitempty"`
	SortOrder         int                 `json:"sort_order"`
	Active            bool                `json:"active"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// CreateCategoryInput holds the validated payload to create a category.
type CreateCategoryInput struct {
	Name      string
	ImagePath *string
	SortOrder int
	Active    bool
}

// UpdateCategoryInput holds optional mutation values for a category.
type UpdateCategoryInput struct {
	Name      *string
	ImagePath *string
	SortOrder *int
	Active    *bool
}

// CreatePlatformInput holds the validated payload to create a platform.
type CreatePlatformInput struct {
	CategoryID uuid.UUID
	Name       string
	ImagePath  *string
	SortOrder  int
	Active     bool
}

// UpdatePlatformInput holds optional mutation values for a platform.
type UpdatePlatformInput struct {
	Name      *string
	ImagePath *string
	SortOrder *int
	Active    *bool
}

// CreateServiceTitleInput holds the validated payload to create a title.
type CreateServiceTitleInput struct {
	PlatformID uuid.UUID
	Name       string
	SortOrder  int
	Active     bool
}

// UpdateServiceTitleInput holds optional mutation values for a title.
type UpdateServiceTitleInput struct {
	Name      *string
	SortOrder *int
	Active    *bool
}

// CreateServiceInput holds the validated payload to create a service.
type CreateServiceInput struct {
	ServiceTitleID    uuid.UUID
	Name              string
	Provider          enums.OrderProvider
	ProviderServiceID *int64
	UserPrice         decimal.Decimal
	MinQty            int
	MaxQty            int
	Dripfeed          bool
	Refill            bool
	Description       *string
	SortOrder         int
	Active            bool
}

// UpdateServiceInput holds optional mutation values for a service.
// ProviderServiceID uses a double pointer so callers can distinguish
// "leave unchanged" (nil) from "clear the linkage" (*nil).
type UpdateServiceInput struct {
	Name              *string
	Provider          *enums.OrderProvider
	ProviderServiceID **int64
	UserPrice         *decimal.Decimal
	MinQty            *int
	MaxQty            *int
	Dripfeed          *bool
	Refill            *bool
	Description       *string
	SortOrder         *int
	Active            *bool
}

func newCategoryDTO(category *models.Category, imageURL *string) *CategoryDTO {
	return &CategoryDTO{
		ID:        category.ID,
		Name:      category.Name,
		ImagePath: category.ImagePath,
		ImageURL:  imageURL,
		SortOrder: category.SortOrder,
		Active:    category.Active,
		CreatedAt: category.CreatedAt,
		UpdatedAt: category.UpdatedAt,
	}
}

func newPlatformDTO(platform *models.Platform, imageURL *string) *PlatformDTO {
	return &PlatformDTO{
		ID:         platform.ID,
		CategoryID: platform.CategoryID,
		Name:       platform.Name,
		ImagePath:  platform.ImagePath,
		ImageURL:   imageURL,
		SortOrder:  platform.SortOrder,
		Active:     platform.Active,
		CreatedAt:  platform.CreatedAt,
		UpdatedAt:  platform.UpdatedAt,
	}
}

func newServiceTitleDTO(title *models.ServiceTitle) *ServiceTitleDTO {
	return &ServiceTitleDTO{
		ID:         title.ID,
		PlatformID: title.PlatformID,
		Name:       title.Name,
		SortOrder:  title.SortOrder,
		Active:     title.Active,
		CreatedAt:  title.CreatedAt,
		UpdatedAt:  title.UpdatedAt,
	}
}

func newServiceDTO(service *models.Service) *ServiceDTO {
	return &ServiceDTO{
		ID:                service.ID,
		ServiceTitleID:    service.ServiceTitleID,
		Name:              service.Name,
		Provider:          service.Provider,
		ProviderServiceID: service.ProviderServiceID,
		UserPrice:         service.UserPrice,
		MinQty:            service.MinQty,
		MaxQty:            service.MaxQty,
		Dripfeed:          service.Dripfeed,
		Refill:            service.Refill,
		Description:       service.Description,
		SortOrder:         service.SortOrder,
		Active:            service.Active,
		CreatedAt:         service.CreatedAt,
		UpdatedAt:         service.UpdatedAt,
	}
}

func newServiceSummary(service *models.Service) *ServiceSummary {
	return &ServiceSummary{
		ID:          service.ID,
		Name:        service.Name,
		UserPrice:   service.UserPrice,
		MinQty:      service.MinQty,
		MaxQty:      service.MaxQty,
		Dripfeed:    service.Dripfeed,
		Refill:      service.Refill,
		Description: service.Description,
	}
}
