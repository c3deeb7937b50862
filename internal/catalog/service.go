package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marcoalvarez/boostgrid-backend/pkg/db"
	"github.com/marcoalvarez/boostgrid-backend/pkg/db/models"
	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
	pkgerrors "github.com/marcoalvarez/boostgrid-backend/pkg/errors"
	"github.com/marcoalvarez/boostgrid-backend/pkg/visibility"
)

// Service exposes storefront catalog reads and the admin management surface.
type Service interface {
	// Tree returns active categories with their active platforms and titles,
	// ordered for display, with image paths resolved against the CDN base.
	Tree(ctx context.Context) ([]CategoryNode, error)
	// ListServices returns the active services under an active title chain.
	ListServices(ctx context.Context, serviceTitleID uuid.UUID) ([]ServiceSummary, error)
	// GetService returns one service if its whole chain is visible.
	GetService(ctx context.Context, serviceID uuid.UUID) (*ServiceSummary, error)

	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListPlatforms(ctx context.Context, categoryID uuid.UUID) ([]PlatformDTO, error)
	CreatePlatform(ctx context.Context, input CreatePlatformInput) (*PlatformDTO, error)
	UpdatePlatform(ctx context.Context, id uuid.UUID, input UpdatePlatformInput) (*PlatformDTO, error)
	DeletePlatform(ctx context.Context, id uuid.UUID) error

	ListServiceTitles(ctx context.Context, platformID uuid.UUID) ([]ServiceTitleDTO, error)
	CreateServiceTitle(ctx context.Context, input CreateServiceTitleInput) (*ServiceTitleDTO, error)
	UpdateServiceTitle(ctx context.Context, id uuid.UUID, input UpdateServiceTitleInput) (*ServiceTitleDTO, error)
	DeleteServiceTitle(ctx context.Context, id uuid.UUID) error

	AdminListServices(ctx context.Context, serviceTitleID uuid.UUID) ([]ServiceDTO, error)
	CreateService(ctx context.Context, input CreateServiceInput) (*ServiceDTO, error)
	UpdateService(ctx context.Context, id uuid.UUID, input UpdateServiceInput) (*ServiceDTO, error)
	DeleteService(ctx context.Context, id uuid.UUID) error
}

// service implements the catalog service.
type service struct {
	repo       Repository
	cdnBaseURL string
}

// NewService constructs a catalog service instance.
func NewService(repo Repository, cdnBaseURL string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{
		repo:       repo,
		cdnBaseURL: strings.TrimSpace(cdnBaseURL),
	}, nil
}

func (s *service) Tree(ctx context.Context) ([]CategoryNode, error) {
	categories, err := s.repo.LoadActiveTree(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog tree")
	}

	nodes := make([]CategoryNode, 0, len(categories))
	for i := range categories {
		category := &categories[i]
		platforms := make([]PlatformNode, 0, len(category.Platforms))
		for j := range category.Platforms {
			platform := &category.Platforms[j]
			titles := make([]TitleNode, 0, len(platform.ServiceTitles))
			for _, title := range platform.ServiceTitles {
				titles = append(titles, TitleNode{ID: title.ID, Name: title.Name})
			}
			platforms = append(platforms, PlatformNode{
				ID:            platform.ID,
				Name:          platform.Name,
				ImageURL:      s.imageURL(platform.ImagePath),
				ServiceTitles: titles,
			})
		}
		nodes = append(nodes, CategoryNode{
			ID:        category.ID,
			Name:      category.Name,
			ImageURL:  s.imageURL(category.ImagePath),
			Platforms: platforms,
		})
	}
	return nodes, nil
}

func (s *service) ListServices(ctx context.Context, serviceTitleID uuid.UUID) ([]ServiceSummary, error) {
	if serviceTitleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service title id is required")
	}

	title, err := s.repo.FindServiceTitleByID(ctx, serviceTitleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service title not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service title")
	}
	platform, err := s.repo.FindPlatformByID(ctx, title.PlatformID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service title not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load platform")
	}
	category, err := s.repo.FindCategoryByID(ctx, platform.CategoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service title not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	if !title.Active || !platform.Active || !category.Active {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service title not found")
	}

	rows, err := s.repo.ListServicesByTitle(ctx, serviceTitleID, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list services")
	}

	summaries := make([]ServiceSummary, 0, len(rows))
	for i := range rows {
		svc := &rows[i]
		if visibility.EnsureServiceVisible(svc, nil, nil, nil) != nil {
			continue
		}
		summaries = append(summaries, *newServiceSummary(svc))
	}
	return summaries, nil
}

func (s *service) GetService(ctx context.Context, serviceID uuid.UUID) (*ServiceSummary, error) {
	if serviceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service id is required")
	}

	chain, err := s.repo.FindServiceChain(ctx, serviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}
	if err := visibility.EnsureServiceVisible(chain.Service, chain.Title, chain.Platform, chain.Category); err != nil {
		return nil, err
	}
	return newServiceSummary(chain.Service), nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	dtos := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *newCategoryDTO(&rows[i], s.imageURL(rows[i].ImagePath)))
	}
	return dtos, nil
}

func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	category := &models.Category{
		Name:      name,
		ImagePath: trimToNil(input.ImagePath),
		SortOrder: input.SortOrder,
		Active:    input.Active,
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "ux_categories_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert category")
	}
	return newCategoryDTO(category, s.imageURL(category.ImagePath)), nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error) {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
	}

	category, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}

	applyUpdateToCategory(category, input)
	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "ux_categories_name") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update category")
	}
	return newCategoryDTO(category, s.imageURL(category.ImagePath)), nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindCategoryByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}

	hasChildren, err := s.repo.CategoryHasPlatforms(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category platforms")
	}
	if hasChildren {
		return pkgerrors.New(pkgerrors.CodeConflict, "category still has platforms")
	}

	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	return nil
}

func (s *service) ListPlatforms(ctx context.Context, categoryID uuid.UUID) ([]PlatformDTO, error) {
	if err := s.ensureCategoryExists(ctx, categoryID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListPlatforms(ctx, categoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list platforms")
	}
	dtos := make([]PlatformDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *newPlatformDTO(&rows[i], s.imageURL(rows[i].ImagePath)))
	}
	return dtos, nil
}

func (s *service) CreatePlatform(ctx context.Context, input CreatePlatformInput) (*PlatformDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := s.ensureCategoryExists(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	platform := &models.Platform{
		CategoryID: input.CategoryID,
		Name:       name,
		ImagePath:  trimToNil(input.ImagePath),
		SortOrder:  input.SortOrder,
		Active:     input.Active,
	}
	if err := s.repo.CreatePlatform(ctx, platform); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert platform")
	}
	return newPlatformDTO(platform, s.imageURL(platform.ImagePath)), nil
}

func (s *service) UpdatePlatform(ctx context.Context, id uuid.UUID, input UpdatePlatformInput) (*PlatformDTO, error) {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
	}

	platform, err := s.repo.FindPlatformByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "platform not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load platform")
	}

	applyUpdateToPlatform(platform, input)
	if err := s.repo.UpdatePlatform(ctx, platform); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update platform")
	}
	return newPlatformDTO(platform, s.imageURL(platform.ImagePath)), nil
}

func (s *service) DeletePlatform(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindPlatformByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "platform not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load platform")
	}

	hasChildren, err := s.repo.PlatformHasTitles(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check platform titles")
	}
	if hasChildren {
		return pkgerrors.New(pkgerrors.CodeConflict, "platform still has service titles")
	}

	if err := s.repo.DeletePlatform(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete platform")
	}
	return nil
}

func (s *service) ListServiceTitles(ctx context.Context, platformID uuid.UUID) ([]ServiceTitleDTO, error) {
	if err := s.ensurePlatformExists(ctx, platformID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListServiceTitles(ctx, platformID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list service titles")
	}
	dtos := make([]ServiceTitleDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *newServiceTitleDTO(&rows[i]))
	}
	return dtos, nil
}

func (s *service) CreateServiceTitle(ctx context.Context, input CreateServiceTitleInput) (*ServiceTitleDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := s.ensurePlatformExists(ctx, input.PlatformID); err != nil {
		return nil, err
	}

	title := &models.ServiceTitle{
		PlatformID: input.PlatformID,
		Name:       name,
		SortOrder:  input.SortOrder,
		Active:     input.Active,
	}
	if err := s.repo.CreateServiceTitle(ctx, title); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert service title")
	}
	return newServiceTitleDTO(title), nil
}

func (s *service) UpdateServiceTitle(ctx context.Context, id uuid.UUID, input UpdateServiceTitleInput) (*ServiceTitleDTO, error) {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
	}

	title, err := s.repo.FindServiceTitleByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service title not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service title")
	}

	applyUpdateToServiceTitle(title, input)
	if err := s.repo.UpdateServiceTitle(ctx, title); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update service title")
	}
	return newServiceTitleDTO(title), nil
}

func (s *service) DeleteServiceTitle(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindServiceTitleByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "service title not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service title")
	}

	hasChildren, err := s.repo.TitleHasServices(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check title services")
	}
	if hasChildren {
		return pkgerrors.New(pkgerrors.CodeConflict, "service title still has services")
	}

	if err := s.repo.DeleteServiceTitle(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete service title")
	}
	return nil
}

func (s *service) AdminListServices(ctx context.Context, serviceTitleID uuid.UUID) ([]ServiceDTO, error) {
	if err := s.ensureTitleExists(ctx, serviceTitleID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListServicesByTitle(ctx, serviceTitleID, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list services")
	}
	dtos := make([]ServiceDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *newServiceDTO(&rows[i]))
	}
	return dtos, nil
}

func (s *service) CreateService(ctx context.Context, input CreateServiceInput) (*ServiceDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := validateServicePricing(input.UserPrice.IsPositive(), input.MinQty, input.MaxQty); err != nil {
		return nil, err
	}
	if err := validateProviderLinkage(input.Provider, input.ProviderServiceID); err != nil {
		return nil, err
	}
	if err := s.ensureTitleExists(ctx, input.ServiceTitleID); err != nil {
		return nil, err
	}

	svc := &models.Service{
		ServiceTitleID:    input.ServiceTitleID,
		Name:              name,
		Provider:          input.Provider,
		ProviderServiceID: input.ProviderServiceID,
		UserPrice:         input.UserPrice,
		MinQty:            input.MinQty,
		MaxQty:            input.MaxQty,
		Dripfeed:          input.Dripfeed,
		Refill:            input.Refill,
		Description:       trimToNil(input.Description),
		SortOrder:         input.SortOrder,
		Active:            input.Active,
	}
	if err := s.repo.CreateService(ctx, svc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert service")
	}
	return newServiceDTO(svc), nil
}

func (s *service) UpdateService(ctx context.Context, id uuid.UUID, input UpdateServiceInput) (*ServiceDTO, error) {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
	}

	svc, err := s.repo.FindServiceByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}

	applyUpdateToService(svc, input)
	if err := validateServicePricing(svc.UserPrice.IsPositive(), svc.MinQty, svc.MaxQty); err != nil {
		return nil, err
	}
	if err := validateProviderLinkage(svc.Provider, svc.ProviderServiceID); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateService(ctx, svc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update service")
	}
	return newServiceDTO(svc), nil
}

func (s *service) DeleteService(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindServiceByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}

	referenced, err := s.repo.ServiceHasOrders(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check service orders")
	}
	if referenced {
		return pkgerrors.New(pkgerrors.CodeConflict, "service is referenced by orders")
	}

	if err := s.repo.DeleteService(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete service")
	}
	return nil
}

func (s *service) ensureCategoryExists(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	if _, err := s.repo.FindCategoryByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return nil
}

func (s *service) ensurePlatformExists(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "platform id is required")
	}
	if _, err := s.repo.FindPlatformByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "platform not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load platform")
	}
	return nil
}

func (s *service) ensureTitleExists(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "service title id is required")
	}
	if _, err := s.repo.FindServiceTitleByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "service title not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service title")
	}
	return nil
}

// imageURL resolves a stored image path against the CDN base. Absolute URLs
// pass through untouched.
func (s *service) imageURL(path *string) *string {
	if path == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*path)
	if trimmed == "" {
		return nil
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return &trimmed
	}
	if s.cdnBaseURL == "" {
		return &trimmed
	}
	resolved := strings.TrimSuffix(s.cdnBaseURL, "/") + "/" + strings.TrimPrefix(trimmed, "/")
	return &resolved
}

// trimToNil trims the value and collapses blank strings to nil so optional
// text columns store NULL instead of "".
func trimToNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func validateServicePricing(pricePositive bool, minQty, maxQty int) error {
	if !pricePositive {
		return pkgerrors.New(pkgerrors.CodeValidation, "user_price must be positive")
	}
	if minQty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "min_qty must be at least 1")
	}
	if maxQty < minQty {
		return pkgerrors.New(pkgerrors.CodeValidation, "max_qty must be at least min_qty")
	}
	return nil
}

func validateProviderLinkage(provider enums.OrderProvider, providerServiceID *int64) error {
	if !provider.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid provider")
	}
	switch provider {
	case enums.OrderProviderSecsers:
		if providerServiceID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "provider_service_id is required for secsers services")
		}
		if *providerServiceID <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "provider_service_id must be positive")
		}
	case enums.OrderProviderManual:
		if providerServiceID != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "provider_service_id only applies to secsers services")
		}
	}
	return nil
}

func applyUpdateToCategory(category *models.Category, input UpdateCategoryInput) {
	if input.Name != nil {
		category.Name = strings.TrimSpace(*input.Name)
	}
	if input.ImagePath != nil {
		category.ImagePath = trimToNil(input.ImagePath)
	}
	if input.SortOrder != nil {
		category.SortOrder = *input.SortOrder
	}
	if input.Active != nil {
		category.Active = *input.Active
	}
}

func applyUpdateToPlatform(platform *models.Platform, input UpdatePlatformInput) {
	if input.Name != nil {
		platform.Name = strings.TrimSpace(*input.Name)
	}
	if input.ImagePath != nil {
		platform.ImagePath = trimToNil(input.ImagePath)
	}
	if input.SortOrder != nil {
		platform.SortOrder = *input.SortOrder
	}
	if input.Active != nil {
		platform.Active = *input.Active
	}
}

func applyUpdateToServiceTitle(title *models.ServiceTitle, input UpdateServiceTitleInput) {
	if input.Name != nil {
		title.Name = strings.TrimSpace(*input.Name)
	}
	if input.SortOrder != nil {
		title.SortOrder = *input.SortOrder
	}
	if input.Active != nil {
		title.Active = *input.Active
	}
}

func applyUpdateToService(svc *models.Service, input UpdateServiceInput) {
	if input.Name != nil {
		svc.Name = strings.TrimSpace(*input.Name)
	}
	if input.Provider != nil {
		svc.Provider = *input.Provider
	}
	if input.ProviderServiceID != nil {
		svc.ProviderServiceID = *input.ProviderServiceID
	}
	if input.UserPrice != nil {
		svc.UserPrice = *input.UserPrice
	}
	if input.MinQty != nil {
		svc.MinQty = *input.MinQty
	}
	if input.MaxQty != nil {
		svc.MaxQty = *input.MaxQty
	}
	if input.Dripfeed != nil {
		svc.Dripfeed = *input.Dripfeed
	}
	if input.Refill != nil {
		svc.Refill = *input.Refill
	}
	if input.Description != nil {
		svc.Description = trimToNil(input.Description)
	}
	if input.SortOrder != nil {
		svc.SortOrder = *input.SortOrder
	}
	if input.Active != nil {
		svc.Active = *input.Active
	}
}
