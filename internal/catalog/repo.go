package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marcoalvarez/boostgrid-backend/pkg/db/models"
)

// ServiceChain is a service together with its full ancestry, used by
// visibility checks and order placement.
type ServiceChain struct {
	Service  *models.Service
	Title    *models.ServiceTitle
	Platform *models.Platform
	Category *models.Category
}

// Repository defines persistence operations for the four catalog levels.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateCategory(ctx context.Context, category *models.Category) error
	FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	CategoryHasPlatforms(ctx context.Context, id uuid.UUID) (bool, error)

	CreatePlatform(ctx context.Context, platform *models.Platform) error
	FindPlatformByID(ctx context.Context, id uuid.UUID) (*models.Platform, error)
	UpdatePlatform(ctx context.Context, platform *models.Platform) error
	DeletePlatform(ctx context.Context, id uuid.UUID) error
	ListPlatforms(ctx context.Context, categoryID uuid.UUID) ([]models.Platform, error)
	PlatformHasTitles(ctx context.Context, id uuid.UUID) (bool, error)

	CreateServiceTitle(ctx context.Context, title *models.ServiceTitle) error
	FindServiceTitleByID(ctx context.Context, id uuid.UUID) (*models.ServiceTitle, error)
	UpdateServiceTitle(ctx context.Context, title *models.ServiceTitle) error
	DeleteServiceTitle(ctx context.Context, id uuid.UUID) error
	ListServiceTitles(ctx context.Context, platformID uuid.UUID) ([]models.ServiceTitle, error)
	TitleHasServices(ctx context.Context, id uuid.UUID) (bool, error)

	CreateService(ctx context.Context, service *models.Service) error
	FindServiceByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
	UpdateService(ctx context.Context, service *models.Service) error
	DeleteService(ctx context.Context, id uuid.UUID) error
	ListServicesByTitle(ctx context.Context, titleID uuid.UUID, activeOnly bool) ([]models.Service, error)
	ServiceHasOrders(ctx context.Context, id uuid.UUID) (bool, error)

	LoadActiveTree(ctx context.Context) ([]models.Category, error)
	FindServiceChain(ctx context.Context, serviceID uuid.UUID) (*ServiceChain, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *repository) UpdateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

func (r *repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{}).Error
}

func (r *repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).
		Order("sort_order ASC, name ASC").
		Find(&rows).
		Error
	return rows, err
}

func (r *repository) CategoryHasPlatforms(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Platform{}).
		Where("category_id = ?", id).
		Count(&count).
		Error
	return count > 0, err
}

func (r *repository) CreatePlatform(ctx context.Context, platform *models.Platform) error {
	return r.db.WithContext(ctx).Create(platform).Error
}

func (r *repository) FindPlatformByID(ctx context.Context, id uuid.UUID) (*models.Platform, error) {
	var platform models.Platform
	if err := r.db.WithContext(ctx).First(&platform, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &platform, nil
}

func (r *repository) UpdatePlatform(ctx context.Context, platform *models.Platform) error {
	return r.db.WithContext(ctx).Save(platform).Error
}

func (r *repository) DeletePlatform(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Platform{}).Error
}

func (r *repository) ListPlatforms(ctx context.Context, categoryID uuid.UUID) ([]models.Platform, error) {
	var rows []models.Platform
	err := r.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Order("sort_order ASC, name ASC").
		Find(&rows).
		Error
	return rows, err
}

func (r *repository) PlatformHasTitles(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ServiceTitle{}).
		Where("platform_id = ?", id).
		Count(&count).
		Error
	return count > 0, err
}

func (r *repository) CreateServiceTitle(ctx context.Context, title *models.ServiceTitle) error {
	return r.db.WithContext(ctx).Create(title).Error
}

func (r *repository) FindServiceTitleByID(ctx context.Context, id uuid.UUID) (*models.ServiceTitle, error) {
	var title models.ServiceTitle
	if err := r.db.WithContext(ctx).First(&title, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &title, nil
}

func (r *repository) UpdateServiceTitle(ctx context.Context, title *models.ServiceTitle) error {
	return r.db.WithContext(ctx).Save(title).Error
}

func (r *repository) DeleteServiceTitle(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ServiceTitle{}).Error
}

func (r *repository) ListServiceTitles(ctx context.Context, platformID uuid.UUID) ([]models.ServiceTitle, error) {
	var rows []models.ServiceTitle
	err := r.db.WithContext(ctx).
		Where("platform_id = ?", platformID).
		Order("sort_order ASC, name ASC").
		Find(&rows).
		Error
	return rows, err
}

func (r *repository) TitleHasServices(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Service{}).
		Where("service_title_id = ?", id).
		Count(&count).
		Error
	return count > 0, err
}

func (r *repository) CreateService(ctx context.Context, service *models.Service) error {
	return r.db.WithContext(ctx).Create(service).Error
}

func (r *repository) FindServiceByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	var service models.Service
	if err := r.db.WithContext(ctx).First(&service, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *repository) UpdateService(ctx context.Context, service *models.Service) error {
	return r.db.WithContext(ctx).Save(service).Error
}

func (r *repository) DeleteService(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Service{}).Error
}

func (r *repository) ListServicesByTitle(ctx context.Context, titleID uuid.UUID, activeOnly bool) ([]models.Service, error) {
	q := r.db.WithContext(ctx).Where("service_title_id = ?", titleID)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var rows []models.Service
	err := q.Order("sort_order ASC, name ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) ServiceHasOrders(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("service_id = ?", id).
		Count(&count).
		Error
	return count > 0, err
}

// LoadActiveTree fetches active categories with their active platforms and
// titles preloaded in display order. Inactive branches are pruned at every
// level.
func (r *repository) LoadActiveTree(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Preload("Platforms", func(db *gorm.DB) *gorm.DB {
			return db.Where("active = ?", true).Order("sort_order ASC, name ASC")
		}).
		Preload("Platforms.ServiceTitles", func(db *gorm.DB) *gorm.DB {
			return db.Where("active = ?", true).Order("sort_order ASC, name ASC")
		}).
		Where("active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&categories).
		Error
	return categories, err
}

// FindServiceChain loads the service and walks up to its category. Any
// missing link surfaces as gorm.ErrRecordNotFound.
func (r *repository) FindServiceChain(ctx context.Context, serviceID uuid.UUID) (*ServiceChain, error) {
	var service models.Service
	if err := r.db.WithContext(ctx).First(&service, "id = ?", serviceID).Error; err != nil {
		return nil, err
	}
	var title models.ServiceTitle
	if err := r.db.WithContext(ctx).First(&title, "id = ?", service.ServiceTitleID).Error; err != nil {
		return nil, err
	}
	var platform models.Platform
	if err := r.db.WithContext(ctx).First(&platform, "id = ?", title.PlatformID).Error; err != nil {
		return nil, err
	}
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", platform.CategoryID).Error; err != nil {
		return nil, err
	}
	return &ServiceChain{
		Service:  &service,
		Title:    &title,
		Platform: &platform,
		Category: &category,
	}, nil
}
