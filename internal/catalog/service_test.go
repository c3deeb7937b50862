package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marcoalvarez/boostgrid-backend/pkg/db/models"
	"github.com/marcoalvarez/boostgrid-backend/pkg/enums"
	pkgerrors "github.com/marcoalvarez/boostgrid-backend/pkg/errors"
)

func newCatalogServiceLayer(t *testing.T, db *gorm.DB, cdnBase string) Service {
	t.Helper()

	svc, err := NewService(NewRepository(db), cdnBase)
	if err != nil {
		t.Fatalf("new catalog service: %v", err)
	}
	return svc
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	appErr := pkgerrors.As(err)
	if appErr == nil {
		t.Fatalf("expected app error, got %v", err)
	}
	if appErr.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, appErr.Code(), err)
	}
}

func reloadCategoryByName(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()

	var row models.Category
	if err := db.Where("name = ?", name).Take(&row).Error; err != nil {
		t.Fatalf("reload category %q: %v", name, err)
	}
	return &row
}

func TestCatalogTreeResolvesImageURLs(t *testing.T) {
	db := setupCatalogTestDB(t)
	catalogSvc := newCatalogServiceLayer(t, db, "https://cdn.boostgrid.io/")
	ctx := context.Background()

	categoryImage := "img/categories/social.png"
	category := &models.Category{
		ID:        uuid.New(),
		Name:      fmt.Sprintf("Category %s", uuid.NewString()[:8]),
		ImagePath: &categoryImage,
		SortOrder: 1,
		Active:    true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}

	platformImage := "https://static.example.com/tiktok.png"
	platform := &models.Platform{
		ID:         uuid.New(),
		CategoryID: category.ID,
		Name:       fmt.Sprintf("Platform %s", uuid.NewString()[:8]),
		ImagePath:  &platformImage,
		Active:     true,
	}
	if err := db.Create(platform).Error; err != nil {
		t.Fatalf("create platform: %v", err)
	}
	title := &models.ServiceTitle{
		ID:         uuid.New(),
		PlatformID: platform.ID,
		Name:       fmt.Sprintf("Title %s", uuid.NewString()[:8]),
		Active:     true,
	}
	if err := db.Create(title).Error; err != nil {
		t.Fatalf("create title: %v", err)
	}

	tree, err := catalogSvc.Tree(ctx)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}

	var node *CategoryNode
	for i := range tree {
		if tree[i].ID == category.ID {
			node = &tree[i]
			break
		}
	}
	if node == nil {
		t.Fatal("created category missing from tree")
	}
	if node.ImageURL == nil || *node.ImageURL != "https://cdn.boostgrid.io/img/categories/social.png" {
		t.Fatalf("unexpected category image url: %v", node.ImageURL)
	}
	if len(node.Platforms) != 1 {
		t.Fatalf("expected 1 platform, got %d", len(node.Platforms))
	}
	if node.Platforms[0].ImageURL == nil || *node.Platforms[0].ImageURL != platformImage {
		t.Fatalf("absolute image url should pass through, got %v", node.Platforms[0].ImageURL)
	}
	if len(node.Platforms[0].ServiceTitles) != 1 || node.Platforms[0].ServiceTitles[0].ID != title.ID {
		t.Fatalf("unexpected titles: %+v", node.Platforms[0].ServiceTitles)
	}
}

func TestCatalogListServicesChainGates(t *testing.T) {
	db := setupCatalogTestDB(t)
	catalogSvc := newCatalogServiceLayer(t, db, "")
	ctx := context.Background()

	category := newCatalogCategory(t, db, 0, true)
	platform := newCatalogPlatform(t, db, category, 0, true)
	title := newCatalogTitle(t, db, platform, 0, true)

	orderable := newCatalogService(t, db, title, 1, true)
	newCatalogService(t, db, title, 2, false)

	unlinked := &models.Service{
		ID:             uuid.New(),
		ServiceTitleID: title.ID,
		Name:           fmt.Sprintf("Service %s", uuid.NewString()[:8]),
		Provider:       enums.OrderProviderSecsers,
		UserPrice:      mustPrice(t, "3.25"),
		MinQty:         50,
		MaxQty:         5000,
		SortOrder:      3,
		Active:         true,
	}
	if err := db.Create(unlinked).Error; err != nil {
		t.Fatalf("create unlinked service: %v", err)
	}

	summaries, err := catalogSvc.ListServices(ctx, title.ID)
	if err != nil {
		t.Fatalf("list services: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 visible service, got %d", len(summaries))
	}
	if summaries[0].ID != orderable.ID {
		t.Fatalf("unexpected service %s", summaries[0].ID)
	}
	if !summaries[0].UserPrice.Equal(orderable.UserPrice) {
		t.Fatalf("unexpected price %s", summaries[0].UserPrice)
	}

	if err := db.Model(&models.Platform{}).Where("id = ?", platform.ID).Update("active", false).Error; err != nil {
		t.Fatalf("deactivate platform: %v", err)
	}
	_, err = catalogSvc.ListServices(ctx, title.ID)
	expectCode(t, err, pkgerrors.CodeNotFound)

	_, err = catalogSvc.ListServices(ctx, uuid.New())
	expectCode(t, err, pkgerrors.CodeNotFound)

	_, err = catalogSvc.ListServices(ctx, uuid.Nil)
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestCatalogGetServiceVisibility(t *testing.T) {
	db := setupCatalogTestDB(t)
	catalogSvc := newCatalogServiceLayer(t, db, "")
	ctx := context.Background()

	category := newCatalogCategory(t, db, 0, true)
	platform := newCatalogPlatform(t, db, category, 0, true)
	title := newCatalogTitle(t, db, platform, 0, true)
	svc := newCatalogService(t, db, title, 0, true)

	summary, err := catalogSvc.GetService(ctx, svc.ID)
	if err != nil {
		t.Fatalf("get service: %v", err)
	}
	if summary.ID != svc.ID || summary.Name != svc.Name {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.MinQty != svc.MinQty || summary.MaxQty != svc.MaxQty {
		t.Fatalf("unexpected bounds %+v", summary)
	}

	if err := db.Model(&models.Category{}).Where("id = ?", category.ID).Update("active", false).Error; err != nil {
		t.Fatalf("deactivate category: %v", err)
	}
	_, err = catalogSvc.GetService(ctx, svc.ID)
	expectCode(t, err, pkgerrors.CodeNotFound)

	_, err = catalogSvc.GetService(ctx, uuid.New())
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestCatalogCategoryLifecycle(t *testing.T) {
	db := setupCatalogTestDB(t)
	catalogSvc := newCatalogServiceLayer(t, db, "")
	ctx := context.Background()

	name := fmt.Sprintf("Growth Bundles %s", uuid.NewString()[:8])
	created, err := catalogSvc.CreateCategory(ctx, CreateCategoryInput{
		Name:   "  " + name + "  ",
		Active: true,
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if created.Name != name {
		t.Fatalf("expected trimmed name %q, got %q", name, created.Name)
	}
	if created.ImagePath != nil {
		t.Fatalf("expected nil image path, got %v", created.ImagePath)
	}

	row := reloadCategoryByName(t, db, name)

	_, err = catalogSvc.CreateCategory(ctx, CreateCategoryInput{Name: "   "})
	expectCode(t, err, pkgerrors.CodeValidation)

	if _, err := catalogSvc.CreateCategory(ctx, CreateCategoryInput{Name: name, Active: true}); err == nil {
		t.Fatal("expected duplicate name to fail")
	}

	newName := fmt.Sprintf("Renamed %s", uuid.NewString()[:8])
	inactive := false
	sortOrder := 9
	updated, err := catalogSvc.UpdateCategory(ctx, row.ID, UpdateCategoryInput{
		Name:      &newName,
		Active:    &inactive,
		SortOrder: &sortOrder,
	})
	if err != nil {
		t.Fatalf("update category: %v", err)
	}
	if updated.Name != newName || updated.Active || updated.SortOrder != 9 {
		t.Fatalf("unexpected updated category %+v", updated)
	}
	persisted := reloadCategoryByName(t, db, newName)
	if persisted.Active || persisted.SortOrder != 9 {
		t.Fatalf("update not persisted: %+v", persisted)
	}

	_, err = catalogSvc.UpdateCategory(ctx, uuid.New(), UpdateCategoryInput{Name: &newName})
	expectCode(t, err, pkgerrors.CodeNotFound)

	platform := newCatalogPlatform(t, db, persisted, 0, true)
	err = catalogSvc.DeleteCategory(ctx, persisted.ID)
	expectCode(t, err, pkgerrors.CodeConflict)

	if err := db.Where("id = ?", platform.ID).Delete(&models.Platform{}).Error; err != nil {
		t.Fatalf("remove platform: %v", err)
	}
	if err := catalogSvc.DeleteCategory(ctx, persisted.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	err = catalogSvc.DeleteCategory(ctx, persisted.ID)
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestCatalogPlatformAndTitleLifecycle(t *testing.T) {
	db := setupCatalogTestDB(t)
	catalogSvc := newCatalogServiceLayer(t, db, "")
	ctx := context.Background()

	category := newCatalogCategory(t, db, 0, true)

	_, err := catalogSvc.CreatePlatform(ctx, CreatePlatformInput{CategoryID: uuid.Nil, Name: "TikTok"})
	expectCode(t, err, pkgerrors.CodeValidation)

	_, err = catalogSvc.CreatePlatform(ctx, CreatePlatformInput{CategoryID: uuid.New(), Name: "TikTok"})
	expectCode(t, err, pkgerrors.CodeNotFound)

	platformName := fmt.Sprintf("TikTok %s", uuid.NewString()[:8])
	platformDTO, err := catalogSvc.CreatePlatform(ctx, CreatePlatformInput{
		CategoryID: category.ID,
		Name:       platformName,
		Active:     true,
	})
	if err != nil {
		t.Fatalf("create platform: %v", err)
	}
	if platformDTO.CategoryID != category.ID {
		t.Fatalf("unexpected category id %s", platformDTO.CategoryID)
	}

	var platformRow models.Platform
	if err := db.Where("name = ?", platformName).Take(&platformRow).Error; err != nil {
		t.Fatalf("reload platform: %v", err)
	}

	titleName := fmt.Sprintf("Followers %s", uuid.NewString()[:8])
	_, err = catalogSvc.CreateServiceTitle(ctx, CreateServiceTitleInput{
		PlatformID: platformRow.ID,
		Name:       titleName,
		Active:     true,
	})
	if err != nil {
		t.Fatalf("create title: %v", err)
	}
	var titleRow models.ServiceTitle
	if err := db.Where("name = ?", titleName).Take(&titleRow).Error; err != nil {
		t.Fatalf("reload title: %v", err)
	}

	svc := newCatalogService(t, db, &titleRow, 0, true)

	err = catalogSvc.DeletePlatform(ctx, platformRow.ID)
	expectCode(t, err, pkgerrors.CodeConflict)

	err = catalogSvc.DeleteServiceTitle(ctx, titleRow.ID)
	expectCode(t, err, pkgerrors.CodeConflict)

	if err := db.Where("id = ?", svc.ID).Delete(&models.Service{}).Error; err != nil {
		t.Fatalf("remove service: %v", err)
	}
	if err := catalogSvc.DeleteServiceTitle(ctx, titleRow.ID); err != nil {
		t.Fatalf("delete title: %v", err)
	}
	if err := catalogSvc.DeletePlatform(ctx, platformRow.ID); err != nil {
		t.Fatalf("delete platform: %v", err)
	}
}

func TestCatalogServiceLifecycle(t *testing.T) {
	db := setupCatalogTestDB(t)
	catalogSvc := newCatalogServiceLayer(t, db, "")
	ctx := context.Background()

	category := newCatalogCategory(t, db, 0, true)
	platform := newCatalogPlatform(t, db, category, 0, true)
	title := newCatalogTitle(t, db, platform, 0, true)

	providerID := int64(412)
	base := CreateServiceInput{
		ServiceTitleID:    title.ID,
		Name:              fmt.Sprintf("IG Followers %s", uuid.NewString()[:8]),
		Provider:          enums.OrderProviderSecsers,
		ProviderServiceID: &providerID,
		UserPrice:         mustPrice(t, "2.75"),
		MinQty:            100,
		MaxQty:            10000,
		Refill:            true,
		Active:            true,
	}

	missingLink := base
	missingLink.ProviderServiceID = nil
	_, err := catalogSvc.CreateService(ctx, missingLink)
	expectCode(t, err, pkgerrors.CodeValidation)

	manualLinked := base
	manualLinked.Provider = enums.OrderProviderManual
	_, err = catalogSvc.CreateService(ctx, manualLinked)
	expectCode(t, err, pkgerrors.CodeValidation)

	badBounds := base
	badBounds.MinQty = 0
	_, err = catalogSvc.CreateService(ctx, badBounds)
	expectCode(t, err, pkgerrors.CodeValidation)

	badBounds = base
	badBounds.MaxQty = 10
	_, err = catalogSvc.CreateService(ctx, badBounds)
	expectCode(t, err, pkgerrors.CodeValidation)

	freePrice := base
	freePrice.UserPrice = mustPrice(t, "0")
	_, err = catalogSvc.CreateService(ctx, freePrice)
	expectCode(t, err, pkgerrors.CodeValidation)

	orphan := base
	orphan.ServiceTitleID = uuid.New()
	_, err = catalogSvc.CreateService(ctx, orphan)
	expectCode(t, err, pkgerrors.CodeNotFound)

	created, err := catalogSvc.CreateService(ctx, base)
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	if created.Provider != enums.OrderProviderSecsers || created.ProviderServiceID == nil || *created.ProviderServiceID != 412 {
		t.Fatalf("unexpected provider linkage %+v", created)
	}

	var svcRow models.Service
	if err := db.Where("name = ?", created.Name).Take(&svcRow).Error; err != nil {
		t.Fatalf("reload service: %v", err)
	}

	manual := enums.OrderProviderManual
	_, err = catalogSvc.UpdateService(ctx, svcRow.ID, UpdateServiceInput{Provider: &manual})
	expectCode(t, err, pkgerrors.CodeValidation)

	var cleared *int64
	updated, err := catalogSvc.UpdateService(ctx, svcRow.ID, UpdateServiceInput{
		Provider:          &manual,
		ProviderServiceID: &cleared,
	})
	if err != nil {
		t.Fatalf("switch to manual: %v", err)
	}
	if updated.Provider != enums.OrderProviderManual || updated.ProviderServiceID != nil {
		t.Fatalf("linkage not cleared: %+v", updated)
	}

	negative := mustPrice(t, "-1")
	_, err = catalogSvc.UpdateService(ctx, svcRow.ID, UpdateServiceInput{UserPrice: &negative})
	expectCode(t, err, pkgerrors.CodeValidation)

	adminRows, err := catalogSvc.AdminListServices(ctx, title.ID)
	if err != nil {
		t.Fatalf("admin list services: %v", err)
	}
	if len(adminRows) != 1 {
		t.Fatalf("expected 1 admin row, got %d", len(adminRows))
	}

	newCatalogOrder(t, db, &svcRow)
	err = catalogSvc.DeleteService(ctx, svcRow.ID)
	expectCode(t, err, pkgerrors.CodeConflict)

	unreferenced := newCatalogService(t, db, title, 5, true)
	if err := catalogSvc.DeleteService(ctx, unreferenced.ID); err != nil {
		t.Fatalf("delete service: %v", err)
	}

	if _, err := NewService(nil, ""); err == nil {
		t.Fatal("expected constructor error for nil repository")
	}
}
