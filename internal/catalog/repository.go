package catalog

import (
	"context"

	"scanorder-backend/internal/models"

	"gorm.io/gorm"
)

type StoreFilter struct {
	OwnerID    *uint
	ActiveOnly bool
	Limit      int
	Offset     int
}

type ProductFilter struct {
	// StoreIDs restricts the listing when RestrictStores is set; an empty
	// list then matches nothing.
	StoreIDs         []uint
	RestrictStores   bool
	AvailableOnly    bool
	ActiveStoresOnly bool
	Limit            int
	Offset           int
}

type Repository interface {
	CreateStore(ctx context.Context, s *models.Store) error
	SaveStore(ctx context.Context, s *models.Store) error
	DeleteStore(ctx context.Context, id uint) error
	FindStore(ctx context.Context, id uint) (*models.Store, error)
	FindStoreByCode(ctx context.Context, code string) (*models.Store, error)
	ListStores(ctx context.Context, f StoreFilter) ([]models.Store, int64, error)
	OwnedStoreIDs(ctx context.Context, ownerID uint) ([]uint, error)
	// LoadStoreDetail returns the store with every category and product.
	LoadStoreDetail(ctx context.Context, id uint) (*models.Store, error)
	// LoadMenu returns the store with active categories, each holding only
	// available products, all by sort_order.
	LoadMenu(ctx context.Context, id uint) (*models.Store, error)

	CreateCategory(ctx context.Context, cat *models.Category) error
	SaveCategory(ctx context.Context, cat *models.Category) error
	DeleteCategory(ctx context.Context, id uint) error
	FindCategory(ctx context.Context, id uint) (*models.Category, error)
	ListCategories(ctx context.Context, storeID uint) ([]models.Category, error)

	CreateProduct(ctx context.Context, p *models.Product) error
	SaveProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	FindProduct(ctx context.Context, id uint) (*models.Product, error)
	FindProducts(ctx context.Context, ids []uint) ([]models.Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, int64, error)
	// StoreProducts returns every product of a store by sort_order.
	StoreProducts(ctx context.Context, storeID uint) ([]models.Product, error)
	// ReorderProducts sets sort_order to the position of each id in ids.
	ReorderProducts(ctx context.Context, storeID uint, ids []uint) error
}

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// ----------------------------------------
// STORES
// ----------------------------------------

func (r *GormRepository) CreateStore(ctx context.Context, s *models.Store) error {
	return r.db.WithContext(ctx).Omit("Owner", "Categories", "Products", "Orders").Create(s).Error
}

func (r *GormRepository) SaveStore(ctx context.Context, s *models.Store) error {
	return r.db.WithContext(ctx).Omit("Owner", "Categories", "Products", "Orders").Save(s).Error
}

func (r *GormRepository) DeleteStore(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Store{}, "id = ?", id).Error
}

func (r *GormRepository) FindStore(ctx context.Context, id uint) (*models.Store, error) {
	var s models.Store
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepository) FindStoreByCode(ctx context.Context, code string) (*models.Store, error) {
	var s models.Store
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepository) ListStores(ctx context.Context, f StoreFilter) ([]models.Store, int64, error) {
	dbq := r.db.WithContext(ctx).Model(&models.Store{})
	if f.OwnerID != nil {
		dbq = dbq.Where("owner_id = ?", *f.OwnerID)
	}
	if f.ActiveOnly {
		dbq = dbq.Where("is_active = ?", true)
	}

	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit > 0 {
		dbq = dbq.Limit(f.Limit).Offset(f.Offset)
	}
	var stores []models.Store
	err := dbq.Preload("Owner").Order("created_at DESC, id DESC").Find(&stores).Error
	return stores, total, err
}

func (r *GormRepository) OwnedStoreIDs(ctx context.Context, ownerID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *GormRepository) LoadStoreDetail(ctx context.Context, id uint) (*models.Store, error) {
	var s models.Store
	err := r.db.WithContext(ctx).
		Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Preload("Categories.Products", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepository) LoadMenu(ctx context.Context, id uint) (*models.Store, error) {
	var s models.Store
	err := r.db.WithContext(ctx).
		Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("sort_order ASC, id ASC")
		}).
		Preload("Categories.Products", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_available = ?", true).Order("sort_order ASC, id ASC")
		}).
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ----------------------------------------
// CATEGORIES
// ----------------------------------------

func (r *GormRepository) CreateCategory(ctx context.Context, cat *models.Category) error {
	return r.db.WithContext(ctx).Omit("Products").Create(cat).Error
}

func (r *GormRepository) SaveCategory(ctx context.Context, cat *models.Category) error {
	return r.db.WithContext(ctx).Omit("Products").Save(cat).Error
}

func (r *GormRepository) DeleteCategory(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id).Error
}

func (r *GormRepository) FindCategory(ctx context.Context, id uint) (*models.Category, error) {
	var cat models.Category
	if err := r.db.WithContext(ctx).First(&cat, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *GormRepository) ListCategories(ctx context.Context, storeID uint) ([]models.Category, error) {
	var cats []models.Category
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("sort_order ASC, id ASC").
		Find(&cats).Error
	return cats, err
}

// ----------------------------------------
// PRODUCTS
// ----------------------------------------

func (r *GormRepository) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Omit("Category").Create(p).Error
}

func (r *GormRepository) SaveProduct(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Omit("Category").Save(p).Error
}

func (r *GormRepository) DeleteProduct(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}

func (r *GormRepository) FindProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepository) FindProducts(ctx context.Context, ids []uint) ([]models.Product, error) {
	var products []models.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	return products, err
}

func (r *GormRepository) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	dbq := r.db.WithContext(ctx).Model(&models.Product{})
	if f.RestrictStores {
		dbq = dbq.Where("products.store_id IN ?", f.StoreIDs)
	}
	if f.AvailableOnly {
		dbq = dbq.Where("products.is_available = ?", true)
	}
	if f.ActiveStoresOnly {
		dbq = dbq.Where("products.store_id IN (?)",
			r.db.Model(&models.Store{}).Select("id").Where("is_active = ?", true))
	}

	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit > 0 {
		dbq = dbq.Limit(f.Limit).Offset(f.Offset)
	}
	var products []models.Product
	err := dbq.Preload("Category").Order("products.created_at DESC, products.id DESC").Find(&products).Error
	return products, total, err
}

func (r *GormRepository) StoreProducts(ctx context.Context, storeID uint) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("sort_order ASC, id ASC").
		Find(&products).Error
	return products, err
}

func (r *GormRepository) ReorderProducts(ctx context.Context, storeID uint, ids []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			err := tx.Model(&models.Product{}).
				Where("id = ? AND store_id = ?", id, storeID).
				Update("sort_order", i).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
