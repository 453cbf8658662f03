package memrepo

import (
	"context"
	"sort"

	"scanorder-backend/internal/catalog"
	"scanorder-backend/internal/models"

	"gorm.io/gorm"
)

// ----------------------------------------
// STORES
// ----------------------------------------

func (d *DB) codeTaken(code string, exceptID uint) bool {
	for id, s := range d.stores {
		if id != exceptID && s.Code == code {
			return true
		}
	}
	return false
}

func (d *DB) CreateStore(_ context.Context, s *models.Store) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.codeTaken(s.Code, 0) {
		return gorm.ErrDuplicatedKey
	}
	if _, ok := d.users[s.OwnerID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	s.ID = d.id("stores")
	d.stamp(&s.CreatedAt, &s.UpdatedAt)
	d.stores[s.ID] = bare(*s)
	return nil
}

func (d *DB) SaveStore(_ context.Context, s *models.Store) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.stores[s.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	if d.codeTaken(s.Code, s.ID) {
		return gorm.ErrDuplicatedKey
	}
	d.stamp(&s.CreatedAt, &s.UpdatedAt)
	d.stores[s.ID] = bare(*s)
	return nil
}

func bare(s models.Store) models.Store {
	s.Owner = nil
	s.Categories = nil
	s.Products = nil
	s.Orders = nil
	return s
}

// DeleteStore cascades to categories and products and is restricted by orders.
func (d *DB) DeleteStore(_ context.Context, id uint) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, o := range d.orders {
		if o.StoreID == id {
			return gorm.ErrForeignKeyViolated
		}
	}
	for pid, p := range d.products {
		if p.StoreID == id {
			for _, it := range d.items {
				if it.ProductID == pid {
					return gorm.ErrForeignKeyViolated
				}
			}
		}
	}
	for pid, p := range d.products {
		if p.StoreID == id {
			delete(d.products, pid)
		}
	}
	for cid, c := range d.cats {
		if c.StoreID == id {
			delete(d.cats, cid)
		}
	}
	delete(d.stores, id)
	return nil
}

func (d *DB) FindStore(_ context.Context, id uint) (*models.Store, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.stores[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (d *DB) FindStoreByCode(_ context.Context, code string) (*models.Store, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.stores {
		if s.Code == code {
			return &s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (d *DB) ListStores(_ context.Context, f catalog.StoreFilter) ([]models.Store, int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.Store
	for _, id := range sortedKeys(d.stores) {
		s := d.stores[id]
		if f.OwnerID != nil && s.OwnerID != *f.OwnerID {
			continue
		}
		if f.ActiveOnly && !s.IsActive {
			continue
		}
		if owner, ok := d.users[s.OwnerID]; ok {
			s.Owner = &owner
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, f.Limit, f.Offset), int64(len(out)), nil
}

func (d *DB) OwnedStoreIDs(_ context.Context, ownerID uint) ([]uint, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var ids []uint
	for _, id := range sortedKeys(d.stores) {
		if d.stores[id].OwnerID == ownerID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (d *DB) LoadStoreDetail(_ context.Context, id uint) (*models.Store, error) {
	return d.loadStore(id, false)
}

func (d *DB) LoadMenu(_ context.Context, id uint) (*models.Store, error) {
	return d.loadStore(id, true)
}

func (d *DB) loadStore(id uint, menuOnly bool) (*models.Store, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.stores[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for _, c := range d.categoriesOf(id) {
		if menuOnly && !c.IsActive {
			continue
		}
		for _, p := range d.productsOf(c.ID) {
			if menuOnly && !p.IsAvailable {
				continue
			}
			c.Products = append(c.Products, p)
		}
		s.Categories = append(s.Categories, c)
	}
	return &s, nil
}

func (d *DB) categoriesOf(storeID uint) []models.Category {
	var out []models.Category
	for _, id := range sortedKeys(d.cats) {
		if c := d.cats[id]; c.StoreID == storeID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

func (d *DB) productsOf(categoryID uint) []models.Product {
	var out []models.Product
	for _, id := range sortedKeys(d.products) {
		if p := d.products[id]; p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

// ----------------------------------------
// CATEGORIES
// ----------------------------------------

func (d *DB) CreateCategory(_ context.Context, c *models.Category) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.stores[c.StoreID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	c.ID = d.id("categories")
	d.stamp(&c.CreatedAt, &c.UpdatedAt)
	stored := *c
	stored.Products = nil
	d.cats[c.ID] = stored
	return nil
}

func (d *DB) SaveCategory(_ context.Context, c *models.Category) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.cats[c.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	d.stamp(&c.CreatedAt, &c.UpdatedAt)
	stored := *c
	stored.Products = nil
	d.cats[c.ID] = stored
	return nil
}

// DeleteCategory is restricted while products reference the category.
func (d *DB) DeleteCategory(_ context.Context, id uint) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.products {
		if p.CategoryID == id {
			return gorm.ErrForeignKeyViolated
		}
	}
	delete(d.cats, id)
	return nil
}

func (d *DB) FindCategory(_ context.Context, id uint) (*models.Category, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.cats[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (d *DB) ListCategories(_ context.Context, storeID uint) ([]models.Category, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.categoriesOf(storeID), nil
}

// ----------------------------------------
// PRODUCTS
// ----------------------------------------

func (d *DB) CreateProduct(_ context.Context, p *models.Product) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.stores[p.StoreID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	if _, ok := d.cats[p.CategoryID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	p.ID = d.id("products")
	d.stamp(&p.CreatedAt, &p.UpdatedAt)
	stored := *p
	stored.Category = nil
	d.products[p.ID] = stored
	return nil
}

func (d *DB) SaveProduct(_ context.Context, p *models.Product) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.products[p.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	if _, ok := d.cats[p.CategoryID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	d.stamp(&p.CreatedAt, &p.UpdatedAt)
	stored := *p
	stored.Category = nil
	d.products[p.ID] = stored
	return nil
}

// DeleteProduct is restricted while order items reference the product.
func (d *DB) DeleteProduct(_ context.Context, id uint) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, it := range d.items {
		if it.ProductID == id {
			return gorm.ErrForeignKeyViolated
		}
	}
	delete(d.products, id)
	return nil
}

func (d *DB) FindProduct(_ context.Context, id uint) (*models.Product, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if c, ok := d.cats[p.CategoryID]; ok {
		p.Category = &c
	}
	return &p, nil
}

func (d *DB) FindProducts(_ context.Context, ids []uint) ([]models.Product, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.Product
	for _, id := range sortedKeys(d.products) {
		if containsID(ids, id) {
			out = append(out, d.products[id])
		}
	}
	return out, nil
}

func (d *DB) ListProducts(_ context.Context, f catalog.ProductFilter) ([]models.Product, int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.Product
	for _, id := range sortedKeys(d.products) {
		p := d.products[id]
		if f.RestrictStores && !containsID(f.StoreIDs, p.StoreID) {
			continue
		}
		if f.AvailableOnly && !p.IsAvailable {
			continue
		}
		if f.ActiveStoresOnly && !d.stores[p.StoreID].IsActive {
			continue
		}
		if c, ok := d.cats[p.CategoryID]; ok {
			p.Category = &c
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, f.Limit, f.Offset), int64(len(out)), nil
}

func (d *DB) StoreProducts(_ context.Context, storeID uint) ([]models.Product, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.Product
	for _, id := range sortedKeys(d.products) {
		if p := d.products[id]; p.StoreID == storeID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (d *DB) ReorderProducts(_ context.Context, storeID uint, ids []uint) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, id := range ids {
		p, ok := d.products[id]
		if !ok || p.StoreID != storeID {
			continue
		}
		p.SortOrder = i
		d.products[id] = p
	}
	return nil
}
