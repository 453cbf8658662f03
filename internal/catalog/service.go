package catalog

import (
	"context"
	"fmt"
	"strings"

	"scanorder-backend/internal/apperr"
	"scanorder-backend/internal/audit"
	"scanorder-backend/internal/database"
	"scanorder-backend/internal/identity"
	"scanorder-backend/internal/models"
	"scanorder-backend/internal/paging"

	"github.com/rs/zerolog"
)

const unauthorized = "This action is unauthorized."

// MenuInvalidator drops cached menu snapshots after catalog changes.
type MenuInvalidator interface {
	InvalidateMenu(ctx context.Context, code string)
}

type noopInvalidator struct{}

func (noopInvalidator) InvalidateMenu(context.Context, string) {}

type Service struct {
	repo   Repository
	audit  audit.Recorder
	menus  MenuInvalidator
	logger zerolog.Logger
}

func NewService(repo Repository, recorder audit.Recorder, menus MenuInvalidator, logger zerolog.Logger) *Service {
	if recorder == nil {
		recorder = audit.Discard{}
	}
	if menus == nil {
		menus = noopInvalidator{}
	}
	return &Service{repo: repo, audit: recorder, menus: menus, logger: logger}
}

func (s *Service) invalidateStore(ctx context.Context, storeID uint) {
	store, err := s.repo.FindStore(ctx, storeID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("store_id", storeID).Msg("menu cache not invalidated")
		return
	}
	s.menus.InvalidateMenu(ctx, store.Code)
}

func storeNotFound(err error) error {
	if database.IsNotFound(err) {
		return apperr.NotFound("Store not found.")
	}
	return err
}

// ----------------------------------------
// STORES
// ----------------------------------------

// ListStores: owners see their own stores, everyone else the active ones.
func (s *Service) ListStores(ctx context.Context, actor identity.Actor, p paging.Params) (paging.Result[models.Store], error) {
	f := StoreFilter{Limit: p.Limit(), Offset: p.Offset()}
	if actor.IsStoreOwner() {
		id := actor.ID
		f.OwnerID = &id
	} else {
		f.ActiveOnly = true
	}

	stores, total, err := s.repo.ListStores(ctx, f)
	if err != nil {
		return paging.Result[models.Store]{}, err
	}
	return paging.NewResult(stores, total, p), nil
}

// GetStore returns the store with categories and products. Inactive stores
// are only visible to their owner and cashiers.
func (s *Service) GetStore(ctx context.Context, actor identity.Actor, id uint) (*models.Store, error) {
	store, err := s.repo.LoadStoreDetail(ctx, id)
	if err != nil {
		return nil, storeNotFound(err)
	}
	if !store.IsActive && !actor.CanManageProducts(store.ID) {
		return nil, apperr.NotFound("Store not found.")
	}
	return store, nil
}

func (s *Service) CreateStore(ctx context.Context, actor identity.Actor, in StoreInput) (*models.Store, error) {
	if !actor.IsStoreOwner() {
		return nil, apperr.Forbidden(unauthorized)
	}
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	store := &models.Store{
		Name:        in.Name,
		Code:        in.Code,
		Description: in.Description,
		Address:     in.Address,
		Phone:       in.Phone,
		OpeningTime: in.OpeningTime,
		ClosingTime: in.ClosingTime,
		IsActive:    in.IsActive == nil || *in.IsActive,
		OwnerID:     actor.ID,
	}
	if err := s.repo.CreateStore(ctx, store); err != nil {
		return nil, translateStoreWrite(err)
	}

	s.audit.Record(ctx, audit.Entry{
		StoreID:     &store.ID,
		Actor:       actor,
		EntityType:  "store",
		EntityID:    store.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Store created: %s (%s)", store.Name, store.Code),
		After:       store,
	})
	return store, nil
}

func (s *Service) UpdateStore(ctx context.Context, actor identity.Actor, id uint, in StoreInput) (*models.Store, error) {
	store, err := s.repo.FindStore(ctx, id)
	if err != nil {
		return nil, storeNotFound(err)
	}
	if !actor.CanManageStore(store.ID) {
		return nil, apperr.Forbidden(unauthorized)
	}
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	before := *store
	store.Name = in.Name
	store.Code = in.Code
	store.Description = in.Description
	store.Address = in.Address
	store.Phone = in.Phone
	store.OpeningTime = in.OpeningTime
	store.ClosingTime = in.ClosingTime
	if in.IsActive != nil {
		store.IsActive = *in.IsActive
	}

	if err := s.repo.SaveStore(ctx, store); err != nil {
		return nil, translateStoreWrite(err)
	}

	s.menus.InvalidateMenu(ctx, before.Code)
	if before.Code != store.Code {
		s.menus.InvalidateMenu(ctx, store.Code)
	}
	s.audit.Record(ctx, audit.Entry{
		StoreID:     &store.ID,
		Actor:       actor,
		EntityType:  "store",
		EntityID:    store.ID,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("Store updated: %s", store.Name),
		Before:      before,
		After:       store,
	})
	return store, nil
}

func (s *Service) DeleteStore(ctx context.Context, actor identity.Actor, id uint) error {
	store, err := s.repo.FindStore(ctx, id)
	if err != nil {
		return storeNotFound(err)
	}
	if !actor.CanManageStore(store.ID) {
		return apperr.Forbidden(unauthorized)
	}

	if err := s.repo.DeleteStore(ctx, store.ID); err != nil {
		if database.IsForeignKey(err) {
			return apperr.Conflict("This store has orders and cannot be deleted. Deactivate it instead.", err)
		}
		return err
	}

	s.menus.InvalidateMenu(ctx, store.Code)
	s.audit.Record(ctx, audit.Entry{
		StoreID:     &store.ID,
		Actor:       actor,
		EntityType:  "store",
		EntityID:    store.ID,
		Action:      models.AuditActionDelete,
		Description: fmt.Sprintf("Store deleted: %s (%s)", store.Name, store.Code),
		Before:      store,
	})
	return nil
}

func translateStoreWrite(err error) error {
	if database.IsDuplicate(err) {
		e := apperr.Conflict("This store code is already taken.", err)
		e.Fields = map[string]string{"code": "This store code is already taken."}
		return e
	}
	return err
}

// ----------------------------------------
// CATEGORIES
// ----------------------------------------

func (s *Service) ListCategories(ctx context.Context, actor identity.Actor, storeID uint) ([]models.Category, error) {
	if _, err := s.GetStore(ctx, actor, storeID); err != nil {
		return nil, err
	}
	return s.repo.ListCategories(ctx, storeID)
}

func (s *Service) CreateCategory(ctx context.Context, actor identity.Actor, storeID uint, in CategoryInput) (*models.Category, error) {
	if _, err := s.repo.FindStore(ctx, storeID); err != nil {
		return nil, storeNotFound(err)
	}
	if !actor.CanManageStore(storeID) {
		return nil, apperr.Forbidden(unauthorized)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	cat := &models.Category{
		StoreID:     storeID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	if in.SortOrder != nil {
		cat.SortOrder = *in.SortOrder
	}
	if err := s.repo.CreateCategory(ctx, cat); err != nil {
		return nil, err
	}

	s.invalidateStore(ctx, storeID)
	s.audit.Record(ctx, audit.Entry{
		StoreID:     &cat.StoreID,
		Actor:       actor,
		EntityType:  "category",
		EntityID:    cat.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Category created: %s", cat.Name),
		After:       cat,
	})
	return cat, nil
}

func (s *Service) UpdateCategory(ctx context.Context, actor identity.Actor, id uint, in CategoryInput) (*models.Category, error) {
	cat, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Category not found.")
		}
		return nil, err
	}
	if !actor.CanManageStore(cat.StoreID) {
		return nil, apperr.Forbidden(unauthorized)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	before := *cat
	cat.Name = strings.TrimSpace(in.Name)
	cat.Description = in.Description
	if in.SortOrder != nil {
		cat.SortOrder = *in.SortOrder
	}
	if in.IsActive != nil {
		cat.IsActive = *in.IsActive
	}
	if err := s.repo.SaveCategory(ctx, cat); err != nil {
		return nil, err
	}

	s.invalidateStore(ctx, cat.StoreID)
	s.audit.Record(ctx, audit.Entry{
		StoreID:     &cat.StoreID,
		Actor:       actor,
		EntityType:  "category",
		EntityID:    cat.ID,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("Category updated: %s", cat.Name),
		Before:      before,
		After:       cat,
	})
	return cat, nil
}

func (s *Service) DeleteCategory(ctx context.Context, actor identity.Actor, id uint) error {
	cat, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return apperr.NotFound("Category not found.")
		}
		return err
	}
	if !actor.CanManageStore(cat.StoreID) {
		return apperr.Forbidden(unauthorized)
	}

	if err := s.repo.DeleteCategory(ctx, cat.ID); err != nil {
		if database.IsForeignKey(err) {
			return apperr.Conflict("This category still has products. Move or delete them first.", err)
		}
		return err
	}

	s.invalidateStore(ctx, cat.StoreID)
	s.audit.Record(ctx, audit.Entry{
		StoreID:     &cat.StoreID,
		Actor:       actor,
		EntityType:  "category",
		EntityID:    cat.ID,
		Action:      models.AuditActionDelete,
		Description: fmt.Sprintf("Category deleted: %s", cat.Name),
		Before:      cat,
	})
	return nil
}

// ----------------------------------------
// PRODUCTS
// ----------------------------------------

// ListProducts is role filtered: owners see their stores, cashiers their
// store, customers the available products of active stores.
func (s *Service) ListProducts(ctx context.Context, actor identity.Actor, p paging.Params) (paging.Result[models.Product], error) {
	f := ProductFilter{Limit: p.Limit(), Offset: p.Offset(), RestrictStores: true}
	switch actor.Role {
	case models.RoleStoreOwner:
		f.StoreIDs = actor.OwnedStoreIDs
	case models.RoleCashier:
		if actor.StoreID != nil {
			f.StoreIDs = []uint{*actor.StoreID}
		}
	case models.RoleCustomer:
		f.RestrictStores = false
		f.AvailableOnly = true
		f.ActiveStoresOnly = true
	}

	products, total, err := s.repo.ListProducts(ctx, f)
	if err != nil {
		return paging.Result[models.Product]{}, err
	}
	return paging.NewResult(products, total, p), nil
}

func (s *Service) GetProduct(ctx context.Context, actor identity.Actor, id uint) (*models.Product, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Product not found.")
		}
		return nil, err
	}
	if actor.CanManageProducts(product.StoreID) {
		return product, nil
	}
	if !actor.IsCustomer() || !product.IsAvailable {
		return nil, apperr.NotFound("Product not found.")
	}
	store, err := s.repo.FindStore(ctx, product.StoreID)
	if err != nil || !store.IsActive {
		return nil, apperr.NotFound("Product not found.")
	}
	return product, nil
}

// checkProductPlacement ensures the store exists, the actor may manage it
// and the category belongs to it.
func (s *Service) checkProductPlacement(ctx context.Context, actor identity.Actor, in ProductInput) error {
	if _, err := s.repo.FindStore(ctx, in.StoreID); err != nil {
		if database.IsNotFound(err) {
			return apperr.Validation(invalidData, map[string]string{"store_id": "The selected store is invalid."})
		}
		return err
	}
	if !actor.CanManageProducts(in.StoreID) {
		return apperr.Forbidden(unauthorized)
	}
	cat, err := s.repo.FindCategory(ctx, in.CategoryID)
	if err != nil {
		if database.IsNotFound(err) {
			return apperr.Validation(invalidData, map[string]string{"category_id": "The selected category is invalid."})
		}
		return err
	}
	if cat.StoreID != in.StoreID {
		return apperr.Validation(invalidData, map[string]string{"category_id": "The category does not belong to the selected store."})
	}
	return nil
}

func (s *Service) CreateProduct(ctx context.Context, actor identity.Actor, in ProductInput) (*models.Product, error) {
	if !actor.IsStoreOwner() && !actor.IsCashier() {
		return nil, apperr.Forbidden(unauthorized)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.checkProductPlacement(ctx, actor, in); err != nil {
		return nil, err
	}

	product := &models.Product{
		StoreID:         in.StoreID,
		CategoryID:      in.CategoryID,
		Name:            strings.TrimSpace(in.Name),
		Description:     in.Description,
		Price:           in.Price.Round(2),
		ImageURL:        in.ImageURL,
		PreparationTime: in.PreparationTime,
		IsAvailable:     in.IsAvailable == nil || *in.IsAvailable,
	}
	if in.SortOrder != nil {
		product.SortOrder = *in.SortOrder
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	s.invalidateStore(ctx, product.StoreID)
	s.audit.Record(ctx, audit.Entry{
		StoreID:     &product.StoreID,
		Actor:       actor,
		EntityType:  "product",
		EntityID:    product.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("Product created: %s (%s)", product.Name, product.Price.StringFixed(2)),
		After:       product,
	})
	return product, nil
}

func (s *Service) UpdateProduct(ctx context.Context, actor identity.Actor, id uint, in ProductInput) (*models.Product, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("Product not found.")
		}
		return nil, err
	}
	if !actor.CanManageProducts(product.StoreID) {
		return nil, apperr.Forbidden(unauthorized)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.checkProductPlacement(ctx, actor, in); err != nil {
		return nil, err
	}

	before := *product
	product.StoreID = in.StoreID
	product.CategoryID = in.CategoryID
	product.Category = nil
	product.Name = strings.TrimSpace(in.Name)
	product.Description = in.Description
	product.Price = in.Price.Round(2)
	product.ImageURL = in.ImageURL
	product.PreparationTime = in.PreparationTime
	if in.IsAvailable != nil {
		product.IsAvailable = *in.IsAvailable
	}
	if in.SortOrder != nil {
		product.SortOrder = *in.SortOrder
	}
	if err := s.repo.SaveProduct(ctx, product); err != nil {
		return nil, err
	}

	s.invalidateStore(ctx, product.StoreID)
	if before.StoreID != product.StoreID {
		s.invalidateStore(ctx, before.StoreID)
	}
	s.audit.Record(ctx, audit.Entry{
		StoreID:     &product.StoreID,
		Actor:       actor,
		EntityType:  "product",
		EntityID:    product.ID,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("Product updated: %s", product.Name),
		Before:      before,
		After:       product,
	})
	return product, nil
}

func (s *Service) DeleteProduct(ctx context.Context, actor identity.Actor, id uint) error {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return apperr.NotFound("Product not found.")
		}
		return err
	}
	if !actor.CanManageProducts(product.StoreID) {
		return apperr.Forbidden(unauthorized)
	}

	if err := s.repo.DeleteProduct(ctx, product.ID); err != nil {
		if database.IsForeignKey(err) {
			return apperr.Conflict("This product appears on orders and cannot be deleted. Mark it unavailable instead.", err)
		}
		return err
	}

	s.invalidateStore(ctx, product.StoreID)
	s.audit.Record(ctx, audit.Entry{
		StoreID:     &product.StoreID,
		Actor:       actor,
		EntityType:  "product",
		EntityID:    product.ID,
		Action:      models.AuditActionDelete,
		Description: fmt.Sprintf("Product deleted: %s", product.Name),
		Before:      product,
	})
	return nil
}
