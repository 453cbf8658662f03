package auth

import (
	"context"

	"scanorder-backend/internal/models"

	"gorm.io/gorm"
)

type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUser(ctx context.Context, id uint) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListCashiers(ctx context.Context, storeID uint) ([]models.User, error)
}

// StoreLookup resolves what a store owner owns. Implemented by the catalog repository.
type StoreLookup interface {
	OwnedStoreIDs(ctx context.Context, ownerID uint) ([]uint, error)
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) CreateUser(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *GormUserRepository) FindUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) ListCashiers(ctx context.Context, storeID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND role = ?", storeID, models.RoleCashier).
		Order("created_at DESC").
		Find(&users).Error
	return users, err
}
