package database

import (
	"context"
	"fmt"
	"time"

	"scanorder-backend/internal/config"
	"scanorder-backend/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OrderNumberSequence backs order number allocation.
const OrderNumberSequence = "order_number_seq"

// Open connects to Postgres. TranslateError lets repositories match
// gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated instead of driver codes.
func Open(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().Local() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate creates the schema. Constraints AutoMigrate cannot express
// (the users <-> stores cycle, the order number sequence) are added by hand.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Store{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	if err := db.Exec("CREATE SEQUENCE IF NOT EXISTS " + OrderNumberSequence + " START 1").Error; err != nil {
		return fmt.Errorf("create %s: %w", OrderNumberSequence, err)
	}

	var constraintExists bool
	if err := db.Raw(`
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.table_constraints
			WHERE table_name = 'users'
			AND constraint_name = 'fk_users_store'
		)
	`).Scan(&constraintExists).Error; err != nil {
		return fmt.Errorf("check fk_users_store: %w", err)
	}

	if !constraintExists {
		log.Info().Msg("adding users.store_id foreign key")
		if err := db.Exec(`
			ALTER TABLE users
			ADD CONSTRAINT fk_users_store
			FOREIGN KEY (store_id) REFERENCES stores(id) ON DELETE SET NULL
		`).Error; err != nil {
			return fmt.Errorf("add fk_users_store: %w", err)
		}
	}

	log.Info().Msg("database migration completed")
	return nil
}
