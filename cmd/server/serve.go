package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"scanorder-backend/internal/apperr"
	"scanorder-backend/internal/audit"
	"scanorder-backend/internal/auth"
	"scanorder-backend/internal/catalog"
	"scanorder-backend/internal/config"
	"scanorder-backend/internal/dashboard"
	"scanorder-backend/internal/database"
	"scanorder-backend/internal/logging"
	"scanorder-backend/internal/models"
	"scanorder-backend/internal/order"
	"scanorder-backend/internal/scan"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not run schema migration on startup")
}

type services struct {
	auth      *auth.Service
	audit     *audit.Service
	catalog   *catalog.Service
	orders    *order.Engine
	scan      *scan.Gateway
	dashboard *dashboard.Aggregator
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	if !skipMigrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var publisher audit.Publisher
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kp := audit.NewKafkaPublisher(brokers, cfg.KafkaAuditTopic, logger)
		defer kp.Close()
		publisher = kp
		logger.Info().Strs("brokers", brokers).Str("topic", cfg.KafkaAuditTopic).Msg("audit events enabled")
	}

	// A nil interface, not a nil *RedisMenuCache, turns caching off.
	var menus scan.MenuCache
	var invalidator catalog.MenuInvalidator
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, menu reads fall back to the database")
		}
		cache := scan.NewRedisMenuCache(rdb, cfg.MenuCacheTTL, logger)
		menus, invalidator = cache, cache
	}

	svc := buildServices(cfg, db, publisher, menus, invalidator, logger)
	app := newApp(cfg, db, svc, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.HTTPPort).Msg("server listening")
		errCh <- app.Listen(":" + cfg.HTTPPort)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}

func buildServices(cfg *config.Config, db *gorm.DB, publisher audit.Publisher, menus scan.MenuCache, invalidator catalog.MenuInvalidator, logger zerolog.Logger) services {
	users := auth.NewGormUserRepository(db)
	stores := catalog.NewGormRepository(db)
	orders := order.NewGormRepository(db)

	auditSvc := audit.NewService(audit.NewGormRepository(db), publisher, logger)
	return services{
		auth:    auth.NewService(users, stores, cfg.JWTSecret, cfg.JWTTTL),
		audit:   auditSvc,
		catalog: catalog.NewService(stores, auditSvc, invalidator, logger),
		orders: order.NewEngine(orders, stores, auditSvc, logger,
			order.WithPolicy(order.PolicyFor(cfg.OrderStrictTransitions)),
			order.WithNumberAttempts(cfg.OrderNumberAttempts),
		),
		scan:      scan.NewGateway(stores, menus, logger),
		dashboard: dashboard.NewAggregator(orders, stores, logger),
	}
}

func newApp(cfg *config.Config, db *gorm.DB, svc services, logger zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "scanorder",
		ErrorHandler: apperr.ErrorHandler(logger),
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(logging.RequestLogger(logger, auth.ActorID))

	app.Get("/health-check", healthHandler(db))

	api := app.Group("/api")

	// Public
	api.Post("/auth/register", auth.RegisterHandler(svc.auth))
	api.Post("/auth/login", auth.LoginHandler(svc.auth))
	api.Post("/scan", scan.ScanHandler(svc.scan))
	api.Get("/scan/:code", scan.LookupHandler(svc.scan))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(svc.auth))

	protected.Get("/auth/me", auth.MeHandler(svc.auth))

	protected.Get("/dashboard", dashboard.DashboardHandler(svc.dashboard))
	protected.Get("/dashboard/revenue-chart", dashboard.RevenueChartHandler(svc.dashboard))

	// Orders
	protected.Get("/orders", order.ListOrdersHandler(svc.orders))
	protected.Post("/orders", auth.RequireRole(models.RoleCustomer), order.CreateOrderHandler(svc.orders))
	protected.Get("/orders/:id", order.GetOrderHandler(svc.orders))
	protected.Put("/orders/:id", order.TransitionOrderHandler(svc.orders))
	protected.Delete("/orders/:id", order.DeleteOrderHandler(svc.orders))

	// Stores
	protected.Get("/stores", catalog.ListStoresHandler(svc.catalog))
	protected.Post("/stores", auth.RequireRole(models.RoleStoreOwner), catalog.CreateStoreHandler(svc.catalog))
	protected.Get("/stores/:id", catalog.GetStoreHandler(svc.catalog))
	protected.Put("/stores/:id", catalog.UpdateStoreHandler(svc.catalog))
	protected.Delete("/stores/:id", catalog.DeleteStoreHandler(svc.catalog))
	protected.Get("/stores/:id/cashiers", auth.RequireRole(models.RoleStoreOwner), auth.ListCashiersHandler(svc.auth))
	protected.Post("/stores/:id/cashiers", auth.RequireRole(models.RoleStoreOwner), auth.CreateCashierHandler(svc.auth))

	// Categories
	protected.Get("/stores/:id/categories", catalog.ListCategoriesHandler(svc.catalog))
	protected.Post("/stores/:id/categories", catalog.CreateCategoryHandler(svc.catalog))
	protected.Put("/categories/:id", catalog.UpdateCategoryHandler(svc.catalog))
	protected.Delete("/categories/:id", catalog.DeleteCategoryHandler(svc.catalog))

	// Products
	protected.Get("/products", catalog.ListProductsHandler(svc.catalog))
	protected.Post("/products", catalog.CreateProductHandler(svc.catalog))
	protected.Get("/products/:id", catalog.GetProductHandler(svc.catalog))
	protected.Put("/products/:id", catalog.UpdateProductHandler(svc.catalog))
	protected.Delete("/products/:id", catalog.DeleteProductHandler(svc.catalog))
	protected.Post("/stores/:id/menu-order", catalog.ImportMenuOrderHandler(svc.catalog))

	// Audit logs
	protected.Get("/audit-logs", auth.RequireRole(models.RoleStoreOwner), audit.ListAuditLogsHandler(svc.audit))

	return app
}

// GET /health-check
func healthHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
