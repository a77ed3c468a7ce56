package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/bazarika/bazarika-backend/api/routes"
	"github.com/bazarika/bazarika-backend/internal/cart"
	"github.com/bazarika/bazarika-backend/internal/checkout"
	"github.com/bazarika/bazarika-backend/internal/inventory"
	"github.com/bazarika/bazarika-backend/internal/notifications"
	"github.com/bazarika/bazarika-backend/internal/orders"
	"github.com/bazarika/bazarika-backend/internal/payments"
	products "github.com/bazarika/bazarika-backend/internal/products"
	"github.com/bazarika/bazarika-backend/internal/returns"
	"github.com/bazarika/bazarika-backend/pkg/config"
	"github.com/bazarika/bazarika-backend/pkg/db"
	"github.com/bazarika/bazarika-backend/pkg/logger"
	"github.com/bazarika/bazarika-backend/pkg/migrate"
	"github.com/bazarika/bazarika-backend/pkg/outbox"
	"github.com/bazarika/bazarika-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	svcs, err := buildServices(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, svcs),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (routes.Services, error) {
	conn := dbClient.DB()

	productsRepo := products.NewRepository(conn)
	inventoryRepo := inventory.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	paymentsRepo := payments.NewRepository(conn)
	returnsRepo := returns.NewRepository(conn)
	notificationsRepo := notifications.NewRepository(conn)
	events := outbox.NewService(outbox.NewRepository(conn), logg)

	inventorySvc, err := inventory.NewService(inventoryRepo, cfg.Inventory.ReservationTTL, logg)
	if err != nil {
		return routes.Services{}, err
	}
	productsSvc, err := products.NewService(productsRepo, inventorySvc)
	if err != nil {
		return routes.Services{}, err
	}
	cartSvc, err := cart.NewService(cartRepo, dbClient, productsRepo, redisClient, cfg.Market, logg)
	if err != nil {
		return routes.Services{}, err
	}
	paymentsSvc, err := payments.NewService(paymentsRepo, ordersRepo, dbClient, payments.NewLoggingGateway(logg), events, logg)
	if err != nil {
		return routes.Services{}, err
	}
	ordersSvc, err := orders.NewService(ordersRepo, dbClient, inventorySvc, paymentsSvc, events, cfg.Market, logg)
	if err != nil {
		return routes.Services{}, err
	}
	checkoutSvc, err := checkout.NewService(
		checkout.NewRedisStore(redisClient),
		dbClient,
		cartSvc,
		productsRepo,
		inventorySvc,
		ordersSvc,
		cfg.Market,
		cfg.Checkout,
		logg,
	)
	if err != nil {
		return routes.Services{}, err
	}
	returnsSvc, err := returns.NewService(returnsRepo, ordersRepo, dbClient, paymentsSvc, events, cfg.Returns, logg)
	if err != nil {
		return routes.Services{}, err
	}
	notificationsSvc, err := notifications.NewService(notificationsRepo, nil, cfg.Notifications, logg)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Products:      productsSvc,
		Inventory:     inventorySvc,
		Cart:          cartSvc,
		Checkout:      checkoutSvc,
		Orders:        ordersSvc,
		Returns:       returnsSvc,
		Payments:      paymentsSvc,
		Notifications: notificationsSvc,
	}, nil
}
