package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"storefront-api/configs"
	orderController "storefront-api/controllers/orders"
	"storefront-api/exchange"
	"storefront-api/gateway"
	"storefront-api/middlewares"
	"storefront-api/repositories"
	"storefront-api/routes"
	"storefront-api/services"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := configs.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	client, err := configs.ConnectDB(context.Background(), cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	log.Info("connected to MongoDB")

	orders := repositories.NewOrderRepo(configs.GetCollection(client, cfg.MongoDatabase, "orders"))
	users := repositories.NewUserRepo(configs.GetCollection(client, cfg.MongoDatabase, "users"))
	rates := exchange.NewStaticRates(cfg.BaseCurrency, cfg.SettlementCurrency, cfg.ExchangeRateFallback)
	paystack := gateway.NewPaystack(cfg.PaystackSecretKey, cfg.GatewayTimeout)

	svc := services.NewOrderService(orders, users, paystack, rates, cfg.BaseCurrency, cfg.SettlementCurrency, log)
	ctrl := orderController.NewOrderController(svc, log, cfg.FrontendURL)

	app := fiber.New()
	app.Use(middlewares.RequestLogger(log))

	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx, nil); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	routes.OrderRoutes(app, ctrl, cfg.JWTSecret)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("shutdown failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.WithError(err).Error("mongo disconnect failed")
	}
}
