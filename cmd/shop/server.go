package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/webtorque7/shop/internal/admin"
	"github.com/webtorque7/shop/internal/cart"
	"github.com/webtorque7/shop/internal/catalog"
	"github.com/webtorque7/shop/internal/hooks"
	"github.com/webtorque7/shop/internal/logger"
	"github.com/webtorque7/shop/internal/modifier"
	"github.com/webtorque7/shop/internal/order"
	"github.com/webtorque7/shop/internal/payment"
	"github.com/webtorque7/shop/internal/receipt"
	"github.com/webtorque7/shop/internal/router"
	storage "github.com/webtorque7/shop/internal/storage/postgres"
	"github.com/webtorque7/shop/internal/util/money"
)

func main() {
	if err := run(); err != nil {
		panic(err)
	}
}

func run() error {
	cfg, err := NewConfig()
	if err != nil {
		log.Fatal(err)
	}
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return err
	}
	sugar := logger.Sugar()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewPostgresStorage(cfg.DatabaseConnection)
	if err != nil {
		log.Fatalf("Failed to initialize Postgres storage: %v", err)
	}
	if err := store.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Warning: failed to close storage: %v", err)
		}
	}()

	precision := int32(cfg.RoundingPrecision)
	chain, err := modifier.NewChain(
		modifier.NewFlatTax(cfg.TaxName, money.FromFloat(cfg.TaxRate), cfg.TaxExclusive, precision),
	)
	if err != nil {
		log.Fatalf("Invalid modifier chain: %v", err)
	}

	registry := hooks.NewRegistry()
	receipts := receipt.NewLogSender(sugar)

	catalogSvc := catalog.NewService(store)
	catalogHandler := catalog.NewHandler(catalogSvc)

	calc := order.NewCalculator(store, catalogSvc, chain, registry, precision)
	orderSvc := order.NewService(store, calc, store, registry, receipts, order.Flags{
		AllowPaying:     cfg.AllowPaying,
		AllowCancelling: cfg.AllowCancelling,
	})
	orderHandler := order.NewHandler(orderSvc)

	cartSvc := cart.NewService(store, store, chain, []string{"Product"})
	cartHandler := cart.NewHandler(cartSvc, orderSvc)

	methods := payment.NewMethodRegistry(map[string]string{
		"card":         "Credit Card",
		"dps":          "DPS Hosted",
		"cheque":       "Cheque",
		"banktransfer": "Bank Transfer",
	})
	httpClient := &http.Client{
		Timeout: 10 * time.Second,
	}
	gateway := &payment.HTTPGatewayClient{
		Client:         httpClient,
		GatewayAddress: cfg.GatewayAddress,
	}
	coordinator := payment.NewCoordinator(store, store, orderSvc, methods, gateway, receipts, registry, sugar)
	paymentHandler := payment.NewHandler(coordinator)

	adminSvc := admin.NewService(store)
	adminHandler := admin.NewHandler(adminSvc, orderSvc)

	r := router.NewRouter(cartHandler, orderHandler, paymentHandler, catalogHandler, adminHandler, []byte(cfg.JWTSecret))

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		payment.DispatcherLoop(
			ctx,
			gateway,
			store,
			coordinator,
			cfg.GatewayWorkers,
			cfg.GatewayInterval,
			sugar,
		)
	}()

	go func() {
		sugar.Infow("starting server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	sugar.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	sugar.Info("server stopped gracefully")
	return nil
}
