package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/ec-storefront/internal/api"
	"github.com/example/ec-storefront/internal/auth"
	"github.com/example/ec-storefront/internal/command"
	"github.com/example/ec-storefront/internal/config"
	"github.com/example/ec-storefront/internal/query"
	"github.com/example/ec-storefront/internal/readmodel"
	"github.com/example/ec-storefront/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadDevAPI()
	if err != nil {
		log.Fatalf("[API] %v", err)
	}

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{ServiceName: "storefront-devapi", UseStdout: cfg.TraceStdout})
	if err != nil {
		log.Fatalf("[API] Failed to init tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	log.Println("[API] ========================================")
	log.Println("[API] Storefront development API")
	log.Println("[API] ========================================")
	log.Printf("[API] Session TTL: %s", cfg.SessionTTL)
	log.Println("[API] Store: in-memory (state is lost on restart)")

	readStore := readmodel.NewStore()
	cmdHandler := command.NewHandler(readStore)
	queryHandler := query.NewHandler(readStore)

	if err := cmdHandler.SeedCatalog(cfg.ImageBase); err != nil {
		log.Fatalf("[API] Failed to seed catalog: %v", err)
	}
	log.Printf("[API] Seeded %d categories, %d products",
		len(queryHandler.ListCategories()), len(queryHandler.ListProducts(0)))

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.SessionTTL)

	router := api.NewRouter(api.RouterConfig{
		Handlers:     api.NewHandlers(cmdHandler, queryHandler),
		AuthHandlers: api.NewAuthHandlers(cmdHandler, queryHandler, jwtService, readStore),
		JWTService:   jwtService,
		Revocations:  readStore,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(router, "storefront-devapi"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("[API] Server started on :%s", cfg.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API] Shutdown error: %v", err)
	}
}
