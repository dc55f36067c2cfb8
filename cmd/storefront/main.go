package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/ec-storefront/internal/client"
	"github.com/example/ec-storefront/internal/config"
	"github.com/example/ec-storefront/internal/infrastructure/kafka"
	"github.com/example/ec-storefront/internal/infrastructure/storage"
	"github.com/example/ec-storefront/internal/telemetry"
)

const usageText = `usage: storefront [flags] COMMAND [ARGS]

Catalog:
  categories
  products [-category ID]
  product ID

Local cart and orders:
  cart [show]
  cart add PRODUCT_ID [QTY]
  cart remove PRODUCT_ID
  cart clear
  cart sync                  replace the server cart with the local lines
  checkout                   record a local order per cart line
  orders [-remote]
  order [-remote] ID
  order-status ID STATUS     pending, shipped, delivered or cancelled
  place-order [-address A] [-phone P] [-payment M]

Account:
  register USERNAME EMAIL PASSWORD
  login USERNAME PASSWORD
  logout
  profile
  status
  watch                      follow changes from other sessions (needs KAFKA_BROKERS)

Flags:
`

func main() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usageText)
		flag.PrintDefaults()
	}
	storageDSN := flag.String("storage", "", "storage DSN (overrides STOREFRONT_STORAGE)")
	apiURL := flag.String("api", "", "API base URL (overrides STOREFRONT_API_BASE_URL)")
	flag.Parse()

	if err := run(*storageDSN, *apiURL, flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "%v\n\n", err)
			flag.Usage()
			os.Exit(2)
		}
		log.Fatalf("[Storefront] %v", err)
	}
}

func run(storageDSN, apiURL string, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if storageDSN != "" {
		cfg.StorageDSN = storageDSN
	}
	if apiURL != "" {
		cfg.APIBaseURL = apiURL
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{ServiceName: "storefront", UseStdout: cfg.TraceStdout})
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("[Storefront] Failed to flush traces: %v", err)
		}
	}()

	opened, err := storage.Open(ctx, cfg.StorageDSN, cfg.StorageNamespace)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer opened.Close()

	var kv storage.KeyValue = opened
	var feed *kafka.ChangeFeed
	if cfg.FeedEnabled() {
		feed = kafka.NewChangeFeed(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.Origin)
		defer feed.Close()
		kv = storage.Publishing(opened, feed, cfg.Origin)

		go func() {
			if err := feed.Run(ctx); err != nil {
				log.Printf("[Storefront] Change feed stopped: %v", err)
			}
		}()
		log.Printf("[Storefront] Following changes on %s as %s", cfg.KafkaTopic, cfg.Origin)
	}

	api, err := client.New(client.Options{BaseURL: cfg.APIBaseURL, Timeout: cfg.HTTPTimeout})
	if err != nil {
		return err
	}

	app := NewApp(kv, api, os.Stdout)
	if feed != nil {
		defer app.Follow(feed)()
	}
	return app.Run(ctx, args)
}
