// Package main provides the crowdsale coordinator service:
// - HTTP JSON API for sale operations (start, allowlist, contribute, release, withdraw)
// - WebSocket feed broadcasting sale events
// - ClickHouse analytics sink for the event history
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/holiman/uint256"

	"token-crowdsale/internal/crowdsale"
	"token-crowdsale/internal/domain"
	"token-crowdsale/internal/events"
	"token-crowdsale/internal/identity"
	"token-crowdsale/internal/observability"
	"token-crowdsale/internal/storage"
	chstore "token-crowdsale/internal/storage/clickhouse"
	"token-crowdsale/internal/storage/memory"
	"token-crowdsale/internal/storage/migrations"
	pgstore "token-crowdsale/internal/storage/postgres"
	"token-crowdsale/internal/token"
)

// allStores holds all storage implementations.
type allStores struct {
	saleStore      storage.SaleStore
	purchaseStore  storage.PurchaseStore
	allowlistStore storage.AllowlistStore
	saleEventStore storage.SaleEventStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "API HTTP address")
	metricsAddr := flag.String("metrics-addr", envOr("METRICS_ADDR", ":9090"), "Prometheus metrics HTTP address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	adminKey := flag.String("admin", os.Getenv("ADMIN_IDENTITY"), "Administrator identity (base58 ed25519 public key)")
	accountKey := flag.String("account", os.Getenv("COORDINATOR_ACCOUNT"), "Coordinator token account identity (base58 ed25519 public key)")
	tokenSupply := flag.Int64("token-supply", envInt64("TOKEN_SUPPLY", 1_000_000_000), "Total token supply minted to the coordinator account")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *adminKey == "" {
		logger.Fatal("--admin is required")
	}
	if *accountKey == "" {
		logger.Fatal("--account is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}
	if *tokenSupply <= 0 {
		logger.Fatal("--token-supply must be positive")
	}

	admin, err := identity.Parse(*adminKey)
	if err != nil {
		logger.Fatalf("Invalid --admin identity: %v", err)
	}
	account, err := identity.Parse(*accountKey)
	if err != nil {
		logger.Fatalf("Invalid --account identity: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Create stores (runs migrations for database-backed mode)
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Token ledger with the full supply minted to the coordinator account
	ledger := token.NewMemoryLedger(account, uint256.NewInt(uint64(*tokenSupply)))

	// Event bus feeding the WebSocket hub and the analytics sink
	bus := events.NewBus()
	bus.Start()
	defer bus.Stop()

	bus.Subscribe("", func(ev domain.SaleEvent) {
		if err := stores.saleEventStore.Insert(context.Background(), &ev); err != nil {
			logger.Printf("Failed to store sale event %s: %v", ev.Type, err)
		}
	})

	hub := newHub(logger)
	bus.Subscribe("", hub.broadcast)

	// Coordinator
	coord := crowdsale.NewCoordinator(crowdsale.Deps{
		Administrator: admin,
		Account:       account,
		Ledger:        ledger,
		Clock:         crowdsale.SystemClock{},
		Sales:         stores.saleStore,
		Purchases:     stores.purchaseStore,
		Allowlist:     stores.allowlistStore,
		Bus:           bus,
		Logger:        log.New(os.Stdout, "[coordinator] ", log.LstdFlags|log.Lshortfile),
	})
	if err := coord.Restore(ctx); err != nil {
		logger.Fatalf("Failed to restore coordinator state: %v", err)
	}

	// HTTP servers
	apiServer := &http.Server{
		Addr:    *listenAddr,
		Handler: newAPI(coord, hub, logger).routes(),
	}
	metricsServer := &http.Server{
		Addr:    *metricsAddr,
		Handler: metricsMux(),
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Printf("API listening on %s", *listenAddr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()
	go func() {
		logger.Printf("Metrics listening on %s", *metricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-errCh:
		logger.Printf("Server error: %v", err)
	}
	cancel()

	// Wait for second signal for immediate shutdown
	go func() {
		sig := <-sigCh
		logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
		os.Exit(1)
	}()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("API shutdown error: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Metrics shutdown error: %v", err)
	}
	hub.closeAll()

	logger.Println("Shutdown complete")
}

// createStores creates all required stores and runs migrations.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool, logger *log.Logger) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			saleStore:      memory.NewSaleStore(),
			purchaseStore:  memory.NewPurchaseStore(),
			allowlistStore: memory.NewAllowlistStore(),
			saleEventStore: memory.NewSaleEventStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}
	logger.Println("PostgreSQL migrations applied")

	// ClickHouse
	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}
	logger.Println("ClickHouse migrations applied")

	stores := &allStores{
		// PostgreSQL stores (sale state)
		saleStore:      pgstore.NewSaleStore(pool),
		purchaseStore:  pgstore.NewPurchaseStore(pool),
		allowlistStore: pgstore.NewAllowlistStore(pool),

		// ClickHouse store (analytics)
		saleEventStore: chstore.NewSaleEventStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// metricsMux serves health and Prometheus metrics.
func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	return mux
}

// envOr returns the env value or a default.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt64 returns the env value parsed as int64 or a default.
func envInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var n int64
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return def
	}
	return n
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
