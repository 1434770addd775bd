// Package main is the entry point for the larder API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"larder/internal/domain/catalogs/ingredient"
	"larder/internal/domain/catalogs/recipe"
	"larder/internal/domain/deduction"
	"larder/internal/domain/ledger"
	"larder/internal/domain/reports"
	v1 "larder/internal/infrastructure/http/v1"
	"larder/internal/infrastructure/storage/postgres"
	"larder/internal/infrastructure/storage/postgres/catalog_repo"
	"larder/internal/infrastructure/storage/postgres/ledger_repo"
	"larder/internal/infrastructure/storage/postgres/report_repo"
	"larder/pkg/logger"
)

func main() {
	// Load .env if present; real deployments set environment directly
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting larder server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}

	// --- Repositories ---
	ingredientRepo := catalog_repo.NewIngredientRepo(txManager)
	recipeRepo := catalog_repo.NewRecipeRepo(txManager)
	ledgerRepo := ledger_repo.NewLedgerRepo(txManager)
	reportRepo := report_repo.NewReportRepo(txManager)

	// --- Domain services ---
	ingredientService := ingredient.NewService(ingredientRepo)
	recipeService := recipe.NewService(recipeRepo, ingredientRepo)
	ledgerService := ledger.NewService(ledgerRepo, txManager)
	deductionService := deduction.NewService(recipeService, ledgerService, ledgerRepo, txManager)
	reportsService := reports.NewService(reportRepo)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:        pool,
		Logger:      log,
		JWTSecret:   []byte(getEnv("JWT_SECRET", "dev-secret-change-in-production")),
		Audit:       auditService,
		Ingredients: ingredientService,
		Recipes:     recipeService,
		Ledger:      ledgerService,
		Deduction:   deductionService,
		Reports:     reportsService,
	})

	// --- HTTP server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// Periodic pool stats for operators
	statsCtx, stopStats := context.WithCancel(ctx)
	defer stopStats()
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-statsCtx.Done():
				return
			case <-ticker.C:
				postgres.LogPoolStats(statsCtx, pool.Pool)
			}
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
