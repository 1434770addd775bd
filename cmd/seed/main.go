// Package main provides a CLI tool for seeding the database with demo data:
// a small ingredient catalog, opening batches and a few recipes.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"larder/internal/core/id"
	"larder/internal/core/types"
	"larder/internal/domain/catalogs/ingredient"
	"larder/internal/domain/catalogs/recipe"
	"larder/internal/domain/ledger"
	"larder/internal/infrastructure/storage/postgres"
	"larder/internal/infrastructure/storage/postgres/catalog_repo"
	"larder/internal/infrastructure/storage/postgres/ledger_repo"
	"larder/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)
	ingredientRepo := catalog_repo.NewIngredientRepo(txManager)
	recipeRepo := catalog_repo.NewRecipeRepo(txManager)
	ledgerRepo := ledger_repo.NewLedgerRepo(txManager)

	ingredientService := ingredient.NewService(ingredientRepo)
	recipeService := recipe.NewService(recipeRepo, ingredientRepo)
	ledgerService := ledger.NewService(ledgerRepo, txManager)

	ingredients, err := seedIngredients(ctx, ingredientService, log)
	if err != nil {
		log.Fatalw("failed to seed ingredients", "error", err)
	}

	if err := seedBatches(ctx, ledgerService, ingredients, log); err != nil {
		log.Fatalw("failed to seed batches", "error", err)
	}

	if err := seedRecipes(ctx, recipeService, ingredients, log); err != nil {
		log.Fatalw("failed to seed recipes", "error", err)
	}

	log.Info("seeding completed successfully")
}

type seedIngredient struct {
	name     string
	category string
	unit     ingredient.Unit
	cost     string
	minStock float64
}

var catalog = []seedIngredient{
	{"Flour", "dry goods", ingredient.UnitKilogram, "1.20", 10},
	{"Tomato Sauce", "sauces", ingredient.UnitLiter, "2.50", 5},
	{"Mozzarella", "dairy", ingredient.UnitKilogram, "7.80", 3},
	{"Basil", "herbs", ingredient.UnitGram, "0.04", 100},
	{"Olive Oil", "oils", ingredient.UnitMillilit, "0.01", 500},
	{"Ground Beef", "meat", ingredient.UnitKilogram, "9.50", 4},
}

func seedIngredients(ctx context.Context, svc *ingredient.Service, log *logger.Logger) (map[string]id.ID, error) {
	out := make(map[string]id.ID, len(catalog))

	for _, s := range catalog {
		ing := ingredient.New(s.name, s.category, s.unit, types.MustMoney(s.cost))
		ing.MinimumStock = types.NewQuantityFromFloat64(s.minStock)

		if err := svc.Create(ctx, ing); err != nil {
			return nil, fmt.Errorf("create %s: %w", s.name, err)
		}
		out[s.name] = ing.ID
		log.Infow("ingredient created", "name", s.name, "id", ing.ID)
	}

	return out, nil
}

func seedBatches(ctx context.Context, svc *ledger.Service, ingredients map[string]id.ID, log *logger.Logger) error {
	now := time.Now().UTC()

	type seedBatch struct {
		ingredient string
		number     string
		quantity   float64
		cost       string
		expiryDays int
	}

	batches := []seedBatch{
		{"Flour", "FLR-001", 25, "1.15", 180},
		{"Flour", "FLR-002", 25, "1.22", 210},
		{"Tomato Sauce", "TMS-001", 12, "2.40", 30},
		{"Mozzarella", "MOZ-001", 8, "7.50", 14},
		{"Basil", "BSL-001", 500, "0.04", 7},
		{"Olive Oil", "OIL-001", 5000, "0.01", 365},
		{"Ground Beef", "BEF-001", 10, "9.20", 5},
	}

	for _, s := range batches {
		ingredientID, ok := ingredients[s.ingredient]
		if !ok {
			return fmt.Errorf("unknown ingredient %s", s.ingredient)
		}

		b, err := svc.CreateBatch(ctx, ledger.CreateBatchInput{
			IngredientID:   ingredientID,
			BatchNumber:    s.number,
			Quantity:       types.NewQuantityFromFloat64(s.quantity),
			UnitCost:       types.MustMoney(s.cost),
			ExpirationDate: now.AddDate(0, 0, s.expiryDays),
			ReceivedDate:   now,
			Actor:          "seed",
		})
		if err != nil {
			return fmt.Errorf("create batch %s: %w", s.number, err)
		}
		log.Infow("batch received", "number", s.number, "id", b.ID)
	}

	return nil
}

func seedRecipes(ctx context.Context, svc *recipe.Service, ingredients map[string]id.ID, log *logger.Logger) error {
	margherita := recipe.New(id.New(), "Pizza Margherita", 1)
	margherita.Lines = []recipe.Line{
		{RecipeID: margherita.ID, IngredientID: ingredients["Flour"], QuantityPerServing: types.NewQuantityFromFloat64(0.25), Unit: "kg", PreparationOrder: 1},
		{RecipeID: margherita.ID, IngredientID: ingredients["Tomato Sauce"], QuantityPerServing: types.NewQuantityFromFloat64(0.1), Unit: "l", PreparationOrder: 2},
		{RecipeID: margherita.ID, IngredientID: ingredients["Mozzarella"], QuantityPerServing: types.NewQuantityFromFloat64(0.15), Unit: "kg", PreparationOrder: 3},
		{RecipeID: margherita.ID, IngredientID: ingredients["Basil"], QuantityPerServing: types.NewQuantityFromFloat64(5), Unit: "g", IsOptional: true, PreparationOrder: 4},
	}

	bolognese := recipe.New(id.New(), "Spaghetti Bolognese", 2)
	bolognese.Lines = []recipe.Line{
		{RecipeID: bolognese.ID, IngredientID: ingredients["Ground Beef"], QuantityPerServing: types.NewQuantityFromFloat64(0.2), Unit: "kg", PreparationOrder: 1},
		{RecipeID: bolognese.ID, IngredientID: ingredients["Tomato Sauce"], QuantityPerServing: types.NewQuantityFromFloat64(0.15), Unit: "l", PreparationOrder: 2},
		{RecipeID: bolognese.ID, IngredientID: ingredients["Olive Oil"], QuantityPerServing: types.NewQuantityFromFloat64(15), Unit: "ml", IsOptional: true, PreparationOrder: 3},
	}

	for _, rec := range []*recipe.Recipe{margherita, bolognese} {
		if err := svc.Create(ctx, rec); err != nil {
			return fmt.Errorf("create recipe %s: %w", rec.Name, err)
		}
		log.Infow("recipe created", "name", rec.Name, "product_id", rec.ProductID, "total_cost", rec.TotalCost)
	}

	return nil
}
