package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/catalog-service/internal/config"
	"github.com/tuanvumaihuynh/catalog-service/internal/model"
	"github.com/tuanvumaihuynh/catalog-service/pkg/ptr"
	"github.com/tuanvumaihuynh/catalog-service/pkg/validator"
)

type testEnv struct {
	store        *memStore
	db           *fakeDB
	objects      *fakeObjectStore
	cache        *memCache
	categoryRepo *fakeCategoryRepo
	imageRepo    *fakeImageRepo

	categories CategoryService
	products   ProductService
	prices     PriceService
	inventory  InventoryService
	images     ImageService
}

func defaultCatalogConfig() config.Catalog {
	return config.Catalog{
		PriceMode:        config.PriceModeAppend,
		DefaultCurrency:  "KZT",
		SlugMaxAttempts:  3,
		DefaultPageSize:  25,
		MaxPageSize:      100,
		CategoryCacheTTL: time.Minute,
	}
}

func newTestEnv(t *testing.T, cfg config.Catalog) *testEnv {
	t.Helper()

	store := newMemStore()
	env := &testEnv{
		store:        store,
		db:           &fakeDB{store: store},
		objects:      newFakeObjectStore(),
		cache:        &memCache{data: map[string][]byte{}},
		categoryRepo: &fakeCategoryRepo{m: store, conflicts: map[string]int{}},
		imageRepo:    &fakeImageRepo{m: store},
	}

	logger := discardLogger()
	v := validator.MustNewDefaultValidator()
	productRepo := fakeProductRepo{m: store}
	priceRepo := fakePriceRepo{m: store}
	inventoryRepo := fakeInventoryRepo{m: store}
	outboxRepo := fakeOutboxRepo{m: store}

	env.categories = NewCategoryService(cfg, logger, env.db, v, env.cache, env.categoryRepo, productRepo, outboxRepo)
	env.products = NewProductService(cfg, logger, env.db, v, env.objects,
		productRepo, env.categoryRepo, priceRepo, inventoryRepo, env.imageRepo, outboxRepo)
	env.prices = NewPriceService(cfg, logger, env.db, v, productRepo, priceRepo, outboxRepo)
	env.inventory = NewInventoryService(logger, env.db, inventoryRepo, outboxRepo)
	env.images = NewImageService(logger, env.db, v, env.objects, productRepo, env.imageRepo)

	return env
}

// createProduct stores a product with an optional price and stock level.
func (e *testEnv) createProduct(t *testing.T, sku, price string, qty *int) model.Product {
	t.Helper()

	params := CreateProductParams{Sku: sku, Name: "Product " + sku, Quantity: qty}
	if price != "" {
		params.Price = ptr.New(decimal.RequireFromString(price))
	}

	p, err := e.products.CreateProduct(context.Background(), params)
	require.NoError(t, err)
	return p
}

func (e *testEnv) createCategory(t *testing.T, name string) model.Category {
	t.Helper()

	c, err := e.categories.CreateCategory(context.Background(), CreateCategoryParams{Name: name})
	require.NoError(t, err)
	return c
}

func productIDs(products []model.Product) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}
