package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jtorres-dev/storefront-backend/pkg/db/models"
)

func setupProductsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL,
  discount_percent NUMERIC NOT NULL DEFAULT 0,
  stock INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, price string, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:    uuid.New(),
		Name:  "Test Product",
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestFindByIDs(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := seedProduct(t, db, "10.00", 5)
	second := seedProduct(t, db, "20.00", 3)
	missing := uuid.New()

	found, err := repo.FindByIDs(ctx, []uuid.UUID{first.ID, second.ID, missing})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Contains(t, found, first.ID)
	assert.Contains(t, found, second.ID)
	assert.NotContains(t, found, missing)
}

func TestDecrementStock(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, "10.00", 5)

	require.NoError(t, repo.DecrementStock(ctx, product.ID, 2))

	loaded, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Stock)
}

func TestDecrementStockFloorsAtZero(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, "10.00", 1)

	require.NoError(t, repo.DecrementStock(ctx, product.ID, 10))

	loaded, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Stock)
}

func TestDecrementStockIgnoresNonPositiveQty(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, "10.00", 5)

	require.NoError(t, repo.DecrementStock(ctx, product.ID, 0))
	require.NoError(t, repo.DecrementStock(ctx, product.ID, -3))

	loaded, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.Stock)
}
