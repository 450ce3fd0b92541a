// Package testdb opens throwaway databases for tests.
package testdb

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shirin_shop/internal/models"
	"github.com/Skotchmaster/shirin_shop/internal/repo"
	"github.com/Skotchmaster/shirin_shop/pkg/db"
)

// PostgresEnv names the DSN used by the Postgres-only tests.
const PostgresEnv = "SHOP_TEST_DATABASE_URL"

// SQLite returns a migrated private in-memory database.
func SQLite(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	require.NoError(t, (&repo.GormRepo{DB: gdb}).Migrate(context.Background()))
	return gdb
}

// Postgres returns a migrated, emptied database or skips the test when
// SHOP_TEST_DATABASE_URL is not set.
func Postgres(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(PostgresEnv)
	if dsn == "" {
		t.Skip(PostgresEnv + " not set")
	}
	gdb, err := db.Open(context.Background(), db.DriverPostgres, dsn)
	require.NoError(t, err)
	require.NoError(t, (&repo.GormRepo{DB: gdb}).Migrate(context.Background()))

	truncate := func() {
		gdb.Exec("TRUNCATE TABLE cart_items, products, categories, users RESTART IDENTITY CASCADE")
	}
	truncate()
	t.Cleanup(func() {
		truncate()
		_ = db.Close(gdb)
	})
	return gdb
}

// Seed helpers keep fixtures short.

func Category(t *testing.T, gdb *gorm.DB, name string) *models.Category {
	t.Helper()
	c := &models.Category{Name: name}
	require.NoError(t, gdb.Create(c).Error)
	return c
}

func Product(t *testing.T, gdb *gorm.DB, categoryID uint, name string, price float64) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Description: name + " description", Price: price, CategoryID: categoryID, Stock: 10}
	require.NoError(t, gdb.Create(p).Error)
	return p
}

func User(t *testing.T, gdb *gorm.DB, username string, admin bool) *models.User {
	t.Helper()
	u := &models.User{Username: username, PasswordHash: "x", IsAdmin: admin}
	require.NoError(t, gdb.Create(u).Error)
	return u
}
