package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/agnesleth/hello-poor/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err, "open test db")
	t.Cleanup(func() { db.Close() })
	return db
}

func testCatalog() *domain.Catalog {
	amount := decimal.RequireFromString("13.33")
	unit := decimal.RequireFromString("36.666666666666667")
	percent := 27

	catalog := domain.NewCatalog()
	catalog.Add(&domain.SaleItem{
		Name:               "Nötfärs",
		NormalizedName:     "nötfärs",
		PriceDisplay:       "3 för 110 kr",
		DiscountAmount:     &amount,
		DiscountPercentage: &percent,
		UnitPrice:          &unit,
	})
	catalog.Add(&domain.SaleItem{Name: "Gul lök", NormalizedName: "gul lök", PriceDisplay: "15 kr"})
	catalog.Add(&domain.SaleItem{Name: "Arla Mjölk", NormalizedName: "arla mjölk", PriceDisplay: "12.90 kr/st"})
	return catalog
}

func TestCatalogStore_SaveAndLoad(t *testing.T) {
	store := NewCatalogStore(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.SaveCatalog(ctx, "1004247", "ICA Kvantum Tuna", testCatalog()))

	loaded, err := store.LoadCatalog(ctx, "1004247")
	require.NoError(t, err)

	assert.Equal(t, []string{"Nötfärs", "Gul lök", "Arla Mjölk"}, loaded.Names())
	assert.Equal(t, testCatalog().Records(), loaded.Records())

	beef, ok := loaded.Get("Nötfärs")
	require.True(t, ok)
	assert.Equal(t, "nötfärs", beef.NormalizedName)
	require.NotNil(t, beef.UnitPrice)
	assert.True(t, beef.UnitPrice.Equal(decimal.RequireFromString("36.666666666666667")))
	require.NotNil(t, beef.DiscountPercentage)
	assert.Equal(t, 27, *beef.DiscountPercentage)

	onion, _ := loaded.Get("Gul lök")
	assert.False(t, onion.HasDiscount())
	assert.Nil(t, onion.UnitPrice)
}

func TestCatalogStore_SaveReplaces(t *testing.T) {
	store := NewCatalogStore(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.SaveCatalog(ctx, "1004247", "ICA Kvantum Tuna", testCatalog()))

	replacement := domain.NewCatalog()
	replacement.Add(&domain.SaleItem{Name: "Bananer", PriceDisplay: "19.90 kr/kg"})
	require.NoError(t, store.SaveCatalog(ctx, "1004247", "ICA Kvantum Tuna", replacement))

	loaded, err := store.LoadCatalog(ctx, "1004247")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bananer"}, loaded.Names())
}

func TestCatalogStore_LoadUnknownStore(t *testing.T) {
	store := NewCatalogStore(setupTestDB(t))

	catalog, err := store.LoadCatalog(context.Background(), "missing")

	assert.Nil(t, catalog)
	assert.ErrorIs(t, err, domain.ErrStoreNotFound)
}

func TestCatalogStore_EmptyCatalog(t *testing.T) {
	store := NewCatalogStore(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.SaveCatalog(ctx, "empty", "ICA Nära", domain.NewCatalog()))

	loaded, err := store.LoadCatalog(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
}

func TestCatalogStore_ListStores(t *testing.T) {
	store := NewCatalogStore(setupTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	require.NoError(t, store.SaveCatalog(ctx, "1004247", "ICA Kvantum Tuna", testCatalog()))

	store.now = func() time.Time { return base.Add(time.Hour) }
	require.NoError(t, store.SaveCatalog(ctx, "1003380", "ICA Nära Älvsjö", domain.NewCatalog()))

	stores, err := store.ListStores(ctx)
	require.NoError(t, err)
	require.Len(t, stores, 2)

	assert.Equal(t, "1003380", stores[0].StoreID)
	assert.Equal(t, 0, stores[0].ItemCount)
	assert.Equal(t, "ICA Kvantum Tuna", stores[1].StoreName)
	assert.Equal(t, 3, stores[1].ItemCount)
	assert.True(t, stores[1].ScrapedAt.Equal(base))
}
