package memory

import (
	"context"
	"testing"
	"time"

	"github.com/agnesleth/hello-poor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogStore_SaveAndLoad(t *testing.T) {
	store := NewCatalogStore()
	ctx := context.Background()

	catalog := domain.NewCatalog()
	catalog.Add(&domain.SaleItem{Name: "Gul lök", PriceDisplay: "15 kr"})
	catalog.Add(&domain.SaleItem{Name: "Nötfärs", PriceDisplay: "3 för 110 kr"})
	require.NoError(t, store.SaveCatalog(ctx, "1004247", "ICA Kvantum Tuna", catalog))

	// later changes to the saved catalog must not leak into the store
	item, _ := catalog.Get("Gul lök")
	item.PriceDisplay = "1 kr"

	loaded, err := store.LoadCatalog(ctx, "1004247")
	require.NoError(t, err)
	assert.Equal(t, []string{"Gul lök", "Nötfärs"}, loaded.Names())
	onion, _ := loaded.Get("Gul lök")
	assert.Equal(t, "15 kr", onion.PriceDisplay)

	_, err = store.LoadCatalog(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrStoreNotFound)
}

func TestCatalogStore_ListStores(t *testing.T) {
	store := NewCatalogStore()
	ctx := context.Background()
	base := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	store.now = func() time.Time { return base }
	require.NoError(t, store.SaveCatalog(ctx, "b", "Store B", domain.NewCatalog()))
	require.NoError(t, store.SaveCatalog(ctx, "a", "Store A", domain.NewCatalog()))
	store.now = func() time.Time { return base.Add(time.Minute) }
	require.NoError(t, store.SaveCatalog(ctx, "c", "Store C", domain.NewCatalog()))

	stores, err := store.ListStores(ctx)
	require.NoError(t, err)
	require.Len(t, stores, 3)
	assert.Equal(t, "c", stores[0].StoreID)
	assert.Equal(t, "a", stores[1].StoreID)
	assert.Equal(t, "b", stores[2].StoreID)
}

func TestRecipeStore(t *testing.T) {
	store := NewRecipeStore()
	ctx := context.Background()

	require.NoError(t, store.SaveRecipes(ctx, []domain.Recipe{
		{Name: "Tacos", URL: "https://example.se/tacos"},
		{Name: "Pannkakor"},
		{Name: "tacos", URL: "https://example.se/tacos-v2"},
	}))

	all, err := store.ListRecipes(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Tacos", all[0].Name)
	assert.Equal(t, "https://example.se/tacos-v2", all[0].URL)

	limited, err := store.ListRecipes(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	recipe, err := store.FindRecipe(ctx, "PANNKAKOR")
	require.NoError(t, err)
	assert.Equal(t, "Pannkakor", recipe.Name)

	_, err = store.FindRecipe(ctx, "Lasagne")
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	assert.ErrorIs(t, store.SaveRecipes(ctx, []domain.Recipe{{}}), domain.ErrInvalidRequest)
}

func TestRecipeStore_RecommendationRuns(t *testing.T) {
	store := NewRecipeStore()
	ctx := context.Background()
	base := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	latest, err := store.LatestRecommendationRun(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, store.SaveRecommendationRun(ctx, &domain.RecommendationRun{UserID: "user-1", StoreIDs: []string{"1"}, CreatedAt: base}))
	require.NoError(t, store.SaveRecommendationRun(ctx, &domain.RecommendationRun{UserID: "user-2", StoreIDs: []string{"2"}, CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, store.SaveRecommendationRun(ctx, &domain.RecommendationRun{UserID: "user-1", StoreIDs: []string{"3"}, CreatedAt: base.Add(2 * time.Hour)}))

	latest, err = store.LatestRecommendationRun(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, []string{"3"}, latest.StoreIDs)
}
