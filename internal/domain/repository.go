package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching serialized values
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// OfferPage is the candidate discovery result for one store's offer page
type OfferPage struct {
	StoreID    string
	StoreName  string
	Candidates []Candidate
}

// OfferSource fetches the raw candidate blocks of a store's offer page
type OfferSource interface {
	FetchOffers(ctx context.Context, storeID string) (*OfferPage, error)
}

// StoreInfo describes a store with a persisted catalog
type StoreInfo struct {
	StoreID   string    `json:"store_id"`
	StoreName string    `json:"store_name"`
	ItemCount int       `json:"item_count"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// CatalogRepository persists one catalog per store
type CatalogRepository interface {
	SaveCatalog(ctx context.Context, storeID, storeName string, catalog *Catalog) error
	LoadCatalog(ctx context.Context, storeID string) (*Catalog, error)
	ListStores(ctx context.Context) ([]StoreInfo, error)
}

// RecipeRepository persists recipes and recommendation runs
type RecipeRepository interface {
	SaveRecipes(ctx context.Context, recipes []Recipe) error
	ListRecipes(ctx context.Context, limit int) ([]Recipe, error)
	FindRecipe(ctx context.Context, name string) (*Recipe, error)
	SaveRecommendationRun(ctx context.Context, run *RecommendationRun) error
	// LatestRecommendationRun returns nil without error when the user has no runs
	LatestRecommendationRun(ctx context.Context, userID string) (*RecommendationRun, error)
}

// RecipeRecommender picks recipes that use sale items
type RecipeRecommender interface {
	RecommendRecipes(ctx context.Context, saleItems []string, preferences []string, recipes []Recipe) ([]RecipeSuggestion, error)
}
