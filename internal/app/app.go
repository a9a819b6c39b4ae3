package app

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/agnesleth/hello-poor/config"
	"github.com/agnesleth/hello-poor/internal/domain"
	"github.com/agnesleth/hello-poor/internal/infrastructure/cache"
	"github.com/agnesleth/hello-poor/internal/infrastructure/ica"
	"github.com/agnesleth/hello-poor/internal/infrastructure/llm"
	"github.com/agnesleth/hello-poor/internal/infrastructure/memory"
	"github.com/agnesleth/hello-poor/internal/infrastructure/sqlite"
	"github.com/agnesleth/hello-poor/internal/usecase"
)

// App holds the services shared by the HTTP server and the CLI
type App struct {
	Offers          *usecase.OfferService
	Recommendations *usecase.RecommendationService
	Matcher         *usecase.MatchingService
	Cache           *cache.MemoryCache

	db *sql.DB
}

// New wires storage, the offer site client, the recommender and the usecase layer from cfg
func New(cfg *config.Config) (*App, error) {
	debug := cfg.Matching.EnableDebugLogging

	catalogs, recipes, db, err := openStorage(cfg.Storage)
	if err != nil {
		return nil, err
	}

	memoryCache := cache.NewMemoryCache()

	icaClient := ica.NewClient(ica.ClientConfig{
		BaseURL:           cfg.Scraper.BaseURL,
		UserAgent:         cfg.Scraper.UserAgent,
		RequestsPerSecond: cfg.RateLimit.Scrape,
		Burst:             cfg.RateLimit.Burst,
		Timeout:           cfg.Scraper.Timeout,
	})
	icaClient.SetDebug(debug)

	var recommender domain.RecipeRecommender
	if cfg.OpenAI.APIKey != "" {
		openaiRecommender := llm.NewRecommender(llm.RecommenderConfig{
			APIKey:          cfg.OpenAI.APIKey,
			Model:           cfg.OpenAI.Model,
			BaseURL:         cfg.OpenAI.BaseURL,
			Recommendations: cfg.OpenAI.Recommendations,
		})
		openaiRecommender.SetDebug(debug)
		recommender = openaiRecommender
	} else {
		log.Printf("WARNING: openai.api_key not set, recommendations are disabled")
	}

	cleaner := usecase.NewProductNameCleaner(CleanerConfig(cfg.Cleaner, debug))
	extractor := usecase.NewSaleItemExtractor(cleaner, usecase.NewPriceParser(debug), debug)
	matcher := usecase.NewMatchingService(usecase.MatchConfig{
		Threshold:          cfg.Matching.Threshold,
		TermWeights:        TermWeights(cfg.Matching),
		EnableDebugLogging: debug,
	})

	offers := usecase.NewOfferService(icaClient, catalogs, memoryCache, extractor, matcher, usecase.OfferServiceConfig{
		CacheTTL:           cfg.Cache.TTL,
		MaxConcurrent:      cfg.Scraper.MaxConcurrent,
		EnableDebugLogging: debug,
	})

	recommendations := usecase.NewRecommendationService(offers, recipes, recommender, matcher, usecase.RecommendationConfig{
		MaxRecipes:         cfg.OpenAI.MaxRecipes,
		EnableDebugLogging: debug,
	})

	return &App{
		Offers:          offers,
		Recommendations: recommendations,
		Matcher:         matcher,
		Cache:           memoryCache,
		db:              db,
	}, nil
}

// Close stops the cache janitor and closes the database, if any
func (a *App) Close() error {
	a.Cache.Close()
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func openStorage(cfg config.StorageConfig) (domain.CatalogRepository, domain.RecipeRepository, *sql.DB, error) {
	if cfg.Type == "memory" {
		log.Printf("Storage: in-memory")
		return memory.NewCatalogStore(), memory.NewRecipeStore(), nil, nil
	}

	db, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open storage: %w", err)
	}
	log.Printf("Storage: sqlite (%s)", cfg.SQLitePath)
	return sqlite.NewCatalogStore(db), sqlite.NewRecipeStore(db), db, nil
}

// CleanerConfig converts the configured rule tables for the product name cleaner
func CleanerConfig(cfg config.CleanerConfig, debug bool) usecase.CleanerConfig {
	corrections := make([]usecase.Correction, len(cfg.Corrections))
	for i, c := range cfg.Corrections {
		corrections[i] = usecase.Correction{From: c.From, To: c.To}
	}
	return usecase.CleanerConfig{
		NoisePhrases:       cfg.NoisePhrases,
		Corrections:        corrections,
		StorePrefix:        cfg.StorePrefix,
		EnableDebugLogging: debug,
	}
}

// TermWeights returns the matcher word weights: the defaults overlaid with the
// configured ones, or an empty table when weighting is off.
func TermWeights(cfg config.MatchingConfig) map[string]float64 {
	if !cfg.Weighted {
		return map[string]float64{}
	}
	weights := usecase.DefaultTermWeights()
	for word, weight := range cfg.TermWeights {
		if normalized := usecase.Normalize(word); normalized != "" {
			weights[normalized] = weight
		}
	}
	return weights
}
