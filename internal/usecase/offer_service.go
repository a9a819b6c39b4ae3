package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/agnesleth/hello-poor/internal/domain"
	"golang.org/x/sync/errgroup"
)

// OfferServiceConfig holds configuration for the offer service
type OfferServiceConfig struct {
	CacheTTL           time.Duration
	MaxConcurrent      int
	EnableDebugLogging bool
}

// ScrapeOutcome reports the result of scraping one store
type ScrapeOutcome struct {
	StoreID string       `json:"store_id"`
	Items   int          `json:"items"`
	Stats   ExtractStats `json:"stats"`
	Err     error        `json:"-"`
}

// OfferService scrapes, stores and serves per-store sale item catalogs
type OfferService struct {
	source             domain.OfferSource
	catalogs           domain.CatalogRepository
	cache              domain.CacheRepository
	extractor          *SaleItemExtractor
	matcher            *MatchingService
	cacheTTL           time.Duration
	maxConcurrent      int
	enableDebugLogging bool
}

// NewOfferService creates a new offer service with dependencies.
// source may be nil when the service only reads stored catalogs.
func NewOfferService(
	source domain.OfferSource,
	catalogs domain.CatalogRepository,
	cache domain.CacheRepository,
	extractor *SaleItemExtractor,
	matcher *MatchingService,
	config OfferServiceConfig,
) *OfferService {
	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 6 * time.Hour
	}

	maxConcurrent := config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	return &OfferService{
		source:             source,
		catalogs:           catalogs,
		cache:              cache,
		extractor:          extractor,
		matcher:            matcher,
		cacheTTL:           cacheTTL,
		maxConcurrent:      maxConcurrent,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Extract builds a catalog from candidates without touching storage
func (s *OfferService) Extract(candidates []domain.Candidate) (*domain.Catalog, ExtractStats) {
	return s.extractor.Extract(candidates)
}

// ScrapeStore fetches a store's offer page, extracts its catalog and replaces the stored one
func (s *OfferService) ScrapeStore(ctx context.Context, storeID string) (*domain.Catalog, ExtractStats, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return nil, ExtractStats{}, domain.ErrInvalidRequest
	}
	if s.source == nil {
		return nil, ExtractStats{}, fmt.Errorf("%w: no offer source configured", domain.ErrFetchFailure)
	}

	page, err := s.source.FetchOffers(ctx, storeID)
	if err != nil {
		return nil, ExtractStats{}, fmt.Errorf("scrape store %s: %w", storeID, err)
	}

	catalog, stats := s.extractor.Extract(page.Candidates)

	storeName := page.StoreName
	if storeName == "" {
		storeName = storeID
	}

	if err := s.catalogs.SaveCatalog(ctx, storeID, storeName, catalog); err != nil {
		return nil, stats, fmt.Errorf("save catalog for store %s: %w", storeID, err)
	}

	s.storeInCache(ctx, storeID, catalog)

	log.Printf("[STORE] Scraped store %s (%s): %d items from %d candidates", storeID, storeName, stats.Items, stats.Candidates)

	return catalog, stats, nil
}

// ScrapeStores scrapes several stores with bounded concurrency.
// A failing store is reported in its outcome and never stops the others.
func (s *OfferService) ScrapeStores(ctx context.Context, storeIDs []string) []ScrapeOutcome {
	outcomes := make([]ScrapeOutcome, len(storeIDs))

	var g errgroup.Group
	g.SetLimit(s.maxConcurrent)

	for i, storeID := range storeIDs {
		g.Go(func() error {
			catalog, stats, err := s.ScrapeStore(ctx, storeID)
			outcomes[i] = ScrapeOutcome{StoreID: storeID, Stats: stats, Err: err}
			if err != nil {
				log.Printf("[STORE] Failed to scrape store %s: %v", storeID, err)
				return nil
			}
			outcomes[i].Items = catalog.Len()
			return nil
		})
	}

	_ = g.Wait()
	return outcomes
}

// Catalog returns the catalogs of the given stores merged in store order.
// A name present in several stores keeps the first present value of each field.
func (s *OfferService) Catalog(ctx context.Context, storeIDs ...string) (*domain.Catalog, error) {
	if len(storeIDs) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	merged := domain.NewCatalog()
	seen := make(map[string]bool, len(storeIDs))

	for _, storeID := range storeIDs {
		storeID = strings.TrimSpace(storeID)
		if storeID == "" || seen[storeID] {
			continue
		}
		seen[storeID] = true

		catalog, err := s.loadStoreCatalog(ctx, storeID)
		if err != nil {
			return nil, err
		}

		for _, item := range catalog.Items() {
			copied := item.Clone()
			copied.NormalizedName = Normalize(copied.Name)
			if existing, ok := merged.Get(copied.Name); ok {
				existing.MergeMissing(copied)
				continue
			}
			merged.Add(copied)
		}
	}

	if s.enableDebugLogging {
		log.Printf("[STORE] Merged catalog for %v: %d items", storeIDs, merged.Len())
	}

	return merged, nil
}

// MatchIngredients matches ingredients against the merged catalog of the given stores
func (s *OfferService) MatchIngredients(ctx context.Context, storeIDs, ingredients []string) ([]domain.MatchResult, error) {
	if len(ingredients) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	catalog, err := s.Catalog(ctx, storeIDs...)
	if err != nil {
		return nil, err
	}

	return s.matcher.MatchAll(ctx, ingredients, catalog)
}

// ListStores returns the stores with a stored catalog
func (s *OfferService) ListStores(ctx context.Context) ([]domain.StoreInfo, error) {
	return s.catalogs.ListStores(ctx)
}

// loadStoreCatalog reads a store catalog from cache, falling back to the repository
func (s *OfferService) loadStoreCatalog(ctx context.Context, storeID string) (*domain.Catalog, error) {
	if catalog, err := s.getFromCache(ctx, storeID); err == nil {
		return catalog, nil
	}

	catalog, err := s.catalogs.LoadCatalog(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("load catalog for store %s: %w", storeID, err)
	}

	s.storeInCache(ctx, storeID, catalog)
	return catalog, nil
}

func catalogCacheKey(storeID string) string {
	return "catalog:" + storeID
}

// getFromCache retrieves a store catalog from cache
func (s *OfferService) getFromCache(ctx context.Context, storeID string) (*domain.Catalog, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}

	data, err := s.cache.Get(ctx, catalogCacheKey(storeID))
	if err != nil {
		return nil, err
	}

	catalog, err := domain.UnmarshalCatalog(data)
	if err != nil {
		log.Printf("[STORE] Dropping unreadable cache entry for store %s: %v", storeID, err)
		_ = s.cache.Delete(ctx, catalogCacheKey(storeID))
		return nil, errors.Join(domain.ErrCacheMiss, err)
	}
	return catalog, nil
}

// storeInCache stores a store catalog in cache; failures are logged, never returned
func (s *OfferService) storeInCache(ctx context.Context, storeID string, catalog *domain.Catalog) {
	if s.cache == nil {
		return
	}

	data, err := domain.MarshalCatalog(catalog)
	if err == nil {
		err = s.cache.Set(ctx, catalogCacheKey(storeID), data, s.cacheTTL)
	}
	if err != nil {
		log.Printf("[STORE] Failed to cache catalog for store %s: %v", storeID, err)
	}
}
