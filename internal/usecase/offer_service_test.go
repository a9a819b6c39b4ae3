package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/agnesleth/hello-poor/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string][]byte
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

// MockOfferSource is a mock implementation of domain.OfferSource
type MockOfferSource struct {
	pages map[string]*domain.OfferPage
	errs  map[string]error
}

func NewMockOfferSource() *MockOfferSource {
	return &MockOfferSource{
		pages: make(map[string]*domain.OfferPage),
		errs:  make(map[string]error),
	}
}

func (m *MockOfferSource) FetchOffers(ctx context.Context, storeID string) (*domain.OfferPage, error) {
	if err, ok := m.errs[storeID]; ok {
		return nil, err
	}
	if page, ok := m.pages[storeID]; ok {
		return page, nil
	}
	return nil, domain.ErrStoreNotFound
}

// MockCatalogRepository is a mock implementation of domain.CatalogRepository
type MockCatalogRepository struct {
	mu        sync.Mutex
	catalogs  map[string]*domain.Catalog
	names     map[string]string
	saveError error
	loads     int
}

func NewMockCatalogRepository() *MockCatalogRepository {
	return &MockCatalogRepository{
		catalogs: make(map[string]*domain.Catalog),
		names:    make(map[string]string),
	}
}

func (m *MockCatalogRepository) SaveCatalog(ctx context.Context, storeID, storeName string, catalog *domain.Catalog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.catalogs[storeID] = catalog
	m.names[storeID] = storeName
	return nil
}

func (m *MockCatalogRepository) LoadCatalog(ctx context.Context, storeID string) (*domain.Catalog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	catalog, ok := m.catalogs[storeID]
	if !ok {
		return nil, domain.ErrStoreNotFound
	}
	return catalog, nil
}

func (m *MockCatalogRepository) ListStores(ctx context.Context) ([]domain.StoreInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stores []domain.StoreInfo
	for id, catalog := range m.catalogs {
		stores = append(stores, domain.StoreInfo{StoreID: id, StoreName: m.names[id], ItemCount: catalog.Len()})
	}
	return stores, nil
}

func newTestOfferService(source domain.OfferSource, repo domain.CatalogRepository, cache domain.CacheRepository) *OfferService {
	return NewOfferService(source, repo, cache, newTestExtractor(), NewMatchingService(MatchConfig{}), OfferServiceConfig{})
}

func TestNewOfferService(t *testing.T) {
	t.Run("creates service with default values", func(t *testing.T) {
		svc := newTestOfferService(nil, NewMockCatalogRepository(), nil)
		if svc.cacheTTL != 6*time.Hour {
			t.Errorf("cacheTTL = %v, want 6h", svc.cacheTTL)
		}
		if svc.maxConcurrent != 4 {
			t.Errorf("maxConcurrent = %d, want 4", svc.maxConcurrent)
		}
	})

	t.Run("creates service with custom values", func(t *testing.T) {
		svc := NewOfferService(nil, NewMockCatalogRepository(), nil, newTestExtractor(), NewMatchingService(MatchConfig{}),
			OfferServiceConfig{CacheTTL: time.Hour, MaxConcurrent: 2})
		if svc.cacheTTL != time.Hour {
			t.Errorf("cacheTTL = %v, want 1h", svc.cacheTTL)
		}
		if svc.maxConcurrent != 2 {
			t.Errorf("maxConcurrent = %d, want 2", svc.maxConcurrent)
		}
	})
}

func TestScrapeStore(t *testing.T) {
	ctx := context.Background()

	t.Run("returns error for empty store id", func(t *testing.T) {
		svc := newTestOfferService(NewMockOfferSource(), NewMockCatalogRepository(), nil)
		_, _, err := svc.ScrapeStore(ctx, " ")
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("returns fetch failure without a source", func(t *testing.T) {
		svc := newTestOfferService(nil, NewMockCatalogRepository(), nil)
		_, _, err := svc.ScrapeStore(ctx, "1004247")
		if !errors.Is(err, domain.ErrFetchFailure) {
			t.Errorf("error = %v, want ErrFetchFailure", err)
		}
	})

	t.Run("extracts, saves and caches catalog", func(t *testing.T) {
		source := NewMockOfferSource()
		source.pages["1004247"] = &domain.OfferPage{
			StoreID:   "1004247",
			StoreName: "ICA Kvantum Malmborgs",
			Candidates: []domain.Candidate{
				{Name: "Ground Beef", Price: "89.90 kr"},
				{Name: "Ground Beef", Price: "89.90 kr89:-"},
				{Name: "Logga in", Price: "0 kr"},
			},
		}
		repo := NewMockCatalogRepository()
		cache := NewMockCacheRepository()
		svc := newTestOfferService(source, repo, cache)

		catalog, stats, err := svc.ScrapeStore(ctx, "1004247")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if catalog.Len() != 1 {
			t.Errorf("catalog.Len() = %d, want 1", catalog.Len())
		}
		if stats.Discarded != 1 || stats.Merged != 1 {
			t.Errorf("unexpected stats: %+v", stats)
		}
		if repo.names["1004247"] != "ICA Kvantum Malmborgs" {
			t.Errorf("store name = %q, want ICA Kvantum Malmborgs", repo.names["1004247"])
		}
		if _, ok := cache.data[catalogCacheKey("1004247")]; !ok {
			t.Error("expected catalog to be cached")
		}
	})

	t.Run("falls back to store id as name", func(t *testing.T) {
		source := NewMockOfferSource()
		source.pages["42"] = &domain.OfferPage{StoreID: "42"}
		repo := NewMockCatalogRepository()
		svc := newTestOfferService(source, repo, nil)

		if _, _, err := svc.ScrapeStore(ctx, "42"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if repo.names["42"] != "42" {
			t.Errorf("store name = %q, want 42", repo.names["42"])
		}
	})

	t.Run("propagates source errors", func(t *testing.T) {
		source := NewMockOfferSource()
		source.errs["1"] = domain.ErrFetchFailure
		svc := newTestOfferService(source, NewMockCatalogRepository(), nil)

		_, _, err := svc.ScrapeStore(ctx, "1")
		if !errors.Is(err, domain.ErrFetchFailure) {
			t.Errorf("error = %v, want ErrFetchFailure", err)
		}
	})

	t.Run("returns save errors", func(t *testing.T) {
		source := NewMockOfferSource()
		source.pages["1"] = &domain.OfferPage{StoreID: "1"}
		repo := NewMockCatalogRepository()
		repo.saveError = errors.New("disk full")
		svc := newTestOfferService(source, repo, nil)

		if _, _, err := svc.ScrapeStore(ctx, "1"); err == nil {
			t.Error("expected error when saving fails")
		}
	})

	t.Run("continues even if caching fails", func(t *testing.T) {
		source := NewMockOfferSource()
		source.pages["1"] = &domain.OfferPage{StoreID: "1", Candidates: []domain.Candidate{{Name: "Ost", Price: "10 kr"}}}
		cache := NewMockCacheRepository()
		cache.setError = errors.New("cache write failed")
		svc := newTestOfferService(source, NewMockCatalogRepository(), cache)

		catalog, _, err := svc.ScrapeStore(ctx, "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if catalog.Len() != 1 {
			t.Errorf("catalog.Len() = %d, want 1", catalog.Len())
		}
	})
}

func TestScrapeStores(t *testing.T) {
	source := NewMockOfferSource()
	source.pages["a"] = &domain.OfferPage{StoreID: "a", Candidates: []domain.Candidate{{Name: "Ost", Price: "10 kr"}}}
	source.pages["c"] = &domain.OfferPage{StoreID: "c", Candidates: []domain.Candidate{{Name: "Mjölk", Price: "12 kr"}, {Name: "Smör", Price: "40 kr"}}}
	source.errs["b"] = domain.ErrFetchFailure

	repo := NewMockCatalogRepository()
	svc := newTestOfferService(source, repo, NewMockCacheRepository())

	outcomes := svc.ScrapeStores(context.Background(), []string{"a", "b", "c"})
	if len(outcomes) != 3 {
		t.Fatalf("len(outcomes) = %d, want 3", len(outcomes))
	}

	if outcomes[0].StoreID != "a" || outcomes[0].Err != nil || outcomes[0].Items != 1 {
		t.Errorf("outcome a = %+v", outcomes[0])
	}
	if outcomes[1].StoreID != "b" || !errors.Is(outcomes[1].Err, domain.ErrFetchFailure) {
		t.Errorf("outcome b = %+v", outcomes[1])
	}
	if outcomes[2].StoreID != "c" || outcomes[2].Err != nil || outcomes[2].Items != 2 {
		t.Errorf("outcome c = %+v", outcomes[2])
	}
	if len(repo.catalogs) != 2 {
		t.Errorf("saved %d catalogs, want 2", len(repo.catalogs))
	}
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	extractor := newTestExtractor()

	storeA, _ := extractor.Extract([]domain.Candidate{
		{Name: "Ost", Price: "Superpris"},
		{Name: "Mjölk", Price: "12 kr"},
	})
	storeB, _ := extractor.Extract([]domain.Candidate{
		{Name: "Smör", Price: "40 kr"},
		{Name: "Ost", Price: "80 kr", Description: "Ordpris 100:00"},
	})

	t.Run("returns error without stores", func(t *testing.T) {
		svc := newTestOfferService(nil, NewMockCatalogRepository(), nil)
		if _, err := svc.Catalog(ctx); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("merges stores in order first-present-wins", func(t *testing.T) {
		repo := NewMockCatalogRepository()
		repo.catalogs["a"] = storeA
		repo.catalogs["b"] = storeB
		svc := newTestOfferService(nil, repo, nil)

		merged, err := svc.Catalog(ctx, "a", "b")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"Ost", "Mjölk", "Smör"}
		got := merged.Names()
		if len(got) != len(want) {
			t.Fatalf("Names() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
			}
		}

		ost, _ := merged.Get("Ost")
		if ost.PriceDisplay != "Superpris" {
			t.Errorf("PriceDisplay = %q, want Superpris", ost.PriceDisplay)
		}
		if !ost.HasDiscount() || *ost.DiscountPercentage != 20 {
			t.Errorf("expected 20%% discount merged from store b, got %+v", ost)
		}

		original, _ := storeA.Get("Ost")
		if original.HasDiscount() {
			t.Error("merging must not modify the stored catalog")
		}
	})

	t.Run("returns store not found", func(t *testing.T) {
		svc := newTestOfferService(nil, NewMockCatalogRepository(), nil)
		if _, err := svc.Catalog(ctx, "missing"); !errors.Is(err, domain.ErrStoreNotFound) {
			t.Errorf("error = %v, want ErrStoreNotFound", err)
		}
	})

	t.Run("serves repeated loads from cache", func(t *testing.T) {
		repo := NewMockCatalogRepository()
		repo.catalogs["a"] = storeA
		cache := NewMockCacheRepository()
		svc := newTestOfferService(nil, repo, cache)

		for i := 0; i < 3; i++ {
			if _, err := svc.Catalog(ctx, "a"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if repo.loads != 1 {
			t.Errorf("repository loads = %d, want 1", repo.loads)
		}
	})

	t.Run("drops unreadable cache entries", func(t *testing.T) {
		repo := NewMockCatalogRepository()
		repo.catalogs["a"] = storeA
		cache := NewMockCacheRepository()
		cache.data[catalogCacheKey("a")] = []byte("not json")
		svc := newTestOfferService(nil, repo, cache)

		merged, err := svc.Catalog(ctx, "a")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if merged.Len() != 2 {
			t.Errorf("merged.Len() = %d, want 2", merged.Len())
		}
		if repo.loads != 1 {
			t.Errorf("repository loads = %d, want 1", repo.loads)
		}
	})
}

func TestMatchIngredients(t *testing.T) {
	ctx := context.Background()
	repo := NewMockCatalogRepository()
	repo.catalogs["a"] = catalogWith("Minced Beef", "Röd paprika")
	svc := newTestOfferService(nil, repo, nil)

	t.Run("returns error without ingredients", func(t *testing.T) {
		if _, err := svc.MatchIngredients(ctx, []string{"a"}, nil); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("matches in input order", func(t *testing.T) {
		results, err := svc.MatchIngredients(ctx, []string{"a"}, []string{"paprika", "Broccoli", "Ground Beef"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"Röd paprika", "", "Minced Beef"}
		for i, r := range results {
			if matchedName(r) != want[i] {
				t.Errorf("results[%d] matched %q, want %q", i, matchedName(r), want[i])
			}
		}
	})
}
