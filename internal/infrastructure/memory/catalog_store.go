package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/agnesleth/hello-poor/internal/domain"
)

type storedCatalog struct {
	info    domain.StoreInfo
	catalog *domain.Catalog
}

// CatalogStore keeps store catalogs in process memory
type CatalogStore struct {
	mu     sync.RWMutex
	stores map[string]*storedCatalog
	now    func() time.Time
}

// NewCatalogStore creates an empty in-memory catalog store
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{
		stores: make(map[string]*storedCatalog),
		now:    time.Now,
	}
}

func copyCatalog(src *domain.Catalog) *domain.Catalog {
	out := domain.NewCatalog()
	for _, item := range src.Items() {
		out.Add(item.Clone())
	}
	return out
}

func (s *CatalogStore) SaveCatalog(ctx context.Context, storeID, storeName string, catalog *domain.Catalog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stores[storeID] = &storedCatalog{
		info: domain.StoreInfo{
			StoreID:   storeID,
			StoreName: storeName,
			ItemCount: catalog.Len(),
			ScrapedAt: s.now().UTC(),
		},
		catalog: copyCatalog(catalog),
	}
	return nil
}

func (s *CatalogStore) LoadCatalog(ctx context.Context, storeID string) (*domain.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.stores[storeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoreNotFound, storeID)
	}
	return copyCatalog(stored.catalog), nil
}

// ListStores returns the stores most recently scraped first
func (s *CatalogStore) ListStores(ctx context.Context) ([]domain.StoreInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stores := make([]domain.StoreInfo, 0, len(s.stores))
	for _, stored := range s.stores {
		stores = append(stores, stored.info)
	}
	sort.Slice(stores, func(i, j int) bool {
		if !stores[i].ScrapedAt.Equal(stores[j].ScrapedAt) {
			return stores[i].ScrapedAt.After(stores[j].ScrapedAt)
		}
		return stores[i].StoreID < stores[j].StoreID
	})
	return stores, nil
}
