package usecase

import (
	"log"

	"github.com/agnesleth/hello-poor/internal/domain"
)

// ExtractStats counts what happened to the candidates of one extraction pass
type ExtractStats struct {
	Candidates int `json:"candidates"`
	Discarded  int `json:"discarded"`
	NoPrice    int `json:"no_price"`
	Merged     int `json:"merged"`
	Items      int `json:"items"`
}

// SaleItemExtractor builds a catalog from raw candidate blocks
type SaleItemExtractor struct {
	cleaner            *ProductNameCleaner
	prices             *PriceParser
	enableDebugLogging bool
}

// NewSaleItemExtractor creates an extractor over the given cleaner and price parser
func NewSaleItemExtractor(cleaner *ProductNameCleaner, prices *PriceParser, enableDebugLogging bool) *SaleItemExtractor {
	return &SaleItemExtractor{
		cleaner:            cleaner,
		prices:             prices,
		enableDebugLogging: enableDebugLogging,
	}
}

// Extract cleans, prices and deduplicates candidates into a catalog.
// Candidates sharing a cleaned name are merged first-present-wins in input order.
func (e *SaleItemExtractor) Extract(candidates []domain.Candidate) (*domain.Catalog, ExtractStats) {
	catalog := domain.NewCatalog()
	stats := ExtractStats{Candidates: len(candidates)}

	for _, candidate := range candidates {
		item, ok := e.provisionalItem(candidate, &stats)
		if !ok {
			continue
		}

		if existing, found := catalog.Get(item.Name); found {
			existing.MergeMissing(item)
			stats.Merged++
			continue
		}
		catalog.Add(item)
	}

	stats.Items = catalog.Len()
	if e.enableDebugLogging {
		log.Printf("[EXTRACT] %d candidates -> %d items (discarded %d, no price %d, merged %d)",
			stats.Candidates, stats.Items, stats.Discarded, stats.NoPrice, stats.Merged)
	}

	return catalog, stats
}

func (e *SaleItemExtractor) provisionalItem(candidate domain.Candidate, stats *ExtractStats) (*domain.SaleItem, bool) {
	name := e.cleaner.Clean(candidate.Name, candidate.Description)
	if name == "" {
		stats.Discarded++
		return nil, false
	}

	context := candidate.Description
	if context == "" {
		context = candidate.Name
	}

	price := e.prices.Parse(candidate.Price, context)
	if price.Display == domain.NotAvailable {
		stats.NoPrice++
		if e.enableDebugLogging {
			log.Printf("[EXTRACT] Skipping %q: no price", name)
		}
		return nil, false
	}

	return &domain.SaleItem{
		Name:               name,
		NormalizedName:     Normalize(name),
		PriceDisplay:       price.Display,
		DiscountAmount:     price.DiscountAmount,
		DiscountPercentage: price.DiscountPercentage,
		UnitPrice:          price.UnitPrice,
	}, true
}
