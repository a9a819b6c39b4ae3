package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// catalogEntry is the lossless wire form of a SaleItem used for caching.
// Unlike SaleItemRecord it keeps the multi-buy text and the unit price apart.
type catalogEntry struct {
	Name               string           `json:"name"`
	NormalizedName     string           `json:"normalized_name,omitempty"`
	PriceDisplay       string           `json:"price_display"`
	DiscountAmount     *decimal.Decimal `json:"discount_amount,omitempty"`
	DiscountPercentage *int             `json:"discount_percentage,omitempty"`
	UnitPrice          *decimal.Decimal `json:"unit_price,omitempty"`
}

// MarshalCatalog encodes a catalog preserving item order
func MarshalCatalog(c *Catalog) ([]byte, error) {
	entries := make([]catalogEntry, 0, c.Len())
	for _, item := range c.items {
		entries = append(entries, catalogEntry{
			Name:               item.Name,
			NormalizedName:     item.NormalizedName,
			PriceDisplay:       item.PriceDisplay,
			DiscountAmount:     item.DiscountAmount,
			DiscountPercentage: item.DiscountPercentage,
			UnitPrice:          item.UnitPrice,
		})
	}
	return json.Marshal(entries)
}

// UnmarshalCatalog decodes data produced by MarshalCatalog
func UnmarshalCatalog(data []byte) (*Catalog, error) {
	var entries []catalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	catalog := NewCatalog()
	for _, e := range entries {
		item := &SaleItem{
			Name:           e.Name,
			NormalizedName: e.NormalizedName,
			PriceDisplay:   e.PriceDisplay,
			UnitPrice:      e.UnitPrice,
		}
		if e.DiscountAmount != nil && e.DiscountPercentage != nil {
			item.DiscountAmount = e.DiscountAmount
			item.DiscountPercentage = e.DiscountPercentage
		}
		catalog.Add(item)
	}
	return catalog, nil
}
