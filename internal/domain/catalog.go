package domain

import "github.com/shopspring/decimal"

// Catalog is an insertion-ordered collection of sale items keyed by name.
// Iteration order is first-seen order; matcher tie-breaks depend on it.
type Catalog struct {
	items      []*SaleItem
	byName     map[string]int
	normalized map[string]string
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		byName:     make(map[string]int),
		normalized: make(map[string]string),
	}
}

// Len returns the number of items
func (c *Catalog) Len() int {
	return len(c.items)
}

// Has reports whether name is a key of the catalog
func (c *Catalog) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Get returns the item stored under name
func (c *Catalog) Get(name string) (*SaleItem, bool) {
	idx, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return c.items[idx], true
}

// Add appends item if its name is new and reports whether it was added.
// An existing entry is left untouched.
func (c *Catalog) Add(item *SaleItem) bool {
	if item == nil || item.Name == "" {
		return false
	}
	if _, exists := c.byName[item.Name]; exists {
		return false
	}
	c.byName[item.Name] = len(c.items)
	c.items = append(c.items, item)
	if item.NormalizedName != "" {
		if _, taken := c.normalized[item.NormalizedName]; !taken {
			c.normalized[item.NormalizedName] = item.Name
		}
	}
	return true
}

// LookupNormalized returns the name of the first item whose normalized name equals normalized
func (c *Catalog) LookupNormalized(normalized string) (string, bool) {
	name, ok := c.normalized[normalized]
	return name, ok
}

// Items returns the items in insertion order
func (c *Catalog) Items() []*SaleItem {
	out := make([]*SaleItem, len(c.items))
	copy(out, c.items)
	return out
}

// Names returns the item names in insertion order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.items))
	for i, item := range c.items {
		names[i] = item.Name
	}
	return names
}

// Records serializes the catalog in insertion order
func (c *Catalog) Records() []SaleItemRecord {
	records := make([]SaleItemRecord, len(c.items))
	for i, item := range c.items {
		records[i] = item.Record()
	}
	return records
}

// CatalogFromRecords rebuilds a catalog from stored records.
// normalize computes NormalizedName; records with duplicate names keep the first occurrence.
func CatalogFromRecords(records []SaleItemRecord, normalize func(string) string) *Catalog {
	catalog := NewCatalog()
	for _, rec := range records {
		item := &SaleItem{
			Name:         rec.Name,
			PriceDisplay: rec.Price,
		}
		if normalize != nil {
			item.NormalizedName = normalize(rec.Name)
		}
		amount, okAmount := ParseKronor(rec.DiscountAmount)
		percent, okPercent := ParsePercent(rec.DiscountPercentage)
		if okAmount && okPercent {
			item.DiscountAmount = &amount
			item.DiscountPercentage = &percent
		}
		catalog.Add(item)
	}
	return catalog
}

// cloneDecimal copies an optional decimal so merged catalogs never alias source items
func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

// Clone returns a deep copy of the item
func (s *SaleItem) Clone() *SaleItem {
	out := *s
	out.DiscountAmount = cloneDecimal(s.DiscountAmount)
	out.UnitPrice = cloneDecimal(s.UnitPrice)
	if s.DiscountPercentage != nil {
		p := *s.DiscountPercentage
		out.DiscountPercentage = &p
	}
	return &out
}
