package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// NotAvailable is the historical rendering of an absent optional field
const NotAvailable = "N/A"

// Candidate is one raw text block handed over by candidate discovery
type Candidate struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description,omitempty"`
}

// SaleItem is a product and its current promotional price data.
// DiscountAmount and DiscountPercentage are either both set or both nil.
type SaleItem struct {
	Name               string
	NormalizedName     string
	PriceDisplay       string
	DiscountAmount     *decimal.Decimal
	DiscountPercentage *int
	UnitPrice          *decimal.Decimal
}

// HasPrice reports whether the item carries a usable price string
func (s *SaleItem) HasPrice() bool {
	return s.PriceDisplay != "" && s.PriceDisplay != NotAvailable
}

// HasDiscount reports whether a discount against an original price is known
func (s *SaleItem) HasDiscount() bool {
	return s.DiscountAmount != nil && s.DiscountPercentage != nil
}

// SaleItemRecord is the serialized form of a SaleItem.
// Optional values are rendered as "N/A" to stay compatible with stored data.
type SaleItemRecord struct {
	Name               string `json:"name"`
	Price              string `json:"price"`
	DiscountAmount     string `json:"discount_amount"`
	DiscountPercentage string `json:"discount_percentage"`
}

// Record converts the item to its serialized form.
// Multi-buy items report the computed unit price instead of the "N för M kr" text.
func (s *SaleItem) Record() SaleItemRecord {
	rec := SaleItemRecord{
		Name:               s.Name,
		Price:              s.PriceDisplay,
		DiscountAmount:     NotAvailable,
		DiscountPercentage: NotAvailable,
	}
	if rec.Price == "" {
		rec.Price = NotAvailable
	}
	if s.UnitPrice != nil {
		rec.Price = FormatKronor(*s.UnitPrice)
	}
	if s.HasDiscount() {
		rec.DiscountAmount = FormatKronor(*s.DiscountAmount)
		rec.DiscountPercentage = fmt.Sprintf("%d%%", *s.DiscountPercentage)
	}
	return rec
}

// FormatKronor renders an amount with two decimals and the currency suffix
func FormatKronor(d decimal.Decimal) string {
	return d.StringFixed(2) + " kr"
}

// ParseKronor parses the "12.50 kr" form produced by FormatKronor
func ParseKronor(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "kr"))
	if s == "" || s == NotAvailable {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParsePercent parses the "27%" form produced by Record
func ParsePercent(s string) (int, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" || s == NotAvailable {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MatchResult is the outcome of matching one ingredient against a catalog.
// MatchedName is nil when the best score did not clear the threshold; Score is always set.
type MatchResult struct {
	Query       string  `json:"query"`
	MatchedName *string `json:"matched_name"`
	Score       float64 `json:"score"`
}

// Matched reports whether a catalog entry was selected
func (m MatchResult) Matched() bool {
	return m.MatchedName != nil
}

// MergeMissing fills the fields s lacks with the values other carries.
// Present values on s always win; the discount pair moves as a unit.
func (s *SaleItem) MergeMissing(other *SaleItem) {
	if other == nil {
		return
	}
	if !s.HasPrice() && other.HasPrice() {
		s.PriceDisplay = other.PriceDisplay
	}
	if !s.HasDiscount() && other.HasDiscount() {
		amount := *other.DiscountAmount
		percent := *other.DiscountPercentage
		s.DiscountAmount = &amount
		s.DiscountPercentage = &percent
	}
	if s.UnitPrice == nil && other.UnitPrice != nil {
		unit := *other.UnitPrice
		s.UnitPrice = &unit
	}
}
