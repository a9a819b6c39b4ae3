package usecase

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/agnesleth/hello-poor/internal/domain"
	"github.com/shopspring/decimal"
)

// PriceNotation identifies which price grammar a price text was read with
type PriceNotation int

const (
	NotationMultiBuy    PriceNotation = iota // "3 för 110 kr"
	NotationPerKilogram                      // "119 kr/kg"
	NotationPerUnit                          // "75 kr/st"
	NotationFlat                             // "99 kr"
	NotationColon                            // "99:-"
	NotationFallback                         // anything else
)

func (n PriceNotation) String() string {
	switch n {
	case NotationMultiBuy:
		return "multi-buy"
	case NotationPerKilogram:
		return "per-kg"
	case NotationPerUnit:
		return "per-unit"
	case NotationFlat:
		return "flat"
	case NotationColon:
		return "colon"
	default:
		return "fallback"
	}
}

// PriceResult is the parsed form of a price text
type PriceResult struct {
	Display            string
	Notation           PriceNotation
	OriginalPrice      *decimal.Decimal
	DiscountAmount     *decimal.Decimal
	DiscountPercentage *int
	UnitPrice          *decimal.Decimal
}

// HasDiscount reports whether both discount fields are set
func (r PriceResult) HasDiscount() bool {
	return r.DiscountAmount != nil && r.DiscountPercentage != nil
}

const numberPattern = `\d+(?:[.,]\d+)?`

// Compiled price grammar
var (
	multiBuyRegex    = regexp.MustCompile(`(?i)(\d+)\s*för\s*(` + numberPattern + `)\s*(?:kr|:-)`)
	perKilogramRegex = regexp.MustCompile(`(?i)(` + numberPattern + `)\s*kr\s*/\s*kg`)
	perUnitRegex     = regexp.MustCompile(`(?i)(` + numberPattern + `)\s*kr\s*/\s*st`)
	flatRegex        = regexp.MustCompile(`(?i)((` + numberPattern + `)\s*kr)(?:[^/]|$)`)
	colonRegex       = regexp.MustCompile(`(` + numberPattern + `):-`)

	multiBuyFullRegex    = regexp.MustCompile(`(?i)^\d+\s*för\s*` + numberPattern + `\s*(?:kr|:-)$`)
	perKilogramFullRegex = regexp.MustCompile(`(?i)^` + numberPattern + `\s*kr\s*/\s*kg$`)
	perUnitFullRegex     = regexp.MustCompile(`(?i)^` + numberPattern + `\s*kr\s*/\s*st$`)
	flatFullRegex        = regexp.MustCompile(`(?i)^` + numberPattern + `\s*kr$`)
	colonFullRegex       = regexp.MustCompile(`^` + numberPattern + `:-(?:\s*/\s*(?:kg|st))?$`)

	// A tail made only of another price rendering, e.g. the "89:-" in "89.90 kr89:-"
	repeatedPriceTailRegex = regexp.MustCompile(`(?i)^\s*(?:\d+\s*för\s*)?\d+(?:[.,]\d+)?\s*(?:kr|:-)?(?:\s*/\s*(?:kg|st))?\s*$`)

	originalPriceRegex = regexp.MustCompile(`ord\.?\s*pris\s*(\d+(?:[.,:]\d+)?)(?:\s*-\s*(\d+(?:[.,:]\d+)?))?`)
)

var hundred = decimal.NewFromInt(100)

// priceReading is what a notation extracts from its match
type priceReading struct {
	display string
	current decimal.Decimal
	unit    *decimal.Decimal
}

// notationRule is one variant of the closed price grammar
type notationRule struct {
	notation PriceNotation
	search   *regexp.Regexp
	full     *regexp.Regexp
	read     func(match []string) (priceReading, error)
}

// notationRules are tried in priority order; the first match wins
var notationRules = []notationRule{
	{notation: NotationMultiBuy, search: multiBuyRegex, full: multiBuyFullRegex, read: readMultiBuy},
	{notation: NotationPerKilogram, search: perKilogramRegex, full: perKilogramFullRegex, read: readWholeMatch},
	{notation: NotationPerUnit, search: perUnitRegex, full: perUnitFullRegex, read: readWholeMatch},
	{notation: NotationFlat, search: flatRegex, full: flatFullRegex, read: readFlat},
	{notation: NotationColon, search: colonRegex, full: colonFullRegex, read: readColon},
}

func readMultiBuy(m []string) (priceReading, error) {
	quantity, err := parseAmount(m[1])
	if err != nil {
		return priceReading{}, err
	}
	total, err := parseAmount(m[2])
	if err != nil {
		return priceReading{}, err
	}
	if quantity.IsZero() {
		return priceReading{}, fmt.Errorf("%w: zero quantity in %q", domain.ErrMalformedPrice, m[0])
	}
	unit := total.Div(quantity)
	return priceReading{
		display: fmt.Sprintf("%s för %s kr", m[1], strings.ReplaceAll(m[2], ",", ".")),
		current: unit,
		unit:    &unit,
	}, nil
}

func readWholeMatch(m []string) (priceReading, error) {
	current, err := parseAmount(m[1])
	if err != nil {
		return priceReading{}, err
	}
	return priceReading{display: strings.TrimSpace(m[0]), current: current}, nil
}

func readFlat(m []string) (priceReading, error) {
	current, err := parseAmount(m[2])
	if err != nil {
		return priceReading{}, err
	}
	return priceReading{display: strings.TrimSpace(m[1]), current: current}, nil
}

func readColon(m []string) (priceReading, error) {
	current, err := parseAmount(m[1])
	if err != nil {
		return priceReading{}, err
	}
	return priceReading{display: m[1] + " kr", current: current}, nil
}

// parseAmount reads "89,90", "89.90" or "89:90" as a decimal
func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(",", ".", ":", ".").Replace(strings.TrimSpace(s))
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", domain.ErrMalformedPrice, s, err)
	}
	return d, nil
}

// PriceParser reads the price notations used on Swedish offer pages
type PriceParser struct {
	enableDebugLogging bool
}

// NewPriceParser creates a new price parser
func NewPriceParser(enableDebugLogging bool) *PriceParser {
	return &PriceParser{enableDebugLogging: enableDebugLogging}
}

// Parse classifies priceText, extracts the current price and derives the discount
// against an original price found in priceText or description.
// It never fails: unreadable input degrades to the trimmed text with no discount.
func (p *PriceParser) Parse(priceText, description string) PriceResult {
	trimmed := strings.TrimSpace(priceText)
	if trimmed == "" {
		return PriceResult{Display: domain.NotAvailable, Notation: NotationFallback}
	}

	fallback := PriceResult{Display: trimmed, Notation: NotationFallback}

	original, err := findOriginalPrice(priceText + " " + description)
	if err != nil && p.enableDebugLogging {
		log.Printf("[PRICE] Ignoring unreadable original price: %v", err)
	}

	collapsed := collapseRepeatedPrice(priceText)

	for _, rule := range notationRules {
		m := rule.search.FindStringSubmatch(collapsed)
		if m == nil {
			continue
		}

		reading, err := rule.read(m)
		if err != nil {
			if p.enableDebugLogging {
				log.Printf("[PRICE] %s notation in %q unreadable, using fallback: %v", rule.notation, priceText, err)
			}
			return fallback
		}

		result := PriceResult{
			Display:       reading.display,
			Notation:      rule.notation,
			OriginalPrice: original,
			UnitPrice:     reading.unit,
		}
		if original != nil && original.GreaterThan(reading.current) {
			amount, percent := computeDiscount(*original, reading.current)
			result.DiscountAmount = &amount
			result.DiscountPercentage = &percent
		}

		if p.enableDebugLogging {
			log.Printf("[PRICE] %q -> %q (%s)", priceText, result.Display, rule.notation)
		}
		return result
	}

	return fallback
}

// IsPriceLike reports whether text is nothing but a price in one of the five notations
func (p *PriceParser) IsPriceLike(text string) bool {
	return isPriceLike(text)
}

func isPriceLike(text string) bool {
	candidate := strings.TrimSpace(collapseRepeatedPrice(strings.TrimSpace(text)))
	if candidate == "" {
		return false
	}
	for _, rule := range notationRules {
		if rule.full.MatchString(candidate) {
			return true
		}
	}
	return false
}

// collapseRepeatedPrice cuts a scraped price text after its first price when
// everything that follows is another rendering of a price ("99 kr99:-" -> "99 kr").
func collapseRepeatedPrice(text string) string {
	for _, rule := range notationRules {
		loc := rule.search.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		end := loc[1]
		if rule.notation == NotationFlat {
			// the flat pattern consumes one rune of lookahead
			end = loc[3]
		}
		tail := text[end:]
		if strings.TrimSpace(tail) != "" && repeatedPriceTailRegex.MatchString(tail) {
			return text[:end]
		}
		return text
	}
	return text
}

// findOriginalPrice looks for "ord.pris N" or "ord.pris N-M"; a range yields its mean
func findOriginalPrice(text string) (*decimal.Decimal, error) {
	lowered := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	m := originalPriceRegex.FindStringSubmatch(lowered)
	if m == nil {
		return nil, nil
	}

	low, err := parseAmount(m[1])
	if err != nil {
		return nil, err
	}
	if m[2] == "" {
		return &low, nil
	}

	high, err := parseAmount(m[2])
	if err != nil {
		return nil, err
	}
	mean := low.Add(high).Div(decimal.NewFromInt(2))
	return &mean, nil
}

// computeDiscount returns the saving rounded to two decimals and the whole percentage
func computeDiscount(original, current decimal.Decimal) (decimal.Decimal, int) {
	diff := original.Sub(current)
	percent := diff.Div(original).Mul(hundred).Round(0)
	return diff.Round(2), int(percent.IntPart())
}
