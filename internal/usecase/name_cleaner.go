package usecase

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"unicode"

	"github.com/agnesleth/hello-poor/internal/domain"
)

// brandRegex finds a capitalized brand (or comma-separated brands) closed by ". "
// in a description, e.g. "Scan. 500 g" or "Felix, Bostongurka. Jmfpris".
var brandRegex = regexp.MustCompile(`(\p{Lu}[\p{L}\d]+®?(?:\s*,\s*\p{Lu}[\p{L}\d]+®?)*)\.\s`)

// Correction is one exact substring replacement applied to product names
type Correction struct {
	From string
	To   string
}

// CleanerConfig holds the rule tables for the product name cleaner
type CleanerConfig struct {
	NoisePhrases       []string
	Corrections        []Correction
	StorePrefix        string
	EnableDebugLogging bool
}

// ProductNameCleaner turns scraped product titles into catalog names
type ProductNameCleaner struct {
	noisePhrases       []string
	corrections        []Correction
	storePrefix        string
	enableDebugLogging bool
}

// NewProductNameCleaner creates a cleaner from the given rule tables
func NewProductNameCleaner(config CleanerConfig) *ProductNameCleaner {
	phrases := make([]string, 0, len(config.NoisePhrases))
	for _, phrase := range config.NoisePhrases {
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		if phrase != "" {
			phrases = append(phrases, phrase)
		}
	}

	corrections := make([]Correction, 0, len(config.Corrections))
	for _, c := range config.Corrections {
		if c.From != "" {
			corrections = append(corrections, c)
		}
	}

	return &ProductNameCleaner{
		noisePhrases:       phrases,
		corrections:        corrections,
		storePrefix:        strings.TrimSpace(config.StorePrefix),
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Clean returns the catalog name for a scraped title, or "" when the title
// is not a product (empty, a bare price, or site boilerplate).
func (c *ProductNameCleaner) Clean(name, description string) string {
	cleaned, err := c.clean(name, description)
	if err != nil {
		if c.enableDebugLogging {
			log.Printf("[CLEAN] Discarding %q: %v", name, err)
		}
		return ""
	}
	return cleaned
}

func (c *ProductNameCleaner) clean(name, description string) (string, error) {
	original := name
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: empty name", domain.ErrEmptyOrNoisyName)
	}

	if isPriceLike(name) {
		return "", fmt.Errorf("%w: name is a price", domain.ErrEmptyOrNoisyName)
	}

	lower := strings.ToLower(name)
	for _, phrase := range c.noisePhrases {
		if strings.Contains(lower, phrase) {
			return "", fmt.Errorf("%w: contains %q", domain.ErrEmptyOrNoisyName, phrase)
		}
	}

	for _, fix := range c.corrections {
		name = strings.ReplaceAll(name, fix.From, fix.To)
	}

	name = collapseRepeatedRuns(name)
	name = strings.Join(strings.Fields(name), " ")

	if description != "" {
		if m := brandRegex.FindStringSubmatch(description); m != nil {
			brand := m[1]
			if !strings.Contains(strings.ToLower(name), strings.ToLower(brand)) {
				name = name + " " + brand
			}
		}
	}

	if c.storePrefix != "" && strings.HasPrefix(name, c.storePrefix+" ") && len(strings.Fields(name)) > 2 {
		name = strings.TrimPrefix(name, c.storePrefix+" ")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: nothing left after cleaning", domain.ErrEmptyOrNoisyName)
	}

	if c.enableDebugLogging {
		log.Printf("[CLEAN] %q -> %q", original, name)
	}

	return name, nil
}

// collapseRepeatedRuns rewrites every letter run that is an exact repetition
// of a shorter unit of at least two letters to a single copy of that unit
// ("BeefBeef" -> "Beef", "KaffeKaffeKaffe" -> "Kaffe").
func collapseRepeatedRuns(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(runes); {
		if !unicode.IsLetter(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}

		j := i
		for j < len(runes) && unicode.IsLetter(runes[j]) {
			j++
		}
		run := runes[i:j]
		b.WriteString(string(run[:repeatedUnitLength(run)]))
		i = j
	}

	return b.String()
}

// repeatedUnitLength returns the length of the shortest unit (two runes or more)
// that run is k >= 2 copies of, or len(run) when there is none.
func repeatedUnitLength(run []rune) int {
	n := len(run)
	for unit := 2; unit <= n/2; unit++ {
		if n%unit != 0 {
			continue
		}
		repeated := true
		for k := unit; k < n; k++ {
			if run[k] != run[k-unit] {
				repeated = false
				break
			}
		}
		if repeated {
			return unit
		}
	}
	return n
}
