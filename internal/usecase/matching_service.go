package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/agnesleth/hello-poor/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Token weight categories for word overlap scoring
const (
	weightFood        = 3.0 // Core food nouns (beef, kyckling, broccoli)
	weightDescriptive = 2.0 // Descriptive terms (fresh, rökt, ekologisk)
	weightDefault     = 1.0 // Everything else
)

// Scoring scales
const (
	containmentScale  = 100.0
	wordOverlapScale  = 90.0
	exactMatchScore   = 100.0
	defaultThreshold  = 50.0
	matchAllWorkerCap = 8
)

// foodTerms contains high-importance food keywords (weight 3.0)
var foodTerms = []string{
	// Proteins
	"beef", "chicken", "pork", "fish", "salmon", "cod", "shrimp", "tuna", "bacon", "sausage", "ham", "lamb", "turkey",
	"nöt", "nötfärs", "färs", "kyckling", "kycklingfilé", "fläsk", "fläskfilé", "lax", "torsk", "räkor", "tonfisk", "korv", "skinka",
	// Dairy
	"milk", "cheese", "yogurt", "butter", "cream", "egg", "eggs",
	"mjölk", "ost", "yoghurt", "smör", "grädde", "ägg", "halloumi", "fetaost", "mozzarella",
	// Grains
	"bread", "rice", "pasta", "flour", "noodles", "tortilla",
	"bröd", "ris", "mjöl", "nudlar", "tortillabröd",
	// Produce
	"potato", "potatoes", "onion", "carrot", "broccoli", "spinach", "tomato", "tomatoes", "lettuce",
	"cucumber", "pepper", "garlic", "lemon", "apple", "banana", "avocado", "mushroom", "mushrooms",
	"potatis", "lök", "morot", "morötter", "spenat", "tomat", "tomater", "sallad", "gurka", "paprika",
	"vitlök", "citron", "äpple", "banan", "svamp", "champinjoner",
	// Pantry
	"sauce", "beans", "lentils", "sugar", "oil", "coffee",
	"sås", "bönor", "linser", "socker", "olja", "kaffe",
}

// descriptiveTerms contains medium-importance descriptive keywords (weight 2.0)
var descriptiveTerms = []string{
	"fresh", "frozen", "organic", "smoked", "grilled", "dried", "canned", "crushed", "whole", "lean", "boneless",
	"färsk", "färska", "fryst", "frysta", "ekologisk", "ekologiska", "rökt", "grillad", "torkad", "krossade", "hel", "benfri",
}

// DefaultTermWeights returns the built-in word weights used when none are configured
func DefaultTermWeights() map[string]float64 {
	weights := make(map[string]float64, len(foodTerms)+len(descriptiveTerms))
	for _, term := range descriptiveTerms {
		weights[term] = weightDescriptive
	}
	for _, term := range foodTerms {
		weights[term] = weightFood
	}
	return weights
}

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	// Threshold is the score a match must strictly exceed. Zero means 50.
	Threshold float64
	// TermWeights maps normalized words to their overlap weight.
	// nil selects DefaultTermWeights; an empty map weighs every word 1.
	TermWeights        map[string]float64
	EnableDebugLogging bool
}

// MatchingService matches ingredient names against a sale item catalog
type MatchingService struct {
	threshold          float64
	termWeights        map[string]float64
	enableDebugLogging bool
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig) *MatchingService {
	threshold := config.Threshold
	if threshold <= 0 {
		threshold = defaultThreshold
	}

	weights := config.TermWeights
	if weights == nil {
		weights = DefaultTermWeights()
	}

	return &MatchingService{
		threshold:          threshold,
		termWeights:        weights,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Match returns the best catalog entry for ingredient.
// MatchedName stays nil when the best score does not exceed the threshold.
func (s *MatchingService) Match(ingredient string, catalog *domain.Catalog) domain.MatchResult {
	result, _ := s.scan(context.Background(), ingredient, catalog)
	return result
}

// FindBestMatch is Match with cancellation and an error for the no-match outcome.
// On ErrNoMatch the result is still returned so callers can report the score.
func (s *MatchingService) FindBestMatch(ctx context.Context, ingredient string, catalog *domain.Catalog) (*domain.MatchResult, error) {
	if strings.TrimSpace(ingredient) == "" {
		return nil, domain.ErrInvalidRequest
	}

	result, err := s.scan(ctx, ingredient, catalog)
	if err != nil {
		return nil, err
	}

	if !result.Matched() {
		return &result, fmt.Errorf("%w: %q (best score %.1f)", domain.ErrNoMatch, ingredient, result.Score)
	}
	return &result, nil
}

// MatchAll matches every ingredient against a read-only catalog concurrently.
// Results are returned in input order.
func (s *MatchingService) MatchAll(ctx context.Context, ingredients []string, catalog *domain.Catalog) ([]domain.MatchResult, error) {
	results := make([]domain.MatchResult, len(ingredients))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(matchAllWorkerCap)

	for i, ingredient := range ingredients {
		g.Go(func() error {
			result, err := s.scan(ctx, ingredient, catalog)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *MatchingService) scan(ctx context.Context, ingredient string, catalog *domain.Catalog) (domain.MatchResult, error) {
	result := domain.MatchResult{Query: ingredient}
	if catalog == nil || catalog.Len() == 0 {
		return result, nil
	}

	if catalog.Has(ingredient) {
		return s.accept(result, ingredient, exactMatchScore), nil
	}

	query := Normalize(ingredient)
	if query == "" {
		return result, nil
	}

	// An equal normalized name scores the maximum, and the index keeps the first such entry
	if name, ok := catalog.LookupNormalized(query); ok {
		return s.accept(result, name, containmentScale), nil
	}

	if s.enableDebugLogging {
		log.Printf("[MATCH] Searching for: %q (normalized %q)", ingredient, query)
	}

	bestName := ""
	highestScore := -1.0

	for _, item := range catalog.Items() {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		normalized := item.NormalizedName
		if normalized == "" {
			normalized = Normalize(item.Name)
		}

		score := s.calculateMatchScore(query, normalized)

		if s.enableDebugLogging && score > 0 {
			log.Printf("[MATCH] Candidate: %q | Score: %.1f", item.Name, score)
		}

		// Strictly greater: on ties the earliest catalog entry is kept
		if score > highestScore {
			highestScore = score
			bestName = item.Name
		}
	}

	result.Score = max(highestScore, 0)
	if highestScore > s.threshold {
		return s.accept(result, bestName, highestScore), nil
	}

	if s.enableDebugLogging {
		log.Printf("[MATCH] No match for %q (best %q at %.1f)", ingredient, bestName, highestScore)
	}
	return result, nil
}

func (s *MatchingService) accept(result domain.MatchResult, name string, score float64) domain.MatchResult {
	if s.enableDebugLogging {
		log.Printf("[MATCH] %q -> %q (score %.1f)", result.Query, name, score)
	}
	result.MatchedName = &name
	result.Score = score
	return result
}

// calculateMatchScore returns the better of the containment and word overlap scores
// for two normalized strings.
func (s *MatchingService) calculateMatchScore(query, name string) float64 {
	if query == "" || name == "" {
		return 0
	}
	return max(containmentScore(query, name), s.wordOverlapScore(query, name))
}

// containmentScore is the length ratio when one string contains the other
func containmentScore(query, name string) float64 {
	queryLen := float64(utf8.RuneCountInString(query))
	nameLen := float64(utf8.RuneCountInString(name))

	switch {
	case strings.Contains(name, query):
		return queryLen / nameLen * containmentScale
	case strings.Contains(query, name):
		return nameLen / queryLen * containmentScale
	default:
		return 0
	}
}

// wordOverlapScore weighs the shared words against the heavier of the two word sets
func (s *MatchingService) wordOverlapScore(query, name string) float64 {
	queryWords := wordSet(query)
	nameWords := wordSet(name)

	var shared, queryTotal, nameTotal float64
	for word := range queryWords {
		w := s.weight(word)
		queryTotal += w
		if nameWords[word] {
			shared += w
		}
	}
	for word := range nameWords {
		nameTotal += s.weight(word)
	}

	denominator := max(queryTotal, nameTotal)
	if denominator == 0 {
		return 0
	}
	return shared / denominator * wordOverlapScale
}

func (s *MatchingService) weight(word string) float64 {
	if w, ok := s.termWeights[word]; ok && w > 0 {
		return w
	}
	return weightDefault
}

// wordSet splits a normalized string into its distinct words
func wordSet(s string) map[string]bool {
	words := strings.Fields(s)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
