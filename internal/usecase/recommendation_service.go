package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/agnesleth/hello-poor/internal/domain"
)

// RecommendationConfig holds configuration for the recommendation service
type RecommendationConfig struct {
	MaxRecipes         int
	EnableDebugLogging bool
}

// RecommendationService suggests recipes that use items on sale in a user's stores
type RecommendationService struct {
	offers             *OfferService
	recipes            domain.RecipeRepository
	recommender        domain.RecipeRecommender
	matcher            *MatchingService
	maxRecipes         int
	enableDebugLogging bool
}

// NewRecommendationService creates a new recommendation service.
// recommender may be nil, in which case Recommend returns ErrLLMNotConfigured.
func NewRecommendationService(
	offers *OfferService,
	recipes domain.RecipeRepository,
	recommender domain.RecipeRecommender,
	matcher *MatchingService,
	config RecommendationConfig,
) *RecommendationService {
	maxRecipes := config.MaxRecipes
	if maxRecipes <= 0 {
		maxRecipes = 100
	}

	return &RecommendationService{
		offers:             offers,
		recipes:            recipes,
		recommender:        recommender,
		matcher:            matcher,
		maxRecipes:         maxRecipes,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Recommend picks recipes for the request's stores and maps their ingredients onto sale items.
// Flow: merged catalog -> recipes -> recommender -> match ingredients -> persist run
func (s *RecommendationService) Recommend(ctx context.Context, request *domain.RecommendRequest) ([]domain.Recommendation, error) {
	if request == nil || len(request.StoreIDs) == 0 {
		return nil, domain.ErrInvalidRequest
	}
	if s.recommender == nil {
		return nil, domain.ErrLLMNotConfigured
	}

	catalog, err := s.offers.Catalog(ctx, request.StoreIDs...)
	if err != nil {
		return nil, err
	}

	recommendations := []domain.Recommendation{}
	if catalog.Len() == 0 {
		log.Printf("[RECOMMEND] No sale items for stores %v", request.StoreIDs)
		return recommendations, nil
	}

	recipes, err := s.recipes.ListRecipes(ctx, s.maxRecipes)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	if len(recipes) == 0 {
		log.Printf("[RECOMMEND] No recipes available")
		return recommendations, nil
	}

	suggestions, err := s.recommender.RecommendRecipes(ctx, catalog.Names(), request.Preferences, recipes)
	if err != nil {
		if errors.Is(err, domain.ErrLLMFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrLLMFailure, err)
	}

	for _, suggestion := range suggestions {
		recipe, err := s.recipes.FindRecipe(ctx, suggestion.RecipeName)
		if err != nil {
			if errors.Is(err, domain.ErrRecipeNotFound) {
				if s.enableDebugLogging {
					log.Printf("[RECOMMEND] Skipping unknown recipe %q", suggestion.RecipeName)
				}
				continue
			}
			return nil, fmt.Errorf("find recipe %q: %w", suggestion.RecipeName, err)
		}

		recommendations = append(recommendations, s.buildRecommendation(recipe, suggestion, catalog))
	}

	run := &domain.RecommendationRun{
		UserID:          request.UserID,
		StoreIDs:        request.StoreIDs,
		Recommendations: recommendations,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.recipes.SaveRecommendationRun(ctx, run); err != nil {
		log.Printf("[RECOMMEND] Failed to save recommendation run: %v", err)
	}

	log.Printf("[RECOMMEND] %d recommendations for user %q over %d sale items", len(recommendations), request.UserID, catalog.Len())

	return recommendations, nil
}

// ImportRecipes stores recipes the recommender can choose from
func (s *RecommendationService) ImportRecipes(ctx context.Context, recipes []domain.Recipe) (int, error) {
	if len(recipes) == 0 {
		return 0, domain.ErrInvalidRequest
	}
	if err := s.recipes.SaveRecipes(ctx, recipes); err != nil {
		return 0, fmt.Errorf("save recipes: %w", err)
	}

	log.Printf("[RECOMMEND] Imported %d recipes", len(recipes))
	return len(recipes), nil
}

// Latest returns the most recent recommendation run of a user, or nil when there is none
func (s *RecommendationService) Latest(ctx context.Context, userID string) (*domain.RecommendationRun, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrInvalidRequest
	}
	return s.recipes.LatestRecommendationRun(ctx, userID)
}

// buildRecommendation replaces every matched ingredient with its catalog name and
// collects the discount of each match
func (s *RecommendationService) buildRecommendation(recipe *domain.Recipe, suggestion domain.RecipeSuggestion, catalog *domain.Catalog) domain.Recommendation {
	rec := domain.Recommendation{
		RecipeName:            recipe.Name,
		RecipeURL:             recipe.URL,
		RecipeImage:           recipe.ImageURL,
		DiscountedIngredients: make([]string, 0, len(suggestion.DiscountedIngredients)),
		SavingsInfo:           []domain.SavingsInfo{},
	}

	for _, ingredient := range suggestion.DiscountedIngredients {
		result := s.matcher.Match(ingredient, catalog)
		if !result.Matched() {
			rec.DiscountedIngredients = append(rec.DiscountedIngredients, ingredient)
			continue
		}

		item, _ := catalog.Get(*result.MatchedName)
		rec.DiscountedIngredients = append(rec.DiscountedIngredients, item.Name)

		record := item.Record()
		rec.SavingsInfo = append(rec.SavingsInfo, domain.SavingsInfo{
			Ingredient:         item.Name,
			Price:              record.Price,
			DiscountAmount:     record.DiscountAmount,
			DiscountPercentage: record.DiscountPercentage,
		})
		if item.DiscountPercentage != nil {
			rec.TotalDiscountPercent += float64(*item.DiscountPercentage)
		}
	}

	return rec
}
