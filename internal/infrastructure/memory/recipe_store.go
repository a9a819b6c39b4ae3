package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/agnesleth/hello-poor/internal/domain"
)

// RecipeStore keeps recipes and recommendation runs in process memory
type RecipeStore struct {
	mu      sync.RWMutex
	recipes []domain.Recipe
	runs    []domain.RecommendationRun
}

func NewRecipeStore() *RecipeStore {
	return &RecipeStore{}
}

func (s *RecipeStore) indexOf(name string) int {
	return slices.IndexFunc(s.recipes, func(r domain.Recipe) bool {
		return strings.EqualFold(r.Name, name)
	})
}

// SaveRecipes inserts recipes, replacing any recipe with the same name
func (s *RecipeStore) SaveRecipes(ctx context.Context, recipes []domain.Recipe) error {
	for _, r := range recipes {
		if r.Name == "" {
			return fmt.Errorf("%w: recipe without name", domain.ErrInvalidRequest)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range recipes {
		r.MainIngredients = slices.Clone(r.MainIngredients)
		if i := s.indexOf(r.Name); i >= 0 {
			r.Name = s.recipes[i].Name
			s.recipes[i] = r
			continue
		}
		s.recipes = append(s.recipes, r)
	}
	return nil
}

func (s *RecipeStore) ListRecipes(ctx context.Context, limit int) ([]domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.recipes)
	if limit > 0 && limit < n {
		n = limit
	}
	return slices.Clone(s.recipes[:n]), nil
}

func (s *RecipeStore) FindRecipe(ctx context.Context, name string) (*domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecipeNotFound, name)
	}
	r := s.recipes[i]
	return &r, nil
}

func (s *RecipeStore) SaveRecommendationRun(ctx context.Context, run *domain.RecommendationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = append(s.runs, *run)
	return nil
}

func (s *RecipeStore) LatestRecommendationRun(ctx context.Context, userID string) (*domain.RecommendationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.RecommendationRun
	for i := range s.runs {
		run := &s.runs[i]
		if run.UserID != userID {
			continue
		}
		if latest == nil || !run.CreatedAt.Before(latest.CreatedAt) {
			latest = run
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	return &out, nil
}
