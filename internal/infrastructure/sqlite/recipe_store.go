package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/agnesleth/hello-poor/internal/domain"
)

// RecipeStore persists recipes and recommendation runs
type RecipeStore struct {
	db *sql.DB
}

func NewRecipeStore(db *sql.DB) *RecipeStore {
	return &RecipeStore{db: db}
}

func scanRecipe(scanner interface{ Scan(...any) error }) (*domain.Recipe, error) {
	var r domain.Recipe
	var ingredients string

	err := scanner.Scan(&r.Name, &r.URL, &r.ImageURL, &r.Category, &ingredients)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(ingredients), &r.MainIngredients); err != nil {
		return nil, fmt.Errorf("decode ingredients of %q: %w", r.Name, err)
	}
	return &r, nil
}

const recipeCols = `name, url, image_url, category, main_ingredients`

// SaveRecipes inserts recipes, replacing any recipe with the same name
func (s *RecipeStore) SaveRecipes(ctx context.Context, recipes []domain.Recipe) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO recipes (`+recipeCols+`) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   url = excluded.url, image_url = excluded.image_url,
		   category = excluded.category, main_ingredients = excluded.main_ingredients`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range recipes {
		if r.Name == "" {
			return fmt.Errorf("%w: recipe without name", domain.ErrInvalidRequest)
		}
		ingredients := r.MainIngredients
		if ingredients == nil {
			ingredients = []string{}
		}
		encoded, err := json.Marshal(ingredients)
		if err != nil {
			return fmt.Errorf("encode ingredients of %q: %w", r.Name, err)
		}
		if _, err := stmt.ExecContext(ctx, r.Name, r.URL, r.ImageURL, r.Category, string(encoded)); err != nil {
			return fmt.Errorf("insert recipe %q: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListRecipes returns up to limit recipes in insertion order; limit <= 0 means all
func (s *RecipeStore) ListRecipes(ctx context.Context, limit int) ([]domain.Recipe, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+recipeCols+` FROM recipes ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []domain.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, *r)
	}
	return recipes, rows.Err()
}

// FindRecipe looks a recipe up by name, ignoring ASCII case
func (s *RecipeStore) FindRecipe(ctx context.Context, name string) (*domain.Recipe, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recipeCols+` FROM recipes WHERE name = ?`, name)
	r, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecipeNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return r, nil
}

// SaveRecommendationRun stores a recommendation result
func (s *RecipeStore) SaveRecommendationRun(ctx context.Context, run *domain.RecommendationRun) error {
	storeIDs, err := json.Marshal(run.StoreIDs)
	if err != nil {
		return fmt.Errorf("encode store ids: %w", err)
	}
	recommendations, err := json.Marshal(run.Recommendations)
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recommendation_runs (user_id, store_ids, recommendations, created_at) VALUES (?, ?, ?, ?)`,
		run.UserID, string(storeIDs), string(recommendations), run.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert recommendation run: %w", err)
	}
	return nil
}

// LatestRecommendationRun returns the most recent run of a user
func (s *RecipeStore) LatestRecommendationRun(ctx context.Context, userID string) (*domain.RecommendationRun, error) {
	var run domain.RecommendationRun
	var storeIDs, recommendations string

	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, store_ids, recommendations, created_at FROM recommendation_runs
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, userID,
	).Scan(&run.UserID, &storeIDs, &recommendations, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recommendation run: %w", err)
	}

	if err := json.Unmarshal([]byte(storeIDs), &run.StoreIDs); err != nil {
		return nil, fmt.Errorf("decode store ids: %w", err)
	}
	if err := json.Unmarshal([]byte(recommendations), &run.Recommendations); err != nil {
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}
	return &run, nil
}
