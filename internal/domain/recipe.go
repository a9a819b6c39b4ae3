package domain

import "time"

// Recipe is a recipe the recommender may choose from
type Recipe struct {
	Name            string   `json:"recipe_name"`
	URL             string   `json:"recipe_url"`
	ImageURL        string   `json:"recipe_img"`
	Category        string   `json:"category,omitempty"`
	MainIngredients []string `json:"main_ingredients"`
}

// RecipeSuggestion is one recipe picked by the recommender with the ingredients it believes are on sale
type RecipeSuggestion struct {
	RecipeName            string   `json:"recipe_name"`
	DiscountedIngredients []string `json:"discounted_ingredients"`
}

// RecommendRequest holds the inputs of a recommendation run
type RecommendRequest struct {
	UserID      string   `json:"user_id"`
	StoreIDs    []string `json:"store_ids" binding:"required"`
	Preferences []string `json:"preferences"`
}

// SavingsInfo describes the discount of one matched ingredient
type SavingsInfo struct {
	Ingredient         string `json:"ingredient"`
	Price              string `json:"price"`
	DiscountAmount     string `json:"discount_amount"`
	DiscountPercentage string `json:"discount_percentage"`
}

// Recommendation is a recipe with its ingredients mapped onto sale items
type Recommendation struct {
	RecipeName            string        `json:"recipe_name"`
	RecipeURL             string        `json:"recipe_url"`
	RecipeImage           string        `json:"recipe_img"`
	DiscountedIngredients []string      `json:"discounted_ingredients"`
	SavingsInfo           []SavingsInfo `json:"savings_info"`
	TotalDiscountPercent  float64       `json:"total_discount_percent"`
}

// RecommendationRun is a persisted recommendation result
type RecommendationRun struct {
	UserID          string           `json:"user_id"`
	StoreIDs        []string         `json:"store_ids"`
	Recommendations []Recommendation `json:"recommendations"`
	CreatedAt       time.Time        `json:"created_at"`
}
