package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/agnesleth/hello-poor/internal/domain"
	"github.com/sashabaranov/go-openai"
)

const (
	defaultModel           = openai.GPT4o
	defaultRecommendations = 5
	maxAttempts            = 3

	systemPrompt = "You are a culinary expert that recommends recipes based on user preferences and available ingredients. Return results in JSON format."
)

// RecommenderConfig holds configuration for the chat-completion recommender
type RecommenderConfig struct {
	APIKey          string
	Model           string
	BaseURL         string
	Recommendations int
	Timeout         time.Duration
}

// Recommender asks a chat-completion model which recipes make the best use of sale items
type Recommender struct {
	client          *openai.Client
	model           string
	recommendations int
	timeout         time.Duration
	backoff         func(attempt int) time.Duration
	debug           bool
}

// NewRecommender creates a new recommender
func NewRecommender(config RecommenderConfig) *Recommender {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}

	model := config.Model
	if model == "" {
		model = defaultModel
	}
	recommendations := config.Recommendations
	if recommendations <= 0 {
		recommendations = defaultRecommendations
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &Recommender{
		client:          openai.NewClientWithConfig(clientConfig),
		model:           model,
		recommendations: recommendations,
		timeout:         timeout,
		backoff:         func(attempt int) time.Duration { return time.Duration(attempt*3) * time.Second },
	}
}

// SetDebug enables or disables logging of prompts and raw responses
func (r *Recommender) SetDebug(debug bool) {
	r.debug = debug
}

type promptRecipe struct {
	Name            string   `json:"recipe_name"`
	MainIngredients []string `json:"main_ingredients"`
}

type recommendationsPayload struct {
	Recommendations []domain.RecipeSuggestion `json:"recommendations"`
}

// RecommendRecipes picks recipes for the given sale items. A response that is not
// the expected JSON yields an empty list rather than an error.
func (r *Recommender) RecommendRecipes(ctx context.Context, saleItems []string, preferences []string, recipes []domain.Recipe) ([]domain.RecipeSuggestion, error) {
	prompt, err := r.buildPrompt(saleItems, preferences, recipes)
	if err != nil {
		return nil, err
	}
	if r.debug {
		log.Printf("[LLM] Prompt (%d chars):\n%s", len(prompt), prompt)
	}

	request := openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		// go-openai drops a zero temperature from the request body
		Temperature: math.SmallestNonzeroFloat32,
	}

	var resp openai.ChatCompletionResponse
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
		resp, lastErr = r.client.CreateChatCompletion(attemptCtx, request)
		cancel()

		if lastErr == nil {
			break
		}
		log.Printf("[LLM] Chat completion attempt %d failed: %v", attempt, lastErr)

		if ctx.Err() != nil || !retryable(lastErr) || attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(r.backoff(attempt)):
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLLMFailure, lastErr)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: response without choices", domain.ErrLLMFailure)
	}

	content := resp.Choices[0].Message.Content
	if r.debug {
		log.Printf("[LLM] Raw response: %s", content)
	}

	suggestions := parseSuggestions(content)
	log.Printf("[LLM] %d recipe suggestions from %s", len(suggestions), r.model)
	return suggestions, nil
}

// retryable reports whether a failed request may succeed when repeated
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 429 || reqErr.HTTPStatusCode >= 500
	}
	return true
}

func (r *Recommender) buildPrompt(saleItems []string, preferences []string, recipes []domain.Recipe) (string, error) {
	items, err := json.MarshalIndent(saleItems, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode sale items: %w", err)
	}

	listed := make([]promptRecipe, len(recipes))
	for i, recipe := range recipes {
		listed[i] = promptRecipe{Name: recipe.Name, MainIngredients: recipe.MainIngredients}
	}
	recipeJSON, err := json.MarshalIndent(listed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode recipes: %w", err)
	}

	userPreferences := "none"
	if len(preferences) > 0 {
		userPreferences = strings.Join(preferences, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Given the following information, recommend %d recipes that best match the user's preferences\n", r.recommendations)
	b.WriteString("and utilize ingredients that are on sale in their allowed stores.\n\n")
	fmt.Fprintf(&b, "User Preferences: %s\n\n", userPreferences)
	fmt.Fprintf(&b, "Items on Sale:\n%s\n\n", items)
	fmt.Fprintf(&b, "Available Recipes:\n%s\n\n", recipeJSON)
	b.WriteString("For each recipe, identify which ingredients in the recipe are on sale items.\n")
	b.WriteString("Make sure to EXACTLY match the ingredient names to the sale items.\n\n")
	fmt.Fprintf(&b, "Return your answer as a JSON object containing exactly %d recipe names with a list of discounted ingredients:\n", r.recommendations)
	b.WriteString(`{"recommendations": [{"recipe_name": "Recipe Name", "discounted_ingredients": ["EXACTLY Item 1 from sale items", "EXACTLY Item 2 from sale items"]}]}`)
	b.WriteString("\n")

	return b.String(), nil
}

// parseSuggestions decodes the model's JSON answer, tolerating a surrounding code fence
func parseSuggestions(content string) []domain.RecipeSuggestion {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var payload recommendationsPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		log.Printf("[LLM] Unparseable response, returning no suggestions: %v", err)
		return []domain.RecipeSuggestion{}
	}

	suggestions := make([]domain.RecipeSuggestion, 0, len(payload.Recommendations))
	for _, s := range payload.Recommendations {
		s.RecipeName = strings.TrimSpace(s.RecipeName)
		if s.RecipeName == "" {
			continue
		}
		suggestions = append(suggestions, s)
	}
	return suggestions
}
