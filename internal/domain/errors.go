package domain

import "errors"

var (
	// ErrMalformedPrice is returned when a recognised price notation holds numbers that cannot be parsed.
	// The price parser recovers from it locally; it never leaves the usecase layer.
	ErrMalformedPrice = errors.New("malformed price")

	// ErrEmptyOrNoisyName is returned when a candidate name is not a real product
	ErrEmptyOrNoisyName = errors.New("empty or non-product name")

	// ErrNoMatch is returned when no catalog entry scores above the match threshold
	ErrNoMatch = errors.New("no sale item matched")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrStoreNotFound is returned when no catalog exists for a store
	ErrStoreNotFound = errors.New("store not found")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrFetchFailure is returned when the offer page could not be fetched
	ErrFetchFailure = errors.New("offer page request failed")

	// ErrLLMNotConfigured is returned when recommendations are requested without an API key
	ErrLLMNotConfigured = errors.New("recipe recommender not configured")

	// ErrLLMFailure is returned when the recommender call fails
	ErrLLMFailure = errors.New("recipe recommender request failed")

	// ErrRecipeNotFound is returned when a recipe name is unknown
	ErrRecipeNotFound = errors.New("recipe not found")
)
