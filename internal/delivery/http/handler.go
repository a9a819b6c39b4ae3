package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/agnesleth/hello-poor/internal/domain"
	"github.com/agnesleth/hello-poor/internal/usecase"
	"github.com/gin-gonic/gin"
)

// CacheStats reports the number of cached entries for the health check
type CacheStats interface {
	Size() int
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	offers          *usecase.OfferService
	recommendations *usecase.RecommendationService
	cache           CacheStats
}

// NewHandler creates a new HTTP handler. cache may be nil.
func NewHandler(offers *usecase.OfferService, recommendations *usecase.RecommendationService, cache CacheStats) *Handler {
	return &Handler{
		offers:          offers,
		recommendations: recommendations,
		cache:           cache,
	}
}

// ExtractRequest is the body of POST /api/v1/offers/extract
type ExtractRequest struct {
	Candidates []domain.Candidate `json:"candidates" binding:"required"`
}

// MatchRequest is the body of POST /api/v1/match
type MatchRequest struct {
	StoreIDs    []string `json:"store_ids" binding:"required,min=1"`
	Ingredients []string `json:"ingredients" binding:"required,min=1"`
}

// ImportRecipesRequest is the body of POST /api/v1/recipes
type ImportRecipesRequest struct {
	Recipes []domain.Recipe `json:"recipes" binding:"required,min=1"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	response := gin.H{
		"status":  "healthy",
		"service": "hello-poor",
		"version": "1.0.0",
	}
	if h.cache != nil {
		response["cache_entries"] = h.cache.Size()
	}
	c.JSON(http.StatusOK, response)
}

// ExtractOffers builds a catalog from raw candidate blocks without storing it
func (h *Handler) ExtractOffers(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	catalog, stats := h.offers.Extract(req.Candidates)
	c.JSON(http.StatusOK, gin.H{
		"items": catalog.Records(),
		"stats": stats,
	})
}

// ScrapeStore fetches a store's offer page and replaces its stored catalog
func (h *Handler) ScrapeStore(c *gin.Context) {
	storeID := c.Param("storeId")

	catalog, stats, err := h.offers.ScrapeStore(c.Request.Context(), storeID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"store_id": storeID,
		"items":    catalog.Records(),
		"stats":    stats,
	})
}

// GetStoreOffers returns the stored catalog of a store
func (h *Handler) GetStoreOffers(c *gin.Context) {
	storeID := c.Param("storeId")

	catalog, err := h.offers.Catalog(c.Request.Context(), storeID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"store_id": storeID,
		"items":    catalog.Records(),
	})
}

// ListStores returns every store with a stored catalog
func (h *Handler) ListStores(c *gin.Context) {
	stores, err := h.offers.ListStores(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stores": stores})
}

// MatchIngredients matches ingredients against the merged catalog of the given stores
func (h *Handler) MatchIngredients(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	results, err := h.offers.MatchIngredients(c.Request.Context(), req.StoreIDs, req.Ingredients)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// Recommend suggests recipes built around the items on sale in the user's stores
func (h *Handler) Recommend(c *gin.Context) {
	var req domain.RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	recommendations, err := h.recommendations.Recommend(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recommendations": recommendations})
}

// LatestRecommendations returns the most recent recommendation run of a user
func (h *Handler) LatestRecommendations(c *gin.Context) {
	run, err := h.recommendations.Latest(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no recommendations for user"})
		return
	}

	c.JSON(http.StatusOK, run)
}

// ImportRecipes stores recipes for the recommender
func (h *Handler) ImportRecipes(c *gin.Context) {
	var req ImportRecipesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	n, err := h.recommendations.ImportRecipes(c.Request.Context(), req.Recipes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"imported": n})
}

// respondError maps domain errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrStoreNotFound), errors.Is(err, domain.ErrRecipeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrFetchFailure), errors.Is(err, domain.ErrLLMFailure):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrLLMNotConfigured):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
