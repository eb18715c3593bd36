package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"shopsense-backend/internal/models"
)

// ErrNoProductsFound means the pipeline ran but the result list was empty.
// The orchestrator turns this into a conversational message, not a hard error.
var ErrNoProductsFound = errors.New("no products found")

// ProductBackend is the live product-search service boundary.
type ProductBackend interface {
	Search(ctx context.Context, term string) ([]models.Product, error)
}

// SearchService turns a loose query into normalized products plus filterable
// attribute metadata. The two modes are interchangeable from the
// orchestrator's point of view.
type SearchService struct {
	gateway Gateway
	backend ProductBackend
	mode    string
	logger  *zap.Logger
}

// NewSearchService builds the pipeline. backend may be nil in generative mode.
func NewSearchService(gateway Gateway, backend ProductBackend, mode string, logger *zap.Logger) *SearchService {
	return &SearchService{gateway: gateway, backend: backend, mode: mode, logger: logger}
}

func (s *SearchService) Search(ctx context.Context, query string) (*models.SearchResult, error) {
	var (
		result *models.SearchResult
		err    error
	)
	if s.mode == "live" && s.backend != nil {
		result, err = s.searchLive(ctx, query)
	} else {
		result, err = s.searchGenerative(ctx, query)
	}
	if err != nil {
		return nil, err
	}

	if len(result.Products) == 0 {
		return nil, ErrNoProductsFound
	}
	if result.FilterableAttributes == nil {
		result.FilterableAttributes = []models.FilterableAttribute{}
	}
	return result, nil
}

// searchGenerative asks the reasoning service to synthesize a plausible
// catalog directly.
func (s *SearchService) searchGenerative(ctx context.Context, query string) (*models.SearchResult, error) {
	var result models.SearchResult
	if err := s.gateway.GenerateJSON(ctx, buildProductGenPrompt(query), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// searchLive compresses the query into a short search term, then hits the
// product-search backend. A failed compression falls back to the raw query
// rather than failing the search.
func (s *SearchService) searchLive(ctx context.Context, query string) (*models.SearchResult, error) {
	term, err := s.gateway.Generate(ctx, buildCompressionPrompt(query))
	if err != nil {
		s.logger.Warn("query compression failed, using raw query", zap.Error(err))
		term = query
	}
	term = strings.TrimSpace(term)
	if term == "" {
		term = query
	}

	products, err := s.backend.Search(ctx, term)
	if err != nil {
		return nil, err
	}

	return &models.SearchResult{
		Products: products,
		FilterableAttributes: []models.FilterableAttribute{
			{Name: "Price", Unit: "$"},
		},
	}, nil
}

func buildProductGenPrompt(query string) string {
	var b strings.Builder

	b.WriteString("You are a product database API. Your ONLY job is to respond with a single, valid JSON object.\n")
	b.WriteString(fmt.Sprintf("Based on the search query %q, generate a realistic list of 4 products and 2-3 relevant filterable attributes.\n", query))
	b.WriteString("Your response MUST be a single, valid JSON object.\n")
	b.WriteString("The object must have \"products\" and \"filterableAttributes\" keys.\n")
	b.WriteString("- \"products\": An array of objects. Each MUST have: name, brand, description (strings), price (number), specs (array of {feature, explanation}), ")
	b.WriteString("\"imageUrl\" (a `placehold.co` URL), and \"productUrl\" (a plausible but fake e-commerce URL like `https://www.examplestore.com/products/...`).\n")
	b.WriteString("- \"filterableAttributes\": An array of {name, unit} objects describing numeric facets present in the specs.\n")

	return b.String()
}

func buildCompressionPrompt(query string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Given the user's search query: %q, extract the most concise and effective product search term suitable for a direct e-commerce search API.\n", query))
	b.WriteString("Focus on the core product and key attributes.\n")
	b.WriteString("Example 1: \"small blue lava lamp under $50 for my desk\" -> \"small blue lava lamp\"\n")
	b.WriteString("Example 2: \"gaming headset with noise cancellation\" -> \"gaming headset noise cancellation\"\n")
	b.WriteString("Example 3: \"cheap ergonomic office chair\" -> \"ergonomic office chair\"\n")
	b.WriteString("Respond with ONLY the search term as plain text.\n")

	return b.String()
}
