package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestSearchGenerative_DecodesCatalog(t *testing.T) {
	gateway := &stubGateway{jsonResponses: []string{`{
		"products": [
			{"name": "Aurora Lamp", "brand": "Lumio", "description": "A lamp.", "price": 49.99,
			 "specs": [{"feature": "Brightness: 800 lumens", "explanation": "Bright enough for a desk."}]}
		],
		"filterableAttributes": [{"name": "Brightness", "unit": "lumens"}]
	}`}}
	svc := NewSearchService(gateway, nil, "generative", zap.NewNop())

	result, err := svc.Search(context.Background(), "desk lamp")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(result.Products) != 1 || result.Products[0].Name != "Aurora Lamp" {
		t.Errorf("Unexpected products: %+v", result.Products)
	}
	if len(result.FilterableAttributes) != 1 || result.FilterableAttributes[0].Name != "Brightness" {
		t.Errorf("Unexpected attributes: %+v", result.FilterableAttributes)
	}
	if !strings.Contains(gateway.prompts[0], `"desk lamp"`) {
		t.Error("Generation prompt should embed the query")
	}
}

func TestSearchGenerative_EmptyListIsNoProductsFound(t *testing.T) {
	gateway := &stubGateway{jsonResponses: []string{`{"products": [], "filterableAttributes": []}`}}
	svc := NewSearchService(gateway, nil, "generative", zap.NewNop())

	_, err := svc.Search(context.Background(), "desk lamp")
	if !errors.Is(err, ErrNoProductsFound) {
		t.Errorf("Expected ErrNoProductsFound, got %v", err)
	}
}

func TestSearchGenerative_NilAttributesBecomeEmpty(t *testing.T) {
	gateway := &stubGateway{jsonResponses: []string{`{"products": [{"name": "X", "brand": "Y", "description": "", "price": 1, "specs": []}]}`}}
	svc := NewSearchService(gateway, nil, "generative", zap.NewNop())

	result, err := svc.Search(context.Background(), "x")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result.FilterableAttributes == nil {
		t.Error("Attributes should never be nil")
	}
}

func oxylabsTestServer(t *testing.T, status int, body string) (*OxylabsClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "user" || pass != "pass" {
			t.Error("Expected basic auth credentials on backend request")
		}
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Bad request body: %v", err)
		}
		if req["source"] != "amazon_search" || req["geo_location"] != "United States" {
			t.Errorf("Unexpected request parameters: %v", req)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))

	client := NewOxylabsClient("user", "pass", zap.NewNop())
	client.endpoint = server.URL
	return client, server
}

func TestOxylabsSearch_NormalizesResults(t *testing.T) {
	client, server := oxylabsTestServer(t, http.StatusOK, `{
		"content": {"results": [
			{"title": "Blue Lava Lamp", "brand": "GlowCo", "description": "Retro lamp.", "price": "$39.99", "image": "https://img.example/lamp.jpg", "url": "https://example.com/lamp"},
			{"title": "Mystery Lamp", "snippet": "From a search snippet", "price": 12.5},
			{}
		]}
	}`)
	defer server.Close()

	products, err := client.Search(context.Background(), "blue lava lamp")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("Expected 3 products, got %d", len(products))
	}

	full := products[0]
	if full.Brand != "GlowCo" || full.Price != 39.99 || full.ProductURL != "https://example.com/lamp" {
		t.Errorf("Fully populated item mishandled: %+v", full)
	}

	partial := products[1]
	if partial.Brand != "Generic" {
		t.Errorf("Missing brand should default to Generic, got %q", partial.Brand)
	}
	if partial.Description != "From a search snippet" {
		t.Errorf("Description should fall back to snippet, got %q", partial.Description)
	}
	if partial.Price != 12.5 {
		t.Errorf("Numeric price mishandled: %v", partial.Price)
	}
	if !strings.Contains(partial.ImageURL, "placehold.co") || !strings.Contains(partial.ImageURL, "Mystery+Lamp") {
		t.Errorf("Missing image should get a placeholder keyed by name, got %q", partial.ImageURL)
	}

	empty := products[2]
	if empty.Name != "N/A" || empty.Description != "No description available." || empty.Price != 0 || empty.ProductURL != "#" {
		t.Errorf("Empty item defaults wrong: %+v", empty)
	}
	if empty.Specs == nil {
		t.Error("Specs should be an empty slice, not nil")
	}
}

func TestOxylabsSearch_Non2xxIsUpstreamUnavailable(t *testing.T) {
	client, server := oxylabsTestServer(t, http.StatusForbidden, `{"message":"denied"}`)
	defer server.Close()

	_, err := client.Search(context.Background(), "lamp")
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("Expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{`"$39.99"`, 39.99},
		{`"1,299.00"`, 1299},
		{`42`, 42},
		{`"USD 15"`, 15},
		{`"free"`, 0},
		{``, 0},
		{`null`, 0},
	}

	for _, tc := range tests {
		if got := parsePrice(json.RawMessage(tc.in)); got != tc.want {
			t.Errorf("parsePrice(%s) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSearchLive_CompressionFallsBackToRawQuery(t *testing.T) {
	client, server := oxylabsTestServer(t, http.StatusOK, `{"content": {"results": [{"title": "Lamp"}]}}`)
	defer server.Close()

	gateway := &stubGateway{err: ErrUpstreamUnavailable}
	svc := NewSearchService(gateway, client, "live", zap.NewNop())

	result, err := svc.Search(context.Background(), "small blue lamp under $50")
	if err != nil {
		t.Fatalf("Search should survive a failed compression: %v", err)
	}
	if len(result.Products) != 1 {
		t.Fatalf("Expected 1 product, got %d", len(result.Products))
	}
	if result.FilterableAttributes[0].Name != "Price" {
		t.Errorf("Live mode should report the Price attribute, got %+v", result.FilterableAttributes)
	}
}

func TestSearchLive_EmptyBackendResultIsNoProductsFound(t *testing.T) {
	client, server := oxylabsTestServer(t, http.StatusOK, `{"content": {"results": []}}`)
	defer server.Close()

	gateway := &stubGateway{textResponses: []string{"blue lamp"}}
	svc := NewSearchService(gateway, client, "live", zap.NewNop())

	_, err := svc.Search(context.Background(), "blue lamp please")
	if !errors.Is(err, ErrNoProductsFound) {
		t.Errorf("Expected ErrNoProductsFound, got %v", err)
	}
}
