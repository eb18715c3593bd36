package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"shopsense-backend/internal/models"
)

const defaultOxylabsEndpoint = "https://realtime.oxylabs.io/v1/queries"

// OxylabsClient queries the Oxylabs realtime scraper for live product data
// and maps raw results into the normalized Product shape. Missing fields
// degrade to defaults rather than failing the whole request.
type OxylabsClient struct {
	httpClient *http.Client
	endpoint   string
	username   string
	password   string
	logger     *zap.Logger
}

func NewOxylabsClient(username, password string, logger *zap.Logger) *OxylabsClient {
	return &OxylabsClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		endpoint:   defaultOxylabsEndpoint,
		username:   username,
		password:   password,
		logger:     logger,
	}
}

type oxylabsItem struct {
	Title       string          `json:"title"`
	Brand       string          `json:"brand"`
	Description string          `json:"description"`
	Snippet     string          `json:"snippet"`
	Price       json.RawMessage `json:"price"`
	Image       string          `json:"image"`
	URL         string          `json:"url"`
}

type oxylabsResponse struct {
	Content struct {
		Results []oxylabsItem `json:"results"`
	} `json:"content"`
}

func (c *OxylabsClient) Search(ctx context.Context, term string) ([]models.Product, error) {
	body, err := json.Marshal(map[string]interface{}{
		"source":       "amazon_search",
		"query":        term,
		"geo_location": "United States",
		"render":       "html",
		"parse":        true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: product search backend returned status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var decoded oxylabsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	products := make([]models.Product, 0, len(decoded.Content.Results))
	for _, item := range decoded.Content.Results {
		products = append(products, normalizeItem(item))
	}

	c.logger.Info("product search backend returned results",
		zap.String("term", term),
		zap.Int("count", len(products)))

	return products, nil
}

func normalizeItem(item oxylabsItem) models.Product {
	name := item.Title
	if name == "" {
		name = "N/A"
	}

	brand := item.Brand
	if brand == "" {
		brand = "Generic"
	}

	description := item.Description
	if description == "" {
		description = item.Snippet
	}
	if description == "" {
		description = "No description available."
	}

	imageURL := item.Image
	if imageURL == "" {
		imageURL = placeholderImageURL(name)
	}

	productURL := item.URL
	if productURL == "" {
		productURL = "#"
	}

	return models.Product{
		Name:        name,
		Brand:       brand,
		Description: description,
		Price:       parsePrice(item.Price),
		Specs:       []models.Spec{},
		ImageURL:    imageURL,
		ProductURL:  productURL,
	}
}

var priceJunkRe = regexp.MustCompile(`[^0-9.\-]+`)

// parsePrice accepts whatever the backend sends (quoted string, bare number,
// absent), strips everything but digits, decimal point and sign, and falls
// back to 0 when nothing parsable remains.
func parsePrice(raw json.RawMessage) float64 {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0
	}

	cleaned := priceJunkRe.ReplaceAllString(s, "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func placeholderImageURL(name string) string {
	return "https://placehold.co/400x400/CCCCCC/000000?text=" + url.QueryEscape(name)
}
