// Package orchestrator sequences a conversation turn: route the user's text
// to an action, dispatch it, and produce the state changes for that turn.
// Every failure from the services below it becomes a single human-readable
// message; a turn never crashes the session.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"shopsense-backend/internal/jsonrepair"
	"shopsense-backend/internal/markup"
	"shopsense-backend/internal/models"
	"shopsense-backend/internal/services"
	"shopsense-backend/internal/session"
)

// Loading texts shown while a turn is in flight.
const (
	LoadingThinking = "Thinking..."
	LoadingIdeas    = "Coming up with ideas..."
)

// Modal titles and fallback bodies.
const (
	reviewModalTitle     = "Review Summary"
	comparisonModalTitle = "Product Comparison"
	reviewFallback       = "<p>Sorry, I couldn't fetch the reviews for this product right now.</p>"
	comparisonFallback   = "Sorry, there was an error generating the comparison."
)

type decider interface {
	Decide(ctx context.Context, userText string, history []models.Message) (services.Action, error)
	SuggestCategories(ctx context.Context, persona string) (string, error)
}

type searcher interface {
	Search(ctx context.Context, query string) (*models.SearchResult, error)
}

// TurnResult is everything a completed turn wants to apply to the session.
// Search is nil unless a search succeeded, so prior products survive failures.
type TurnResult struct {
	Messages []models.Message
	Search   *models.SearchResult
}

type Orchestrator struct {
	triage  decider
	search  searcher
	gateway services.Gateway
	cache   *gocache.Cache
	logger  *zap.Logger
}

func New(triage decider, search searcher, gateway services.Gateway, cache *gocache.Cache, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		triage:  triage,
		search:  search,
		gateway: gateway,
		cache:   cache,
		logger:  logger,
	}
}

// ProcessTurn runs one full turn for the latest user message. st is read for
// history and never mutated here; the caller applies the returned result
// under its own generation guard. progress receives loading-text updates.
func (o *Orchestrator) ProcessTurn(ctx context.Context, st *session.State, userText string, progress func(text string)) *TurnResult {
	report := func(text string) {
		if progress != nil {
			progress(text)
		}
	}
	report(LoadingThinking)

	action, err := o.triage.Decide(ctx, userText, st.RecentMessages(5))
	if err != nil {
		o.logger.Warn("triage failed", zap.String("session", st.ID.String()), zap.Error(err))
		return apology(err)
	}

	switch a := action.(type) {
	case services.ActionIdentifyPersona:
		return reply(a.Question)

	case services.ActionClarify:
		return reply(a.Question)

	case services.ActionSuggestCategories:
		report(LoadingIdeas)
		text, err := o.triage.SuggestCategories(ctx, a.Persona)
		if err != nil {
			o.logger.Warn("category suggestion failed", zap.String("session", st.ID.String()), zap.Error(err))
			return apology(err)
		}
		return reply(text)

	case services.ActionSearch:
		report(fmt.Sprintf("Searching for: %q", a.Query))
		result, err := o.search.Search(ctx, a.Query)
		if err != nil {
			o.logger.Warn("search failed",
				zap.String("session", st.ID.String()),
				zap.String("query", a.Query),
				zap.Error(err))
			return apology(err)
		}
		found := fmt.Sprintf("I found some products based on your request for %q. Check them out!", a.Query)
		return &TurnResult{
			Messages: []models.Message{{Role: models.RoleAssistant, Text: found}},
			Search:   result,
		}

	default:
		// Decide validates tags, so this only trips on a new variant that
		// was not wired up here.
		o.logger.Error("unhandled action variant", zap.String("session", st.ID.String()))
		return apology(services.ErrUnknownAction)
	}
}

// ReviewSummary produces the rendered review modal body for one product.
// Failures degrade to a fallback body; the modal always gets content.
func (o *Orchestrator) ReviewSummary(ctx context.Context, productName string) models.ModalState {
	modal := models.ModalState{IsOpen: true, Title: reviewModalTitle}

	key := "review:" + productName
	if cached, ok := o.cache.Get(key); ok {
		modal.Content = cached.(string)
		return modal
	}

	text, err := o.gateway.Generate(ctx, buildReviewPrompt(productName))
	if err != nil {
		o.logger.Warn("review summary failed", zap.String("product", productName), zap.Error(err))
		modal.Content = reviewFallback
		return modal
	}

	modal.Content = markup.Render(text)
	o.cache.Set(key, modal.Content, gocache.DefaultExpiration)
	return modal
}

// ComparisonSummary produces the rendered comparison modal body for the
// selected products. With fewer than two products it issues no call and
// reports ineligibility.
func (o *Orchestrator) ComparisonSummary(ctx context.Context, products []models.Product) (models.ModalState, bool) {
	if len(products) < 2 {
		return models.ModalState{}, false
	}
	modal := models.ModalState{IsOpen: true, Title: comparisonModalTitle}

	key := comparisonCacheKey(products)
	if cached, ok := o.cache.Get(key); ok {
		modal.Content = cached.(string)
		return modal, true
	}

	text, err := o.gateway.Generate(ctx, buildComparisonPrompt(products))
	if err != nil {
		o.logger.Warn("comparison generation failed", zap.Int("products", len(products)), zap.Error(err))
		modal.Content = comparisonFallback
		return modal, true
	}

	modal.Content = markup.Render(text)
	o.cache.Set(key, modal.Content, gocache.DefaultExpiration)
	return modal, true
}

func reply(text string) *TurnResult {
	return &TurnResult{Messages: []models.Message{{Role: models.RoleAssistant, Text: text}}}
}

// apology maps the error taxonomy onto the conversational fallback messages.
func apology(err error) *TurnResult {
	var malformed *jsonrepair.MalformedResponseError

	var text string
	switch {
	case errors.Is(err, services.ErrNoProductsFound):
		text = "No products found. Please try a different search."
	case errors.Is(err, services.ErrUnknownAction):
		text = "The AI returned an unexpected action. Please try again."
	case errors.As(err, &malformed):
		text = "Failed to interpret the AI's response format. Please try again."
	case errors.Is(err, services.ErrEmptyResponse):
		text = "Received an empty or invalid response from the AI model."
	case errors.Is(err, services.ErrUpstreamUnavailable):
		text = "The AI model had an issue with that request. Please try again."
	case errors.Is(err, context.DeadlineExceeded):
		text = "That took longer than expected. Please try again."
	default:
		text = "Sorry, I had trouble with that request. Could you try rephrasing?"
	}
	return reply(text)
}

func buildReviewPrompt(productName string) string {
	return fmt.Sprintf("You are a review aggregator. Write a detailed review summary for the product %q. Include a \"Pros\" and a \"Cons\" section, each with 3-4 bullet points. Use markdown for formatting.", productName)
}

func buildComparisonPrompt(products []models.Product) string {
	type entry struct {
		Name  string   `json:"name"`
		Specs []string `json:"specs"`
		Price float64  `json:"price"`
	}

	entries := make([]entry, len(products))
	for i, p := range products {
		features := make([]string, len(p.Specs))
		for j, s := range p.Specs {
			features[j] = s.Feature
		}
		entries[i] = entry{Name: p.Name, Specs: features, Price: p.Price}
	}
	details, _ := json.Marshal(entries)

	return fmt.Sprintf("You are a tech comparison expert. A user wants to compare the following products: %s. Provide a detailed, unbiased comparison in markdown. Start with a summary of which product is best for what type of user. Then, create a comparison table. Finally, provide a \"Final Verdict\" paragraph.", details)
}

func comparisonCacheKey(products []models.Product) string {
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
	}
	sort.Strings(names)
	return "comparison:" + strings.Join(names, "|")
}
