// Package session owns the per-conversation state object. Nothing here is a
// process-wide singleton; the state travels by reference through the
// orchestrator and handlers and lives in redis between requests.
package session

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"shopsense-backend/internal/catalog"
	"shopsense-backend/internal/models"
)

// Greeting is the fixed first assistant message of every session.
const Greeting = "Hello! I can find real products for you. To get started, you can tell me what you're looking for, or just say \"help me shop\" and I can guide you!"

// Loading is the single "AI is working" indicator for a session.
type Loading struct {
	Active bool   `json:"active"`
	Text   string `json:"text"`
}

// State is the full conversation state. Generation increments on every posted
// user message; a turn's results apply only while its generation is current.
type State struct {
	ID                   uuid.UUID                    `json:"id"`
	Messages             []models.Message             `json:"messages"`
	Products             []models.Product             `json:"products"`
	FilterableAttributes []models.FilterableAttribute `json:"filterableAttributes"`
	Filters              models.Filters               `json:"filters"`
	Comparison           []string                     `json:"comparison"`
	Loading              Loading                      `json:"loading"`
	Modal                models.ModalState            `json:"modal"`
	Generation           int64                        `json:"generation"`
	CreatedAt            time.Time                    `json:"createdAt"`
}

// New returns a fresh session seeded with the greeting.
func New(id uuid.UUID) *State {
	return &State{
		ID:                   id,
		Messages:             []models.Message{{Role: models.RoleAssistant, Text: Greeting}},
		Products:             []models.Product{},
		FilterableAttributes: []models.FilterableAttribute{},
		Filters:              models.DefaultFilters(),
		Comparison:           []string{},
		CreatedAt:            time.Now().UTC(),
	}
}

// Append adds a message. Blank text is dropped, never stored.
func (s *State) Append(role, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	s.Messages = append(s.Messages, models.Message{Role: role, Text: text})
}

// RecentMessages returns up to the last n messages, oldest-first.
func (s *State) RecentMessages(n int) []models.Message {
	if len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}

// ReplaceProducts swaps in a new search result wholesale: products are
// deduplicated by name so identity stays unambiguous, filters reset to their
// defaults, and comparison selections naming now-absent products are purged.
func (s *State) ReplaceProducts(products []models.Product, attrs []models.FilterableAttribute) {
	seen := make(map[string]bool, len(products))
	deduped := make([]models.Product, 0, len(products))
	for _, p := range products {
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		deduped = append(deduped, p)
	}

	s.Products = deduped
	if attrs == nil {
		attrs = []models.FilterableAttribute{}
	}
	s.FilterableAttributes = attrs
	s.Filters = models.DefaultFilters()

	kept := s.Comparison[:0]
	for _, name := range s.Comparison {
		if seen[name] {
			kept = append(kept, name)
		}
	}
	s.Comparison = kept
}

// ToggleComparison adds or removes one product name from the comparison
// selection. Only currently loaded products can be selected.
func (s *State) ToggleComparison(name string, selected bool) {
	if !selected {
		kept := s.Comparison[:0]
		for _, n := range s.Comparison {
			if n != name {
				kept = append(kept, n)
			}
		}
		s.Comparison = kept
		return
	}

	if !s.hasProduct(name) {
		return
	}
	for _, n := range s.Comparison {
		if n == name {
			return
		}
	}
	s.Comparison = append(s.Comparison, name)
}

func (s *State) hasProduct(name string) bool {
	for _, p := range s.Products {
		if p.Name == name {
			return true
		}
	}
	return false
}

func (s *State) SetLoading(text string) {
	s.Loading = Loading{Active: true, Text: text}
}

func (s *State) ClearLoading() {
	s.Loading = Loading{}
}

// FilteredProducts is the displayed list, recomputed on demand.
func (s *State) FilteredProducts() []models.Product {
	return catalog.Apply(s.Products, s.Filters)
}

// ComparisonProducts gathers the selected products in product-list order.
func (s *State) ComparisonProducts() []models.Product {
	return catalog.Select(s.Products, s.Comparison)
}

// View is the client-facing snapshot of a session.
type View struct {
	ID                   uuid.UUID                    `json:"id"`
	Messages             []models.Message             `json:"messages"`
	Products             []models.Product             `json:"products"`
	FilteredProducts     []models.Product             `json:"filteredProducts"`
	FilterableAttributes []models.FilterableAttribute `json:"filterableAttributes"`
	Filters              models.Filters               `json:"filters"`
	Comparison           []string                     `json:"comparison"`
	CanCompare           bool                         `json:"canCompare"`
	Loading              Loading                      `json:"loading"`
	Modal                models.ModalState            `json:"modal"`
	Generation           int64                        `json:"generation"`
}

// NewView builds the snapshot sent over HTTP and WebSocket.
func NewView(s *State) View {
	return View{
		ID:                   s.ID,
		Messages:             s.Messages,
		Products:             s.Products,
		FilteredProducts:     s.FilteredProducts(),
		FilterableAttributes: s.FilterableAttributes,
		Filters:              s.Filters,
		Comparison:           s.Comparison,
		CanCompare:           len(s.ComparisonProducts()) >= 2,
		Loading:              s.Loading,
		Modal:                s.Modal,
		Generation:           s.Generation,
	}
}
