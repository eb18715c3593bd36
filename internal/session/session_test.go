package session

import (
	"testing"

	"github.com/google/uuid"

	"shopsense-backend/internal/models"
)

func TestNew_StartsWithGreeting(t *testing.T) {
	st := New(uuid.New())

	if len(st.Messages) != 1 {
		t.Fatalf("Expected exactly the greeting, got %d messages", len(st.Messages))
	}
	if st.Messages[0].Role != models.RoleAssistant || st.Messages[0].Text != Greeting {
		t.Errorf("First message must be the fixed greeting, got %+v", st.Messages[0])
	}
	if st.Filters.Brand != models.BrandAll || st.Filters.SortBy != models.SortDefault {
		t.Errorf("Expected default filters, got %+v", st.Filters)
	}
}

func TestAppend_DropsBlankText(t *testing.T) {
	st := New(uuid.New())
	st.Append(models.RoleUser, "   ")
	st.Append(models.RoleUser, "")
	st.Append(models.RoleUser, "hello")

	if len(st.Messages) != 2 {
		t.Fatalf("Blank messages must not be stored, got %d messages", len(st.Messages))
	}
	if st.Messages[1].Text != "hello" {
		t.Errorf("Expected 'hello', got %q", st.Messages[1].Text)
	}
}

func TestRecentMessages_Window(t *testing.T) {
	st := New(uuid.New())
	for _, text := range []string{"a", "b", "c", "d", "e", "f"} {
		st.Append(models.RoleUser, text)
	}

	recent := st.RecentMessages(5)
	if len(recent) != 5 {
		t.Fatalf("Expected 5 messages, got %d", len(recent))
	}
	if recent[0].Text != "b" || recent[4].Text != "f" {
		t.Errorf("Wrong window: first=%q last=%q", recent[0].Text, recent[4].Text)
	}
}

func TestReplaceProducts_ResetsFiltersAndPurgesComparison(t *testing.T) {
	st := New(uuid.New())
	st.ReplaceProducts([]models.Product{
		{Name: "A", Brand: "x"}, {Name: "B", Brand: "y"},
	}, nil)
	st.ToggleComparison("A", true)
	st.ToggleComparison("B", true)
	st.Filters.Brand = "x"
	st.Filters.SortBy = models.SortPriceAsc
	st.Filters.Advanced["brightness"] = 500

	st.ReplaceProducts([]models.Product{
		{Name: "B", Brand: "y"}, {Name: "C", Brand: "z"},
	}, []models.FilterableAttribute{{Name: "Price", Unit: "$"}})

	if st.Filters.Brand != models.BrandAll || st.Filters.SortBy != models.SortDefault || len(st.Filters.Advanced) != 0 {
		t.Errorf("Filters must reset on replace, got %+v", st.Filters)
	}
	if len(st.Comparison) != 1 || st.Comparison[0] != "B" {
		t.Errorf("Comparison should keep only surviving names, got %v", st.Comparison)
	}
	if len(st.FilterableAttributes) != 1 {
		t.Errorf("Attributes not replaced: %+v", st.FilterableAttributes)
	}
}

func TestReplaceProducts_DeduplicatesByName(t *testing.T) {
	st := New(uuid.New())
	st.ReplaceProducts([]models.Product{
		{Name: "A", Brand: "first"},
		{Name: "A", Brand: "second"},
		{Name: "B"},
	}, nil)

	if len(st.Products) != 2 {
		t.Fatalf("Expected 2 unique products, got %d", len(st.Products))
	}
	if st.Products[0].Brand != "first" {
		t.Errorf("First occurrence should win, got brand %q", st.Products[0].Brand)
	}
}

func TestToggleComparison(t *testing.T) {
	st := New(uuid.New())
	st.ReplaceProducts([]models.Product{{Name: "A"}, {Name: "B"}}, nil)

	st.ToggleComparison("A", true)
	st.ToggleComparison("A", true) // idempotent
	st.ToggleComparison("Ghost", true)

	if len(st.Comparison) != 1 || st.Comparison[0] != "A" {
		t.Errorf("Expected only 'A' selected, got %v", st.Comparison)
	}

	st.ToggleComparison("A", false)
	if len(st.Comparison) != 0 {
		t.Errorf("Expected empty selection after removal, got %v", st.Comparison)
	}
}

func TestNewView_ComparisonEligibility(t *testing.T) {
	st := New(uuid.New())
	st.ReplaceProducts([]models.Product{{Name: "A"}, {Name: "B"}}, nil)

	if NewView(st).CanCompare {
		t.Error("Empty selection must not be comparable")
	}

	st.ToggleComparison("A", true)
	if NewView(st).CanCompare {
		t.Error("Single selection must not be comparable")
	}

	st.ToggleComparison("B", true)
	if !NewView(st).CanCompare {
		t.Error("Two selections must be comparable")
	}
}

func TestNewView_FilteredProducts(t *testing.T) {
	st := New(uuid.New())
	st.ReplaceProducts([]models.Product{
		{Name: "A", Brand: "x", Price: 10},
		{Name: "B", Brand: "y", Price: 5},
	}, nil)
	st.Filters.Brand = "x"

	view := NewView(st)
	if len(view.FilteredProducts) != 1 || view.FilteredProducts[0].Name != "A" {
		t.Errorf("Filtered view wrong: %+v", view.FilteredProducts)
	}
	if len(view.Products) != 2 {
		t.Errorf("Full product list must stay intact: %+v", view.Products)
	}
}
