package worker

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"shopsense-backend/internal/models"
	"shopsense-backend/internal/orchestrator"
	"shopsense-backend/internal/session"
)

func TestApplyTurn_CurrentGeneration(t *testing.T) {
	st := session.New(uuid.New())
	st.Generation = 3
	st.SetLoading("Thinking...")

	result := &orchestrator.TurnResult{
		Messages: []models.Message{{Role: models.RoleAssistant, Text: "Found them!"}},
		Search: &models.SearchResult{
			Products: []models.Product{{Name: "Aurora Lamp"}},
		},
	}

	if err := applyTurn(st, 3, result); err != nil {
		t.Fatalf("Current-generation turn must apply: %v", err)
	}
	if st.Messages[len(st.Messages)-1].Text != "Found them!" {
		t.Errorf("Reply not appended: %+v", st.Messages)
	}
	if len(st.Products) != 1 || st.Products[0].Name != "Aurora Lamp" {
		t.Errorf("Products not replaced: %+v", st.Products)
	}
	if st.Loading.Active {
		t.Error("Loading must clear when the turn applies")
	}
}

func TestApplyTurn_StaleGenerationDiscards(t *testing.T) {
	st := session.New(uuid.New())
	st.Generation = 4 // A newer message arrived while this turn ran.
	st.ReplaceProducts([]models.Product{{Name: "Keeper"}}, nil)
	before := len(st.Messages)

	result := &orchestrator.TurnResult{
		Messages: []models.Message{{Role: models.RoleAssistant, Text: "Stale reply"}},
		Search: &models.SearchResult{
			Products: []models.Product{{Name: "Stale Product"}},
		},
	}

	err := applyTurn(st, 3, result)
	if !errors.Is(err, session.ErrStaleGeneration) {
		t.Fatalf("Expected ErrStaleGeneration, got %v", err)
	}
	if len(st.Messages) != before {
		t.Errorf("Stale turn must not append messages: %+v", st.Messages)
	}
	if st.Products[0].Name != "Keeper" {
		t.Errorf("Stale turn must not replace products: %+v", st.Products)
	}
}

func TestApplyTurn_NoSearchLeavesProducts(t *testing.T) {
	st := session.New(uuid.New())
	st.ReplaceProducts([]models.Product{{Name: "Keeper"}}, nil)

	result := &orchestrator.TurnResult{
		Messages: []models.Message{{Role: models.RoleAssistant, Text: "What's your budget?"}},
	}

	if err := applyTurn(st, 0, result); err != nil {
		t.Fatalf("Turn without a search must apply: %v", err)
	}
	if len(st.Products) != 1 || st.Products[0].Name != "Keeper" {
		t.Errorf("Question turn must not touch products: %+v", st.Products)
	}
}
