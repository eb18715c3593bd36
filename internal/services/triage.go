package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"shopsense-backend/internal/models"
)

// ErrUnknownAction means the reasoning service returned an action tag outside
// the four known variants.
var ErrUnknownAction = errors.New("reasoning service returned an unknown action")

// Action is the decision produced for each turn. Exactly one of the four
// variants comes out of a decision cycle; anything else is ErrUnknownAction.
type Action interface {
	isAction()
}

// ActionIdentifyPersona asks a vague first-time user who they are.
type ActionIdentifyPersona struct {
	Question string
}

// ActionSuggestCategories follows a persona reply with category ideas.
type ActionSuggestCategories struct {
	Persona string
}

// ActionClarify asks exactly one follow-up question.
type ActionClarify struct {
	Question string
}

// ActionSearch triggers the product search pipeline.
type ActionSearch struct {
	Query string
}

func (ActionIdentifyPersona) isAction()   {}
func (ActionSuggestCategories) isAction() {}
func (ActionClarify) isAction()           {}
func (ActionSearch) isAction()            {}

// historyWindow is how many trailing messages the decision prompt sees.
const historyWindow = 5

// Triage is the dialogue action router. A single structured-mode gateway call
// carries the full decision policy; the router's own obligation is only to
// validate the returned tag.
type Triage struct {
	gateway Gateway
	logger  *zap.Logger
}

func NewTriage(gateway Gateway, logger *zap.Logger) *Triage {
	return &Triage{gateway: gateway, logger: logger}
}

// Decide inspects the latest user message against recent history and returns
// the next action.
func (t *Triage) Decide(ctx context.Context, userText string, history []models.Message) (Action, error) {
	recent := history
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}
	historyJSON, err := json.Marshal(recent)
	if err != nil {
		return nil, fmt.Errorf("failed to encode history: %w", err)
	}

	var decision struct {
		Action   string `json:"action"`
		Question string `json:"question"`
		Persona  string `json:"persona"`
		Query    string `json:"query"`
	}
	if err := t.gateway.GenerateJSON(ctx, buildTriagePrompt(userText, string(historyJSON)), &decision); err != nil {
		return nil, err
	}

	switch decision.Action {
	case "identify_persona":
		return ActionIdentifyPersona{Question: decision.Question}, nil
	case "suggest_categories":
		return ActionSuggestCategories{Persona: decision.Persona}, nil
	case "clarify":
		return ActionClarify{Question: decision.Question}, nil
	case "search":
		return ActionSearch{Query: decision.Query}, nil
	default:
		t.logger.Warn("triage returned unrecognized action", zap.String("action", decision.Action))
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, decision.Action)
	}
}

// SuggestCategories generates the conversational category suggestions that
// follow a suggest_categories decision.
func (t *Triage) SuggestCategories(ctx context.Context, persona string) (string, error) {
	return t.gateway.Generate(ctx, buildSuggestionPrompt(persona))
}

func buildTriagePrompt(userText, historyJSON string) string {
	var b strings.Builder

	b.WriteString("You are the brain of a proactive, intelligent AI Shopping Assistant. Your goal is to guide the user from a vague idea to a concrete product search in a friendly, human-like manner.\n")
	b.WriteString("Analyze the user's latest request based on the provided conversation history and decide the single best next action.\n\n")

	b.WriteString("**Conversation History (Last 5 messages):** ")
	b.WriteString(historyJSON)
	b.WriteString("\n**User's Latest Request:** ")
	b.WriteString(fmt.Sprintf("%q", userText))
	b.WriteString("\n---\n")

	b.WriteString("**Step-by-Step Decision Logic (first match wins):**\n")
	b.WriteString("1. Is this a very vague, initial request with no established context? (e.g., \"help me shop\", \"i need tech\"). Action: `identify_persona`.\n")
	b.WriteString("2. Did you just ask for a persona and the user replied with one? (e.g., \"I'm a gamer\", \"student\"). Action: `suggest_categories`.\n")
	b.WriteString("3. Did you just suggest categories and the user picked one? Action: `search`.\n")
	b.WriteString("4. Does the request name a concrete product type plus at least two distinct concrete criteria (size, color, budget, use case)? Action: `search`.\n")
	b.WriteString("5. Have you already asked three or more clarifying questions and a product type is known? Action: `search`, using the best query you can form.\n")
	b.WriteString("6. If none of the above, more detail is needed. Action: `clarify`. Ask the *next logical question* - exactly one question, never more.\n")
	b.WriteString("---\n")

	b.WriteString("**Response Format:** Respond with ONLY a single, valid JSON object in one of these formats:\n")
	b.WriteString("* `{ \"action\": \"identify_persona\", \"question\": \"I can definitely help! To get started, what's the primary purpose? For example, are you a 'Gamer', a 'Student', a 'Remote Worker', or maybe 'Setting up a smart home'?\" }`\n")
	b.WriteString("* `{ \"action\": \"suggest_categories\", \"persona\": \"EXTRACTED_PERSONA_HERE\" }`\n")
	b.WriteString("* `{ \"action\": \"clarify\", \"question\": \"YOUR_CLARIFYING_QUESTION_HERE\" }`\n")
	b.WriteString("* `{ \"action\": \"search\", \"query\": \"YOUR_CONCISE_SEARCH_QUERY_HERE\" }`\n")

	return b.String()
}

func buildSuggestionPrompt(persona string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("You are a helpful shopping assistant. A user has identified as a %q.\n", persona))
	b.WriteString("Suggest 4-5 relevant product categories they might be interested in.\n")
	b.WriteString("Format your response as a friendly, conversational sentence with a question at the end.\n")
	b.WriteString("Example for \"Gamer\": \"Awesome! Gamers often look for items like High-Refresh-Rate Monitors, Mechanical Keyboards, Gaming Mice, or Noise-Cancelling Headsets. Do any of those sound like what you're looking for today?\"\n")

	return b.String()
}
