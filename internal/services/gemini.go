package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"shopsense-backend/internal/jsonrepair"
)

var (
	// ErrUpstreamUnavailable wraps transport failures and non-2xx responses
	// from the reasoning service.
	ErrUpstreamUnavailable = errors.New("reasoning service unavailable")

	// ErrEmptyResponse means the call succeeded but carried no usable text.
	ErrEmptyResponse = errors.New("reasoning service returned no content")
)

// Gateway is the reasoning-service surface the assistant flows depend on.
// Generate returns free text; GenerateJSON expects a decodable object and
// runs the response through the repairer before decoding into out.
type Gateway interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateJSON(ctx context.Context, prompt string, out interface{}) error
}

// GeminiService implements Gateway against the Gemini API. It performs no
// retries; retry policy belongs to callers.
type GeminiService struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	jsonModel *genai.GenerativeModel
	rateChan  chan struct{} // Token bucket
	logger    *zap.Logger
}

func NewGeminiService(ctx context.Context, apiKey, modelName string, concurrentReqs int, logger *zap.Logger) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.7)
	model.SetTopP(0.95)

	// Structured mode asks the model for JSON output up front; the repairer
	// still cleans whatever comes back.
	jsonModel := client.GenerativeModel(modelName)
	jsonModel.SetTemperature(0.3)
	jsonModel.SetTopP(0.95)
	jsonModel.ResponseMIMEType = "application/json"

	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:    client,
		model:     model,
		jsonModel: jsonModel,
		rateChan:  rateChan,
		logger:    logger,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

func (s *GeminiService) Generate(ctx context.Context, prompt string) (string, error) {
	return s.generate(ctx, s.model, prompt)
}

func (s *GeminiService) GenerateJSON(ctx context.Context, prompt string, out interface{}) error {
	text, err := s.generate(ctx, s.jsonModel, prompt)
	if err != nil {
		return err
	}
	return jsonrepair.Decode(text, out)
}

func (s *GeminiService) generate(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			s.logger.Warn("Gemini candidate stopped early",
				zap.Int("candidate", i),
				zap.String("finish_reason", cand.FinishReason.String()))
		}
	}

	text := extractText(resp)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
