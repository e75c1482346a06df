package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/utsav306/farmconnect-sub000/internal/ai"
)

// Model is the generative backend behind the assistant endpoints.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Analyze(ctx context.Context, image []byte, mimeType, prompt string) (string, error)
}

// AIService runs the farming assistant. When the model fails or answers
// with something that does not match the expected schema, the static
// fallback is returned with Degraded set.
type AIService struct {
	model    Model
	validate *validator.Validate
	log      *zap.Logger
}

// NewAIService creates a new assistant service
func NewAIService(model Model, validate *validator.Validate, log *zap.Logger) *AIService {
	return &AIService{model: model, validate: validate, log: log}
}

// DetectCropDisease diagnoses the crop in a prepared image
func (s *AIService) DetectCropDisease(ctx context.Context, image []byte, mimeType string) ai.Response[ai.DiseaseDiagnosis] {
	return run(ctx, s, "crop_disease", ai.FallbackDiagnosis(), func(ctx context.Context) (string, error) {
		return s.model.Analyze(ctx, image, mimeType, ai.DiseasePrompt)
	})
}

// ForecastPrice recognises the crop in a prepared image and forecasts its price
func (s *AIService) ForecastPrice(ctx context.Context, image []byte, mimeType string) ai.Response[ai.PriceForecast] {
	return run(ctx, s, "price_forecast", ai.FallbackPriceForecast(), func(ctx context.Context) (string, error) {
		return s.model.Analyze(ctx, image, mimeType, ai.PriceForecastPrompt)
	})
}

// TrendingCrops lists crops in demand in a region
func (s *AIService) TrendingCrops(ctx context.Context, req ai.TrendingRequest) (ai.Response[ai.TrendingCrops], error) {
	if err := Validate(s.validate, req); err != nil {
		return ai.Response[ai.TrendingCrops]{}, err
	}
	return run(ctx, s, "trending_crops", ai.FallbackTrendingCrops(req.Region), func(ctx context.Context) (string, error) {
		return s.model.Generate(ctx, ai.TrendingPrompt(req.Region))
	}), nil
}

// DiversificationOptions suggests crops a farm could add
func (s *AIService) DiversificationOptions(ctx context.Context, req ai.DiversificationRequest) (ai.Response[ai.DiversificationOptions], error) {
	if err := Validate(s.validate, req); err != nil {
		return ai.Response[ai.DiversificationOptions]{}, err
	}
	return run(ctx, s, "diversification", ai.FallbackDiversification(), func(ctx context.Context) (string, error) {
		return s.model.Generate(ctx, ai.DiversificationPrompt(req))
	}), nil
}

func run[T any](ctx context.Context, s *AIService, task string, fallback T, call func(context.Context) (string, error)) ai.Response[T] {
	text, err := call(ctx)
	if err == nil {
		var result T
		if err = ai.Decode(text, &result, s.validate); err == nil {
			return ai.Response[T]{Result: result, Source: ai.SourceModel}
		}
	}

	level := s.log.Warn
	if errors.Is(err, ai.ErrNotConfigured) {
		level = s.log.Debug
	}
	level("AI answer unavailable, serving fallback", zap.String("task", task), zap.Error(err))

	return ai.Response[T]{Result: fallback, Degraded: true, Source: ai.SourceFallback}
}
