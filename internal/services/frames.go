package services

import (
	"context"
	"fmt"
	"log"

	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/models"
)

// Frame-count synthesis strategies. "single" reproduces the original
// behavior of issuing one upstream call and repeating its URL; "distinct"
// issues one perturbed call per frame.
const (
	StrategySingle   = "single"
	StrategyDistinct = "distinct"
)

type FrameService struct {
	provider ImageProvider
	enhancer *PromptEnhancer
	strategy string
}

func NewFrameService(provider ImageProvider, enhancer *PromptEnhancer, strategy string) *FrameService {
	if strategy != StrategySingle && strategy != StrategyDistinct {
		log.Printf("Unknown frame strategy %q, using %q", strategy, StrategySingle)
		strategy = StrategySingle
	}
	return &FrameService{provider: provider, enhancer: enhancer, strategy: strategy}
}

// CheckConfig reports whether the upstream credential is present without
// touching the provider.
func (s *FrameService) CheckConfig() error {
	if !s.provider.Configured() {
		return &ConfigError{Message: "API configuration error"}
	}
	return nil
}

// Generate produces numberOfFrames image URLs for the prompt. With the
// distinct strategy, individual frame failures are skipped; the call fails
// only when no frame succeeds.
func (s *FrameService) Generate(ctx context.Context, req models.GenerateFramesRequest) ([]string, error) {
	if req.Prompt == "" {
		return nil, &ValidationError{Fields: map[string]string{"prompt": "Prompt is required"}}
	}
	if req.NumberOfFrames < models.MinFrames || req.NumberOfFrames > models.MaxFrames {
		return nil, &ValidationError{Fields: map[string]string{
			"numberOfFrames": fmt.Sprintf("numberOfFrames must be between %d and %d", models.MinFrames, models.MaxFrames),
		}}
	}
	if err := s.CheckConfig(); err != nil {
		return nil, err
	}

	prompt := req.Prompt
	if req.AutoImprove && s.enhancer != nil {
		prompt = s.enhancer.Enhance(ctx, prompt)
	}
	enhanced := buildFramePrompt(prompt, req.Style)

	if s.strategy == StrategySingle {
		return s.generateSingle(ctx, enhanced, req.NumberOfFrames)
	}
	return s.generateDistinct(ctx, enhanced, req.NumberOfFrames, req.VariationStrength)
}

func (s *FrameService) generateSingle(ctx context.Context, prompt string, count int) ([]string, error) {
	log.Printf("Generating frame with prompt: %s", prompt)

	url, err := s.provider.GenerateImage(ctx, prompt)
	if err != nil {
		return nil, err
	}

	frames := make([]string, count)
	for i := range frames {
		frames[i] = url
	}
	return frames, nil
}

func (s *FrameService) generateDistinct(ctx context.Context, prompt string, count int, strength float64) ([]string, error) {
	frames := make([]string, 0, count)
	var lastErr error

	for i := 1; i <= count; i++ {
		perturbed := fmt.Sprintf("%s, frame %d of %d, subtle variation", prompt, i, count)
		if strength > 0 {
			perturbed = fmt.Sprintf("%s (strength %.2f)", perturbed, strength)
		}

		url, err := s.provider.GenerateImage(ctx, perturbed)
		if err != nil {
			log.Printf("Frame %d/%d failed, skipping: %v", i, count, err)
			lastErr = err
			continue
		}
		frames = append(frames, url)
	}

	if len(frames) == 0 {
		return nil, &UpstreamError{
			Message: fmt.Sprintf("All %d frame generations failed", count),
			Details: errDetails(lastErr),
		}
	}
	return frames, nil
}

func buildFramePrompt(prompt, style string) string {
	if style != "" {
		return fmt.Sprintf("%s, in %s style, high quality, suitable as a video frame", prompt, style)
	}
	return prompt + ", high quality, suitable as a video frame"
}

func errDetails(err error) interface{} {
	if err == nil {
		return nil
	}
	if up, ok := err.(*UpstreamError); ok && up.Details != nil {
		return up.Details
	}
	return err.Error()
}
