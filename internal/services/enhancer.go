package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// PromptEnhancer rewrites a frame prompt with Gemini before it is sent to
// the image provider. It backs the autoImprove flag of frame generation and
// is optional: construct with an empty API key and Enhance becomes a
// pass-through.
type PromptEnhancer struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewPromptEnhancer(apiKey string) (*PromptEnhancer, error) {
	if apiKey == "" {
		log.Println("⚠ Prompt enhancer disabled (no GEMINI_API_KEY)")
		return &PromptEnhancer{}, nil
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.7)

	return &PromptEnhancer{client: client, model: model}, nil
}

func (e *PromptEnhancer) Close() {
	if e.client != nil {
		e.client.Close()
	}
}

func (e *PromptEnhancer) Enabled() bool { return e.model != nil }

// Enhance returns a richer version of prompt, or the original when the
// enhancer is disabled or the model call fails. Frame generation must not
// fail because of an optional rewrite.
func (e *PromptEnhancer) Enhance(ctx context.Context, prompt string) string {
	if e.model == nil {
		return prompt
	}

	instruction := "Rewrite the following image prompt to be more vivid and specific, " +
		"keeping the subject unchanged. Reply with the rewritten prompt only:\n\n" + prompt

	resp, err := e.model.GenerateContent(ctx, genai.Text(instruction))
	if err != nil {
		log.Printf("Prompt enhancement failed, using original: %v", err)
		return prompt
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return prompt
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	enhanced := strings.TrimSpace(b.String())
	if enhanced == "" {
		return prompt
	}
	return enhanced
}
