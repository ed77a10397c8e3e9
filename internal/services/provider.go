package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ImageProvider turns a prompt into one hosted image URL per call.
type ImageProvider interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
	Configured() bool
}

// OpenAIProvider calls the OpenAI images endpoint. The base URL is
// configurable so tests and compatible providers can stand in.
type OpenAIProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewOpenAIProvider(apiKey, baseURL string) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (p *OpenAIProvider) Configured() bool { return p.apiKey != "" }

func (p *OpenAIProvider) GenerateImage(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"model":  "dall-e-3",
		"prompt": prompt,
		"n":      1,
		"size":   "1024x1024",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", &UpstreamError{Message: "Error generating frames", Details: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var details json.RawMessage
		json.NewDecoder(resp.Body).Decode(&details)
		return "", &UpstreamError{
			Message: "Error generating frames",
			Status:  resp.StatusCode,
			Details: details,
		}
	}

	var result struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode provider response: %w", err)
	}

	if len(result.Data) == 0 || result.Data[0].URL == "" {
		return "", &UpstreamError{Message: "Provider returned no image"}
	}

	return result.Data[0].URL, nil
}
