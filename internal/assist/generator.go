package assist

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used for assisted extraction.
const DefaultModelName = "gemini-2.5-flash"

// Generator produces text from a prompt. The concrete implementation talks
// to Gemini; tests substitute a local fake.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator calls the Gemini generate-content API with a low
// temperature to bias the model toward deterministic structured output.
type GeminiGenerator struct {
	model string
}

// NewGeminiGenerator returns a generator for the given model, or nil when no
// API credential is configured. A nil generator means assisted extraction is
// disabled and must fail fast without network access.
func NewGeminiGenerator(model string) *GeminiGenerator {
	if os.Getenv("GEMINI_API_KEY") == "" && os.Getenv("GOOGLE_API_KEY") == "" {
		return nil
	}
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiGenerator{model: model}
}

// GenerateText submits the prompt and returns the model's raw text reply.
func (g *GeminiGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("GenerateText: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.1),
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("GenerateText: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("GenerateText: empty response from model")
	}
	return text, nil
}
