package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/efsora/ai-service/internal/core"
)

// GeminiVision wraps a vision-capable Gemini model for captioning and table
// reconstruction. Temperature is pinned to 0 so captions are reproducible for
// a given image and model version.
type GeminiVision struct {
	client    *genai.Client
	modelName string
}

func NewGeminiVision(ctx context.Context, apiKey, modelName string) (*GeminiVision, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiVision{client: cl, modelName: modelName}, nil
}

func (g *GeminiVision) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// GenerateVision sends zero or more images plus a prompt in a single call and
// returns the flattened text response.
func (g *GeminiVision) GenerateVision(ctx context.Context, prompt string, images []core.ImageInput) (string, error) {
	m := g.client.GenerativeModel(g.modelName)
	m.SetTemperature(0)

	parts := make([]genai.Part, 0, len(images)+1)
	for _, img := range images {
		format := img.Format
		if format == "" {
			format = "png"
		}
		parts = append(parts, genai.ImageData(format, img.Data))
	}
	parts = append(parts, genai.Text(prompt))

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini vision generate: %w", err)
	}
	return strings.TrimSpace(flattenResponse(resp)), nil
}

var _ core.VisionModel = (*GeminiVision)(nil)
