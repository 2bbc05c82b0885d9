package core

import "context"

type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

// ImageInput is one image attached to a vision prompt. Format is the raster
// format hint ("png", "jpeg", ...), not a MIME type.
type ImageInput struct {
	Data   []byte
	Format string
}

// VisionModel is a vision-capable generative model. Implementations must
// accept several images in one call; batch table reconstruction depends on
// the model seeing a whole page batch at once.
type VisionModel interface {
	GenerateVision(ctx context.Context, prompt string, images []ImageInput) (string, error)
}
