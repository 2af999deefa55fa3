package providers

import (
	"context"
	"fmt"
)

// GenerationInput defines the standardized input for an inference call.
type GenerationInput struct {
	Model          string // Upstream model identifier, e.g. "stabilityai/sdxl-turbo"
	Prompt         string
	NegativePrompt string
	Steps          int
	Guidance       float64
	Width          int
	Height         int
	Seed           *int64 // Optional; omitted from the payload when nil
}

// GenerationOutput defines the standardized output of an inference call.
type GenerationOutput struct {
	ImageBytes  []byte
	ContentType string // Declared by the upstream; bytes are not validated against it
	Model       string // The model that actually produced the image (fallback-aware)
}

// UpstreamError is a non-2xx answer from the inference provider, carrying the
// HTTP status and a best-effort message extracted from the response body.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("HF error (%d): %s", e.Status, e.Message)
}

// ImageProvider is the interface an inference backend must implement.
type ImageProvider interface {
	// Generate produces an image from a text prompt.
	Generate(ctx context.Context, input GenerationInput) (*GenerationOutput, error)
	// Transform runs an image-to-image model over raw image bytes.
	Transform(ctx context.Context, model string, image []byte) (*GenerationOutput, error)
	// GetName returns the name of the provider.
	GetName() string
}
