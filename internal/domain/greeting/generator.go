package greeting

import (
	"context"
	"fmt"

	"office_cheer_bot/internal/domain/occasion"
)

// Request carries everything the generators need to personalize a greeting.
type Request struct {
	DisplayName  string
	Kind         occasion.Kind
	ElapsedYears int
	Milestone    bool
	Interests    []string
}

// GeneratedText is the personalized greeting body produced for one occasion.
type GeneratedText struct {
	Body string
}

// ImageHandle points at a generated greeting-card image.
type ImageHandle struct {
	URL string
}

// ContentGenerator produces the greeting text for an occasion.
// This decouples the pipeline from the specific LLM provider.
type ContentGenerator interface {
	Generate(ctx context.Context, req Request) (*GeneratedText, error)
}

// ImageGenerator produces a greeting-card image for an occasion.
type ImageGenerator interface {
	Generate(ctx context.Context, req Request) (*ImageHandle, error)
}

// GenerationError wraps a content or image provider failure. Generation
// failures are recoverable: the occasion is retried on a later scan.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
