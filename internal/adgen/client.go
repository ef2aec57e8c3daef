package adgen

import (
	"context"
	"encoding/json"
)

// TextCompleter is the structured-completion side of the generative backend.
// Both methods constrain the model to a single JSON object and return its raw
// bytes; callers own field validation.
type TextCompleter interface {
	CompleteStructured(ctx context.Context, system, user string) (json.RawMessage, error)
	// CompleteStructuredMultimodal attaches img inline at reduced detail to
	// bound token cost.
	CompleteStructuredMultimodal(ctx context.Context, system, user string, img Image) (json.RawMessage, error)
}

// ImageService is the image-generation side of the generative backend.
type ImageService interface {
	GenerateImage(ctx context.Context, prompt, size string) (Image, error)
	EditImage(ctx context.Context, base Image, instructions, size string) (Image, error)
}
