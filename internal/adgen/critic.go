package adgen

import (
	"context"
	"encoding/json"
)

// Critic reviews the latest image against the concept and recommends the next
// action.
type Critic struct {
	text TextCompleter
}

func NewCritic(text TextCompleter) *Critic {
	return &Critic{text: text}
}

type critiqueResponse struct {
	Critique               string `json:"critique"`
	Recommendation         string `json:"recommendation"`
	EditInstructions       string `json:"edit_instructions"`
	GenerationInstructions string `json:"generation_instructions"`
}

// Critique sends the image inline with the critique prompt and validates the
// structured verdict. Malformed model output is rejected here, never
// propagated into the session.
func (c *Critic) Critique(ctx context.Context, img Image, concept AdConcept, iterationIndex int) (CritiqueResult, error) {
	system, user := BuildCritiquePrompt(concept, iterationIndex)

	raw, err := c.text.CompleteStructuredMultimodal(ctx, system, user, img)
	if err != nil {
		return CritiqueResult{}, err
	}

	var resp critiqueResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return CritiqueResult{}, WrapErr(KindMalformedOutput, "critique response is not a JSON object", err)
	}

	if resp.Critique == "" {
		return CritiqueResult{}, &Error{Kind: KindIncompleteResponse, Message: "critique response missing critique"}
	}
	if resp.Recommendation == "" {
		return CritiqueResult{}, &Error{Kind: KindIncompleteResponse, Message: "critique response missing recommendation"}
	}

	rec, err := ParseRecommendation(resp.Recommendation)
	if err != nil {
		return CritiqueResult{}, err
	}

	result := CritiqueResult{
		Critique:               resp.Critique,
		Recommendation:         rec,
		EditInstructions:       resp.EditInstructions,
		GenerationInstructions: resp.GenerationInstructions,
	}

	switch rec {
	case RecommendEdit:
		if result.EditInstructions == "" {
			return CritiqueResult{}, &Error{
				Kind:    KindIncompleteResponse,
				Message: "recommendation is edit but edit_instructions is missing",
			}
		}
		result.GenerationInstructions = ""
	case RecommendNew:
		if result.GenerationInstructions == "" {
			return CritiqueResult{}, &Error{
				Kind:    KindIncompleteResponse,
				Message: "recommendation is new but generation_instructions is missing",
			}
		}
		result.EditInstructions = ""
	}

	return result, nil
}
