package adgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ConceptGenerator turns a marketing brief into a structured ad concept.
type ConceptGenerator struct {
	text TextCompleter
}

func NewConceptGenerator(text TextCompleter) *ConceptGenerator {
	return &ConceptGenerator{text: text}
}

// Generate runs one structured completion and validates the result. A
// response missing any required field fails with KindIncompleteResponse and
// is not retried here.
func (g *ConceptGenerator) Generate(ctx context.Context, brief Brief) (AdConcept, error) {
	system, user := BuildConceptPrompt(brief)

	raw, err := g.text.CompleteStructured(ctx, system, user)
	if err != nil {
		return AdConcept{}, err
	}

	var concept AdConcept
	if err := json.Unmarshal(raw, &concept); err != nil {
		return AdConcept{}, WrapErr(KindMalformedOutput, "concept response is not a JSON object", err)
	}

	if missing := missingConceptFields(concept); len(missing) > 0 {
		return AdConcept{}, &Error{
			Kind:    KindIncompleteResponse,
			Message: fmt.Sprintf("concept response missing required fields: %s", strings.Join(missing, ", ")),
		}
	}

	return concept, nil
}

func missingConceptFields(c AdConcept) []string {
	var missing []string
	if strings.TrimSpace(c.Headline) == "" {
		missing = append(missing, "headline")
	}
	if strings.TrimSpace(c.PrimaryText) == "" {
		missing = append(missing, "primary_text")
	}
	if strings.TrimSpace(c.CTA) == "" {
		missing = append(missing, "cta")
	}
	if strings.TrimSpace(c.ImageEditInstructions) == "" {
		missing = append(missing, "image_edit_instructions")
	}
	return missing
}
