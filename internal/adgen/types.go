package adgen

import (
	"fmt"
	"strings"
)

// AdConcept is the structured ad copy produced once per session. The JSON
// tags match the contract given to the text model.
type AdConcept struct {
	Headline              string `json:"headline"`
	PrimaryText           string `json:"primary_text"`
	Description           string `json:"description,omitempty"`
	CTA                   string `json:"cta"`
	ImageEditInstructions string `json:"image_edit_instructions"`
}

// Brief is the marketing input a session starts from.
type Brief struct {
	BrandInfo      string
	TargetAudience string
	MarketingGoal  string
}

// Operation says how an iteration's image was produced.
type Operation string

const (
	OpGenerate Operation = "generate"
	OpEdit     Operation = "edit"
)

// Recommendation is the critic's next-action verdict.
type Recommendation string

const (
	RecommendEdit Recommendation = "edit"
	RecommendNew  Recommendation = "new"
)

// ParseRecommendation normalizes a model-returned recommendation value.
// Anything outside {edit, new} is rejected.
func ParseRecommendation(raw string) (Recommendation, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "edit":
		return RecommendEdit, nil
	case "new":
		return RecommendNew, nil
	default:
		return "", &Error{
			Kind:    KindInvalidRecommendation,
			Message: fmt.Sprintf("recommendation must be %q or %q, got %q", RecommendEdit, RecommendNew, raw),
		}
	}
}

// Iteration is one immutable entry in the refinement history. The seed
// (index 0) carries no critique or recommendation.
type Iteration struct {
	Index          int            `json:"index"`
	Image          Image          `json:"image"`
	Instructions   string         `json:"instructions"`
	Operation      Operation      `json:"operation"`
	Critique       string         `json:"critique,omitempty"`
	Recommendation Recommendation `json:"recommendation,omitempty"`
}

// CritiqueResult is the validated output of one critic call. Exactly one of
// EditInstructions / GenerationInstructions is set, matching Recommendation.
type CritiqueResult struct {
	Critique               string
	Recommendation         Recommendation
	EditInstructions       string
	GenerationInstructions string
}

// Instructions returns the instruction text for the recommended action.
func (r CritiqueResult) Instructions() string {
	if r.Recommendation == RecommendEdit {
		return r.EditInstructions
	}
	return r.GenerationInstructions
}
