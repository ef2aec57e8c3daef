package adgen

import (
	"fmt"
	"strings"
)

const conceptSystemPrompt = "You are a professional ad copywriter. " +
	"Return only a valid JSON object with all required fields."

// Safety steering lives in the prompt text itself: edit instructions must stay
// aesthetic and compositional so they do not trip the image moderation filter.
const criticSystemPrompt = "You are an expert image editor reviewing a marketing ad. " +
	"When providing instructions, ensure they are safe, professional, and suitable for all audiences. " +
	"Avoid any request that could be interpreted as explicit, violent, or inappropriate. " +
	"Focus on visual improvements such as color adjustments, composition changes, and element positioning. " +
	"Return only a valid JSON object with the requested fields."

// BuildConceptPrompt produces the system/user pair for the concept call.
func BuildConceptPrompt(brief Brief) (system, user string) {
	var sb strings.Builder
	sb.WriteString("Create a Facebook ad concept based on:\n")
	sb.WriteString(fmt.Sprintf("- Brand: %s\n", brief.BrandInfo))
	sb.WriteString(fmt.Sprintf("- Audience: %s\n", brief.TargetAudience))
	sb.WriteString(fmt.Sprintf("- Goal: %s\n\n", brief.MarketingGoal))
	sb.WriteString("Return JSON with these fields:\n")
	sb.WriteString("- headline: catchy headline (5-7 words)\n")
	sb.WriteString("- primary_text: main ad copy (1-2 sentences)\n")
	sb.WriteString("- description: additional context (optional)\n")
	sb.WriteString("- cta: call-to-action, e.g. \"Shop Now\"\n")
	sb.WriteString("- image_edit_instructions: detailed visual brief for the ad image\n")

	return conceptSystemPrompt, sb.String()
}

// BuildCritiquePrompt produces the system/user pair for one critique call.
// The attached image travels separately as an inline part.
func BuildCritiquePrompt(concept AdConcept, iterationIndex int) (system, user string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Analyze this Facebook ad (iteration %d) and decide how to improve it.\n\n", iterationIndex))
	sb.WriteString("Current ad:\n")
	sb.WriteString(fmt.Sprintf("- Headline: %s\n", concept.Headline))
	sb.WriteString(fmt.Sprintf("- Primary text: %s\n", concept.PrimaryText))
	sb.WriteString(fmt.Sprintf("- CTA: %s\n\n", concept.CTA))
	sb.WriteString("Give specific feedback on visual elements, composition, color scheme, and element positioning.\n\n")
	sb.WriteString("Then choose ONE next action:\n")
	sb.WriteString("- \"edit\" when targeted adjustments to this image are enough\n")
	sb.WriteString("- \"new\" when the composition is beyond repair and a fresh image is needed\n\n")
	sb.WriteString("Keep instructions aesthetic and concrete: say \"increase the brightness of the background\" ")
	sb.WriteString("or \"add a soft shadow to the text\", never \"make it better\".\n\n")
	sb.WriteString("Return JSON with:\n")
	sb.WriteString("- critique: your analysis\n")
	sb.WriteString("- recommendation: \"edit\" or \"new\"\n")
	sb.WriteString("- edit_instructions: detailed edit instructions (only when recommendation is \"edit\")\n")
	sb.WriteString("- generation_instructions: a full prompt for a fresh image (only when recommendation is \"new\")\n")

	return criticSystemPrompt, sb.String()
}
