package adgen

import (
	"context"
	"encoding/json"
	"fmt"
)

// scriptedCompleter replays canned structured-completion responses in order.
type scriptedCompleter struct {
	index     int
	responses []completion
}

type completion struct {
	raw string
	err error
}

func (c *scriptedCompleter) next() (json.RawMessage, error) {
	if c.index >= len(c.responses) {
		return nil, fmt.Errorf("completion script exhausted at call %d", c.index+1)
	}
	cur := c.responses[c.index]
	c.index++
	if cur.err != nil {
		return nil, cur.err
	}
	return json.RawMessage(cur.raw), nil
}

func (c *scriptedCompleter) CompleteStructured(context.Context, string, string) (json.RawMessage, error) {
	return c.next()
}

func (c *scriptedCompleter) CompleteStructuredMultimodal(context.Context, string, string, Image) (json.RawMessage, error) {
	return c.next()
}

// scriptedImages counts calls per operation and hands out distinguishable
// payloads, or fails when told to.
type scriptedImages struct {
	generateCalls []string
	editCalls     []string
	editBases     []Image
	generateErr   error
	editErr       error
}

func (s *scriptedImages) GenerateImage(_ context.Context, prompt, _ string) (Image, error) {
	if s.generateErr != nil {
		return Image{}, s.generateErr
	}
	s.generateCalls = append(s.generateCalls, prompt)
	return Image{MIME: "image/png", Data: []byte(fmt.Sprintf("generated-%d", len(s.generateCalls)))}, nil
}

func (s *scriptedImages) EditImage(_ context.Context, base Image, instructions, _ string) (Image, error) {
	if s.editErr != nil {
		return Image{}, s.editErr
	}
	s.editCalls = append(s.editCalls, instructions)
	s.editBases = append(s.editBases, base)
	return Image{MIME: "image/png", Data: []byte(fmt.Sprintf("edited-%d", len(s.editCalls)))}, nil
}

const conceptJSON = `{
	"headline": "Run Green This Summer",
	"primary_text": "Sustainable activewear that moves with you.",
	"cta": "Shop Now",
	"image_edit_instructions": "a runner in green activewear"
}`

func editCritiqueJSON(instructions string) string {
	return fmt.Sprintf(`{"critique":"background too dark","recommendation":"edit","edit_instructions":%q}`, instructions)
}

func newCritiqueJSON(instructions string) string {
	return fmt.Sprintf(`{"critique":"composition beyond repair","recommendation":"new","generation_instructions":%q}`, instructions)
}

func testBrief() Brief {
	return Brief{
		BrandInfo:      "Brand: EcoWear, sustainable activewear",
		TargetAudience: "Age 25-40, eco-conscious, fitness enthusiasts",
		MarketingGoal:  "Launch new summer collection",
	}
}
