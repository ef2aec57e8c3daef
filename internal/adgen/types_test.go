package adgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRecommendation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Recommendation
		wantErr bool
	}{
		{name: "edit", input: "edit", want: RecommendEdit},
		{name: "new", input: "new", want: RecommendNew},
		{name: "uppercase", input: "EDIT", want: RecommendEdit},
		{name: "mixed case with spaces", input: "  New ", want: RecommendNew},
		{name: "empty", input: "", wantErr: true},
		{name: "regenerate", input: "regenerate", wantErr: true},
		{name: "free-form text", input: "edit the background", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRecommendation(tt.input)
			if tt.wantErr {
				assert.Equal(t, KindInvalidRecommendation, KindOf(err))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCritiqueResultInstructions(t *testing.T) {
	edit := CritiqueResult{Recommendation: RecommendEdit, EditInstructions: "brighten"}
	assert.Equal(t, "brighten", edit.Instructions())

	fresh := CritiqueResult{Recommendation: RecommendNew, GenerationInstructions: "studio shot"}
	assert.Equal(t, "studio shot", fresh.Instructions())
}
