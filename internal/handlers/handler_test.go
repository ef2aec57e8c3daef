package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ad-image-studio/internal/adgen"
	"ad-image-studio/internal/session"
)

func TestParseBrief(t *testing.T) {
	tests := []struct {
		name string
		args string
		want adgen.Brief
		ok   bool
	}{
		{
			name: "full brief",
			args: "EcoWear, sustainable activewear | age 25-40, eco-conscious | launch summer collection",
			want: adgen.Brief{
				BrandInfo:      "EcoWear, sustainable activewear",
				TargetAudience: "age 25-40, eco-conscious",
				MarketingGoal:  "launch summer collection",
			},
			ok: true,
		},
		{name: "missing separator", args: "EcoWear only"},
		{name: "two parts", args: "EcoWear | runners"},
		{name: "blank section", args: "EcoWear | | launch"},
		{name: "empty", args: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseBrief(tt.args)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "busy", err: session.ErrBusy, want: "already running"},
		{name: "complete", err: adgen.ErrComplete, want: "iteration limit"},
		{name: "not seeded", err: adgen.ErrNotSeeded, want: "/new"},
		{name: "moderation", err: adgen.WrapErr(adgen.KindModerationBlocked, "blocked", nil), want: "safety system"},
		{name: "incomplete", err: adgen.WrapErr(adgen.KindIncompleteResponse, "missing", nil), want: "unusable response"},
		{name: "upstream", err: adgen.WrapErr(adgen.KindUpstreamError, "down", nil), want: "upstream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, userMessage(tt.err), tt.want)
		})
	}
}

func TestNewSessionBudget(t *testing.T) {
	h := &Handler{sessions: session.NewStore(), defaultMax: adgen.DefaultIterations}
	id := sessionID(42)

	// No prior session: fall back to the configured default.
	assert.Equal(t, adgen.DefaultIterations, h.newSessionBudget(id))

	// A budget set via /iterations carries over to the next /new.
	h.sessions.Ensure(id, 7)
	assert.Equal(t, 7, h.newSessionBudget(id))

	h.sessions.Delete(id)
	assert.Equal(t, adgen.DefaultIterations, h.newSessionBudget(id))
}

func TestConceptSummary(t *testing.T) {
	c := adgen.AdConcept{
		Headline:              "Run Green",
		PrimaryText:           "Sustainable activewear.",
		CTA:                   "Shop Now",
		ImageEditInstructions: "a runner in green activewear",
	}

	out := conceptSummary(c, 3)
	assert.Contains(t, out, "Run Green")
	assert.Contains(t, out, "Shop Now")
	assert.Contains(t, out, "Iteration budget: 3")
	assert.NotContains(t, out, "Description:")

	c.Description = "extra context"
	assert.Contains(t, conceptSummary(c, 3), "Description: extra context")
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "short", firstLine("short"))
	assert.Equal(t, "first", firstLine("first\nsecond"))

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'x'
	}
	got := firstLine(string(long))
	assert.Len(t, []rune(got), 121)
}
