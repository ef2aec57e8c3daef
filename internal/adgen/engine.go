package adgen

import (
	"context"
	"io"
	"log/slog"
)

// Engine drives the refinement loop. It is the session's only mutator; a
// failed seed or step leaves the session exactly as it was.
type Engine struct {
	concepts *ConceptGenerator
	critic   *Critic
	images   ImageService
	size     string
	logger   *slog.Logger
}

type EngineOptions struct {
	Text      TextCompleter
	Images    ImageService
	ImageSize string
	Logger    *slog.Logger
}

func NewEngine(opts EngineOptions) *Engine {
	size := opts.ImageSize
	if size == "" {
		size = "1024x1024"
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Engine{
		concepts: NewConceptGenerator(opts.Text),
		critic:   NewCritic(opts.Text),
		images:   opts.Images,
		size:     size,
		logger:   logger,
	}
}

// Seed generates the ad concept and the initial image, then installs both as
// iteration 0. On any failure the session stays empty.
func (e *Engine) Seed(ctx context.Context, s *Session, brief Brief) error {
	if s.State() != StateEmpty {
		return ErrAlreadySeeded
	}

	concept, err := e.concepts.Generate(ctx, brief)
	if err != nil {
		return err
	}
	e.logger.Info("concept generated", "headline", concept.Headline)

	img, err := e.images.GenerateImage(ctx, concept.ImageEditInstructions, e.size)
	if err != nil {
		return err
	}

	s.Concept = &concept
	s.Iterations = append(s.Iterations, Iteration{
		Index:        0,
		Image:        img,
		Instructions: concept.ImageEditInstructions,
		Operation:    OpGenerate,
	})

	e.logger.Info("session seeded", "state", s.State(), "max_iterations", s.MaxIterations)
	return nil
}

// Step runs one critique and applies the recommended action, appending exactly
// one iteration. The step is atomic: on any failure nothing is appended and
// the next Step call re-runs the critic from scratch, so stale instructions
// are never applied to an unchanged image.
func (e *Engine) Step(ctx context.Context, s *Session) error {
	switch s.State() {
	case StateEmpty:
		return ErrNotSeeded
	case StateComplete:
		return ErrComplete
	}

	last := s.Iterations[s.Cursor()]

	verdict, err := e.critic.Critique(ctx, last.Image, *s.Concept, last.Index)
	if err != nil {
		return err
	}
	e.logger.Info("critique received", "iteration", last.Index, "recommendation", verdict.Recommendation)

	var (
		img Image
		op  Operation
	)
	switch verdict.Recommendation {
	case RecommendEdit:
		img, err = e.images.EditImage(ctx, last.Image, verdict.EditInstructions, e.size)
		op = OpEdit
	case RecommendNew:
		img, err = e.images.GenerateImage(ctx, verdict.GenerationInstructions, e.size)
		op = OpGenerate
	}
	if err != nil {
		return err
	}

	s.Iterations = append(s.Iterations, Iteration{
		Index:          last.Index + 1,
		Image:          img,
		Instructions:   verdict.Instructions(),
		Operation:      op,
		Critique:       verdict.Critique,
		Recommendation: verdict.Recommendation,
	})

	e.logger.Info("iteration appended", "index", last.Index+1, "operation", op, "state", s.State())
	return nil
}
