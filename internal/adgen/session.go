package adgen

// State is where a refinement session sits in its lifecycle.
type State string

const (
	StateEmpty    State = "empty"
	StateSeeded   State = "seeded"
	StateRefining State = "refining"
	StateComplete State = "complete"
)

// Session holds the full refinement history for one brief. It is mutated only
// by Engine.Seed and Engine.Step; everything else reads it.
type Session struct {
	Concept       *AdConcept  `json:"concept,omitempty"`
	Iterations    []Iteration `json:"iterations"`
	MaxIterations int         `json:"max_iterations"`
}

const (
	MinIterations     = 1
	MaxIterationLimit = 10
	DefaultIterations = 3
)

// ClampIterations bounds a requested iteration budget to the supported range.
func ClampIterations(n int) int {
	if n < MinIterations {
		return MinIterations
	}
	if n > MaxIterationLimit {
		return MaxIterationLimit
	}
	return n
}

// NewSession returns an empty session with a bounded iteration budget.
func NewSession(maxIterations int) *Session {
	return &Session{MaxIterations: ClampIterations(maxIterations)}
}

// SetMaxIterations rebounds the iteration budget. Shrinking it below the
// current history length simply marks the session complete; history is never
// truncated.
func (s *Session) SetMaxIterations(n int) {
	s.MaxIterations = ClampIterations(n)
}

// Cursor is the index of the latest iteration, or -1 before seeding.
func (s *Session) Cursor() int { return len(s.Iterations) - 1 }

// Latest returns the most recent iteration. ok is false before seeding.
func (s *Session) Latest() (Iteration, bool) {
	if len(s.Iterations) == 0 {
		return Iteration{}, false
	}
	return s.Iterations[len(s.Iterations)-1], true
}

// State derives the lifecycle state. A session whose budget is a single
// iteration is complete as soon as it is seeded.
func (s *Session) State() State {
	switch {
	case s.Concept == nil || len(s.Iterations) == 0:
		return StateEmpty
	case len(s.Iterations) >= s.MaxIterations:
		return StateComplete
	case len(s.Iterations) == 1:
		return StateSeeded
	default:
		return StateRefining
	}
}

// Clone returns a shallow-history copy safe to hand to readers while the
// original keeps being appended to. Iterations are immutable once appended,
// so sharing their image payloads is fine.
func (s *Session) Clone() *Session {
	out := &Session{MaxIterations: s.MaxIterations}
	if s.Concept != nil {
		concept := *s.Concept
		out.Concept = &concept
	}
	if len(s.Iterations) > 0 {
		out.Iterations = make([]Iteration, len(s.Iterations))
		copy(out.Iterations, s.Iterations)
	}
	return out
}
