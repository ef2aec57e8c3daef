package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ad-image-studio/internal/adgen"
	"ad-image-studio/internal/session"
)

//go:embed static/*
var staticFS embed.FS

type Options struct {
	Engine         *adgen.Engine
	Sessions       *session.Store
	MaxIterations  int
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

type Server struct {
	engine     *adgen.Engine
	sessions   *session.Store
	defaultMax int
	timeout    time.Duration
	logger     *slog.Logger
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 240 * time.Second
	}

	defaultMax := opts.MaxIterations
	if defaultMax < 1 {
		defaultMax = adgen.DefaultIterations
	}

	return &Server{
		engine:     opts.Engine,
		sessions:   opts.Sessions,
		defaultMax: defaultMax,
		timeout:    timeout,
		logger:     logger,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sessions", s.handleCreate)
	mux.HandleFunc("/api/sessions/", s.handleSession)

	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("/", http.FileServer(http.FS(staticSub)))

	return withLogging(mux, s.logger)
}

type apiError struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type createRequest struct {
	BrandInfo      string `json:"brand_info"`
	TargetAudience string `json:"target_audience"`
	MarketingGoal  string `json:"marketing_goal"`
	MaxIterations  int    `json:"max_iterations"`
}

type iterationView struct {
	Index          int    `json:"index"`
	Image          string `json:"image"`
	Instructions   string `json:"instructions"`
	Operation      string `json:"operation"`
	Critique       string `json:"critique,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

type sessionView struct {
	SessionID     string           `json:"session_id"`
	State         string           `json:"state"`
	Cursor        int              `json:"cursor"`
	MaxIterations int              `json:"max_iterations"`
	Concept       *adgen.AdConcept `json:"concept,omitempty"`
	Iterations    []iterationView  `json:"iterations"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body"})
		return
	}

	brief := adgen.Brief{
		BrandInfo:      strings.TrimSpace(req.BrandInfo),
		TargetAudience: strings.TrimSpace(req.TargetAudience),
		MarketingGoal:  strings.TrimSpace(req.MarketingGoal),
	}
	if brief.BrandInfo == "" || brief.TargetAudience == "" || brief.MarketingGoal == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "brand_info, target_audience and marketing_goal are required"})
		return
	}

	maxIterations := req.MaxIterations
	if maxIterations == 0 {
		maxIterations = s.defaultMax
	}

	id, _ := s.sessions.Create(maxIterations)

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	err := s.sessions.Update(id, func(sess *adgen.Session) error {
		return s.engine.Seed(ctx, sess, brief)
	})
	if err != nil {
		// A failed seed leaves nothing worth keeping around.
		s.sessions.Delete(id)
		s.writeError(w, err)
		return
	}

	s.writeSession(w, id)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.writeSession(w, id)
	case action == "step" && r.Method == http.MethodPost:
		s.handleStep(w, r, id)
	case action == "max_iterations" && r.Method == http.MethodPost:
		s.handleSetMaxIterations(w, r, id)
	case action == "image" && r.Method == http.MethodGet:
		s.handleImageDownload(w, r, id)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
	}
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request, id string) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	err := s.sessions.Update(id, func(sess *adgen.Session) error {
		return s.engine.Step(ctx, sess)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeSession(w, id)
}

func (s *Server) handleSetMaxIterations(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		MaxIterations int `json:"max_iterations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body"})
		return
	}

	err := s.sessions.Update(id, func(sess *adgen.Session) error {
		sess.SetMaxIterations(req.MaxIterations)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeSession(w, id)
}

// handleImageDownload serves the latest iteration's raw image bytes.
func (s *Server) handleImageDownload(w http.ResponseWriter, _ *http.Request, id string) {
	sess, err := s.sessions.Snapshot(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	latest, ok := sess.Latest()
	if !ok {
		writeJSON(w, http.StatusConflict, apiError{Error: "session has no image yet"})
		return
	}

	mime := latest.Image.MIME
	if mime == "" {
		mime = "image/png"
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", `attachment; filename="edited_image.png"`)
	_, _ = w.Write(latest.Image.Data)
}

func (s *Server) writeSession(w http.ResponseWriter, id string) {
	sess, err := s.sessions.Snapshot(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	view := sessionView{
		SessionID:     id,
		State:         string(sess.State()),
		Cursor:        sess.Cursor(),
		MaxIterations: sess.MaxIterations,
		Concept:       sess.Concept,
		Iterations:    make([]iterationView, 0, len(sess.Iterations)),
	}
	for _, it := range sess.Iterations {
		view.Iterations = append(view.Iterations, iterationView{
			Index:          it.Index,
			Image:          it.Image.DataURL(),
			Instructions:   it.Instructions,
			Operation:      string(it.Operation),
			Critique:       it.Critique,
			Recommendation: string(it.Recommendation),
		})
	}

	writeJSON(w, http.StatusOK, view)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	if status >= 500 {
		s.logger.Error("request failed", "err", err)
	} else {
		s.logger.Warn("request rejected", "err", err)
	}
	writeJSON(w, status, apiError{Error: msg, Kind: string(adgen.KindOf(err))})
}

// statusFor turns engine and store failures into a status plus a message the
// page shows verbatim. Nothing here is retried server-side.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict, "a step is already running for this session"
	case errors.Is(err, adgen.ErrAlreadySeeded):
		return http.StatusConflict, "session already has a concept"
	case errors.Is(err, adgen.ErrNotSeeded):
		return http.StatusConflict, "start the session before stepping"
	case errors.Is(err, adgen.ErrComplete):
		return http.StatusConflict, "session reached its iteration limit"
	}

	switch adgen.KindOf(err) {
	case adgen.KindModerationBlocked:
		return http.StatusUnprocessableEntity, "The request was blocked by the safety system. " +
			"Review the edit instructions, simplify or soften them, and try the step again."
	case adgen.KindIncompleteResponse, adgen.KindMalformedOutput, adgen.KindInvalidRecommendation:
		return http.StatusBadGateway, "The model returned an unusable response. Try the step again."
	case adgen.KindUpstreamError:
		return http.StatusBadGateway, "The upstream API call failed. Try again."
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withLogging(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info("http", "method", r.Method, "path", r.URL.Path, "dur_ms", time.Since(start).Milliseconds())
	})
}
