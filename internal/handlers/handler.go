// Package handlers maps Telegram updates onto refinement-session intents.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ad-image-studio/internal/adgen"
	"ad-image-studio/internal/session"
	"ad-image-studio/internal/telegram"
)

type Options struct {
	Telegram      *telegram.Client
	Engine        *adgen.Engine
	Sessions      *session.Store
	MaxIterations int
	Logger        *slog.Logger
}

type Handler struct {
	tg         *telegram.Client
	engine     *adgen.Engine
	sessions   *session.Store
	defaultMax int
	logger     *slog.Logger
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	defaultMax := opts.MaxIterations
	if defaultMax < 1 {
		defaultMax = adgen.DefaultIterations
	}

	return &Handler{
		tg:         opts.Telegram,
		engine:     opts.Engine,
		sessions:   opts.Sessions,
		defaultMax: defaultMax,
		logger:     logger,
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.Message == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		return h.handleCommand(ctx, chatID, msg)
	}

	if msg.Text != "" {
		return h.tg.SendText(chatID, "Use /new to start a refinement session or /help for the command list.")
	}

	return nil
}

func (h *Handler) handleCommand(ctx context.Context, chatID int64, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return h.tg.SendText(chatID,
			"Ad Image Studio\n\n"+
				"I turn a marketing brief into an ad image and refine it round by round.\n\n"+
				"Commands:\n"+
				"/new <brand> | <audience> | <goal> - start a session\n"+
				"/step - critique and refine the current image\n"+
				"/status - show session progress\n"+
				"/iterations <1-10> - set the iteration budget\n"+
				"/download - get the latest image as a file\n"+
				"/reset - discard the session\n"+
				"/help - this message",
		)
	case "help":
		return h.tg.SendText(chatID,
			"Start with /new, separating brand info, target audience and marketing goal with |.\n\n"+
				"Example:\n/new EcoWear, sustainable activewear | age 25-40, eco-conscious | launch summer collection\n\n"+
				"Then run /step until the iteration budget is used up. Each step critiques the "+
				"latest image and either edits it or generates a fresh one.",
		)
	case "new":
		return h.handleNew(ctx, chatID, msg.CommandArguments())
	case "step":
		return h.handleStep(ctx, chatID)
	case "status":
		return h.handleStatus(chatID)
	case "iterations":
		return h.handleIterations(chatID, msg.CommandArguments())
	case "download":
		return h.handleDownload(chatID)
	case "reset":
		h.sessions.Delete(sessionID(chatID))
		return h.tg.SendText(chatID, "Session discarded. Start a new one with /new.")
	default:
		return h.tg.SendText(chatID, "Unknown command. See /help.")
	}
}

func (h *Handler) handleNew(ctx context.Context, chatID int64, args string) error {
	brief, ok := parseBrief(args)
	if !ok {
		return h.tg.SendText(chatID, "Usage: /new <brand info> | <target audience> | <marketing goal>")
	}

	id := sessionID(chatID)
	budget := h.newSessionBudget(id)
	h.sessions.Delete(id)
	h.sessions.Ensure(id, budget)

	h.tg.SendTyping(chatID)
	_ = h.tg.SendText(chatID, "Generating the ad concept and initial image…")

	err := h.sessions.Update(id, func(s *adgen.Session) error {
		return h.engine.Seed(ctx, s, brief)
	})
	if err != nil {
		h.logger.Error("seed failed", "chat_id", chatID, "err", err)
		h.sessions.Delete(id)
		return h.tg.SendText(chatID, userMessage(err))
	}

	snap, err := h.sessions.Snapshot(id)
	if err != nil {
		return err
	}

	if err := h.tg.SendText(chatID, conceptSummary(*snap.Concept, snap.MaxIterations)); err != nil {
		return err
	}

	latest, _ := snap.Latest()
	return h.tg.SendImage(chatID, latest.Image, "Iteration 0 (seed). Run /step to refine.")
}

func (h *Handler) handleStep(ctx context.Context, chatID int64) error {
	id := sessionID(chatID)

	h.tg.SendTyping(chatID)

	err := h.sessions.Update(id, func(s *adgen.Session) error {
		return h.engine.Step(ctx, s)
	})
	if errors.Is(err, session.ErrNotFound) {
		return h.tg.SendText(chatID, "No session yet. Start one with /new.")
	}
	if err != nil {
		h.logger.Error("step failed", "chat_id", chatID, "err", err)
		return h.tg.SendText(chatID, userMessage(err))
	}

	snap, err := h.sessions.Snapshot(id)
	if err != nil {
		return err
	}

	latest, _ := snap.Latest()
	caption := fmt.Sprintf("Iteration %d (%s)\n\nCritique: %s", latest.Index, latest.Operation, latest.Critique)
	if err := h.tg.SendImage(chatID, latest.Image, caption); err != nil {
		return err
	}

	if snap.State() == adgen.StateComplete {
		return h.tg.SendText(chatID, "Refinement complete. Use /download for the final file or /new for a fresh brief.")
	}
	remaining := snap.MaxIterations - len(snap.Iterations)
	return h.tg.SendText(chatID, fmt.Sprintf("%d step(s) left. Run /step to continue.", remaining))
}

func (h *Handler) handleStatus(chatID int64) error {
	snap, err := h.sessions.Snapshot(sessionID(chatID))
	if errors.Is(err, session.ErrNotFound) {
		return h.tg.SendText(chatID, "No session yet. Start one with /new.")
	}
	if err != nil {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "State: %s\n", snap.State())
	fmt.Fprintf(&sb, "Iterations: %d of %d\n", len(snap.Iterations), snap.MaxIterations)
	if snap.Concept != nil {
		fmt.Fprintf(&sb, "\nHeadline: %s\nCTA: %s\n", snap.Concept.Headline, snap.Concept.CTA)
	}
	for _, it := range snap.Iterations {
		fmt.Fprintf(&sb, "\n#%d %s — %s", it.Index, it.Operation, firstLine(it.Instructions))
	}
	return h.tg.SendText(chatID, sb.String())
}

func (h *Handler) handleIterations(chatID int64, args string) error {
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil || n < adgen.MinIterations || n > adgen.MaxIterationLimit {
		return h.tg.SendText(chatID, fmt.Sprintf("Usage: /iterations <%d-%d>", adgen.MinIterations, adgen.MaxIterationLimit))
	}

	id := sessionID(chatID)
	h.sessions.Ensure(id, n)
	if err := h.sessions.Update(id, func(s *adgen.Session) error {
		s.SetMaxIterations(n)
		return nil
	}); err != nil {
		return h.tg.SendText(chatID, userMessage(err))
	}
	return h.tg.SendText(chatID, fmt.Sprintf("Iteration budget set to %d.", n))
}

func (h *Handler) handleDownload(chatID int64) error {
	snap, err := h.sessions.Snapshot(sessionID(chatID))
	if errors.Is(err, session.ErrNotFound) {
		return h.tg.SendText(chatID, "No session yet. Start one with /new.")
	}
	if err != nil {
		return err
	}

	latest, ok := snap.Latest()
	if !ok {
		return h.tg.SendText(chatID, "The session has no image yet.")
	}
	return h.tg.SendDocument(chatID, latest.Image, "edited_image.png")
}

// newSessionBudget picks the iteration budget for a fresh session. A budget
// chosen via /iterations outlives the session it was set on.
func (h *Handler) newSessionBudget(id string) int {
	if prev, err := h.sessions.Snapshot(id); err == nil {
		return prev.MaxIterations
	}
	return h.defaultMax
}

func sessionID(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

func parseBrief(args string) (adgen.Brief, bool) {
	parts := strings.SplitN(args, "|", 3)
	if len(parts) != 3 {
		return adgen.Brief{}, false
	}

	brief := adgen.Brief{
		BrandInfo:      strings.TrimSpace(parts[0]),
		TargetAudience: strings.TrimSpace(parts[1]),
		MarketingGoal:  strings.TrimSpace(parts[2]),
	}
	if brief.BrandInfo == "" || brief.TargetAudience == "" || brief.MarketingGoal == "" {
		return adgen.Brief{}, false
	}
	return brief, true
}

func conceptSummary(c adgen.AdConcept, maxIterations int) string {
	var sb strings.Builder
	sb.WriteString("Concept ready:\n\n")
	fmt.Fprintf(&sb, "Headline: %s\n", c.Headline)
	fmt.Fprintf(&sb, "Primary text: %s\n", c.PrimaryText)
	if c.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", c.Description)
	}
	fmt.Fprintf(&sb, "CTA: %s\n", c.CTA)
	fmt.Fprintf(&sb, "\nImage brief: %s\n", c.ImageEditInstructions)
	fmt.Fprintf(&sb, "\nIteration budget: %d", maxIterations)
	return sb.String()
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	if len(text) > 120 {
		text = text[:120] + "…"
	}
	return text
}

// userMessage turns a failure into the text shown in chat. The user re-runs
// the same command; nothing is retried automatically.
func userMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrBusy):
		return "A step is already running for this chat. Wait for it to finish."
	case errors.Is(err, adgen.ErrAlreadySeeded):
		return "This chat already has a session. Use /reset to start over."
	case errors.Is(err, adgen.ErrNotSeeded):
		return "Start a session with /new first."
	case errors.Is(err, adgen.ErrComplete):
		return "The session reached its iteration limit. Use /download or /new."
	}

	switch adgen.KindOf(err) {
	case adgen.KindModerationBlocked:
		return "The request was blocked by the safety system. Run /step again; the critic will produce fresh instructions."
	case adgen.KindIncompleteResponse, adgen.KindMalformedOutput, adgen.KindInvalidRecommendation:
		return "The model returned an unusable response. Run the command again."
	case adgen.KindUpstreamError:
		return "The upstream API call failed. Run the command again."
	default:
		return "Something went wrong: " + err.Error()
	}
}
