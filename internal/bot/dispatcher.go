// ABOUTME: Deterministic intent dispatcher for bot-controlled sessions
// ABOUTME: Fixed ordered matcher table with history-based stickiness and a default handler

package bot

import (
	"log/slog"
	"strings"

	"github.com/2389/support-hub/internal/session"
)

// Handler produces the bot's side of a conversation turn. Handlers are
// stateless: flow position is derived from the session history, so the same
// text and history always yield the same routing decision and reply class.
type Handler interface {
	Name() string
	Handle(text string, history []session.Message) Result
}

// ActionApplier is implemented by handlers whose gated actions have an
// effect to apply once a supervisor decides. The returned line becomes the
// system message recording the outcome.
type ActionApplier interface {
	ApplyAction(req ActionRequest, approved bool) string
}

// ActionRequest asks for supervisor approval of a sensitive action.
// Amount zero signals a non-monetary action such as a technician dispatch.
type ActionRequest struct {
	HandlerName string
	Amount      float64
	Reason      string
}

// Escalation flags a session for supervisor attention without blocking the
// bot (soft handoff).
type Escalation struct {
	Reason string
	Score  float64
}

// Result is one bot turn: zero or more replies, at most one gated action,
// and an optional escalation signal.
type Result struct {
	Replies    []string
	Action     *ActionRequest
	Escalation *Escalation
}

type route struct {
	match   func(text string) bool
	handler Handler
}

// DispatcherConfig tunes dispatcher behavior.
type DispatcherConfig struct {
	// EscalationThreshold is the sentiment score at or above which a turn
	// carries an escalation signal. Zero means the default (0.5).
	EscalationThreshold float64

	// CheckPasses overrides the tech-support remote check outcome.
	// Nil uses a random roll.
	CheckPasses func() bool
}

// Dispatcher routes each customer message to a handler. Matchers are tried
// in fixed priority order against the message text; when none match, the
// most recent customer message in the history that does match decides
// (keeping multi-step flows with the handler that started them); otherwise
// the default handler runs.
type Dispatcher struct {
	routes    []route
	fallback  Handler
	byName    map[string]Handler
	threshold float64
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher with the built-in handler table:
// modem install, billing dispute, tech support, then greeting as default.
func NewDispatcher(cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	threshold := cfg.EscalationThreshold
	if threshold <= 0 {
		threshold = defaultEscalationThreshold
	}

	modem := &ModemInstallHandler{}
	billing := &BillingDisputeHandler{}
	tech := NewTechSupportHandler(cfg.CheckPasses)
	greeting := &GreetingHandler{}

	d := &Dispatcher{
		routes: []route{
			{matchKeywords("install", "modem", "setup", "set up"), modem},
			{matchKeywords("bill", "charge", "credit", "refund", "movie", "rental"), billing},
			{matchKeywords("internet", "slow", "connection", "wifi", "speed"), tech},
			{matchGreeting, greeting},
		},
		fallback:  greeting,
		byName:    make(map[string]Handler),
		threshold: threshold,
		logger:    logger.With("component", "bot"),
	}
	for _, r := range d.routes {
		d.byName[r.handler.Name()] = r.handler
	}
	return d
}

// Dispatch selects a handler for the message and runs it. The history is
// the session's full ordered log including the message being dispatched.
func (d *Dispatcher) Dispatch(text string, history []session.Message) Result {
	h := d.route(text, history)
	d.logger.Debug("dispatch", "handler", h.Name())

	res := h.Handle(text, history)
	if res.Action != nil {
		res.Action.HandlerName = h.Name()
	}
	if res.Escalation == nil {
		if score := sentimentScore(text); score >= d.threshold {
			res.Escalation = &Escalation{
				Reason: "Negative sentiment detected",
				Score:  score,
			}
		}
	}
	return res
}

// ApplyOutcome applies a resolved gated action through its originating
// handler and returns the system line recording the outcome.
func (d *Dispatcher) ApplyOutcome(handlerName string, amount float64, reason string, approved bool) string {
	req := ActionRequest{HandlerName: handlerName, Amount: amount, Reason: reason}
	if h, ok := d.byName[handlerName]; ok {
		if applier, ok := h.(ActionApplier); ok {
			return applier.ApplyAction(req, approved)
		}
	}
	if approved {
		return "Supervisor approved your request."
	}
	return "Supervisor declined your request."
}

func (d *Dispatcher) route(text string, history []session.Message) Handler {
	lower := strings.ToLower(text)
	for _, r := range d.routes {
		if r.match(lower) {
			return r.handler
		}
	}

	// No direct match: stick with the handler of the most recent customer
	// message that did match one, so mid-flow replies ("ok", "done") stay
	// with the flow that started them.
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Sender != session.SenderCustomer {
			continue
		}
		prior := strings.ToLower(history[i].Content)
		for _, r := range d.routes {
			if r.match(prior) {
				return r.handler
			}
		}
	}

	return d.fallback
}

// matchKeywords reports whether any keyword occurs in the lowercased text.
func matchKeywords(keywords ...string) func(string) bool {
	return func(lower string) bool {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
		return false
	}
}

// lastBotContent returns the content of the most recent bot message in the
// history, skipping any trailing customer/system messages.
func lastBotContent(history []session.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Sender == session.SenderBot {
			return history[i].Content
		}
	}
	return ""
}
