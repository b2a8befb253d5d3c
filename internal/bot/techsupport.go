// ABOUTME: Tech support handler: remote health check, then fix or gated technician dispatch
// ABOUTME: The dispatch request carries amount zero (non-monetary gated action)

package bot

import (
	"math/rand"
	"strings"

	"github.com/2389/support-hub/internal/session"
)

const (
	dispatchReason = "Technician Dispatch Required (Signal Degradation)"

	techCheckingReply = "I'm sorry to hear about your internet issues. Let me run a remote system health check. This will take a moment..."
	techClearedReply  = "Good news! The system check cleared some temporary cache errors on your line. Your internet should be back to normal speed now. Please check it."
	techDispatchReply = "The system check detected a signal degradation that I can't fix remotely. We need to send a technician to your home."
	techPrompt        = "I can help troubleshoot internet connection issues. Are you experiencing problems with your internet?"
)

// TechSupportHandler troubleshoots connectivity complaints. The first
// message starts a remote check; the next turn either reports the line
// cleared or raises a gated technician dispatch. Which of the two happens
// is handler-internal randomness; the routing itself is deterministic.
type TechSupportHandler struct {
	checkPasses func() bool
}

// NewTechSupportHandler creates the handler. checkPasses decides the remote
// check outcome; nil uses a coin flip.
func NewTechSupportHandler(checkPasses func() bool) *TechSupportHandler {
	if checkPasses == nil {
		checkPasses = func() bool { return rand.Intn(2) == 0 }
	}
	return &TechSupportHandler{checkPasses: checkPasses}
}

func (h *TechSupportHandler) Name() string { return "tech_support" }

func (h *TechSupportHandler) Handle(text string, history []session.Message) Result {
	if lastBotContent(history) == techCheckingReply {
		if h.checkPasses() {
			return reply(techClearedReply)
		}
		res := reply(techDispatchReply)
		res.Action = &ActionRequest{Amount: 0, Reason: dispatchReason}
		return res
	}

	// Same keyword set the dispatcher routes on, so any routed complaint
	// starts the remote check instead of falling through to the prompt.
	lower := strings.ToLower(text)
	if strings.Contains(lower, "internet") || strings.Contains(lower, "slow") ||
		strings.Contains(lower, "connection") || strings.Contains(lower, "wifi") ||
		strings.Contains(lower, "speed") {
		return reply(techCheckingReply)
	}

	return reply(techPrompt)
}

// ApplyAction records the supervisor's decision on the dispatch.
func (h *TechSupportHandler) ApplyAction(_ ActionRequest, approved bool) string {
	if approved {
		return "A technician visit has been scheduled. You'll receive a confirmation call with the appointment window."
	}
	return "Supervisor declined the technician dispatch. Please contact us again if the issue persists."
}
