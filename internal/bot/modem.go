// ABOUTME: Guided modem installation flow (soft-handoff scenario)
// ABOUTME: Flow position is derived from session history, never handler state

package bot

import (
	"strings"

	"github.com/2389/support-hub/internal/session"
)

var modemSteps = []string{
	"Great! Let's get your new modem set up.\n\nStep 1: Open the box and take out the modem and the power cord.",
	"Step 2: Connect the coax cable from the wall to the back of the modem. Make sure it's finger-tight.",
	"Step 3: Plug the power cord into the modem and then into an electrical outlet.",
	"Step 4: Wait for the 'Online' light to turn solid white. This might take up to 10 minutes.",
	"Step 5: Connect your devices to the WiFi using the Network Name (SSID) and Password printed on the bottom of the modem.",
}

const (
	modemComplete  = "Congratulations! Your modem should be all set up. Is there anything else?"
	modemCancelled = "Modem setup cancelled. How else can I help?"
	modemPrompt    = "I can help you install a new modem. Just say 'install modem' to get started."
)

// ModemInstallHandler walks the customer through the five setup steps, one
// per message. The current step is recovered from the last flow marker in
// the history, so identical history always resumes at the same point.
type ModemInstallHandler struct{}

func (h *ModemInstallHandler) Name() string { return "modem_install" }

func (h *ModemInstallHandler) Handle(text string, history []session.Message) Result {
	lower := strings.ToLower(text)

	if strings.Contains(lower, "modem") &&
		(strings.Contains(lower, "install") || strings.Contains(lower, "setup") || strings.Contains(lower, "set up")) {
		return reply(modemSteps[0])
	}

	step, inFlow := flowPosition(history)
	if !inFlow {
		return reply(modemPrompt)
	}

	if strings.Contains(lower, "quit") || strings.Contains(lower, "stop") {
		return reply(modemCancelled)
	}
	if step+1 < len(modemSteps) {
		return reply(modemSteps[step+1])
	}
	return reply(modemComplete)
}

// flowPosition finds the most recent flow marker in the history. A step
// text means the flow is live at that step; a cancel or completion marker
// means it is not.
func flowPosition(history []session.Message) (step int, inFlow bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Sender != session.SenderBot {
			continue
		}
		content := history[i].Content
		if content == modemCancelled || content == modemComplete {
			return 0, false
		}
		for s, stepText := range modemSteps {
			if content == stepText {
				return s, true
			}
		}
	}
	return 0, false
}
