// ABOUTME: Greeting handler for small talk and the general help menu
// ABOUTME: Also serves as the dispatcher's default when nothing else matches

package bot

import (
	"strings"

	"github.com/2389/support-hub/internal/session"
)

const helpMenu = "I can assist you with:\n\n" +
	"• Modem Installation - say 'install modem' for step-by-step setup\n" +
	"• Billing Questions - ask about charges, credits, or your bill\n" +
	"• Tech Support - report internet issues or slow speeds\n\n" +
	"Just let me know what you need!"

var greetingWords = []string{"hi", "hello", "hey", "good morning", "good afternoon", "good evening"}

// GreetingHandler answers greetings, gratitude and goodbyes, and offers the
// help menu for anything it does not recognize.
type GreetingHandler struct{}

func (h *GreetingHandler) Name() string { return "greeting" }

func (h *GreetingHandler) Handle(text string, _ []session.Message) Result {
	lower := strings.ToLower(text)

	switch {
	case hasAnyWord(lower, greetingWords...):
		return reply("Hello! Welcome to support. I'm here to help you with modem installation, billing questions, and internet troubleshooting. What can I help you with today?")
	case strings.Contains(lower, "how are you") || strings.Contains(lower, "what's up"):
		return reply("I'm doing great, thank you for asking! What can I assist you with?")
	case strings.Contains(lower, "thank") || strings.Contains(lower, "appreciate"):
		return reply("You're very welcome! Is there anything else I can help you with today?")
	case hasAnyWord(lower, "bye", "goodbye") || strings.Contains(lower, "see you"):
		return reply("Goodbye! Feel free to come back anytime you need assistance.")
	default:
		return reply(helpMenu)
	}
}

// matchGreeting routes obvious small talk to the greeting handler.
func matchGreeting(lower string) bool {
	return hasAnyWord(lower, greetingWords...) ||
		hasAnyWord(lower, "thanks", "thank", "bye", "goodbye", "help", "menu")
}

// hasAnyWord matches on word boundaries so short greetings like "hi" don't
// fire inside unrelated words.
func hasAnyWord(lower string, words ...string) bool {
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	for _, w := range words {
		if strings.Contains(w, " ") {
			if strings.Contains(lower, w) {
				return true
			}
			continue
		}
		for _, f := range fields {
			if f == w {
				return true
			}
		}
	}
	return false
}

func reply(lines ...string) Result {
	return Result{Replies: lines}
}
