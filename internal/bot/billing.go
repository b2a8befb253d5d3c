// ABOUTME: Billing dispute handler with the gated credit request (hard-handoff scenario)
// ABOUTME: Disputed movie-rental charges require supervisor approval before a credit is issued

package bot

import (
	"fmt"
	"strings"

	"github.com/2389/support-hub/internal/session"
)

const (
	movieRentalAmount = 14.99
	movieRentalReason = "Movie Rental Dispute - Customer claims unauthorized charge"

	billingChargeQuestion = "I see a movie rental charge of $14.99 on your account. Is this charge correct?"
	billingDisputeReply   = "I understand you're disputing a movie rental charge. Let me request a credit for you."
	billingGeneralReply   = "I can help with billing questions. What would you like to know about your bill?"
	billingPrompt         = "I can help with billing and credit requests. What do you need assistance with?"
)

// BillingDisputeHandler answers billing questions and raises a gated credit
// request when the customer disputes the movie rental charge.
type BillingDisputeHandler struct{}

func (h *BillingDisputeHandler) Name() string { return "billing" }

func (h *BillingDisputeHandler) Handle(text string, history []session.Message) Result {
	lower := strings.ToLower(text)
	disputing := strings.Contains(lower, "not") ||
		strings.Contains(lower, "didn't") ||
		strings.Contains(lower, "never")

	// Short denials ("not me") right after the charge question count as a
	// dispute even without billing keywords in the message itself.
	if disputing && lastBotContent(history) == billingChargeQuestion {
		return h.disputeResult()
	}

	if strings.Contains(lower, "bill") || strings.Contains(lower, "charge") || strings.Contains(lower, "credit") {
		if strings.Contains(lower, "movie") || strings.Contains(lower, "rental") {
			if disputing {
				return h.disputeResult()
			}
			return reply(billingChargeQuestion)
		}
		return reply(billingGeneralReply)
	}

	return reply(billingPrompt)
}

func (h *BillingDisputeHandler) disputeResult() Result {
	res := reply(billingDisputeReply)
	res.Action = &ActionRequest{
		Amount: movieRentalAmount,
		Reason: movieRentalReason,
	}
	return res
}

// ApplyAction records the supervisor's decision on the credit request.
func (h *BillingDisputeHandler) ApplyAction(req ActionRequest, approved bool) string {
	if approved {
		return fmt.Sprintf("Supervisor approved the credit. $%.2f will be applied to your next bill.", req.Amount)
	}
	return "Supervisor declined the credit request."
}
