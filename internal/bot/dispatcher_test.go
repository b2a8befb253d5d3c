// ABOUTME: Tests for the bot dispatcher and its built-in handlers
// ABOUTME: Covers routing determinism, flow resumption, gated actions and sentiment

package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/support-hub/internal/session"
)

// converse runs a scripted customer conversation through the dispatcher,
// collecting the log the way the hub builds it, and returns the results.
func converse(d *Dispatcher, inputs ...string) (history []session.Message, results []Result) {
	for _, text := range inputs {
		history = append(history, session.Message{
			Sender: session.SenderCustomer, Content: text, Timestamp: time.Now(),
		})
		res := d.Dispatch(text, history)
		for _, line := range res.Replies {
			history = append(history, session.Message{
				Sender: session.SenderBot, Content: line, Timestamp: time.Now(),
			})
		}
		results = append(results, res)
	}
	return history, results
}

func TestDispatcher_ModemFlowStepsInOrder(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{}, nil)

	history, results := converse(d,
		"install modem", "done", "ok", "next", "what now")

	for _, res := range results {
		assert.Nil(t, res.Action)
	}

	var botLines []string
	for _, m := range history {
		if m.Sender == session.SenderBot {
			botLines = append(botLines, m.Content)
		}
	}
	require.Equal(t, modemSteps, botLines)

	// one more turn completes the flow
	res := d.Dispatch("all connected", history)
	require.Len(t, res.Replies, 1)
	assert.Equal(t, modemComplete, res.Replies[0])
}

func TestDispatcher_ModemFlowCancel(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{}, nil)

	history, _ := converse(d, "install modem", "done")
	res := d.Dispatch("stop", history)
	require.Len(t, res.Replies, 1)
	assert.Equal(t, modemCancelled, res.Replies[0])
}

func TestDispatcher_RoutingIsDeterministic(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{}, nil)

	history := []session.Message{
		{Sender: session.SenderCustomer, Content: "install modem"},
		{Sender: session.SenderBot, Content: modemSteps[0]},
	}
	first := d.Dispatch("ok", history)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, d.Dispatch("ok", history))
	}
}

func TestDispatcher_BillingDisputeRaisesGatedCredit(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{}, nil)

	_, results := converse(d, "bill movie", "not me")

	require.Len(t, results, 2)
	assert.Nil(t, results[0].Action)
	require.Len(t, results[0].Replies, 1)
	assert.Equal(t, billingChargeQuestion, results[0].Replies[0])

	action := results[1].Action
	require.NotNil(t, action)
	assert.Equal(t, "billing", action.HandlerName)
	assert.Equal(t, 14.99, action.Amount)
	assert.Contains(t, action.Reason, "Movie Rental Dispute")
}

func TestDispatcher_BillingGeneralQuestionNoAction(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{}, nil)

	_, results := converse(d, "question about my bill")
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Action)
	assert.Equal(t, billingGeneralReply, results[0].Replies[0])
}

func TestDispatcher_TechSupportClearedLine(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{CheckPasses: func() bool { return true }}, nil)

	_, results := converse(d, "my internet is slow", "ok")
	require.Len(t, results, 2)
	assert.Equal(t, techCheckingReply, results[0].Replies[0])
	assert.Equal(t, techClearedReply, results[1].Replies[0])
	assert.Nil(t, results[1].Action)
}

func TestDispatcher_TechSupportDispatchIsGated(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{CheckPasses: func() bool { return false }}, nil)

	_, results := converse(d, "my internet is slow", "ok")
	require.Len(t, results, 2)

	action := results[1].Action
	require.NotNil(t, action)
	assert.Equal(t, "tech_support", action.HandlerName)
	assert.Equal(t, 0.0, action.Amount)
	assert.Equal(t, dispatchReason, action.Reason)
}

func TestDispatcher_TechSupportHandlesEveryRoutedKeyword(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{}, nil)

	// every complaint the dispatcher routes to tech support must start the
	// remote check rather than fall through to the generic prompt
	complaints := []string{
		"my internet keeps dropping",
		"everything is so slow",
		"the connection cuts out",
		"wifi will not stay up",
		"my speed is terrible",
	}
	for _, text := range complaints {
		_, results := converse(d, text)
		require.Len(t, results, 1, text)
		assert.Equal(t, techCheckingReply, results[0].Replies[0], text)
	}
}

func TestDispatcher_GreetingIsDefault(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{}, nil)

	_, results := converse(d, "hello")
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Replies[0], "Welcome to support")

	_, results = converse(d, "qwerty asdf")
	require.Len(t, results, 1)
	assert.Equal(t, helpMenu, results[0].Replies[0])
}

func TestDispatcher_SentimentEscalation(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{}, nil)

	_, results := converse(d, "this is ridiculous, I am fed up")
	require.Len(t, results, 1)
	esc := results[0].Escalation
	require.NotNil(t, esc)
	assert.Equal(t, "Negative sentiment detected", esc.Reason)
	assert.GreaterOrEqual(t, esc.Score, 0.5)

	_, results = converse(d, "hello there")
	assert.Nil(t, results[0].Escalation)
}

func TestDispatcher_ApplyOutcome(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{}, nil)

	approved := d.ApplyOutcome("billing", 14.99, movieRentalReason, true)
	assert.Equal(t, "Supervisor approved the credit. $14.99 will be applied to your next bill.", approved)

	declined := d.ApplyOutcome("billing", 14.99, movieRentalReason, false)
	assert.Equal(t, "Supervisor declined the credit request.", declined)

	dispatch := d.ApplyOutcome("tech_support", 0, dispatchReason, true)
	assert.Contains(t, dispatch, "technician visit has been scheduled")

	// unknown handlers fall back to a generic outcome line
	generic := d.ApplyOutcome("unknown", 0, "", false)
	assert.Equal(t, "Supervisor declined your request.", generic)
}

func TestSentimentScore_CapsAtOne(t *testing.T) {
	score := sentimentScore("angry furious terrible awful useless unacceptable")
	assert.Equal(t, 1.0, score)
	assert.Equal(t, 0.0, sentimentScore("lovely day"))
}
