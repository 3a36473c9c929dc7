package chat

import (
	"fmt"
	"strings"

	"budgetbot/internal/core"
)

const (
	msgCancelled = "Budget update cancelled. Your current budget remains unchanged."
	msgReprompt  = "Please respond with 'yes' to confirm the budget update or 'no' to cancel."
	msgFailed    = "❌ Sorry, I couldn't update your budget. Please try again or adjust your budget manually from the home screen."
	msgNoPlan    = "No existing budget plan found. Please create one first."
	msgApology   = "Sorry, I'm having trouble connecting right now. Please try again! 😅"
	msgReset     = "Conversation reset! How can I help you with your Amazon shopping today?"
	msgNoUpdate  = "Could not find a budget update in that request. Try something like \"reduce books to 500\"."
)

func confirmationMessage(req core.UpdateRequest, current int64) string {
	amount := core.FormatRupees(req.Amount)
	return fmt.Sprintf("I understand you want to %s your %s budget to %s.\n\n"+
		"Current %s budget: %s\n"+
		"New %s budget: %s\n\n"+
		"Would you like me to proceed with this change? Please reply with:\n"+
		"• \"yes\" or \"confirm\" to proceed\n"+
		"• \"no\" or \"cancel\" to cancel",
		req.Action.Verb(), req.Category, amount,
		req.Category, core.FormatRupees(current),
		req.Category, amount)
}

func successMessage(req core.UpdateRequest) string {
	return fmt.Sprintf("✅ Successfully updated your %s budget to %s!\n\n"+
		"Your budget has been saved and updated. You can see the changes in your budget overview.",
		req.Category, core.FormatRupees(req.Amount))
}

func unresolvedMessage(phrase string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I couldn't match %q to a budget category. Please pick one of:\n", phrase)
	for _, c := range core.CanonicalCategories {
		b.WriteString("• " + c + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
