package chat

import (
	"fmt"
	"strings"
	"time"

	"budgetbot/internal/core"
)

var preferenceKeys = []struct{ key, label string }{
	{"age_group", "Age Group"},
	{"shopping_behavior", "Shopping Behavior"},
	{"top_categories", "Top Categories"},
}

// systemPrompt builds the system entry from the plan snapshot. doc may be nil.
func systemPrompt(doc *core.Document, now time.Time) string {
	var b strings.Builder

	b.WriteString("You are Amazon Budget Assistant, a helpful AI chatbot specialized in Amazon shopping budget management and smart spending advice.\n\n")
	b.WriteString("Help users stay within their budget, make informed purchases, find deals and alternatives, track spending across categories and update their budget categories.\n\n")
	fmt.Fprintf(&b, "Current Month: %s\n", now.Format("January 2006"))
	fmt.Fprintf(&b, "User has budget planning system in place: %s\n\n", yesNo(doc != nil && doc.Plan != nil))

	b.WriteString("Users can change a category by writing requests such as \"reduce my Books & Media budget to 299\" or \"set groceries budget to 2000\". Such requests are confirmed before they are saved.\n\n")

	b.WriteString("Available budget categories:\n")
	for _, c := range core.CanonicalCategories {
		b.WriteString("- " + c + "\n")
	}

	if doc != nil && doc.Plan != nil {
		b.WriteString("\nUser's Current Budget Plan:\n")
		fmt.Fprintf(&b, "- Total Monthly Budget: %s\n", core.FormatRupees(doc.Plan.TotalBudget))
		for _, name := range doc.Plan.Names() {
			fmt.Fprintf(&b, "- %s: %s\n", name, core.FormatRupees(doc.Plan.Categories[name]))
		}
		if len(doc.Plan.Recommendations) > 0 {
			b.WriteString("\nPlan recommendations:\n")
			for _, r := range doc.Plan.Recommendations {
				b.WriteString("- " + r + "\n")
			}
		}
	}

	if doc != nil {
		if answers := doc.Answers(); len(answers) > 0 {
			b.WriteString("\nUser Preferences:\n")
			for _, p := range preferenceKeys {
				fmt.Fprintf(&b, "- %s: %s\n", p.label, preference(answers[p.key]))
			}
		}
	}

	b.WriteString("\nGuidelines:\n")
	b.WriteString("- Always use the budget data shown above and respect the user's budget constraints.\n")
	b.WriteString("- Suggest budget-friendly alternatives when items are expensive.\n")
	b.WriteString("- Be friendly and encouraging. Keep responses concise (2-4 sentences) and use bullet points for multiple suggestions.\n")
	b.WriteString("- If asked about topics unrelated to Amazon shopping or budgeting, politely redirect the conversation.\n")
	return b.String()
}

func preference(v any) string {
	switch t := v.(type) {
	case nil:
		return "Not specified"
	case string:
		if t == "" {
			return "Not specified"
		}
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
