package core

// CategoryAmount is one line of a plan summary.
type CategoryAmount struct {
	Name   string
	Amount int64
}

// PlanSummary is a display-ordered view of a plan.
type PlanSummary struct {
	Total      int64
	ByCategory []CategoryAmount
}

// Summarize returns the plan's categories in display order with the total.
func Summarize(p *Plan) PlanSummary {
	if p == nil {
		return PlanSummary{}
	}
	s := PlanSummary{Total: p.TotalBudget}
	for _, name := range p.Names() {
		s.ByCategory = append(s.ByCategory, CategoryAmount{Name: name, Amount: p.Categories[name]})
	}
	return s
}
