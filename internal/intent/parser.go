// Package intent turns chat text into structured budget update requests.
//
// Parsing is template based: each clause of the input is matched against an
// ordered list of verb templates and the first match wins. Category phrases
// are then resolved to plan categories by the Resolver.
package intent

import (
	"errors"
	"regexp"
	"strings"

	"budgetbot/internal/core"
)

const amountPattern = `(?:₹|rs\.?\s*)?(\d[\d,]*)`

type template struct {
	re          *regexp.Regexp
	action      core.Action
	amountFirst bool
}

var templates = []template{
	{
		re:     regexp.MustCompile(`(?i)\b(?:reduce|decrease|lower|cut)\s+(?:my\s+)?(.+?)\s+(?:budget\s+)?(?:to|by)\s+` + amountPattern),
		action: core.Decrease,
	},
	{
		re:     regexp.MustCompile(`(?i)\b(?:increase|raise|boost|up)\s+(?:my\s+)?(.+?)\s+(?:budget\s+)?(?:to|by)\s+` + amountPattern),
		action: core.Increase,
	},
	{
		re:     regexp.MustCompile(`(?i)\b(?:set|change|update|make)\s+(?:my\s+)?(.+?)\s+(?:budget\s+)?(?:to|at)\s+` + amountPattern),
		action: core.SetAbsolute,
	},
	{
		re:          regexp.MustCompile(`(?i)\b(?:allocate|assign)\s+` + amountPattern + `\s+(?:to|for)\s+(?:my\s+)?(.+?)(?:\s+budget)?\s*[.!?]*$`),
		action:      core.SetAbsolute,
		amountFirst: true,
	},
}

var conjunctions = regexp.MustCompile(`(?i)\s+(?:and|also|then)\s+|,\s+`)

// Clause is one matched template before category resolution.
type Clause struct {
	Phrase string
	Amount int64
	Action core.Action
}

type Parser struct {
	resolver *Resolver
}

func NewParser(resolver *Resolver) *Parser {
	if resolver == nil {
		resolver = NewResolver()
	}
	return &Parser{resolver: resolver}
}

// Clauses splits text on conjunctions and matches each part. Parts that match
// no template are dropped. When no part matches, the unsplit text is tried
// once so category names containing "and" still parse.
func (p *Parser) Clauses(text string) []Clause {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	parts := conjunctions.Split(text, -1)
	var out []Clause
	for _, part := range parts {
		if c, ok := matchClause(part); ok {
			out = append(out, c)
		}
	}
	if len(out) == 0 && len(parts) > 1 {
		if c, ok := matchClause(text); ok {
			out = append(out, c)
		}
	}
	return out
}

func matchClause(s string) (Clause, bool) {
	s = strings.TrimSpace(s)
	for _, t := range templates {
		m := t.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		phrase, amountText := m[1], m[2]
		if t.amountFirst {
			phrase, amountText = m[2], m[1]
		}
		phrase = cleanPhrase(phrase)
		amount, err := core.ParseAmount(amountText)
		if phrase == "" || err != nil {
			continue
		}
		return Clause{Phrase: phrase, Amount: amount, Action: t.action}, true
	}
	return Clause{}, false
}

func cleanPhrase(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "the ") {
		s = strings.TrimSpace(s[4:])
		lower = strings.ToLower(s)
	}
	if strings.HasSuffix(lower, " budget") {
		s = strings.TrimSpace(s[:len(s)-len(" budget")])
	}
	return s
}

// Parse returns the resolved update requests in input order. An empty result
// means the text is not an update command. In strict mode clauses whose
// category cannot be resolved are left out and reported through the returned
// *core.UnresolvedCategoryError (the first one encountered).
func (p *Parser) Parse(text string, live *core.Plan) ([]core.UpdateRequest, error) {
	var (
		out        []core.UpdateRequest
		unresolved error
	)
	for _, c := range p.Clauses(text) {
		category, err := p.resolver.Resolve(c.Phrase, live)
		if err != nil {
			var ue *core.UnresolvedCategoryError
			if errors.As(err, &ue) && unresolved == nil {
				unresolved = ue
			}
			continue
		}
		out = append(out, core.UpdateRequest{Category: category, Amount: c.Amount, Action: c.Action})
	}
	return out, unresolved
}
