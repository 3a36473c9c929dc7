package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Plan holds per-category amounts plus the reserved total and recommendations.
type Plan struct {
	Categories      map[string]int64
	TotalBudget     int64
	Recommendations []string
}

// Document is the persisted unit: opaque questionnaire answers and the plan.
type Document struct {
	QuestionnaireAnswers json.RawMessage `json:"questionnaire_answers,omitempty"`
	Plan                 *Plan           `json:"budget_plan"`
}

// NewPlan returns a plan with the given categories and a recomputed total.
func NewPlan(categories map[string]int64) *Plan {
	p := &Plan{Categories: make(map[string]int64, len(categories))}
	for k, v := range categories {
		if IsReservedKey(k) {
			continue
		}
		p.Categories[k] = v
	}
	p.Recalculate()
	return p
}

// Sum returns the sum of all category amounts.
func (p *Plan) Sum() int64 {
	var total int64
	for k, v := range p.Categories {
		if IsReservedKey(k) {
			continue
		}
		total += v
	}
	return total
}

// Recalculate sets TotalBudget to the sum of categories and returns it.
func (p *Plan) Recalculate() int64 {
	p.TotalBudget = p.Sum()
	return p.TotalBudget
}

// Amount returns the amount for a category and whether it exists.
func (p *Plan) Amount(category string) (int64, bool) {
	if p == nil || p.Categories == nil {
		return 0, false
	}
	v, ok := p.Categories[category]
	return v, ok
}

// Set writes amount into category, creating the key if needed, and recomputes
// the total. It returns the previous amount.
func (p *Plan) Set(category string, amount int64) int64 {
	if p.Categories == nil {
		p.Categories = make(map[string]int64)
	}
	prev := p.Categories[category]
	p.Categories[category] = amount
	p.Recalculate()
	return prev
}

// Names returns category names in a stable order: canonical categories first
// in display order, then any others alphabetically.
func (p *Plan) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.Categories))
	for _, c := range CanonicalCategories {
		if _, ok := p.Categories[c]; ok {
			names = append(names, c)
		}
	}
	var extra []string
	for k := range p.Categories {
		if !IsCanonical(k) && !IsReservedKey(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	c := &Plan{
		Categories:  make(map[string]int64, len(p.Categories)),
		TotalBudget: p.TotalBudget,
	}
	for k, v := range p.Categories {
		c.Categories[k] = v
	}
	if p.Recommendations != nil {
		c.Recommendations = append([]string(nil), p.Recommendations...)
	}
	return c
}

// MarshalJSON flattens categories next to the reserved keys.
func (p Plan) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Categories)+2)
	for k, v := range p.Categories {
		if IsReservedKey(k) {
			continue
		}
		out[k] = v
	}
	out[KeyTotalBudget] = p.TotalBudget
	recs := p.Recommendations
	if recs == nil {
		recs = []string{}
	}
	out[KeyRecommendations] = recs
	return json.Marshal(out)
}

// UnmarshalJSON accepts integer, float and numeric string amounts. A string
// recommendations value is treated as a single recommendation.
func (p *Plan) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := Plan{Categories: make(map[string]int64, len(raw))}
	for key, value := range raw {
		switch key {
		case KeyTotalBudget:
			n, err := decodeAmount(value, maxTotal)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			out.TotalBudget = n
		case KeyRecommendations:
			recs, err := decodeRecommendations(value)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			out.Recommendations = recs
		default:
			n, err := decodeAmount(value, MaxAmount)
			if err != nil {
				return fmt.Errorf("category %q: %w", key, err)
			}
			out.Categories[key] = n
		}
	}
	*p = out
	return nil
}

// maxTotal bounds a decoded total_budget, which may sum many categories.
const maxTotal int64 = 1 << 60

func decodeAmount(raw json.RawMessage, limit int64) (int64, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, err
	}
	var s string
	switch t := v.(type) {
	case nil:
		return 0, nil
	case json.Number:
		s = t.String()
	case string:
		s = strings.ReplaceAll(strings.TrimSpace(t), ",", "")
	default:
		return 0, ErrInvalidAmount
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		if i > limit || i < -limit {
			return 0, ErrInvalidAmount
		}
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if math.IsNaN(f) || math.Abs(f) > float64(limit) {
		return 0, ErrInvalidAmount
	}
	return int64(f), nil
}

func decodeRecommendations(raw json.RawMessage) ([]string, error) {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return nil, nil
		}
		return []string{single}, nil
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	return nil, errors.New("expected a list of strings")
}

// ParseDocument decodes a persisted document. A document without a plan is
// reported as ErrNoPlan.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode budget document: %w", err)
	}
	if doc.Plan == nil {
		return nil, ErrNoPlan
	}
	return &doc, nil
}

func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := &Document{Plan: d.Plan.Clone()}
	if d.QuestionnaireAnswers != nil {
		c.QuestionnaireAnswers = append(json.RawMessage(nil), d.QuestionnaireAnswers...)
	}
	return c
}

// Answers decodes the questionnaire answers into a generic map. Unknown
// shapes yield an empty map.
func (d *Document) Answers() map[string]any {
	out := map[string]any{}
	if d == nil || len(d.QuestionnaireAnswers) == 0 {
		return out
	}
	_ = json.Unmarshal(d.QuestionnaireAnswers, &out)
	return out
}
