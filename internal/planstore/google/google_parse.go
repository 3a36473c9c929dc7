package google

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"budgetbot/internal/core"
)

const (
	headerKey   = "Key"
	headerValue = "Value"
	keyAnswers  = "questionnaire_answers"

	maxTotalCell int64 = 1 << 60
)

// parseRows converts the A:B key/value matrix into a document. Rows are
// category amounts except for the reserved keys, whose values are JSON.
func parseRows(values [][]interface{}) (*core.Document, error) {
	doc := &core.Document{}
	plan := &core.Plan{Categories: map[string]int64{}}
	found := false

	for i, raw := range values {
		row := toStrings(raw)
		key := safeGet(row, 0)
		val := safeGet(row, 1)
		if key == "" || (i == 0 && strings.EqualFold(key, headerKey)) {
			continue
		}
		switch key {
		case core.KeyTotalBudget:
			n, ok := parseAmountCell(val, maxTotalCell)
			if !ok {
				return nil, fmt.Errorf("row %d: invalid total %q", i+1, val)
			}
			plan.TotalBudget = n
			found = true
		case core.KeyRecommendations:
			if val == "" {
				continue
			}
			if err := json.Unmarshal([]byte(val), &plan.Recommendations); err != nil {
				plan.Recommendations = []string{val}
			}
		case keyAnswers:
			if val != "" && json.Valid([]byte(val)) {
				doc.QuestionnaireAnswers = json.RawMessage(val)
			}
		default:
			n, ok := parseAmountCell(val, core.MaxAmount)
			if !ok {
				return nil, fmt.Errorf("row %d: invalid amount %q for %s", i+1, val, key)
			}
			plan.Categories[key] = n
			found = true
		}
	}
	if !found {
		return nil, core.ErrNoPlan
	}
	doc.Plan = plan
	return doc, nil
}

// encodeRows is the inverse of parseRows, with a header row first.
func encodeRows(doc *core.Document) ([][]interface{}, error) {
	rows := [][]interface{}{{headerKey, headerValue}}
	for _, name := range doc.Plan.Names() {
		rows = append(rows, []interface{}{name, doc.Plan.Categories[name]})
	}
	rows = append(rows, []interface{}{core.KeyTotalBudget, doc.Plan.TotalBudget})

	recs := doc.Plan.Recommendations
	if recs == nil {
		recs = []string{}
	}
	encoded, err := json.Marshal(recs)
	if err != nil {
		return nil, fmt.Errorf("encode recommendations: %w", err)
	}
	rows = append(rows, []interface{}{core.KeyRecommendations, string(encoded)})

	if len(doc.QuestionnaireAnswers) > 0 {
		rows = append(rows, []interface{}{keyAnswers, string(doc.QuestionnaireAnswers)})
	}
	return rows, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// parseAmountCell accepts whole numbers, grouped numbers and decimals, which
// are truncated to whole rupees. Magnitudes above limit are invalid.
func parseAmountCell(s string, limit int64) (int64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	s = strings.TrimPrefix(s, "₹")
	if s == "" {
		return 0, true
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, n >= -limit && n <= limit
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.Abs(f) > float64(limit) {
		return 0, false
	}
	return int64(f), true
}
