// Package core provides amount parsing and rupee formatting.
//
// Amounts are whole rupees. Parsing tolerates currency markers and
// thousands separators as typed by users in chat.
package core

import (
	"strconv"
	"strings"
)

// ParseAmount converts user-typed text such as "₹2,000", "rs. 500" or "299"
// into a non-negative whole amount.
//
// Examples:
//
//	ParseAmount("299")     -> 299, nil
//	ParseAmount("₹2,000")  -> 2000, nil
//	ParseAmount("Rs. 150") -> 150, nil
//	ParseAmount("-5")      -> 0, ErrInvalidAmount
//
// Amounts above MaxAmount are rejected.
func ParseAmount(s string) (int64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "₹")
	s = strings.TrimPrefix(s, "rs")
	s = strings.TrimPrefix(s, ".")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v > MaxAmount {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// FormatRupees formats an amount with thousands separators, e.g. "₹47,299".
func FormatRupees(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	if neg {
		return "-₹" + b.String()
	}
	return "₹" + b.String()
}
