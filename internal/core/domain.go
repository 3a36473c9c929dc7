package core

import (
	"errors"
	"fmt"
	"strings"
)

// Canonical budget categories.
const (
	Electronics = "Electronics & Accessories"
	Groceries   = "Groceries & Household Items"
	Fashion     = "Fashion & Beauty"
	Books       = "Books & Media"
	HomeKitchen = "Home & Kitchen"
	Emergency   = "Emergency/Unplanned Budget"
)

// Reserved plan keys that never count as categories.
const (
	KeyTotalBudget     = "total_budget"
	KeyRecommendations = "recommendations"
)

const (
	Increase    Action = "increase"
	Decrease    Action = "decrease"
	SetAbsolute Action = "set"
)

type (
	Action string

	// UpdateRequest is a single parsed budget change. Amount is always the
	// target value written to the category.
	UpdateRequest struct {
		Category string
		Amount   int64
		Action   Action
	}

	// Version is a monotonically comparable store marker. Zero means the store
	// holds no plan yet.
	Version int64
)

// MaxAmount is the largest amount a single category may hold. It keeps plan
// totals far from int64 overflow.
const MaxAmount int64 = 1_000_000_000_000

// CanonicalCategories lists the six fixed categories in display order.
var CanonicalCategories = []string{
	Electronics,
	Groceries,
	Fashion,
	Books,
	HomeKitchen,
	Emergency,
}

var (
	ErrNoPlan        = errors.New("no existing budget plan")
	ErrPersist       = errors.New("persist budget plan")
	ErrGeneration    = errors.New("language generation failed")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyCategory = errors.New("empty category")
	ErrInvalidAction = errors.New("invalid action")
)

// UnresolvedCategoryError is returned in strict mode when a phrase maps to no
// known category.
type UnresolvedCategoryError struct {
	Phrase string
}

func (e *UnresolvedCategoryError) Error() string {
	return fmt.Sprintf("unresolved category %q", e.Phrase)
}

// IsReservedKey reports whether key is one of the non-category plan keys.
func IsReservedKey(key string) bool {
	return key == KeyTotalBudget || key == KeyRecommendations
}

// IsCanonical reports whether name is one of the six canonical categories.
func IsCanonical(name string) bool {
	for _, c := range CanonicalCategories {
		if c == name {
			return true
		}
	}
	return false
}

func (a Action) Valid() bool {
	switch a {
	case Increase, Decrease, SetAbsolute:
		return true
	}
	return false
}

// Verb returns the word used in user-facing confirmation prompts.
func (a Action) Verb() string {
	switch a {
	case Increase:
		return "increase"
	case Decrease:
		return "reduce"
	default:
		return "set"
	}
}

func (r UpdateRequest) Validate() error {
	category := strings.TrimSpace(r.Category)
	if category == "" {
		return ErrEmptyCategory
	}
	if IsReservedKey(category) {
		return fmt.Errorf("category %q is reserved: %w", category, ErrEmptyCategory)
	}
	if r.Amount < 0 || r.Amount > MaxAmount {
		return ErrInvalidAmount
	}
	if !r.Action.Valid() {
		return ErrInvalidAction
	}
	return nil
}
