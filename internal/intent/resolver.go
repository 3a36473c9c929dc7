package intent

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/elliotchance/pie/v2"
	"gopkg.in/yaml.v3"

	"budgetbot/internal/core"
)

// Synonym maps a lower-case term to a category. A phrase containing the term
// resolves to the category.
type Synonym struct {
	Term     string `yaml:"term"`
	Category string `yaml:"category"`
}

// DefaultSynonyms is consulted in order; the first contained term wins.
var DefaultSynonyms = []Synonym{
	{"books", core.Books},
	{"book", core.Books},
	{"media", core.Books},
	{"electronics", core.Electronics},
	{"electronic", core.Electronics},
	{"accessories", core.Electronics},
	{"grocery", core.Groceries},
	{"groceries", core.Groceries},
	{"household", core.Groceries},
	{"fashion", core.Fashion},
	{"beauty", core.Fashion},
	{"home", core.HomeKitchen},
	{"kitchen", core.HomeKitchen},
	{"emergency", core.Emergency},
	{"unplanned", core.Emergency},
}

var stopwords = []string{"a", "an", "and", "budget", "for", "my", "of", "on", "the", "to"}

// Resolver maps free-text category phrases to category names.
type Resolver struct {
	synonyms []Synonym
	strict   bool
}

type Option func(*Resolver)

// WithStrict makes unresolved phrases an error instead of ad-hoc categories.
func WithStrict(strict bool) Option {
	return func(r *Resolver) { r.strict = strict }
}

// WithSynonyms adds entries consulted before the defaults.
func WithSynonyms(extra []Synonym) Option {
	return func(r *Resolver) {
		r.synonyms = append(normalizeSynonyms(extra), r.synonyms...)
	}
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{synonyms: append([]Synonym(nil), DefaultSynonyms...)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Strict reports whether unresolved phrases are rejected.
func (r *Resolver) Strict() bool { return r.strict }

// Resolve returns the category for phrase. Resolution order: exact canonical
// name, synonym substring, exact name of a live plan category, word overlap
// with a live plan category, then the trimmed phrase itself (or an UnresolvedCategoryError in strict
// mode). live may be nil.
func (r *Resolver) Resolve(phrase string, live *core.Plan) (string, error) {
	raw := strings.Join(strings.Fields(phrase), " ")
	if raw == "" {
		return "", core.ErrEmptyCategory
	}
	lower := strings.ToLower(raw)

	if i := pie.FindFirstUsing(core.CanonicalCategories, func(c string) bool {
		return strings.ToLower(c) == lower
	}); i >= 0 {
		return core.CanonicalCategories[i], nil
	}

	for _, s := range r.synonyms {
		if strings.Contains(lower, s.Term) {
			return s.Category, nil
		}
	}

	names := live.Names()
	if i := pie.FindFirstUsing(names, func(c string) bool {
		return strings.ToLower(c) == lower
	}); i >= 0 {
		return names[i], nil
	}

	words := tokens(lower)
	if len(words) > 0 {
		if i := pie.FindFirstUsing(names, func(c string) bool {
			nameWords := tokens(strings.ToLower(c))
			return pie.Any(words, func(w string) bool { return pie.Contains(nameWords, w) })
		}); i >= 0 {
			return names[i], nil
		}
	}

	if r.strict {
		return "", &core.UnresolvedCategoryError{Phrase: raw}
	}
	return raw, nil
}

// tokens splits on anything that is not a letter or digit and drops stopwords.
func tokens(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return pie.Unique(pie.Filter(fields, func(w string) bool {
		return !pie.Contains(stopwords, w)
	}))
}

func normalizeSynonyms(in []Synonym) []Synonym {
	out := make([]Synonym, 0, len(in))
	for _, s := range in {
		term := strings.ToLower(strings.TrimSpace(s.Term))
		cat := strings.TrimSpace(s.Category)
		if term == "" || cat == "" {
			continue
		}
		out = append(out, Synonym{Term: term, Category: cat})
	}
	return out
}

type synonymFile struct {
	Synonyms []Synonym `yaml:"synonyms"`
}

// LoadSynonyms reads extra synonyms from a YAML file of the form:
//
//	synonyms:
//	  - term: gadgets
//	    category: Electronics & Accessories
func LoadSynonyms(path string) ([]Synonym, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read synonyms file: %w", err)
	}
	var f synonymFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse synonyms file %s: %w", path, err)
	}
	return normalizeSynonyms(f.Synonyms), nil
}
