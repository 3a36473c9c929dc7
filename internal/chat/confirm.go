package chat

import (
	"strings"
	"unicode"
)

type answer int

const (
	answerOther answer = iota
	answerYes
	answerNo
)

var (
	affirmativeWords = map[string]struct{}{
		"yes": {}, "confirm": {}, "proceed": {}, "ok": {}, "sure": {},
	}
	negativeWords = map[string]struct{}{
		"no": {}, "cancel": {}, "abort": {}, "stop": {},
	}
)

// classify matches whole words only, so "book" is not an "ok". An
// affirmative word wins over a negative one.
func classify(text string) answer {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	result := answerOther
	for _, w := range words {
		if _, ok := affirmativeWords[w]; ok {
			return answerYes
		}
		if _, ok := negativeWords[w]; ok {
			result = answerNo
		}
	}
	return result
}
