package chat

import (
	"strings"

	"github.com/elliotchance/pie/v2"
)

// formatReply trims generated text and collapses runs of blank lines.
func formatReply(text string) string {
	lines := pie.Map(strings.Split(strings.TrimSpace(text), "\n"), func(l string) string {
		return strings.TrimRight(l, " \t\r")
	})

	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l == "" && len(out) > 0 && out[len(out)-1] == "" {
			continue
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}
