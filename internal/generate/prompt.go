package generate

import (
	"fmt"
	"strings"

	"docgen/internal/store"
)

// contextTextLimit caps how much of each chunk's text enters the prompt.
const contextTextLimit = 200

// BuildPrompt assembles the synthesis prompt from the brief and the retrieved
// chunks in rank order. The template is fixed and has no hidden randomness:
// identical inputs always produce the identical prompt.
func BuildPrompt(brief string, results []store.SearchResult) string {
	var ctx strings.Builder
	for i, r := range results {
		fmt.Fprintf(&ctx, "Report %d: %s - %s\n", i+1, r.ReportID, r.Heading)
		fmt.Fprintf(&ctx, "Source: Pages %s\n", r.PageRange)
		fmt.Fprintf(&ctx, "Confidence: %.2f\n\n", r.Score)
		ctx.WriteString(truncateRunes(r.Text, contextTextLimit))
		ctx.WriteString("\n---\n")
	}

	var b strings.Builder
	b.WriteString("Technischer Report-Generator. Schreibe einen kurzen technischen Bericht.\n\n")
	fmt.Fprintf(&b, "Thema: %s\n\n", brief)
	fmt.Fprintf(&b, "Kontext:\n%s\n", ctx.String())
	b.WriteString("Schreibe einen kurzen Bericht (max 300 Worte) mit: Einleitung, Analyse, Ergebnis.\n")
	return b.String()
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
