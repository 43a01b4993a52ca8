// Package render turns synthesized documents into concrete artifacts.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docgen/internal/generate"
)

// MarkdownRenderer writes documents as markdown files into a directory.
type MarkdownRenderer struct {
	outDir string
}

var _ generate.Renderer = (*MarkdownRenderer)(nil)

// NewMarkdown creates a renderer writing into outDir.
func NewMarkdown(outDir string) *MarkdownRenderer {
	return &MarkdownRenderer{outDir: outDir}
}

// Render writes the document and returns the artifact path. Only the
// markdown format token is supported; anything else is a render error.
func (r *MarkdownRenderer) Render(doc *generate.Document) (string, error) {
	switch strings.ToLower(doc.Format) {
	case "", "md", "markdown":
	default:
		return "", fmt.Errorf("unsupported output format %q", doc.Format)
	}

	if err := os.MkdirAll(r.outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	fmt.Fprintf(&b, "_Generated %s_\n\n", doc.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	b.WriteString(doc.Body)
	b.WriteString("\n\n## Quellen\n\n")
	for _, src := range doc.Sources {
		fmt.Fprintf(&b, "- %s — %s (Seiten %s, Ähnlichkeit %.2f)\n",
			src.ReportID, src.Heading, src.PageRange, src.Similarity)
	}

	path := filepath.Join(r.outDir, doc.ID+".md")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}
