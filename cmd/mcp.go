package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"docgen/internal/generate"
	"docgen/internal/search"
	"docgen/internal/store"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing report search and synthesis tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	searcher := newSearcher(st, cfg, log)
	gen := newGenerator(searcher, cfg, log)

	s := mcpserver.NewMCPServer("docgen", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(searchReportsTool(), makeSearchHandler(searcher))
	s.AddTool(generateDocumentTool(), makeGenerateHandler(gen))
	s.AddTool(listReportsTool(), makeListReportsHandler(st))

	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func searchReportsTool() mcp.Tool {
	return mcp.NewTool("search_reports",
		mcp.WithDescription("Semantically search the ingested technical reports. Returns the most similar chunks with report IDs, headings, and page ranges."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language query"),
		),
		mcp.WithNumber("top_n",
			mcp.Description("Maximum number of chunks to return (default 5)"),
		),
		mcp.WithNumber("year",
			mcp.Description("Optional publication year filter"),
		),
	)
}

func generateDocumentTool() mcp.Tool {
	return mcp.NewTool("generate_document",
		mcp.WithDescription("Synthesize a new document from a brief, grounded on the most relevant report chunks."),
		mcp.WithString("brief",
			mcp.Required(),
			mcp.Description("The brief describing the document to synthesize"),
		),
		mcp.WithNumber("search_results",
			mcp.Description("Number of supporting chunks to retrieve (default 3)"),
		),
	)
}

func listReportsTool() mcp.Tool {
	return mcp.NewTool("list_reports",
		mcp.WithDescription("List all ingested reports with their year, chunk count, and title."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

// --- Handler factories ---

func makeSearchHandler(searcher *search.Searcher) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}

		q := search.Query{Text: query, TopN: req.GetInt("top_n", 0)}
		if year := req.GetInt("year", 0); year != 0 {
			q.Year = &year
		}

		results, err := searcher.Search(ctx, q)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}

		return mcp.NewToolResultText(formatSearchResults(query, results)), nil
	}
}

func makeGenerateHandler(gen *generate.Generator) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		brief := req.GetString("brief", "")
		if brief == "" {
			return mcp.NewToolResultError("brief is required"), nil
		}

		doc, err := gen.Generate(ctx, generate.Request{
			Brief:         brief,
			SearchResults: req.GetInt("search_results", 0),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("generation failed: %v", err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "## %s\n\n%s\n\n### Citations\n\n", doc.Title, doc.Body)
		for _, src := range doc.Sources {
			fmt.Fprintf(&sb, "- %s (%s — %s, pages %s, similarity %.2f)\n",
				src.ChunkID, src.ReportID, src.Heading, src.PageRange, src.Similarity)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func makeListReportsHandler(st store.Store) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reports, err := st.ListReports()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list reports failed: %v", err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "## Ingested reports (%d)\n\n", len(reports))
		for _, r := range reports {
			title := r.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Fprintf(&sb, "- **%s** (%d, %d chunks) — %s\n", r.ID, r.Year, r.Chunks, title)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- Formatting helpers ---

func formatSearchResults(query string, results []store.SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for query: %q", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search results for %q (%d chunks)\n\n", query, len(results))

	for i, r := range results {
		fmt.Fprintf(&sb, "### Result %d: `%s`\n\n", i+1, r.ChunkID)
		fmt.Fprintf(&sb, "**Report:** %s  \n**Heading:** %s  \n**Pages:** %s  \n**Similarity:** %.2f\n\n",
			r.ReportID, r.Heading, r.PageRange, r.Score)
		fmt.Fprintf(&sb, "%s\n\n", r.Text)
	}

	return sb.String()
}
