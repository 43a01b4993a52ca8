package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"docgen/internal/search"
)

var (
	flagTopN int
	flagYear int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Semantically search the ingested reports",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		q := search.Query{Text: args[0], TopN: flagTopN}
		if flagYear != 0 {
			year := flagYear
			q.Year = &year
		}

		results, err := newSearcher(st, cfg, log).Search(context.Background(), q)
		if err != nil {
			return err
		}

		if len(results) == 0 {
			fmt.Println("No results.")
			return nil
		}
		for i, r := range results {
			fmt.Printf("%2d. [%.2f] %s — %s (pages %s)\n", i+1, r.Score, r.ReportID, r.Heading, r.PageRange)
			fmt.Printf("    %s\n", snippet(r.Text, 160))
		}
		return nil
	},
}

func snippet(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func init() {
	searchCmd.Flags().IntVar(&flagTopN, "top-n", 0, "number of results (default from config)")
	searchCmd.Flags().IntVar(&flagYear, "year", 0, "restrict to reports from this year")
	rootCmd.AddCommand(searchCmd)
}
