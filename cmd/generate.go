package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"docgen/internal/generate"
	"docgen/internal/render"
)

var (
	flagResults int
	flagFormat  string
	flagOutDir  string
)

var generateCmd = &cobra.Command{
	Use:   "generate <brief>",
	Short: "Synthesize a new document from a brief and retrieved context",
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

		gen := newGenerator(newSearcher(st, cfg, log), cfg, log)
		doc, err := gen.Generate(context.Background(), generate.Request{
			Brief:         args[0],
			SearchResults: flagResults,
			Format:        flagFormat,
		})
		if err != nil {
			return err
		}

		fmt.Println(doc.Title)
		fmt.Println()
		if rendered, err := glamour.Render(doc.Body, "dark"); err == nil {
			fmt.Print(rendered)
		} else {
			fmt.Println(doc.Body)
		}
		fmt.Println("Citations:")
		for _, id := range doc.Citations {
			fmt.Printf("  - %s\n", id)
		}

		if flagFormat != "" {
			artifact, err := render.NewMarkdown(flagOutDir).Render(doc)
			if err != nil {
				return err
			}
			fmt.Printf("\nArtifact written to %s\n", artifact)
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().IntVar(&flagResults, "results", 0, "number of supporting search results (default from config)")
	generateCmd.Flags().StringVar(&flagFormat, "format", "", "output format to render (e.g. markdown)")
	generateCmd.Flags().StringVar(&flagOutDir, "out", "out", "artifact output directory")
	rootCmd.AddCommand(generateCmd)
}
