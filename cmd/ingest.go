package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"docgen/internal/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Ingest pre-chunked report files (JSON) into the store",
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

		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("create db directory: %w", err)
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		path := args[0]
		info, err := os.Stat(path)
		if err != nil {
			return err
		}

		if info.IsDir() {
			stats, err := ingest.IngestDir(st, path, log)
			if err != nil {
				return err
			}
			fmt.Printf("Ingested %d/%d files (%d chunks, %d failed)\n",
				stats.Ingested, stats.Total, stats.Chunks, stats.Failed)
			fmt.Println("Run 'docgen embed' to embed the new chunks.")
			return nil
		}

		reportID, n, err := ingest.IngestFile(st, path)
		if err != nil {
			return err
		}
		fmt.Printf("Ingested report %s with %d chunks\n", reportID, n)
		fmt.Println("Run 'docgen embed' to embed the new chunks.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
