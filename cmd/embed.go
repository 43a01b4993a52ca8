package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"docgen/internal/ingest"
)

var (
	flagWorkers int
	flagReembed bool
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed pending chunks via the configured embedding model",
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

		if flagWorkers > 0 {
			cfg.EmbedDriver.Workers = flagWorkers
		}
		if flagReembed {
			if err := st.ResetEmbeddings(); err != nil {
				return fmt.Errorf("reset embeddings: %w", err)
			}
			fmt.Println("All chunks reset to pending for re-embedding.")
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		driver := ingest.NewDriver(st, newEmbedder(cfg), cfg.EmbedDriver.Workers, cfg.EmbedDriver.MaxChars, log)

		start := time.Now()
		stats, err := driver.Run(ctx)
		elapsed := time.Since(start)

		fmt.Printf("Embedded %d/%d chunks in %s (%d failed, %d skipped)\n",
			stats.Embedded, stats.Total, elapsed.Round(time.Millisecond), stats.Failed, stats.Skipped)
		return err
	},
}

func init() {
	embedCmd.Flags().IntVar(&flagWorkers, "workers", 0, "concurrent embedding requests (default from config)")
	embedCmd.Flags().BoolVar(&flagReembed, "reembed", false, "reset all chunks and embed from scratch")
	rootCmd.AddCommand(embedCmd)
}
