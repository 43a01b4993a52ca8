package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docgen/internal/config"
	"docgen/internal/embedder"
	"docgen/internal/generate"
	"docgen/internal/llm"
	"docgen/internal/logging"
	"docgen/internal/search"
	"docgen/internal/store"
)

var (
	flagConfig     string
	flagDB         string
	flagOllama     string
	flagEmbedModel string
	flagLLMModel   string
)

var rootCmd = &cobra.Command{
	Use:   "docgen",
	Short: "Semantic search and document synthesis over technical reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagOllama, "ollama", "", "ollama base URL (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagEmbedModel, "embed-model", "", "embedding model (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagLLMModel, "llm-model", "", "generative model (default from config)")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	if flagOllama != "" {
		cfg.Ollama.URL = flagOllama
	}
	if flagEmbedModel != "" {
		cfg.Ollama.EmbedModel = flagEmbedModel
	}
	if flagLLMModel != "" {
		cfg.Ollama.LLMModel = flagLLMModel
	}
	return cfg, nil
}

func newLogger(cfg *config.AppConfig) (*zap.SugaredLogger, error) {
	return logging.New(cfg.LogMode)
}

func openStore(cfg *config.AppConfig) (*store.SQLiteStore, error) {
	return store.Open(cfg.DBPath)
}

func newEmbedder(cfg *config.AppConfig) *embedder.OllamaEmbedder {
	return embedder.NewOllamaEmbedder(
		cfg.Ollama.URL,
		cfg.Ollama.EmbedModel,
		cfg.Ollama.EmbedDimensions,
		cfg.Ollama.EmbedTimeout(),
	)
}

func newCompleter(cfg *config.AppConfig) *llm.OllamaClient {
	return llm.NewOllamaClient(
		cfg.Ollama.URL,
		cfg.Ollama.LLMModel,
		cfg.Ollama.LLMMaxTokens,
		cfg.Ollama.LLMTemperature,
		cfg.Ollama.LLMTimeout(),
	)
}

func newSearcher(st store.Store, cfg *config.AppConfig, log *zap.SugaredLogger) *search.Searcher {
	return search.New(st, newEmbedder(cfg), cfg.SearchTopN, log)
}

func newGenerator(searcher *search.Searcher, cfg *config.AppConfig, log *zap.SugaredLogger) *generate.Generator {
	return generate.New(searcher, newCompleter(cfg), cfg.Retry, cfg.GenerateResults, log)
}
