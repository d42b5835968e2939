// Package cli provides the command-line interface for wayword.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/raphaelgruber/wayword-go/internal/client"
	"github.com/raphaelgruber/wayword-go/internal/config"
	"github.com/raphaelgruber/wayword-go/internal/embedding"
	"github.com/raphaelgruber/wayword-go/internal/history"
	"github.com/raphaelgruber/wayword-go/internal/recommend"
	"github.com/raphaelgruber/wayword-go/internal/service"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose    bool
	configPath string

	// Global config and history store
	cfg   config.Config
	store *history.Store

	// Lazy-initialized embedding provider
	provider *embedding.Provider
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "wayword",
	Short: "On-device phrase recall for travelers",
	Long: `Wayword recalls the phrases you are most likely to need right now.

It keeps a timeline of places you visited and the language moments that
happened there, embeds them with local models, and ranks them against your
current intent, location, and time of day. Everything runs on-device.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip store connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		ctx := context.Background()
		store, err = history.NewStore(ctx, history.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
		}, nil)
		if err != nil {
			return fmt.Errorf("connect to timeline store: %w", err)
		}

		if err := store.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			if err := store.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
			}
		}
	},
}

// getProvider builds the embedding provider on first use. Construction is
// cheap; actual model loading happens in Prepare or on first Vector call.
func getProvider() *embedding.Provider {
	if provider != nil {
		return provider
	}

	sources := []embedding.Source{
		embedding.NewContextual(cfg.OllamaHost, cfg.EmbeddingModel, cfg.LanguageModels),
	}
	if cfg.LexiconDir != "" {
		sources = append(sources, embedding.NewStatic(cfg.LexiconDir))
	}

	provider = embedding.NewProvider(nil, nil, sources...)
	return provider
}

// getRecall wires the full recall pipeline from the loaded config.
func getRecall(ctx context.Context) (*service.RecallService, error) {
	engine, err := recommend.NewEngine(cfg.Recommend, getProvider(), nil)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}

	var fallback client.Predictor
	switch cfg.FallbackMode {
	case "http":
		fallback, err = client.NewHTTPPredictor(cfg.FallbackURL)
		if err != nil {
			return nil, fmt.Errorf("init http fallback: %w", err)
		}
	case "bedrock":
		fallback, err = client.NewBedrockPredictor(ctx, cfg.FallbackBedrock)
		if err != nil {
			return nil, fmt.Errorf("init bedrock fallback: %w", err)
		}
	}

	return service.NewRecallService(store, engine, fallback, nil, cfg.HistoryLimit, nil), nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")

	// Add subcommands
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(warmCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
}
