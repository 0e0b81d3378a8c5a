package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"auto_social_publisher/config"
	"auto_social_publisher/generator"
)

var (
	verbose    bool
	configPath string
	logger     = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "social-publisher",
	Short: "Generate, approve and publish social media posts from a Google Docs brief",
	Long: `Fetches the schema and system-prompt documents, asks the model for a post,
generates and hosts an image, sends the preview for approval and publishes
the approved post to the selected platform.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config.yaml (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logs")
	rootCmd.AddCommand(runCmd, authCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildLLM(ctx context.Context, cfg config.LLMConfig) (generator.LLMClient, error) {
	if cfg.Provider == "" {
		return nil, fmt.Errorf("llm config missing; please set llm.provider/model/api_key in config")
	}
	settings := &generator.LLMSettings{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
	}
	switch cfg.Provider {
	case "openai":
		return generator.NewOpenAILLMFromConfig(settings)
	case "deepseek":
		// OpenAI-compatible endpoint; base_url is mandatory.
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(settings)
	case "gemini":
		return generator.NewGeminiLLMFromConfig(ctx, settings)
	case "mock":
		return generator.MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.Provider)
	}
}
