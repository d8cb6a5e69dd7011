package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verisource/procure-cli/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config.yaml",
	Long: `Writes a config.yaml with documented defaults to the current directory.
API keys are left empty; set them in the file or via PROCURE_* environment
variables (e.g. PROCURE_ANTHROPIC_KEY).`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite an existing config.yaml")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")

	const path = "config.yaml"
	if _, err := os.Stat(path); err == nil && !force {
		return eris.Errorf("init: %s already exists (use --force to overwrite)", path)
	}

	starter := config.Config{
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: "procure.db",
			MaxConns:    10,
			MinConns:    2,
		},
		Documents: config.DocumentsConfig{Dir: "documents"},
		Anthropic: config.AnthropicConfig{Model: "claude-sonnet-4-5-20250929"},
		Perplexity: config.PerplexityConfig{
			BaseURL: "https://api.perplexity.ai",
			Model:   "sonar-pro",
		},
		Gateway: config.GatewayConfig{
			Providers:       []string{"anthropic", "perplexity", "simulated"},
			CallTimeoutSecs: 30,
			RatePerMinute:   60,

			RetryMaxAttempts:        3,
			RetryBackoffMs:          500,
			BreakerFailureThreshold: 5,
			BreakerResetSecs:        60,
		},
		Evaluator: config.EvaluatorConfig{
			MaxTextChars:  10000,
			MaxConcurrent: 5,
			ChunkSize:     2000,
			ChunkOverlap:  200,
		},
		Review: config.ReviewConfig{DefaultPriority: "medium"},
		Log:    config.LogConfig{Level: "info", Format: "json"},
	}

	buf, err := yaml.Marshal(&starter)
	if err != nil {
		return eris.Wrap(err, "init: marshal config")
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return eris.Wrapf(err, "init: write %s", path)
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}
