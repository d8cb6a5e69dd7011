package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <rfp-id>",
	Short: "Extract requirements and technical specifications from an RFP",
	Long: `Reads the RFP document, extracts requirements and technical
specifications through the LLM gateway, and stores them. Re-running replaces
the prior extraction. A requirement-extraction review request is opened for
the result.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	rfpID := args[0]
	log := zap.L().With(zap.String("command", "analyze"), zap.String("rfp_id", rfpID))
	log.Info("starting RFP analysis")

	if err := svc.analyzer.AnalyzeRFP(ctx, rfpID); err != nil {
		return eris.Wrapf(err, "analyze: rfp %s", rfpID)
	}

	requirements, err := svc.store.ListRequirements(ctx, rfpID)
	if err != nil {
		return eris.Wrap(err, "analyze: list requirements")
	}
	specs, err := svc.store.ListTechSpecs(ctx, rfpID)
	if err != nil {
		return eris.Wrap(err, "analyze: list tech specs")
	}

	fmt.Printf("Extracted %d requirements and %d technical specifications\n", len(requirements), len(specs))
	return nil
}
