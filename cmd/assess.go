package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Run standalone bid assessments",
	Long: `Runs one of the standalone assessments against a bid: security
compliance, risk prediction, or sentiment analysis. Each assessment opens a
review request of the matching type for a human verdict.`,
}

var assessSecurityCmd = &cobra.Command{
	Use:   "security <bid-id>",
	Short: "Score a bid against the RFP's security requirements",
	Long: `Scores the bid against each of the RFP's security requirements (compliant
at 70 or above). When the RFP has no security requirements on file, they are
first extracted from the RFP document. Requirements already assessed for
this bid are skipped, so re-running only covers new requirements.`,
	Args: cobra.ExactArgs(1),
	RunE: runAssessSecurity,
}

var assessRisksCmd = &cobra.Command{
	Use:   "risks <bid-id>",
	Short: "Predict delivery and compliance risks in a bid",
	Args:  cobra.ExactArgs(1),
	RunE:  runAssessRisks,
}

var assessSentimentCmd = &cobra.Command{
	Use:   "sentiment <bid-id>",
	Short: "Analyze confidence and hedging language in a bid",
	Args:  cobra.ExactArgs(1),
	RunE:  runAssessSentiment,
}

func init() {
	assessCmd.AddCommand(assessSecurityCmd, assessRisksCmd, assessSentimentCmd)
	rootCmd.AddCommand(assessCmd)
}

func runAssessSecurity(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	bidID := args[0]
	if err := svc.assessor.AssessSecurityCompliance(ctx, bidID); err != nil {
		return eris.Wrapf(err, "assess security: bid %s", bidID)
	}

	results, err := svc.store.ListSecurityCompliance(ctx, bidID)
	if err != nil {
		return eris.Wrap(err, "assess security: list results")
	}

	var compliant int
	for _, r := range results {
		if r.IsCompliant {
			compliant++
		}
	}
	fmt.Printf("Security compliance: %d of %d requirements compliant\n", compliant, len(results))
	return nil
}

func runAssessRisks(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	bidID := args[0]
	assessment, err := svc.assessor.PredictRisks(ctx, bidID)
	if err != nil {
		return eris.Wrapf(err, "assess risks: bid %s", bidID)
	}

	fmt.Printf("Vendor:             %s\n", assessment.VendorName)
	fmt.Printf("Overall risk score: %.1f / 100\n", assessment.OverallRiskScore)
	for _, risk := range assessment.Risks {
		fmt.Printf("  [%-6s] %s (%s)\n", risk.Severity, risk.Title, risk.Category)
		if risk.Mitigation != "" {
			fmt.Printf("           mitigation: %s\n", risk.Mitigation)
		}
	}
	return nil
}

func runAssessSentiment(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	bidID := args[0]
	analysis, err := svc.assessor.AnalyzeSentiment(ctx, bidID)
	if err != nil {
		return eris.Wrapf(err, "assess sentiment: bid %s", bidID)
	}

	fmt.Printf("Vendor:     %s\n", analysis.VendorName)
	fmt.Printf("Sentiment:  %s (confidence %.0f)\n", analysis.OverallSentiment, analysis.ConfidenceScore)
	for _, finding := range analysis.KeyFindings {
		fmt.Printf("  - %s\n", finding.Finding)
		if finding.Recommendation != "" {
			fmt.Printf("    %s\n", finding.Recommendation)
		}
	}
	return nil
}
