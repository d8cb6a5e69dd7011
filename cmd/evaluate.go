package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [bid-id]",
	Short: "Score a vendor bid against its RFP",
	Long: `Scores a bid's document against every requirement and technical
specification of its RFP, aggregates the results into one 0-100 score, and
stores the analysis. Scores between 40 and 70 open a high-priority review; a
security assessment runs after every evaluation.

With --rfp instead of a bid id, evaluates every registered bid for that RFP
in turn; one bid's failure does not stop the rest.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().String("rfp", "", "evaluate all bids for this RFP")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rfpID, _ := cmd.Flags().GetString("rfp")
	if (len(args) == 0) == (rfpID == "") {
		return eris.New("evaluate: pass exactly one of a bid id or --rfp")
	}

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	if len(args) == 1 {
		bidID := args[0]
		if err := svc.evaluator.EvaluateBid(ctx, bidID); err != nil {
			return eris.Wrapf(err, "evaluate: bid %s", bidID)
		}
		printEvaluation(cmd, svc, bidID)
		return nil
	}

	bids, err := svc.store.ListBids(ctx, rfpID)
	if err != nil {
		return eris.Wrapf(err, "evaluate: list bids for rfp %s", rfpID)
	}
	if len(bids) == 0 {
		fmt.Println("No bids registered for this RFP.")
		return nil
	}

	log := zap.L().With(zap.String("command", "evaluate"), zap.String("rfp_id", rfpID))
	var failed int
	for _, bid := range bids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := svc.evaluator.EvaluateBid(ctx, bid.ID); err != nil {
			failed++
			log.Warn("bid evaluation failed",
				zap.String("bid_id", bid.ID),
				zap.String("vendor", bid.VendorName),
				zap.Error(err),
			)
			continue
		}
		printEvaluation(cmd, svc, bid.ID)
	}

	fmt.Printf("Evaluated %d of %d bids\n", len(bids)-failed, len(bids))
	if failed > 0 {
		return eris.Errorf("evaluate: %d of %d bids failed", failed, len(bids))
	}
	return nil
}

func printEvaluation(cmd *cobra.Command, svc *services, bidID string) {
	analysis, err := svc.store.GetEvaluation(cmd.Context(), bidID)
	if err != nil || analysis == nil {
		return
	}
	bid, err := svc.store.GetBid(cmd.Context(), bidID)
	if err != nil {
		return
	}
	fmt.Printf("%-30s %6.2f  (%d requirements, %d specs, %d gaps)\n",
		bid.VendorName, analysis.OverallScore,
		len(analysis.RequirementCompliance), len(analysis.TechnicalCompliance),
		len(analysis.GapAnalysis))
}
