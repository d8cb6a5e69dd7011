package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/verisource/procure-cli/internal/model"
	"github.com/verisource/procure-cli/internal/review"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Work the human review queue",
	Long: `Lists pending review requests, shows a review with its AI assessment and
field-level comparison, and records verdicts. APPROVED and MODIFIED verdicts
on bid-linked reviews write the accepted assessment back into the bid's
analysis; REJECTED discards it.`,
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending reviews, highest priority first",
	RunE:  runReviewList,
}

var reviewShowCmd = &cobra.Command{
	Use:   "show <review-id>",
	Short: "Show a review with its linked records and assessment comparison",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewShow,
}

var reviewSubmitCmd = &cobra.Command{
	Use:   "submit <review-id>",
	Short: "Record a reviewer's verdict",
	Long: `Records a verdict on a pending review. --assessment takes a JSON file with
the reviewer's corrected assessment; for MODIFIED verdicts it is what gets
written back, and when omitted the AI assessment is accepted as-is.`,
	Args: cobra.ExactArgs(1),
	RunE: runReviewSubmit,
}

func init() {
	f := reviewListCmd.Flags()
	f.String("assignee", "", "filter by assigned reviewer")
	f.String("priority", "", "filter by priority (low, medium, high, critical)")
	f.String("type", "", "filter by review type (e.g. bid_evaluation)")

	f = reviewSubmitCmd.Flags()
	f.String("reviewer", "", "reviewer recording the verdict (required)")
	f.String("status", "", "verdict: approved, rejected, or modified (required)")
	f.String("assessment", "", "JSON file with the reviewer's corrected assessment")
	f.String("notes", "", "review notes")
	f.String("rationale", "", "decision rationale")
	f.Float64("agreement", -1, "agreement with the AI assessment (0-1)")
	f.Float64("confidence", -1, "reviewer confidence (0-1)")

	reviewCmd.AddCommand(reviewListCmd, reviewShowCmd, reviewSubmitCmd, statsCmd)
	rootCmd.AddCommand(reviewCmd)
}

func runReviewList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	assignee, _ := cmd.Flags().GetString("assignee")
	priority, _ := cmd.Flags().GetString("priority")
	reviewType, _ := cmd.Flags().GetString("type")

	pending, err := svc.reviews.ListPending(ctx, review.PendingFilter{
		AssignedTo: assignee,
		Priority:   model.ReviewPriority(priority),
		ReviewType: model.ReviewType(reviewType),
	})
	if err != nil {
		return eris.Wrap(err, "review list")
	}
	if len(pending) == 0 {
		fmt.Println("No pending reviews.")
		return nil
	}

	fmt.Printf("%-36s %-24s %-8s %-19s %s\n", "ID", "Type", "Priority", "Created", "Assigned To")
	fmt.Println(strings.Repeat("-", 100))
	for _, r := range pending {
		assigned := r.AssignedTo
		if assigned == "" {
			assigned = "-"
		}
		fmt.Printf("%-36s %-24s %-8s %-19s %s\n",
			r.ID, r.ReviewType, r.Priority, r.CreatedAt.Format("2006-01-02 15:04:05"), assigned)
	}
	return nil
}

func runReviewShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	details, err := svc.reviews.ReviewDetails(ctx, args[0])
	if err != nil {
		return eris.Wrap(err, "review show")
	}
	r := details.Review

	fmt.Printf("Review:   %s\n", r.ID)
	fmt.Printf("Type:     %s\n", r.ReviewType)
	fmt.Printf("Status:   %s\n", r.Status)
	fmt.Printf("Priority: %s\n", r.Priority)
	fmt.Printf("Created:  %s\n", r.CreatedAt.Format("2006-01-02 15:04:05"))
	if details.RFP != nil {
		fmt.Printf("RFP:      %s (%s)\n", details.RFP.Title, details.RFP.ID)
	}
	if details.Bid != nil {
		fmt.Printf("Bid:      %s (%s)\n", details.Bid.VendorName, details.Bid.ID)
		if details.BidRFP != nil {
			fmt.Printf("Bid RFP:  %s (%s)\n", details.BidRFP.Title, details.BidRFP.ID)
		}
	}
	if r.CompletedAt != nil {
		fmt.Printf("Completed: %s by %s\n", r.CompletedAt.Format("2006-01-02 15:04:05"), r.CompletedBy)
	}
	if r.ReviewNotes != "" {
		fmt.Printf("Notes:    %s\n", r.ReviewNotes)
	}
	if r.DecisionRationale != "" {
		fmt.Printf("Rationale: %s\n", r.DecisionRationale)
	}

	if len(r.AIAssessment) > 0 {
		fmt.Println("\nAI assessment:")
		printJSON(r.AIAssessment)
	}
	if len(details.Comparison) > 0 {
		fmt.Println("\nAssessment comparison:")
		fields := make([]string, 0, len(details.Comparison))
		for field := range details.Comparison {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			c := details.Comparison[field]
			marker := " "
			if c.Changed {
				marker = "*"
			}
			fmt.Printf("  %s %-30s AI: %-30s Human: %s\n", marker, field, c.AIValue, c.HumanValue)
		}
	}
	return nil
}

func runReviewSubmit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	reviewer, _ := cmd.Flags().GetString("reviewer")
	status, _ := cmd.Flags().GetString("status")
	if reviewer == "" || status == "" {
		return eris.New("review submit: --reviewer and --status are required")
	}
	notes, _ := cmd.Flags().GetString("notes")
	rationale, _ := cmd.Flags().GetString("rationale")

	var assessment map[string]any
	if path, _ := cmd.Flags().GetString("assessment"); path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return eris.Wrapf(err, "review submit: read %s", path)
		}
		if err := json.Unmarshal(buf, &assessment); err != nil {
			return eris.Wrapf(err, "review submit: parse %s", path)
		}
	}

	params := review.SubmitParams{
		ReviewID:        args[0],
		Reviewer:        reviewer,
		Status:          model.ReviewStatus(strings.ToLower(status)),
		HumanAssessment: assessment,
		Notes:           notes,
		Rationale:       rationale,
	}
	if v, _ := cmd.Flags().GetFloat64("agreement"); v >= 0 {
		params.AgreementLevel = &v
	}
	if v, _ := cmd.Flags().GetFloat64("confidence"); v >= 0 {
		params.ConfidenceScore = &v
	}

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	r, err := svc.reviews.SubmitReview(ctx, params)
	if err != nil {
		return eris.Wrap(err, "review submit")
	}

	fmt.Printf("Review %s recorded as %s\n", r.ID, r.Status)
	if r.TimeToComplete != nil {
		fmt.Printf("Time to complete: %.1f minutes\n", *r.TimeToComplete)
	}
	return nil
}

func printJSON(v any) {
	buf, err := json.MarshalIndent(v, "  ", "  ")
	if err != nil {
		return
	}
	fmt.Printf("  %s\n", buf)
}
