package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/verisource/procure-cli/internal/model"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the review workload",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	stats, err := svc.reviews.ComputeStatistics(ctx)
	if err != nil {
		return eris.Wrap(err, "stats")
	}

	fmt.Printf("Total reviews:     %d\n", stats.TotalReviews)
	fmt.Printf("Pending:           %d\n", stats.PendingReviews)
	fmt.Printf("Approved:          %d\n", stats.ApprovedReviews)
	fmt.Printf("Rejected:          %d\n", stats.RejectedReviews)
	fmt.Printf("Modified:          %d\n", stats.ModifiedReviews)
	fmt.Printf("Completion rate:   %.1f%%\n", stats.CompletionRate*100)
	fmt.Printf("Avg completion:    %.1f minutes\n", stats.AverageCompletionTime)
	fmt.Printf("Avg agreement:     %.2f\n", stats.AverageAgreementLevel)

	fmt.Println("\nBy type:")
	for _, t := range model.ReviewTypes {
		fmt.Printf("  %-25s %d\n", t, stats.ReviewsByType[t])
	}
	fmt.Println("\nBy priority:")
	for _, p := range model.ReviewPriorities {
		fmt.Printf("  %-25s %d\n", p, stats.ReviewsByPriority[p])
	}
	return nil
}
