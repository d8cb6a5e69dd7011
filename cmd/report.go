package main

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"

	"github.com/verisource/procure-cli/internal/model"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export a bid comparison workbook for an RFP",
	Long: `Exports an .xlsx workbook comparing all evaluated bids for one RFP:
a comparison sheet ordered by overall score and a gap analysis sheet listing
every identified gap per vendor.`,
	RunE: runReport,
}

func init() {
	f := reportCmd.Flags()
	f.String("rfp", "", "RFP id to report on (required)")
	f.String("output", "bid_comparison.xlsx", "output workbook path")
	rootCmd.AddCommand(reportCmd)
}

// bidReport pairs a bid with its stored analysis, if any.
type bidReport struct {
	Bid      model.VendorBid
	Analysis *model.AnalysisResult
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rfpID, _ := cmd.Flags().GetString("rfp")
	if rfpID == "" {
		return eris.New("report: --rfp is required")
	}
	output, _ := cmd.Flags().GetString("output")

	st, err := newStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	rfp, err := st.GetRFP(ctx, rfpID)
	if err != nil {
		return eris.Wrapf(err, "report: rfp %s", rfpID)
	}
	bids, err := st.ListBids(ctx, rfpID)
	if err != nil {
		return eris.Wrap(err, "report: list bids")
	}
	if len(bids) == 0 {
		return eris.Errorf("report: no bids registered for rfp %s", rfpID)
	}

	reports := make([]bidReport, 0, len(bids))
	for _, bid := range bids {
		analysis, err := st.GetEvaluation(ctx, bid.ID)
		if err != nil {
			return eris.Wrapf(err, "report: evaluation for bid %s", bid.ID)
		}
		reports = append(reports, bidReport{Bid: bid, Analysis: analysis})
	}

	// Highest scored first; unevaluated bids sink to the bottom.
	sort.SliceStable(reports, func(i, j int) bool {
		return reportScore(reports[i]) > reportScore(reports[j])
	})

	wb := xlsx.NewFile()
	if err := writeComparisonSheet(wb, rfp, reports); err != nil {
		return err
	}
	if err := writeGapSheet(wb, reports); err != nil {
		return err
	}
	if err := wb.Save(output); err != nil {
		return eris.Wrapf(err, "report: save %s", output)
	}

	fmt.Printf("Wrote %s (%d bids)\n", output, len(reports))
	return nil
}

func reportScore(r bidReport) float64 {
	if r.Analysis == nil {
		return -1
	}
	return r.Analysis.OverallScore
}

func writeComparisonSheet(wb *xlsx.File, rfp *model.RFP, reports []bidReport) error {
	sheet, err := wb.AddSheet("Bid Comparison")
	if err != nil {
		return eris.Wrap(err, "report: add comparison sheet")
	}

	title := sheet.AddRow()
	title.AddCell().SetString(fmt.Sprintf("Bid Comparison: %s", rfp.Title))

	header := sheet.AddRow()
	for _, h := range []string{
		"Vendor", "Submitted", "Overall Score", "Requirements Scored",
		"Specs Scored", "Strengths", "Weaknesses", "Gaps", "Evaluated",
	} {
		header.AddCell().SetString(h)
	}

	for _, r := range reports {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Bid.VendorName)
		row.AddCell().SetString(r.Bid.SubmittedAt.Format("2006-01-02"))
		if r.Analysis == nil {
			for i := 0; i < 6; i++ {
				row.AddCell().SetString("-")
			}
			row.AddCell().SetString("no")
			continue
		}
		row.AddCell().SetFloat(r.Analysis.OverallScore)
		row.AddCell().SetInt(len(r.Analysis.RequirementCompliance))
		row.AddCell().SetInt(len(r.Analysis.TechnicalCompliance))
		row.AddCell().SetInt(len(r.Analysis.Strengths))
		row.AddCell().SetInt(len(r.Analysis.Weaknesses))
		row.AddCell().SetInt(len(r.Analysis.GapAnalysis))
		row.AddCell().SetString(r.Analysis.AnalyzedAt.Format("2006-01-02"))
	}
	return nil
}

func writeGapSheet(wb *xlsx.File, reports []bidReport) error {
	sheet, err := wb.AddSheet("Gap Analysis")
	if err != nil {
		return eris.Wrap(err, "report: add gap sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Vendor", "Item", "Requirement", "Gap", "Impact"} {
		header.AddCell().SetString(h)
	}

	for _, r := range reports {
		if r.Analysis == nil {
			continue
		}
		for _, gap := range r.Analysis.GapAnalysis {
			row := sheet.AddRow()
			row.AddCell().SetString(r.Bid.VendorName)
			row.AddCell().SetString(gap.Item)
			row.AddCell().SetString(gap.Requirement)
			row.AddCell().SetString(gap.Gap)
			row.AddCell().SetString(gap.Impact)
		}
	}
	return nil
}
