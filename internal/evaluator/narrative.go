package evaluator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/verisource/procure-cli/internal/gateway"
	"github.com/verisource/procure-cli/internal/model"
)

// Narrative holds the qualitative findings for a bid.
type Narrative struct {
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// AnalyzeNarrative derives top strengths and weaknesses of a bid relative to
// the RFP. Gateway failure yields an empty Narrative; the prompt asks for
// five of each but any cardinality is accepted.
func AnalyzeNarrative(ctx context.Context, gw gateway.Gateway, requirementsText, specsText, bidText string) Narrative {
	prompt := fmt.Sprintf(`You are an expert in government procurement evaluation. Based on the vendor's bid, identify the top strengths and weaknesses compared to the RFP requirements and technical specifications.

RFP Requirements:
%s

Technical Specifications:
%s

Analyze the bid and provide:
1. Top 5 strengths of the proposal
2. Top 5 weaknesses or gaps in the proposal

Respond with a JSON object in the following format:
{
    "strengths": ["...", "..."],
    "weaknesses": ["...", "..."]
}`, requirementsText, specsText)

	var result Narrative
	if err := gateway.AnalyzeJSON(ctx, gw, prompt, bidText, &result); err != nil {
		zap.L().Warn("evaluator: strengths/weaknesses analysis failed", zap.Error(err))
		return Narrative{}
	}
	return result
}

// AnalyzeGaps itemizes requirements and specifications the bid does not
// fully address. Gateway failure yields an empty list; a failed gap analysis
// never blocks the strengths/weaknesses result or the batch.
func AnalyzeGaps(ctx context.Context, gw gateway.Gateway, requirementsText, specsText, bidText string) []model.GapItem {
	prompt := fmt.Sprintf(`You are an expert in government procurement evaluation. Identify specific gaps between the RFP requirements and the vendor's bid.

RFP Requirements:
%s

Technical Specifications:
%s

Provide a list of specific requirements or specifications that are not fully addressed in the bid, explaining what is missing.

Respond with a JSON array in the following format:
[
    {
        "item": "Network throughput requirement",
        "requirement": "10Gbps minimum throughput",
        "gap": "Vendor only offers 5Gbps throughput",
        "impact": "Critical - would not meet basic connectivity needs"
    }
]`, requirementsText, specsText)

	var result []model.GapItem
	if err := gateway.AnalyzeJSON(ctx, gw, prompt, bidText, &result); err != nil {
		zap.L().Warn("evaluator: gap analysis failed", zap.Error(err))
		return nil
	}
	return result
}
