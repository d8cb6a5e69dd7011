package evaluator

import (
	"context"
	"fmt"
	"strings"

	"github.com/verisource/procure-cli/internal/gateway"
	"github.com/verisource/procure-cli/internal/model"
)

// rubricBands is the fixed five-band scoring rubric shared by every
// compliance prompt.
const rubricBands = `Based on the following bid text, evaluate compliance on a scale of 0-100, where:
0 = Not addressed at all
25 = Poorly addressed
50 = Partially addressed
75 = Mostly addressed
100 = Fully addressed

Also provide a brief explanation for your score.

Respond with a JSON object in the following format:
{
    "score": 75,
    "explanation": "The vendor addresses this item by..."
}`

// ScoreRequirement scores a bid's compliance with one requirement. It never
// returns an error: gateway failure or unparsable output yields a zero score
// carrying the failure message, so one bad item cannot abort the batch. The
// second return value is false for such degraded results.
func ScoreRequirement(ctx context.Context, gw gateway.Gateway, req model.Requirement, bidText string) (model.ComplianceScore, bool) {
	prompt := fmt.Sprintf(`You are an expert in government procurement evaluation. Analyze how well the vendor's bid complies with the following requirement:

Requirement ID: %s
Category: %s
Priority: %s
Description: %s

%s`, req.ID, req.Category, req.Priority, req.Description, rubricBands)

	return scoreItem(ctx, gw, prompt, bidText)
}

// ScoreTechnicalSpecification scores a bid's compliance with one technical
// specification. Same soft-failure contract as ScoreRequirement.
func ScoreTechnicalSpecification(ctx context.Context, gw gateway.Gateway, spec model.TechnicalSpecification, bidText string) (model.ComplianceScore, bool) {
	var b strings.Builder
	fmt.Fprintf(&b, `You are an expert in technical evaluation for government procurement. Analyze how well the vendor's bid complies with the following technical specification:

Specification ID: %s
Name: %s
Category: %s
Description: %s
`, spec.ID, spec.Name, spec.Category, spec.Description)

	if spec.MeasurementUnit != "" {
		fmt.Fprintf(&b, "Measurement Unit: %s\n", spec.MeasurementUnit)
	}
	if spec.MinValue != "" {
		fmt.Fprintf(&b, "Minimum Value: %s\n", spec.MinValue)
	}
	if spec.MaxValue != "" {
		fmt.Fprintf(&b, "Maximum Value: %s\n", spec.MaxValue)
	}
	if spec.IsMandatory {
		b.WriteString("Mandatory: Yes\n")
	} else {
		b.WriteString("Mandatory: No\n")
	}

	b.WriteString("\n")
	b.WriteString(rubricBands)

	return scoreItem(ctx, gw, b.String(), bidText)
}

func scoreItem(ctx context.Context, gw gateway.Gateway, prompt, bidText string) (model.ComplianceScore, bool) {
	var result model.ComplianceScore
	if err := gateway.AnalyzeJSON(ctx, gw, prompt, bidText, &result); err != nil {
		return model.ComplianceScore{
			Score:       0,
			Explanation: "Error analyzing compliance: " + err.Error(),
		}, false
	}

	if result.Score < 0 {
		result.Score = 0
	}
	if result.Score > 100 {
		result.Score = 100
	}
	return result, true
}
