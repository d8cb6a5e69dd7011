package assessor

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/verisource/procure-cli/internal/gateway"
	"github.com/verisource/procure-cli/internal/model"
)

const riskPrompt = `Analyze this vendor bid for the following risk categories:
1. Financial stability risks (e.g., insufficient resources, pricing inconsistencies)
2. Technical capability risks (e.g., unproven technology, insufficient expertise)
3. Delivery timeline risks (e.g., unrealistic deadlines, resource constraints)
4. Compliance risks (e.g., regulatory issues, certification gaps)
5. Security risks (e.g., data protection vulnerabilities, access control issues)

For each risk identified:
- Provide a clear title
- Rate the severity (High, Medium, Low)
- Provide a detailed explanation
- Suggest mitigation strategies

Format your response as valid JSON with the following structure:
{
    "overall_risk_score": number,
    "risks": [
        {
            "category": string,
            "title": string,
            "severity": string,
            "explanation": string,
            "mitigation": string
        }
    ]
}`

// PredictRisks analyzes a bid for financial, technical, delivery,
// compliance, and security risks.
func (a *Assessor) PredictRisks(ctx context.Context, bidID string) (*model.RiskAssessment, error) {
	bid, err := a.store.GetBid(ctx, bidID)
	if err != nil {
		return nil, eris.Wrapf(err, "assessor: load bid %s", bidID)
	}
	if _, err := a.store.GetRFP(ctx, bid.RFPID); err != nil {
		return nil, eris.Wrapf(err, "assessor: load rfp %s", bid.RFPID)
	}

	bidText, err := a.extractor.Extract(ctx, bid.DocumentRef)
	if err != nil {
		return nil, eris.Wrap(err, "assessor: extract bid text")
	}

	var raw struct {
		OverallRiskScore float64             `json:"overall_risk_score"`
		Risks            []model.RiskFinding `json:"risks"`
	}
	if err := gateway.AnalyzeJSON(ctx, a.gw, riskPrompt, bidText, &raw); err != nil {
		return nil, eris.Wrap(err, "assessor: risk analysis")
	}

	assessment := &model.RiskAssessment{
		BidID:            bid.ID,
		VendorName:       bid.VendorName,
		AnalyzedAt:       time.Now().UTC(),
		OverallRiskScore: raw.OverallRiskScore,
		Risks:            raw.Risks,
	}

	zap.L().Info("assessor: risks predicted",
		zap.String("bid_id", bid.ID),
		zap.Float64("overall_risk_score", assessment.OverallRiskScore),
		zap.Int("risks", len(assessment.Risks)),
	)

	if a.reviews != nil {
		risks := make([]any, 0, len(assessment.Risks))
		for _, r := range assessment.Risks {
			risks = append(risks, map[string]any{
				"category":    r.Category,
				"title":       r.Title,
				"severity":    r.Severity,
				"explanation": r.Explanation,
				"mitigation":  r.Mitigation,
			})
		}
		a.openReview(ctx, model.ReviewTypeRiskAssessment, bid.RFPID, bid.ID, map[string]any{
			"overall_risk_score": assessment.OverallRiskScore,
			"risks":              risks,
		})
	}
	return assessment, nil
}
