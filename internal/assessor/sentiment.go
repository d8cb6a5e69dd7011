package assessor

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/verisource/procure-cli/internal/gateway"
	"github.com/verisource/procure-cli/internal/model"
)

const sentimentPrompt = `Analyze the sentiment and language patterns in this vendor bid.
Identify potential issues such as:

1. Uncertainty or lack of confidence (e.g., hedging language, excessive qualifiers)
2. Overcommitment (e.g., unrealistic promises, lack of specificity in delivery)
3. Ambiguity (e.g., vague terms, undefined scope)
4. Reluctance (e.g., excessive caveats, limitations)
5. Negative sentiment (e.g., complaints about requirements, defensive tone)

For each section of the bid, identify the overall sentiment and confidence level.
Also identify any concerning patterns or red flags.

Format your response as valid JSON with the following structure:
{
    "overall_sentiment": string,
    "confidence_score": number,
    "key_findings": [
        {
            "finding": string,
            "evidence": string,
            "significance": string,
            "recommendation": string
        }
    ]
}`

// AnalyzeSentiment inspects the language of a bid for hedging,
// overcommitment, and other patterns worth a closer read.
func (a *Assessor) AnalyzeSentiment(ctx context.Context, bidID string) (*model.SentimentAnalysis, error) {
	bid, err := a.store.GetBid(ctx, bidID)
	if err != nil {
		return nil, eris.Wrapf(err, "assessor: load bid %s", bidID)
	}

	bidText, err := a.extractor.Extract(ctx, bid.DocumentRef)
	if err != nil {
		return nil, eris.Wrap(err, "assessor: extract bid text")
	}

	var raw struct {
		OverallSentiment string                   `json:"overall_sentiment"`
		ConfidenceScore  float64                  `json:"confidence_score"`
		KeyFindings      []model.SentimentFinding `json:"key_findings"`
	}
	if err := gateway.AnalyzeJSON(ctx, a.gw, sentimentPrompt, bidText, &raw); err != nil {
		return nil, eris.Wrap(err, "assessor: sentiment analysis")
	}
	if raw.OverallSentiment == "" {
		return nil, eris.New("assessor: sentiment response missing overall_sentiment")
	}

	analysis := &model.SentimentAnalysis{
		BidID:            bid.ID,
		VendorName:       bid.VendorName,
		AnalyzedAt:       time.Now().UTC(),
		OverallSentiment: raw.OverallSentiment,
		ConfidenceScore:  raw.ConfidenceScore,
		KeyFindings:      raw.KeyFindings,
	}

	zap.L().Info("assessor: sentiment analyzed",
		zap.String("bid_id", bid.ID),
		zap.String("overall_sentiment", analysis.OverallSentiment),
		zap.Float64("confidence_score", analysis.ConfidenceScore),
	)

	if a.reviews != nil {
		findings := make([]any, 0, len(analysis.KeyFindings))
		for _, f := range analysis.KeyFindings {
			findings = append(findings, map[string]any{
				"finding":        f.Finding,
				"evidence":       f.Evidence,
				"significance":   f.Significance,
				"recommendation": f.Recommendation,
			})
		}
		a.openReview(ctx, model.ReviewTypeSentimentAnalysis, bid.RFPID, bid.ID, map[string]any{
			"overall_sentiment": analysis.OverallSentiment,
			"confidence_score":  analysis.ConfidenceScore,
			"key_findings":      findings,
		})
	}
	return analysis, nil
}
