package assessor

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/verisource/procure-cli/internal/model"
	"github.com/verisource/procure-cli/internal/review"
)

// EvaluationHook reacts to a committed bid evaluation: it opens a human
// review over the evaluation and kicks off the security compliance
// assessment. Both are best effort; a failure here never unwinds the
// evaluation that triggered it.
type EvaluationHook struct {
	Assessor *Assessor
	Reviews  ReviewOpener
}

func (h *EvaluationHook) EvaluationCompleted(ctx context.Context, bid *model.VendorBid, analysis *model.AnalysisResult) {
	if h.Reviews != nil {
		assessment := evaluationAssessment(analysis)
		_, err := h.Reviews.CreateReviewRequest(ctx, review.CreateParams{
			ReviewType:   model.ReviewTypeBidEvaluation,
			AIAssessment: assessment,
			RFPID:        bid.RFPID,
			BidID:        bid.ID,
			Priority:     evaluationPriority(analysis.OverallScore),
		})
		if err != nil {
			zap.L().Warn("assessor: failed to open evaluation review",
				zap.String("bid_id", bid.ID),
				zap.Error(err),
			)
		}
	}

	if h.Assessor != nil {
		if err := h.Assessor.AssessSecurityCompliance(ctx, bid.ID); err != nil {
			zap.L().Warn("assessor: post-evaluation security assessment failed",
				zap.String("bid_id", bid.ID),
				zap.Error(err),
			)
		}
	}
}

// evaluationPriority escalates borderline scores: mid-range evaluations are
// where a human verdict changes outcomes the most.
func evaluationPriority(score float64) model.ReviewPriority {
	if score >= 40 && score < 70 {
		return model.ReviewPriorityHigh
	}
	return model.ReviewPriorityMedium
}

// evaluationAssessment flattens an AnalysisResult into the loosely typed
// assessment map stored on the review. Keys mirror the reconciliation
// contract so an accepted verdict maps straight back.
func evaluationAssessment(analysis *model.AnalysisResult) map[string]any {
	buf, err := json.Marshal(analysis)
	if err != nil {
		return map[string]any{"overall_score": analysis.OverallScore}
	}
	var out map[string]any
	if err := json.Unmarshal(buf, &out); err != nil {
		return map[string]any{"overall_score": analysis.OverallScore}
	}
	delete(out, "id")
	delete(out, "bid_id")
	delete(out, "analyzed_at")
	return out
}
