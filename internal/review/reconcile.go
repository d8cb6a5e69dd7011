package review

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/verisource/procure-cli/internal/model"
)

// ReconcileWrite is the set of analysis fields a completed review writes
// back to the bid's stored evaluation. A nil field is left untouched; a
// non-nil field overwrites, even with an empty value. The store applies the
// whole write and the review update in one transaction.
type ReconcileWrite struct {
	BidID string

	RequirementCompliance map[string]model.ComplianceScore
	TechnicalCompliance   map[string]model.ComplianceScore
	Strengths             *[]string
	Weaknesses            *[]string
	GapAnalysis           *[]model.GapItem

	// OverallScore also refreshes the bid's cached total score.
	OverallScore *float64
}

// Empty reports whether the write would change nothing.
func (w *ReconcileWrite) Empty() bool {
	return w.RequirementCompliance == nil &&
		w.TechnicalCompliance == nil &&
		w.Strengths == nil &&
		w.Weaknesses == nil &&
		w.GapAnalysis == nil &&
		w.OverallScore == nil
}

// Reconciler turns an accepted assessment into a write against the bid's
// stored records. Each review type has its own reconciler; dispatch is by
// type, and an unregistered type reconciles to nothing.
type Reconciler interface {
	ReviewType() model.ReviewType
	Reconcile(review *model.HumanReview, assessment map[string]any) (*ReconcileWrite, error)
}

// BidEvaluationReconciler maps an accepted bid-evaluation assessment onto
// the bid's AnalysisResult, field by field. Only keys present in the
// assessment are written.
type BidEvaluationReconciler struct{}

func (BidEvaluationReconciler) ReviewType() model.ReviewType {
	return model.ReviewTypeBidEvaluation
}

func (BidEvaluationReconciler) Reconcile(review *model.HumanReview, assessment map[string]any) (*ReconcileWrite, error) {
	write := &ReconcileWrite{BidID: review.BidID}

	if raw, ok := assessment["requirement_compliance"]; ok {
		var scores map[string]model.ComplianceScore
		if err := decodeField(raw, &scores); err != nil {
			return nil, eris.Wrap(err, "review: decode requirement_compliance")
		}
		if scores == nil {
			scores = map[string]model.ComplianceScore{}
		}
		write.RequirementCompliance = scores
	}
	if raw, ok := assessment["technical_compliance"]; ok {
		var scores map[string]model.ComplianceScore
		if err := decodeField(raw, &scores); err != nil {
			return nil, eris.Wrap(err, "review: decode technical_compliance")
		}
		if scores == nil {
			scores = map[string]model.ComplianceScore{}
		}
		write.TechnicalCompliance = scores
	}
	if raw, ok := assessment["strengths"]; ok {
		var items []string
		if err := decodeField(raw, &items); err != nil {
			return nil, eris.Wrap(err, "review: decode strengths")
		}
		write.Strengths = &items
	}
	if raw, ok := assessment["weaknesses"]; ok {
		var items []string
		if err := decodeField(raw, &items); err != nil {
			return nil, eris.Wrap(err, "review: decode weaknesses")
		}
		write.Weaknesses = &items
	}
	if raw, ok := assessment["gap_analysis"]; ok {
		var items []model.GapItem
		if err := decodeField(raw, &items); err != nil {
			return nil, eris.Wrap(err, "review: decode gap_analysis")
		}
		write.GapAnalysis = &items
	}
	if raw, ok := assessment["overall_score"]; ok {
		score, ok := asFloat(raw)
		if !ok {
			return nil, eris.Errorf("review: overall_score is %T, want number", raw)
		}
		write.OverallScore = &score
	}

	return write, nil
}

// SecurityAssessmentReconciler accepts the verdict without writing back.
// Security compliance rows keep the AI values until per-requirement
// reconciliation is specified.
type SecurityAssessmentReconciler struct{}

func (SecurityAssessmentReconciler) ReviewType() model.ReviewType {
	return model.ReviewTypeSecurityAssessment
}

func (SecurityAssessmentReconciler) Reconcile(review *model.HumanReview, assessment map[string]any) (*ReconcileWrite, error) {
	zap.L().Debug("review: security assessment reconciliation is a no-op", zap.String("review_id", review.ID))
	return nil, nil
}

// RiskAssessmentReconciler accepts the verdict without writing back.
type RiskAssessmentReconciler struct{}

func (RiskAssessmentReconciler) ReviewType() model.ReviewType {
	return model.ReviewTypeRiskAssessment
}

func (RiskAssessmentReconciler) Reconcile(review *model.HumanReview, assessment map[string]any) (*ReconcileWrite, error) {
	zap.L().Debug("review: risk assessment reconciliation is a no-op", zap.String("review_id", review.ID))
	return nil, nil
}

// SentimentAnalysisReconciler accepts the verdict without writing back.
type SentimentAnalysisReconciler struct{}

func (SentimentAnalysisReconciler) ReviewType() model.ReviewType {
	return model.ReviewTypeSentimentAnalysis
}

func (SentimentAnalysisReconciler) Reconcile(review *model.HumanReview, assessment map[string]any) (*ReconcileWrite, error) {
	zap.L().Debug("review: sentiment analysis reconciliation is a no-op", zap.String("review_id", review.ID))
	return nil, nil
}

// decodeField converts a loosely typed assessment value into a concrete
// model type via JSON.
func decodeField(raw any, out any) error {
	buf, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, out)
}
