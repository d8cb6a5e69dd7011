package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verisource/procure-cli/internal/model"
)

func TestBidEvaluationReconciler_PartialAssessment(t *testing.T) {
	review := &model.HumanReview{ID: "rev-1", BidID: "bid-1"}
	assessment := map[string]any{
		"overall_score": 65.5,
		"strengths":     []any{"pricing"},
	}

	write, err := BidEvaluationReconciler{}.Reconcile(review, assessment)
	require.NoError(t, err)
	require.NotNil(t, write)

	assert.Equal(t, "bid-1", write.BidID)
	require.NotNil(t, write.OverallScore)
	assert.Equal(t, 65.5, *write.OverallScore)
	require.NotNil(t, write.Strengths)
	assert.Equal(t, []string{"pricing"}, *write.Strengths)

	// Absent keys stay untouched.
	assert.Nil(t, write.RequirementCompliance)
	assert.Nil(t, write.TechnicalCompliance)
	assert.Nil(t, write.Weaknesses)
	assert.Nil(t, write.GapAnalysis)
}

func TestBidEvaluationReconciler_ComplianceMaps(t *testing.T) {
	review := &model.HumanReview{BidID: "bid-1"}
	assessment := map[string]any{
		"requirement_compliance": map[string]any{
			"req-1": map[string]any{"score": 90, "explanation": "verified on site"},
		},
		"technical_compliance": map[string]any{},
	}

	write, err := BidEvaluationReconciler{}.Reconcile(review, assessment)
	require.NoError(t, err)

	assert.Equal(t, 90, write.RequirementCompliance["req-1"].Score)
	assert.Equal(t, "verified on site", write.RequirementCompliance["req-1"].Explanation)
	// Present but empty map overwrites with empty, not nil.
	require.NotNil(t, write.TechnicalCompliance)
	assert.Empty(t, write.TechnicalCompliance)
}

func TestBidEvaluationReconciler_EmptyListOverwrites(t *testing.T) {
	write, err := BidEvaluationReconciler{}.Reconcile(
		&model.HumanReview{BidID: "bid-1"},
		map[string]any{"weaknesses": []any{}},
	)
	require.NoError(t, err)
	require.NotNil(t, write.Weaknesses)
	assert.Empty(t, *write.Weaknesses)
	assert.False(t, write.Empty())
}

func TestBidEvaluationReconciler_BadScoreType(t *testing.T) {
	_, err := BidEvaluationReconciler{}.Reconcile(
		&model.HumanReview{BidID: "bid-1"},
		map[string]any{"overall_score": "eighty"},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overall_score")
}

func TestBidEvaluationReconciler_UnrelatedKeysEmptyWrite(t *testing.T) {
	write, err := BidEvaluationReconciler{}.Reconcile(
		&model.HumanReview{BidID: "bid-1"},
		map[string]any{"reviewer_mood": "skeptical"},
	)
	require.NoError(t, err)
	assert.True(t, write.Empty())
}

func TestPlaceholderReconcilersWriteNothing(t *testing.T) {
	review := &model.HumanReview{ID: "rev-1", BidID: "bid-1"}
	assessment := map[string]any{"overall_risk_score": 40.0}

	for _, r := range []Reconciler{
		SecurityAssessmentReconciler{},
		RiskAssessmentReconciler{},
		SentimentAnalysisReconciler{},
	} {
		write, err := r.Reconcile(review, assessment)
		assert.NoError(t, err)
		assert.Nil(t, write)
	}
}
