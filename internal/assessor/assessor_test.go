package assessor

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/verisource/procure-cli/internal/model"
	"github.com/verisource/procure-cli/internal/review"
)

func init() {
	// Replace global logger with a no-op to avoid nil pointer panics in tests.
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeStore struct {
	bids         map[string]*model.VendorBid
	rfps         map[string]*model.RFP
	requirements []model.SecurityRequirement
	existing     []model.BidSecurityCompliance

	createdReqs []model.SecurityRequirement
	saved       []*model.BidSecurityCompliance
	saveErr     error
}

func (f *fakeStore) GetBid(_ context.Context, bidID string) (*model.VendorBid, error) {
	b, ok := f.bids[bidID]
	if !ok {
		return nil, eris.New("bid not found")
	}
	return b, nil
}

func (f *fakeStore) GetRFP(_ context.Context, rfpID string) (*model.RFP, error) {
	r, ok := f.rfps[rfpID]
	if !ok {
		return nil, eris.New("rfp not found")
	}
	return r, nil
}

func (f *fakeStore) ListSecurityRequirements(context.Context, string) ([]model.SecurityRequirement, error) {
	return f.requirements, nil
}

func (f *fakeStore) CreateSecurityRequirements(_ context.Context, reqs []model.SecurityRequirement) error {
	f.createdReqs = append(f.createdReqs, reqs...)
	f.requirements = append(f.requirements, reqs...)
	return nil
}

func (f *fakeStore) ListSecurityCompliance(context.Context, string) ([]model.BidSecurityCompliance, error) {
	return f.existing, nil
}

func (f *fakeStore) SaveSecurityCompliance(_ context.Context, c *model.BidSecurityCompliance) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, c)
	return nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(context.Context, string) (string, error) {
	return f.text, f.err
}

// fakeGateway dispatches on prompt content, mirroring how the assessor's
// prompts differ per analysis.
type fakeGateway struct {
	respond func(prompt string) (string, error)
	calls   int
}

func (f *fakeGateway) Analyze(_ context.Context, prompt, _ string) (string, error) {
	f.calls++
	return f.respond(prompt)
}

type fakeReviews struct {
	created []review.CreateParams
	err     error
}

func (f *fakeReviews) CreateReviewRequest(_ context.Context, params review.CreateParams) (*model.HumanReview, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, params)
	return &model.HumanReview{ID: "rev-1"}, nil
}

func testStore() *fakeStore {
	return &fakeStore{
		bids: map[string]*model.VendorBid{
			"bid-1": {ID: "bid-1", RFPID: "rfp-1", VendorName: "Acme Networks", DocumentRef: "bids/acme.txt", IsProcessed: true},
		},
		rfps: map[string]*model.RFP{
			"rfp-1": {ID: "rfp-1", Title: "Statewide Network Upgrade", DocumentRef: "rfps/network.txt"},
		},
	}
}

func TestAssessSecurityCompliance_ScoresAgainstThreshold(t *testing.T) {
	st := testStore()
	st.requirements = []model.SecurityRequirement{
		{ID: "sec-1", RFPID: "rfp-1", Framework: model.FrameworkNIST, Title: "Access control"},
		{ID: "sec-2", RFPID: "rfp-1", Framework: model.FrameworkNIST, Title: "Audit logging"},
	}
	gw := &fakeGateway{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Access control") {
			return `{"score": 85, "explanation": "MFA described", "evidence": "Section 4", "status": "compliant"}`, nil
		}
		return `{"score": 40, "explanation": "No log retention", "evidence": "", "status": "partial"}`, nil
	}}
	reviews := &fakeReviews{}
	a := New(st, &fakeExtractor{text: "bid text"}, gw, reviews)

	require.NoError(t, a.AssessSecurityCompliance(context.Background(), "bid-1"))

	require.Len(t, st.saved, 2)
	byReq := map[string]*model.BidSecurityCompliance{}
	for _, c := range st.saved {
		byReq[c.RequirementID] = c
	}
	assert.True(t, byReq["sec-1"].IsCompliant)
	assert.Equal(t, 85, byReq["sec-1"].Score)
	assert.False(t, byReq["sec-2"].IsCompliant)

	require.Len(t, reviews.created, 1)
	assert.Equal(t, model.ReviewTypeSecurityAssessment, reviews.created[0].ReviewType)
	assert.Equal(t, "bid-1", reviews.created[0].BidID)
	results, ok := reviews.created[0].AIAssessment["requirement_compliance"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, results, 2)
}

func TestAssessSecurityCompliance_SkipsAlreadyAssessed(t *testing.T) {
	st := testStore()
	st.requirements = []model.SecurityRequirement{
		{ID: "sec-1", RFPID: "rfp-1", Title: "Access control"},
		{ID: "sec-2", RFPID: "rfp-1", Title: "Audit logging"},
	}
	st.existing = []model.BidSecurityCompliance{{ID: "c-1", BidID: "bid-1", RequirementID: "sec-1", Score: 90}}
	gw := &fakeGateway{respond: func(string) (string, error) {
		return `{"score": 75, "explanation": "ok", "evidence": "", "status": "compliant"}`, nil
	}}
	a := New(st, &fakeExtractor{text: "bid text"}, gw, nil)

	require.NoError(t, a.AssessSecurityCompliance(context.Background(), "bid-1"))

	assert.Equal(t, 1, gw.calls)
	require.Len(t, st.saved, 1)
	assert.Equal(t, "sec-2", st.saved[0].RequirementID)
}

func TestAssessSecurityCompliance_ExtractsRequirementsWhenMissing(t *testing.T) {
	st := testStore()
	gw := &fakeGateway{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Extract all security requirements") {
			return `[{"framework": "NIST 800-53", "requirement_id": "AC-2", "title": "Account Management", "description": "Manage system accounts", "compliance_level": "Recommended"}]`, nil
		}
		return `{"score": 90, "explanation": "covered", "evidence": "Appendix B", "status": "compliant"}`, nil
	}}
	a := New(st, &fakeExtractor{text: "doc text"}, gw, nil)

	require.NoError(t, a.AssessSecurityCompliance(context.Background(), "bid-1"))

	require.Len(t, st.createdReqs, 1)
	assert.Equal(t, model.FrameworkNIST, st.createdReqs[0].Framework)
	assert.Equal(t, "AC-2", st.createdReqs[0].ControlID)
	assert.Equal(t, model.ComplianceRecommended, st.createdReqs[0].ComplianceLevel)
	require.Len(t, st.saved, 1)
	assert.True(t, st.saved[0].IsCompliant)
}

func TestAssessSecurityCompliance_NothingToAssess(t *testing.T) {
	st := testStore()
	gw := &fakeGateway{respond: func(string) (string, error) { return `[]`, nil }}
	reviews := &fakeReviews{}
	a := New(st, &fakeExtractor{text: "doc text"}, gw, reviews)

	require.NoError(t, a.AssessSecurityCompliance(context.Background(), "bid-1"))

	assert.Empty(t, st.saved)
	assert.Empty(t, reviews.created)
}

func TestAssessSecurityCompliance_GatewayFailureDegradesToZero(t *testing.T) {
	st := testStore()
	st.requirements = []model.SecurityRequirement{{ID: "sec-1", RFPID: "rfp-1", Title: "Access control"}}
	gw := &fakeGateway{respond: func(string) (string, error) {
		return "", eris.New("all providers failed")
	}}
	a := New(st, &fakeExtractor{text: "bid text"}, gw, nil)

	require.NoError(t, a.AssessSecurityCompliance(context.Background(), "bid-1"))

	require.Len(t, st.saved, 1)
	assert.Equal(t, 0, st.saved[0].Score)
	assert.False(t, st.saved[0].IsCompliant)
	assert.Contains(t, st.saved[0].Notes, "Error:")
}

func TestAssessSecurityCompliance_ScoreClamped(t *testing.T) {
	st := testStore()
	st.requirements = []model.SecurityRequirement{{ID: "sec-1", RFPID: "rfp-1", Title: "Access control"}}
	gw := &fakeGateway{respond: func(string) (string, error) {
		return `{"score": 140, "explanation": "", "evidence": "", "status": "compliant"}`, nil
	}}
	a := New(st, &fakeExtractor{text: "bid text"}, gw, nil)

	require.NoError(t, a.AssessSecurityCompliance(context.Background(), "bid-1"))
	require.Len(t, st.saved, 1)
	assert.Equal(t, 100, st.saved[0].Score)
}

func TestMapFramework(t *testing.T) {
	assert.Equal(t, model.FrameworkNIST, mapFramework("NIST 800-53"))
	assert.Equal(t, model.FrameworkFedRAMP, mapFramework("fedramp moderate"))
	assert.Equal(t, model.FrameworkCMMC, mapFramework("CMMC Level 2"))
	assert.Equal(t, model.FrameworkOther, mapFramework("state privacy act"))
	assert.Equal(t, model.FrameworkOther, mapFramework(""))
}

func TestMapComplianceLevel(t *testing.T) {
	assert.Equal(t, model.ComplianceRecommended, mapComplianceLevel("Recommended"))
	assert.Equal(t, model.ComplianceOptional, mapComplianceLevel("optional"))
	assert.Equal(t, model.ComplianceRequired, mapComplianceLevel("required"))
	assert.Equal(t, model.ComplianceRequired, mapComplianceLevel("mandatory"))
}

func TestPredictRisks(t *testing.T) {
	st := testStore()
	gw := &fakeGateway{respond: func(string) (string, error) {
		return `{"overall_risk_score": 62, "risks": [{"category": "Delivery", "title": "Compressed timeline", "severity": "High", "explanation": "90-day cutover", "mitigation": "Phase the rollout"}]}`, nil
	}}
	reviews := &fakeReviews{}
	a := New(st, &fakeExtractor{text: "bid text"}, gw, reviews)

	assessment, err := a.PredictRisks(context.Background(), "bid-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Networks", assessment.VendorName)
	assert.Equal(t, 62.0, assessment.OverallRiskScore)
	require.Len(t, assessment.Risks, 1)
	assert.Equal(t, "High", assessment.Risks[0].Severity)

	require.Len(t, reviews.created, 1)
	assert.Equal(t, model.ReviewTypeRiskAssessment, reviews.created[0].ReviewType)
	assert.Equal(t, 62.0, reviews.created[0].AIAssessment["overall_risk_score"])
}

func TestPredictRisks_GatewayError(t *testing.T) {
	st := testStore()
	gw := &fakeGateway{respond: func(string) (string, error) {
		return "", eris.New("all providers failed")
	}}
	a := New(st, &fakeExtractor{text: "bid text"}, gw, nil)

	_, err := a.PredictRisks(context.Background(), "bid-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "risk analysis")
}

func TestAnalyzeSentiment(t *testing.T) {
	st := testStore()
	gw := &fakeGateway{respond: func(string) (string, error) {
		return `{"overall_sentiment": "neutral", "confidence_score": 78, "key_findings": [{"finding": "Hedged delivery dates", "evidence": "Section 2", "significance": "medium", "recommendation": "Clarify milestones"}]}`, nil
	}}
	reviews := &fakeReviews{}
	a := New(st, &fakeExtractor{text: "bid text"}, gw, reviews)

	analysis, err := a.AnalyzeSentiment(context.Background(), "bid-1")
	require.NoError(t, err)
	assert.Equal(t, "neutral", analysis.OverallSentiment)
	assert.Equal(t, 78.0, analysis.ConfidenceScore)
	require.Len(t, analysis.KeyFindings, 1)

	require.Len(t, reviews.created, 1)
	assert.Equal(t, model.ReviewTypeSentimentAnalysis, reviews.created[0].ReviewType)
}

func TestAnalyzeSentiment_MissingSentimentRejected(t *testing.T) {
	st := testStore()
	gw := &fakeGateway{respond: func(string) (string, error) {
		return `{"confidence_score": 50}`, nil
	}}
	a := New(st, &fakeExtractor{text: "bid text"}, gw, nil)

	_, err := a.AnalyzeSentiment(context.Background(), "bid-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overall_sentiment")
}

func TestEvaluationPriority(t *testing.T) {
	assert.Equal(t, model.ReviewPriorityMedium, evaluationPriority(39.9))
	assert.Equal(t, model.ReviewPriorityHigh, evaluationPriority(40))
	assert.Equal(t, model.ReviewPriorityHigh, evaluationPriority(69.9))
	assert.Equal(t, model.ReviewPriorityMedium, evaluationPriority(70))
	assert.Equal(t, model.ReviewPriorityMedium, evaluationPriority(95))
}

func TestEvaluationHook_OpensReviewAndRunsAssessment(t *testing.T) {
	st := testStore()
	gw := &fakeGateway{respond: func(string) (string, error) { return `[]`, nil }}
	reviews := &fakeReviews{}
	hook := &EvaluationHook{
		Assessor: New(st, &fakeExtractor{text: "doc text"}, gw, nil),
		Reviews:  reviews,
	}

	bid := st.bids["bid-1"]
	hook.EvaluationCompleted(context.Background(), bid, &model.AnalysisResult{
		ID:           "ar-1",
		BidID:        "bid-1",
		OverallScore: 55.0,
		Strengths:    []string{"fast delivery"},
	})

	require.Len(t, reviews.created, 1)
	created := reviews.created[0]
	assert.Equal(t, model.ReviewTypeBidEvaluation, created.ReviewType)
	assert.Equal(t, model.ReviewPriorityHigh, created.Priority)
	assert.Equal(t, 55.0, created.AIAssessment["overall_score"])
	assert.NotContains(t, created.AIAssessment, "id")
	assert.NotContains(t, created.AIAssessment, "bid_id")
	// Extraction found nothing, so the security pass is a quiet no-op.
	assert.Equal(t, 1, gw.calls)
}

func TestEvaluationHook_ReviewFailureIsSwallowed(t *testing.T) {
	reviews := &fakeReviews{err: eris.New("queue unavailable")}
	hook := &EvaluationHook{Reviews: reviews}

	hook.EvaluationCompleted(context.Background(),
		&model.VendorBid{ID: "bid-1", RFPID: "rfp-1"},
		&model.AnalysisResult{OverallScore: 80},
	)
	assert.Empty(t, reviews.created)
}
